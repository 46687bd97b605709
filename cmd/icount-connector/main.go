// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/icount-connector/internal/commands/batch"
	"github.com/tombee/icount-connector/internal/commands/operations"
	"github.com/tombee/icount-connector/internal/commands/run"
	"github.com/tombee/icount-connector/internal/commands/schema"
	"github.com/tombee/icount-connector/internal/log"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	slog.SetDefault(log.New(log.FromEnv()))

	rootCmd := &cobra.Command{
		Use:   "icount-connector",
		Short: "Execute iCount accounting API operations",
		Long: `icount-connector maps structured inputs onto the iCount
accounting/billing REST API: billing documents, customers, and their
contacts.

Credentials are read from the ICOUNT_TOKEN environment variable or a
.env file in the working directory.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(operations.NewCommand())
	rootCmd.AddCommand(schema.NewCommand())
	rootCmd.AddCommand(run.NewCommand())
	rootCmd.AddCommand(batch.NewCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

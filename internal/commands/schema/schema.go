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

// Package schema provides the CLI command describing an operation's
// parameters and response fields.
package schema

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tombee/icount-connector/internal/commands/cmdutil"
	"github.com/tombee/icount-connector/internal/integration/icount"
)

// NewCommand creates the schema command.
func NewCommand() *cobra.Command {
	var asJSON bool
	var credentials bool

	cmd := &cobra.Command{
		Use:   "schema <operation>",
		Short: "Show an operation's parameters",
		Args:  cobra.MaximumNArgs(1),
		Example: `  # Parameters of customer_create
  icount-connector schema customer_create

  # Machine-readable form
  icount-connector schema document_search --json

  # Credential the connector expects
  icount-connector schema --credentials`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if credentials {
				return cmdutil.PrintJSON(cmd.OutOrStdout(), icount.Credentials())
			}
			if len(args) != 1 {
				return fmt.Errorf("operation name required")
			}
			return run(cmd, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the schema as JSON")
	cmd.Flags().BoolVar(&credentials, "credentials", false, "Show the credential schema")

	return cmd
}

func run(cmd *cobra.Command, operation string, asJSON bool) error {
	var c icount.ICountIntegration
	s := c.OperationSchema(operation)
	if s == nil {
		return fmt.Errorf("unknown operation: %s", operation)
	}

	if asJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), s)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n\n", operation, s.Description)

	if len(s.Parameters) > 0 {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PARAMETER\tTYPE\tREQUIRED\tDESCRIPTION")
		for _, p := range s.Parameters {
			desc := p.Description
			if len(p.Options) > 0 {
				desc += " (one of: " + strings.Join(p.Options, ", ") + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", p.Name, p.Type, p.Required, desc)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(s.ResponseFields) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RESPONSE FIELD\tTYPE\tDESCRIPTION")
		for _, f := range s.ResponseFields {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.Type, f.Description)
		}
		return w.Flush()
	}

	return nil
}

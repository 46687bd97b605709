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

// Package batch provides the CLI command running a file of items through
// the dispatcher.
package batch

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/icount-connector/internal/commands/cmdutil"
	"github.com/tombee/icount-connector/internal/operation"
)

// itemSpec is the YAML shape of one batch entry.
type itemSpec struct {
	Resource  string                 `yaml:"resource"`
	Operation string                 `yaml:"operation"`
	Inputs    map[string]interface{} `yaml:"inputs"`
}

// batchSpec is the YAML shape of a batch file.
type batchSpec struct {
	Items []itemSpec `yaml:"items"`
}

// NewCommand creates the batch command.
func NewCommand() *cobra.Command {
	var (
		continueOnFail bool
		showMetrics    bool
	)

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Run a file of items through the dispatcher",
		Long: `Run every item of a YAML batch file, in order.

Each item names a resource, an operation, and its inputs. A failing item
aborts the batch unless --continue-on-fail is set, in which case a
synthetic {error, item} record is appended and processing moves on.

Batch file shape:
  items:
    - resource: customer
      operation: create
      inputs:
        name: Test Company Ltd
    - resource: document
      operation: search
      inputs:
        doctype: invoice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], continueOnFail, showMetrics)
		},
	}

	cmd.Flags().BoolVar(&continueOnFail, "continue-on-fail", false, "Record item failures instead of aborting")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print request metrics after the batch")

	return cmd
}

func run(cmd *cobra.Command, path string, continueOnFail, showMetrics bool) error {
	cmdutil.LoadEnv()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	var spec batchSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(spec.Items) == 0 {
		return fmt.Errorf("batch file has no items")
	}

	items := make([]operation.Item, len(spec.Items))
	for i, it := range spec.Items {
		if it.Resource == "" || it.Operation == "" {
			return fmt.Errorf("item %d: resource and operation are required", i)
		}
		items[i] = operation.Item{
			Resource:  it.Resource,
			Operation: it.Operation,
			Inputs:    it.Inputs,
		}
	}

	connector, err := cmdutil.BuildConnector()
	if err != nil {
		return err
	}

	metrics := operation.NewMetricsCollector()
	dispatcher := operation.NewDispatcher(connector,
		operation.WithContinueOnFail(continueOnFail),
		operation.WithMetrics(metrics),
	)

	records, err := dispatcher.Run(cmd.Context(), items)
	if err != nil {
		return err
	}

	out := make([]interface{}, len(records))
	for i, record := range records {
		out[i] = record.Data
	}
	if err := cmdutil.PrintJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}

	if showMetrics {
		fmt.Fprintln(cmd.ErrOrStderr(), metrics.Summary())
	}
	return nil
}

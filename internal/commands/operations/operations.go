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

// Package operations provides the CLI command listing available operations.
package operations

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tombee/icount-connector/internal/integration/icount"
	"github.com/tombee/icount-connector/internal/operation/api"
)

// NewCommand creates the operations command.
func NewCommand() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List available operations",
		Long: `List the operations the connector can execute.

Each operation is named resource_operation (e.g. customer_create,
document_search) and belongs to a category. Use "schema <operation>" for
its parameters.

Examples:
  # List every operation
  icount-connector operations

  # Only document operations
  icount-connector operations --category documents`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, category)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list operations in this category")

	return cmd
}

func run(cmd *cobra.Command, category string) error {
	// Listing needs no credentials or transport; a zero-value integration
	// serves the catalog.
	var c icount.ICountIntegration
	var ops []api.OperationInfo
	for _, op := range c.Operations() {
		if category != "" && op.Category != category {
			continue
		}
		ops = append(ops, op)
	}
	if len(ops) == 0 {
		return fmt.Errorf("no operations in category %q", category)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATION\tCATEGORY\tTAGS\tDESCRIPTION")
	for _, op := range ops {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			op.Name, op.Category, strings.Join(op.Tags, ","), op.Description)
	}
	return w.Flush()
}

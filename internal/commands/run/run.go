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

// Package run provides the CLI command executing a single operation.
package run

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/icount-connector/internal/commands/cmdutil"
	"github.com/tombee/icount-connector/internal/jq"
)

// NewCommand creates the run command.
func NewCommand() *cobra.Command {
	var (
		inputFlags []string
		inputsFile string
		transform  string
		rawOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "run <operation>",
		Short: "Execute one operation",
		Long: `Execute one operation against the iCount API.

Inputs come from repeated --input key=value flags or a JSON file. Values
that parse as JSON are used as-is (numbers, booleans, arrays, objects);
anything else is a string. Credentials are read from ` + cmdutil.EnvToken + `
and, optionally, a .env file in the working directory.`,
		Args: cobra.ExactArgs(1),
		Example: `  # Create a customer
  icount-connector run customer_create --input name="Test Company Ltd"

  # Search documents, keeping only the doc numbers
  icount-connector run document_search --input doctype=invoice \
    --transform '.[].docnum'

  # Structured inputs from a file
  icount-connector run document_create --inputs-file invoice.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], inputFlags, inputsFile, transform, rawOutput)
		},
	}

	cmd.Flags().StringArrayVarP(&inputFlags, "input", "i", nil, "Operation input as key=value (repeatable)")
	cmd.Flags().StringVar(&inputsFile, "inputs-file", "", "JSON file holding the operation inputs")
	cmd.Flags().StringVar(&transform, "transform", "", "jq expression applied to the response")
	cmd.Flags().BoolVar(&rawOutput, "raw", false, "Print the untransformed response envelope")

	return cmd
}

func run(cmd *cobra.Command, operation string, inputFlags []string, inputsFile, transform string, rawOutput bool) error {
	cmdutil.LoadEnv()

	inputs, err := collectInputs(inputFlags, inputsFile)
	if err != nil {
		return err
	}

	connector, err := cmdutil.BuildConnector()
	if err != nil {
		return err
	}

	result, err := connector.Execute(cmd.Context(), operation, inputs)
	if err != nil {
		return err
	}

	output := result.Response
	if rawOutput {
		var raw interface{}
		rawBytes, _ := result.RawResponse.([]byte)
		if err := json.Unmarshal(rawBytes, &raw); err != nil {
			raw = string(rawBytes)
		}
		output = raw
	}

	if transform != "" {
		executor := jq.NewExecutor(10*time.Second, 10*1024*1024)
		output, err = executor.Execute(cmd.Context(), transform, output)
		if err != nil {
			return fmt.Errorf("transform failed: %w", err)
		}
	}

	if err := cmdutil.PrintJSON(cmd.OutOrStdout(), output); err != nil {
		return err
	}

	for name := range result.Attachments {
		fmt.Fprintf(cmd.ErrOrStderr(), "attachment: %s\n", name)
	}
	return nil
}

// collectInputs merges the inputs file (when given) with --input flags;
// flags win on conflict.
func collectInputs(inputFlags []string, inputsFile string) (map[string]interface{}, error) {
	inputs := map[string]interface{}{}

	if inputsFile != "" {
		data, err := os.ReadFile(inputsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read inputs file: %w", err)
		}
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, fmt.Errorf("failed to parse inputs file: %w", err)
		}
	}

	for _, flag := range inputFlags {
		key, value, ok := strings.Cut(flag, "=")
		if !ok {
			return nil, fmt.Errorf("invalid input %q: expected key=value", flag)
		}
		inputs[key] = parseValue(value)
	}

	return inputs, nil
}

// parseValue interprets a flag value as JSON when possible so numbers,
// booleans, and structured values survive the command line.
func parseValue(s string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

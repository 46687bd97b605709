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

// Package cmdutil holds helpers shared by the CLI commands: connector
// construction from the environment and result printing.
package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	// Registers the built-in connector factories.
	_ "github.com/tombee/icount-connector/internal/integration"
	"github.com/tombee/icount-connector/internal/operation"
)

// Environment variables consulted when building a connector.
const (
	EnvToken   = "ICOUNT_TOKEN"
	EnvBaseURL = "ICOUNT_BASE_URL"
)

// LoadEnv loads a .env file when one exists. A missing file is not an
// error; explicit environment variables always win.
func LoadEnv() {
	_ = godotenv.Load()
}

// BuildConnector constructs the iCount connector from the environment.
func BuildConnector() (operation.Connector, error) {
	token := os.Getenv(EnvToken)
	if token == "" {
		return nil, fmt.Errorf("%s is not set", EnvToken)
	}

	return operation.New("icount", os.Getenv(EnvBaseURL), token, nil)
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

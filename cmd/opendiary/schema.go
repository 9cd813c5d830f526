// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/opendiary/opendiary/internal/envelope"
	"github.com/opendiary/opendiary/internal/httpapi"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Write the HTTP API JSON Schemas",
		Long:  `Write one JSON Schema file per request and response body of the HTTP API.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeSchemas(cmd, outDir)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "schemas", "output directory")

	return cmd
}

func writeSchemas(cmd *cobra.Command, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return oops.In(envelope.DomainIO).Code("SCHEMA_WRITE_FAILED").With("dir", outDir).Wrap(err)
	}

	for _, name := range httpapi.SchemaNames() {
		data, err := httpapi.GenerateSchema(name)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, name+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
			return oops.In(envelope.DomainIO).Code("SCHEMA_WRITE_FAILED").With("path", path).Wrap(err)
		}
		cmd.Printf("Wrote %s\n", path)
	}
	return nil
}

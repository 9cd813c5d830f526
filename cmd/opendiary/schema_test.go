// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendiary/opendiary/internal/httpapi"
)

func TestSchemaCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schemas")

	out, err := execute(t, nil, "schema", "--out", dir)
	require.NoError(t, err)

	for _, name := range httpapi.SchemaNames() {
		path := filepath.Join(dir, name+".json")
		assert.Contains(t, out, path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc), "schema %s is not JSON", name)
		assert.Equal(t, httpapi.SchemaBaseID+name+".json", doc["$id"])
	}
}

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tankarena/internal/snapshot"
)

func TestWriteSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "snapshot.schema.json")

	require.NoError(t, writeSchema(out, snapshot.Schema()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "properties")

	_, err = os.Stat(out + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file renamed away")
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.txt")
	require.NoError(t, os.WriteFile(path, []byte("from a file"), 0o600))

	tests := []struct {
		name     string
		args     []string
		file     string
		expected string
		wantErr  bool
	}{
		{name: "argument", args: []string{"inline content"}, expected: "inline content"},
		{name: "file", file: path, expected: "from a file"},
		{name: "both", args: []string{"inline"}, file: path, wantErr: true},
		{name: "neither", wantErr: true},
		{name: "missing file", file: filepath.Join(t.TempDir(), "nope.txt"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := readContent(tt.args, tt.file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, content)
		})
	}
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o600))
	}

	files, err := expandGlobs([]string{
		filepath.Join(dir, "*.txt"),
		filepath.Join(dir, "a.*"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, files)

	_, err = expandGlobs([]string{"[unclosed"})
	assert.Error(t, err)
}

func TestRootCmd(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"validate", "batch", "metrics"}, names)
}

func TestValidateCmd_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	tests := []struct {
		name string
		args []string
	}{
		{"missing use case", []string{"validate", "hello"}},
		{"bad priority", []string{"validate", "--use-case", "financial_content", "--priority", "urgent", "hello"}},
		{"missing config", []string{"--config", missing, "validate", "--use-case", "financial_content", "hello"}},
		{"bad log level", []string{"--config", missing, "--log-level", "loud", "metrics"}},
		{"no files matched", []string{"batch", "--use-case", "financial_content", filepath.Join(t.TempDir(), "*.txt")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			var out, errOut bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&errOut)
			root.SetArgs(tt.args)

			assert.Error(t, root.Execute())
			assert.Empty(t, out.String())
		})
	}
}

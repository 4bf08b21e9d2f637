// Copyright 2025 go-highway Authors
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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-spdnn/spdnn"
)

// writeDataset writes a 2-image, 2-neuron, 1-layer dataset. The layer swaps
// the two neurons, so image 1 survives a bias of -0.5 and image 2 does not.
func writeDataset(t *testing.T, categories string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"sparse-images-2.tsv":       "1\t1\t1\n2\t2\t0.25\n",
		"neuron2/n2-l1.tsv":         "1\t2\t1\n2\t1\t1\n",
		"neuron2-l1-categories.tsv": categories,
	}
	for name, contents := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func inferArgs(dir string, extra ...string) []string {
	return append([]string{"infer", "--dir", dir, "--neurons", "2", "--layers", "1", "--images", "2", "--bias", "-0.5", "--workers", "2"}, extra...)
}

func TestInferPassed(t *testing.T) {
	dir := writeDataset(t, "1\n")
	for _, precision := range []string{"float32", "float64"} {
		out, logs, err := execute(t, inferArgs(dir, "--precision", precision)...)
		require.NoError(t, err)
		require.Equal(t, "Challenge PASSED\n", out)
		require.Contains(t, logs, "msg=\"layer done\"")
		require.Contains(t, logs, "passed=true")
	}
}

func TestInferFailedStillSucceeds(t *testing.T) {
	dir := writeDataset(t, "1\n2\n")
	out, _, err := execute(t, inferArgs(dir)...)
	require.NoError(t, err)
	require.Equal(t, "Challenge FAILED\n", out)
}

func TestInferFromConfigFile(t *testing.T) {
	dir := writeDataset(t, "1\n")
	config := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(config, []byte("dir: "+dir+"\nneurons: 2\nlayers: 1\nimages: 2\nbias: -0.5\nprecision: float64\n"), 0o644))

	out, logs, err := execute(t, "infer", "--config", config, "--log.level", "warn")
	require.NoError(t, err)
	require.Equal(t, "Challenge PASSED\n", out)
	require.Empty(t, logs)
}

func TestInferRejectsFormat(t *testing.T) {
	dir := writeDataset(t, "1\n")
	_, _, err := execute(t, inferArgs(dir, "--format", "csr")...)
	require.True(t, errors.Is(err, spdnn.ErrUnsupportedFormat))
}

func TestInferMissingDataset(t *testing.T) {
	_, _, err := execute(t, inferArgs(t.TempDir())...)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestInferBadLogLevel(t *testing.T) {
	dir := writeDataset(t, "1\n")
	_, _, err := execute(t, inferArgs(dir, "--log.level", "loud")...)
	require.ErrorContains(t, err, "unknown log level")
}

func TestVersion(t *testing.T) {
	version = "v1.2.3"
	defer func() { version = "" }()
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, "v1.2.3\n", out)
}

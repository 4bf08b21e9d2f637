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

package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-spdnn/spdnn"
	"github.com/ajroetker/go-spdnn/spdnn/contrib/inference"
	"github.com/ajroetker/go-spdnn/spdnn/contrib/workerpool"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func writeGzip(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func writeZstd(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

// toyDataset writes a 3-image, 4-neuron, 2-layer dataset whose layers double
// every activation. With a bias of -1 images 1 and 2 survive and image 3 has
// no features.
func toyDataset(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	bias := -1.0
	cfg := DefaultConfig()
	cfg.Dir, cfg.Neurons, cfg.Layers, cfg.Images, cfg.Bias = dir, 4, 2, 3, &bias

	writeFile(t, cfg.FeaturesPath(), "1\t1\t1\n2\t3\t1\n\n2\t4\t1\n")
	identity := "1\t1\t2\n2\t2\t2\n3\t3\t2\n4\t4\t2\n"
	writeGzip(t, cfg.LayerPath(1)+".gz", identity)
	writeZstd(t, cfg.LayerPath(2)+".zst", identity)
	writeFile(t, cfg.CategoriesPath(), "2\n1\n")
	return cfg
}

func TestPaths(t *testing.T) {
	cfg := Config{Dir: "/data", Neurons: 1024, Layers: 120}
	require.Equal(t, "/data/sparse-images-1024.tsv", cfg.FeaturesPath())
	require.Equal(t, "/data/neuron1024/n1024-l7.tsv", cfg.LayerPath(7))
	require.Equal(t, "/data/neuron1024-l120-categories.tsv", cfg.CategoriesPath())
}

func TestLoadAndInfer(t *testing.T) {
	cfg := toyDataset(t)
	for _, workers := range []int{0, 1, 3} {
		var pool *workerpool.Pool
		if workers > 0 {
			pool = workerpool.New(workers)
		}
		d, err := Load[float32](cfg, pool)
		require.NoError(t, err)

		require.Equal(t, []int{0, 1}, d.Categories)
		require.Equal(t, 3, d.Features.NNZ())
		require.Len(t, d.Network.Layers, 2)
		require.Equal(t, []float32{-1, -1, -1, -1}, d.Network.Biases[1])

		require.NoError(t, inference.Infer(pool, d.Network, d.Features))
		require.Equal(t, []float32{
			1, 0, 0, 0,
			0, 0, 1, 1,
			0, 0, 0, 0,
		}, d.Features.Dense())
		require.True(t, inference.Validate(pool, d.Features, d.Categories))

		require.NoError(t, d.Release())
		if pool != nil {
			pool.Close()
		}
	}
}

func TestLoadMissingLayer(t *testing.T) {
	cfg := toyDataset(t)
	cfg.Layers = 3
	writeFile(t, cfg.CategoriesPath(), "1\n")

	pool := workerpool.New(2)
	defer pool.Close()
	_, err := Load[float64](cfg, pool)
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
	require.Contains(t, err.Error(), "n4-l3.tsv")
}

func TestReadTriples(t *testing.T) {
	ts, err := ReadTriples[float64](strings.NewReader("1\t2\t0.5\n3 1 -2\n"), 3, 2, true)
	require.NoError(t, err)
	require.Equal(t, []spdnn.Triple[float64]{
		{Row: 0, Col: 1, Weight: 0.5},
		{Row: 2, Col: 0, Weight: -2},
	}, ts)

	ts, err = ReadTriples[float64](strings.NewReader("0\t1\t3\n"), 1, 2, false)
	require.NoError(t, err)
	require.Equal(t, []spdnn.Triple[float64]{{Row: 0, Col: 1, Weight: 3}}, ts)
}

func TestReadTriplesErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		input string
		want  error
	}{
		"zero in one-based": {"0\t1\t1\n", spdnn.ErrOutOfRange},
		"row out of range":  {"4\t1\t1\n", spdnn.ErrOutOfRange},
		"col out of range":  {"1\t3\t1\n", spdnn.ErrOutOfRange},
	} {
		_, err := ReadTriples[float32](strings.NewReader(tc.input), 3, 2, true)
		require.True(t, errors.Is(err, tc.want), name)
	}

	_, err := ReadTriples[float32](strings.NewReader("1\t1\n"), 3, 2, true)
	require.ErrorContains(t, err, "line 1: want 3 fields")
	_, err = ReadTriples[float32](strings.NewReader("1\t1\t1\n1\t1\tx\n"), 3, 2, true)
	require.ErrorContains(t, err, "line 2: value")
}

func TestReadCategories(t *testing.T) {
	got, err := ReadCategories(strings.NewReader("5\n2\n\n7\n"), 10, true)
	require.NoError(t, err)
	require.Equal(t, []int{1, 4, 6}, got)

	got, err = ReadCategories(strings.NewReader(""), 10, true)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = ReadCategories(strings.NewReader("11\n"), 10, true)
	require.True(t, errors.Is(err, spdnn.ErrOutOfRange))
}

func TestReadCategoriesRejectsRepeatedRows(t *testing.T) {
	_, err := ReadCategories(strings.NewReader("5\n2\n5\n"), 10, true)
	require.True(t, errors.Is(err, spdnn.ErrOutOfRange))
	require.ErrorContains(t, err, "more than once: [4]")
}

func TestOpenPrefersPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.tsv")
	writeFile(t, path, "plain")
	writeGzip(t, path+".gz", "gzip")

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()
	buf := make([]byte, 5)
	_, err = f.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "plain", string(buf))

	_, err = Open(filepath.Join(dir, "missing.tsv"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	writeFile(t, path, "dir: /data\nneurons: 4096\nlayers: 480\nworkers: 8\nprecision: float64\npage_aligned: true\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/data", cfg.Dir)
	require.Equal(t, 4096, cfg.Neurons)
	require.Equal(t, 480, cfg.Layers)
	require.Equal(t, 60000, cfg.Images)
	require.True(t, cfg.OneBased)
	require.True(t, cfg.PageAligned)
	require.Equal(t, Float64, cfg.Precision)
	require.NoError(t, cfg.Validate())

	b, err := cfg.BiasValue()
	require.NoError(t, err)
	require.Equal(t, -0.35, b)
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	writeFile(t, path, "dir: /data\nneuronz: 4096\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dir, cfg.Neurons, cfg.Layers = "/data", 1024, 120
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Format = "csr"
	require.True(t, errors.Is(bad.Validate(), spdnn.ErrUnsupportedFormat))

	bad = cfg
	bad.Layers = 0
	require.True(t, errors.Is(bad.Validate(), spdnn.ErrBadShape))

	bad = cfg
	bad.Neurons = 100
	require.ErrorContains(t, bad.Validate(), "no default bias")

	bad = cfg
	bad.Precision = "float16"
	require.Error(t, bad.Validate())
}

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
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-spdnn/spdnn"
	"github.com/ajroetker/go-spdnn/spdnn/contrib/dataset"
	"github.com/ajroetker/go-spdnn/spdnn/contrib/inference"
	"github.com/ajroetker/go-spdnn/spdnn/contrib/workerpool"
)

func newInferCommand() *cobra.Command {
	f := &inferFlags{}
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Run inference on a dataset and validate the predictions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), f.logLevel)
			if err != nil {
				return err
			}
			return runInfer(cmd.Context(), cmd.OutOrStdout(), logger, cfg)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newLogger(w io.Writer, lvl string) (log.Logger, error) {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)

	var allow level.Option
	switch lvl {
	case "debug":
		allow = level.AllowDebug()
	case "info":
		allow = level.AllowInfo()
	case "warn":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	default:
		return nil, errors.Newf("unknown log level %q", lvl)
	}
	return level.NewFilter(logger, allow), nil
}

func runInfer(ctx context.Context, out io.Writer, logger log.Logger, cfg dataset.Config) error {
	logger = log.With(logger, "run", uuid.NewString())

	pool := workerpool.New(cfg.Workers)
	defer pool.Close()

	reg := prometheus.NewRegistry()
	metrics := inference.NewMetrics(reg)

	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

		g.Go(func() error {
			level.Info(logger).Log("msg", "starting metrics server", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-ctx.Done():
			case <-done:
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	var passed bool
	g.Go(func() error {
		defer close(done)
		var err error
		switch cfg.Precision {
		case dataset.Float64:
			passed, err = run[float64](cfg, pool, logger, metrics)
		default:
			passed, err = run[float32](cfg, pool, logger, metrics)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if passed {
		fmt.Fprintln(out, "Challenge PASSED")
	} else {
		fmt.Fprintln(out, "Challenge FAILED")
	}
	return nil
}

func run[T spdnn.Floats](cfg dataset.Config, pool *workerpool.Pool, logger log.Logger, metrics *inference.Metrics) (bool, error) {
	start := time.Now()
	d, err := dataset.Load[T](cfg, pool)
	if err != nil {
		return false, err
	}
	defer func() {
		if err := d.Release(); err != nil {
			level.Warn(logger).Log("msg", "releasing dataset", "err", err)
		}
	}()
	level.Info(logger).Log("msg", "dataset loaded", "dir", cfg.Dir, "images", d.Features.Rows(),
		"neurons", cfg.Neurons, "layers", cfg.Layers, "nnz", d.Features.NNZ(), "duration", time.Since(start))

	if err := inference.Infer(pool, d.Network, d.Features,
		inference.WithLogger(logger), inference.WithMetrics(metrics)); err != nil {
		return false, err
	}

	passed := inference.Validate(pool, d.Features, d.Categories)
	level.Info(logger).Log("msg", "validated", "categories", len(d.Categories), "passed", passed)
	return passed, nil
}

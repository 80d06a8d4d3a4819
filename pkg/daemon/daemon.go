/*
 * Copyright 2018 The Trickster Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package daemon runs quay as a process: it loads the configuration, sets up
// logging, tracing and metrics, and serves until the process is signaled
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	goruntime "runtime"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trickstercache/quay/pkg/appinfo"
	"github.com/trickstercache/quay/pkg/config"
	"github.com/trickstercache/quay/pkg/daemon/signaling"
	te "github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/observability/logging"
	"github.com/trickstercache/quay/pkg/observability/logging/logger"
	"github.com/trickstercache/quay/pkg/observability/metrics"
	mo "github.com/trickstercache/quay/pkg/observability/metrics/options"
	"github.com/trickstercache/quay/pkg/observability/pprof"
	"github.com/trickstercache/quay/pkg/observability/tracing"
	"github.com/trickstercache/quay/pkg/server"
)

var mtx sync.Mutex
var wasStarted bool

// ShutdownTimeout bounds the wait for in-flight connections at exit
var ShutdownTimeout = 10 * time.Second

// Registrar docks routes on the server before it starts sailing
type Registrar func(*server.Server) error

// Start loads the configuration from the command line arguments and runs the
// server until ctx is done or the process receives SIGINT or SIGTERM
func Start(ctx context.Context, args []string, register Registrar) error {
	mtx.Lock()
	if wasStarted {
		mtx.Unlock()
		return te.ErrServerAlreadyStarted
	}

	metrics.BuildInfo.WithLabelValues(goruntime.Version(),
		appinfo.GitCommitID, appinfo.Version).Set(1)

	conf, err := config.Load(appinfo.Name, args)
	if err != nil {
		mtx.Unlock()
		return err
	}

	// if it's a -version command, print version and exit
	if conf.Flags != nil && conf.Flags.PrintVersion {
		mtx.Unlock()
		fmt.Println(appinfo.String())
		return nil
	}

	// if it's a -validate command, print validation result
	if conf.Flags != nil && conf.Flags.ValidateConfig {
		mtx.Unlock()
		fmt.Println("quay configuration validation succeeded.")
		return nil
	}
	wasStarted = true
	mtx.Unlock()

	return Run(ctx, conf, register)
}

// Run serves conf until ctx is done or the process receives SIGINT or
// SIGTERM. The frontend listener and, when enabled, the metrics listener are
// bound before Run starts serving either of them.
func Run(ctx context.Context, conf *config.Config, register Registrar) error {
	log := logging.New(conf.Logging)
	logger.SetLogger(log)
	defer log.Close()
	for _, w := range conf.LoaderWarnings {
		log.Warn("config loader warning", logging.Pairs{"detail": w})
	}

	tracer, err := tracing.New(conf.Tracing, nil)
	if err != nil {
		return err
	}
	defer tracer.Shutdown(context.Background())

	srv, err := server.New(conf.Frontend, server.WithLogger(log),
		server.WithTracer(tracer))
	if err != nil {
		return err
	}
	if register != nil {
		if err := register(srv); err != nil {
			return err
		}
	}

	fl, err := server.NewListener(conf.Frontend.ListenAddress,
		conf.Frontend.ListenPort, conf.Frontend.ConnectionsLimit, log)
	if err != nil {
		return err
	}
	var ml net.Listener
	if conf.Metrics.Enabled() {
		ml, err = net.Listen("tcp", net.JoinHostPort(conf.Metrics.ListenAddress,
			strconv.Itoa(conf.Metrics.ListenPort)))
		if err != nil {
			fl.Close()
			return err
		}
	}
	return serve(ctx, conf.Metrics, log, srv, fl, ml)
}

func serve(ctx context.Context, mopts *mo.Options, log logging.Logger,
	srv *server.Server, fl, ml net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := srv.Serve(gctx, fl)
		if errors.Is(err, te.ErrServerClosed) {
			return nil
		}
		return err
	})

	if ml != nil {
		hs := &http.Server{
			Handler:           metricsHandler(mopts),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info("metrics http endpoint starting",
				logging.Pairs{"address": ml.Addr().String()})
			err := hs.Serve(ml)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer scancel()
			return hs.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		if sig := signaling.Wait(gctx); sig != nil {
			log.Info("received signal, shutting down",
				logging.Pairs{"signal": sig.String()})
		}
		cancel()
		return nil
	})

	err := g.Wait()
	sctx, scancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer scancel()
	if serr := srv.Shutdown(sctx); err == nil {
		err = serr
	}
	log.Info("server shut down", nil)
	return err
}

func metricsHandler(o *mo.Options) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(mo.DefaultMetricsPath, metrics.Handler())
	if o != nil && o.EnablePprof {
		pprof.RegisterRoutes("metrics", mux)
	}
	return mux
}

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

package daemon

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstercache/quay/pkg/config"
	te "github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/observability/logging"
	mo "github.com/trickstercache/quay/pkg/observability/metrics/options"
	"github.com/trickstercache/quay/pkg/response"
	"github.com/trickstercache/quay/pkg/server"
)

const loopbackConfig = `
frontend:
  listen_address: 127.0.0.1
  listen_port: 0
metrics:
  listen_port: 0
`

func loopback(t *testing.T) *config.Config {
	t.Helper()
	c := config.NewConfig()
	c.Frontend.ListenAddress = "127.0.0.1"
	c.Frontend.ListenPort = 0
	c.Metrics.ListenPort = 0
	require.NoError(t, c.Validate())
	return c
}

func waitErr(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the daemon to exit")
	}
	return nil
}

func TestMetricsHandler(t *testing.T) {
	h := metricsHandler(&mo.Options{EnablePprof: true})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, mo.DefaultMetricsPath, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quay_listener_max_connections")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	metricsHandler(mo.New()).ServeHTTP(w,
		httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServe(t *testing.T) {
	log := logging.NoopLogger()
	srv, err := server.New(nil, server.WithLogger(log))
	require.NoError(t, err)
	require.NoError(t, srv.Get("/ping", func() response.Response {
		return response.Text(http.StatusOK, "pong")
	}))

	fl, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ml, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- serve(ctx, mo.New(), log, srv, fl, ml) }()

	c, err := net.Dial("tcp", fl.Addr().String())
	require.NoError(t, err)
	defer c.Close()
	_, err = c.Write([]byte("GET /ping HTTP/1.1\r\nHost: quay\r\n\r\n"))
	require.NoError(t, err)
	resp, err := http.ReadResponse(bufio.NewReader(c), nil)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))

	mresp, err := http.Get("http://" + ml.Addr().String() + mo.DefaultMetricsPath)
	require.NoError(t, err)
	mresp.Body.Close()
	assert.Equal(t, http.StatusOK, mresp.StatusCode)

	cancel()
	require.NoError(t, waitErr(t, done))
	require.ErrorIs(t, srv.Serve(context.Background(), fl), te.ErrServerClosed)
}

func TestRunCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var docked bool
	err := Run(ctx, loopback(t), func(s *server.Server) error {
		docked = true
		return s.Get("/", func() {})
	})
	require.NoError(t, err)
	assert.True(t, docked)
}

func TestRunRegisterError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), loopback(t), func(*server.Server) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestRunTLSError(t *testing.T) {
	c := loopback(t)
	dir := t.TempDir()
	c.Frontend.TLS.CertificatePath = filepath.Join(dir, "missing.crt")
	c.Frontend.TLS.PrivateKeyPath = filepath.Join(dir, "missing.key")
	require.NoError(t, c.Validate())
	require.Error(t, Run(context.Background(), c, nil))
}

func TestRunPortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	c := loopback(t)
	c.Frontend.ListenPort = l.Addr().(*net.TCPAddr).Port
	require.Error(t, Run(context.Background(), c, nil))
}

func TestStartExits(t *testing.T) {
	require.NoError(t, Start(context.Background(), []string{"-version"}, nil))

	path := filepath.Join(t.TempDir(), "quay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(loopbackConfig), 0o600))
	require.NoError(t, Start(context.Background(),
		[]string{"-config", path, "-validate-config"}, nil))

	require.Error(t, Start(context.Background(), []string{"-no-such-flag"}, nil))

	mtx.Lock()
	defer mtx.Unlock()
	assert.False(t, wasStarted)
}

func TestStartTwice(t *testing.T) {
	t.Cleanup(func() {
		mtx.Lock()
		wasStarted = false
		mtx.Unlock()
	})
	path := filepath.Join(t.TempDir(), "quay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(loopbackConfig), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Start(ctx, []string{"-config", path}, nil) }()

	require.Eventually(t, func() bool {
		mtx.Lock()
		defer mtx.Unlock()
		return wasStarted
	}, 5*time.Second, 10*time.Millisecond)
	require.ErrorIs(t, Start(ctx, []string{"-config", path}, nil),
		te.ErrServerAlreadyStarted)

	cancel()
	require.NoError(t, waitErr(t, done))
}

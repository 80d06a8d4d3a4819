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

package tracing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	te "github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/observability/tracing/options"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNoop(t *testing.T) {
	tr, err := New(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, span := tr.Start(context.Background(), "x")
	if span.SpanContext().IsValid() {
		t.Error("expected noop span")
	}
	span.End()
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Error(err)
	}
}

func TestStdout(t *testing.T) {
	var buf bytes.Buffer
	o := options.New()
	o.Provider = options.ProviderStdout
	o.Tags = map[string]string{"env": "test"}
	tr, err := New(o, &buf)
	if err != nil {
		t.Fatal(err)
	}
	_, span := tr.Start(context.Background(), "request")
	span.End()
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"Name":"request"`) {
		t.Errorf("expected span in output, got %s", out)
	}
	if !strings.Contains(out, "service.name") {
		t.Error("expected service.name resource attribute")
	}
}

func TestFromProvider(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tr := FromProvider(tp)
	_, span := tr.Start(context.Background(), "recorded")
	span.End()
	if n := len(sr.Ended()); n != 1 {
		t.Errorf("expected 1 got %d", n)
	}
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Error(err)
	}
}

func TestSampler(t *testing.T) {
	if sampler(0).Description() != sdktrace.NeverSample().Description() {
		t.Error("expected never sample")
	}
	if sampler(1).Description() != sdktrace.AlwaysSample().Description() {
		t.Error("expected always sample")
	}
	if !strings.HasPrefix(sampler(0.5).Description(), "TraceIDRatioBased") {
		t.Error("expected ratio sampler")
	}
}

func TestValidateOptions(t *testing.T) {
	o := &options.Options{}
	if err := o.Validate(); err != nil {
		t.Fatal(err)
	}
	if o.Provider != options.ProviderNone || o.ServiceName != "quay" {
		t.Error("expected defaults to be applied")
	}
	o.Provider = "zipkin"
	if err := o.Validate(); !errors.Is(err, te.ErrInvalidTracingProvider) {
		t.Error("expected invalid provider got", err)
	}
	o.Provider = options.ProviderStdout
	o.SampleRate = 2
	if err := o.Validate(); !errors.Is(err, te.ErrInvalidOptions) {
		t.Error("expected invalid options got", err)
	}
	c := o.Clone()
	if c.SampleRate != 2 || c.Provider != options.ProviderStdout {
		t.Error("clone mismatch")
	}
}

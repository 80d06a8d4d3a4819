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

// Package tracing provides the OpenTelemetry tracer used to record a span
// per served request
package tracing

import (
	"context"
	"io"
	"os"

	"github.com/trickstercache/quay/pkg/observability/tracing/options"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name spans are recorded under
const TracerName = "github.com/trickstercache/quay"

// Tracer pairs an OpenTelemetry Tracer with the shutdown of its provider
type Tracer struct {
	trace.Tracer
	shutdown func(context.Context) error
}

// Shutdown flushes and stops the underlying provider
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}

// Noop returns a Tracer that records nothing
func Noop() *Tracer {
	return &Tracer{Tracer: trace.NewNoopTracerProvider().Tracer(TracerName)}
}

// FromProvider returns a Tracer drawn from an existing provider
func FromProvider(tp trace.TracerProvider) *Tracer {
	t := &Tracer{Tracer: tp.Tracer(TracerName)}
	if sp, ok := tp.(*sdktrace.TracerProvider); ok {
		t.shutdown = sp.Shutdown
	}
	return t
}

// New returns the Tracer for the options. Spans of the stdout provider are
// written to w, or to os.Stdout when w is nil.
func New(o *options.Options, w io.Writer) (*Tracer, error) {
	if o == nil {
		o = options.New()
	}
	if o.Provider != options.ProviderStdout {
		return Noop(), nil
	}
	if w == nil {
		w = os.Stdout
	}
	eo := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if o.PrettyPrint {
		eo = append(eo, stdouttrace.WithPrettyPrint())
	}
	exp, err := stdouttrace.New(eo...)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sampler(o.SampleRate)),
		sdktrace.WithResource(resource.NewWithAttributes("", attributes(o)...)),
	)
	return FromProvider(tp), nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1:
		return sdktrace.AlwaysSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

func attributes(o *options.Options) []attribute.KeyValue {
	tags := make([]attribute.KeyValue, 1, len(o.Tags)+1)
	tags[0] = attribute.String("service.name", o.ServiceName)
	for k, v := range o.Tags {
		tags = append(tags, attribute.String(k, v))
	}
	return tags
}

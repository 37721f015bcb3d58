package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// An empty or blank endpoint disables export: the providers still exist so
// instrumented code works, and Shutdown is a harmless no-op.
func TestNewProviders_NoEndpointIsNoOp(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(ctx, endpoint, "podnotes-test", false)
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.Shutdown == nil {
			t.Fatalf("NewProviders(%q) returned incomplete providers: %+v", endpoint, providers)
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Fatalf("no-op shutdown: %v", err)
		}
	}
}

func TestNewProviders_RejectsMalformedEndpoint(t *testing.T) {
	cases := []string{"://invalid", "http://[invalid", "http://"}
	for _, endpoint := range cases {
		if _, err := NewProviders(context.Background(), endpoint, "podnotes-test", false); err == nil {
			t.Errorf("NewProviders(%q): expected error", endpoint)
		}
	}
}

func TestSetGlobal_InstallsBothProviders(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "podnotes-test", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}

	prevTP := otel.GetTracerProvider()
	prevMP := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	}()

	providers.SetGlobal()
	if otel.GetTracerProvider() == prevTP {
		t.Error("tracer provider was not installed")
	}
	if otel.GetMeterProvider() == prevMP {
		t.Error("meter provider was not installed")
	}
}

// SetGlobal skips nil fields so a partially built Providers never clobbers an
// existing global with nothing.
func TestSetGlobal_SkipsNilFields(t *testing.T) {
	(&Providers{Shutdown: func(context.Context) error { return nil }}).SetGlobal()

	ctx := context.Background()
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(ctx) }()

	prevTP := otel.GetTracerProvider()
	prevMP := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	}()

	(&Providers{
		TracerProvider: tp,
		Shutdown:       func(context.Context) error { return nil },
	}).SetGlobal()

	if otel.GetTracerProvider() == prevTP {
		t.Error("tracer provider was not installed")
	}
	if otel.GetMeterProvider() != prevMP {
		t.Error("nil meter provider replaced the global one")
	}
}

func TestProviders_ShutdownIsIdempotent(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, "", "podnotes-test", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := providers.Shutdown(ctx); err != nil {
			t.Fatalf("shutdown %d: %v", i+1, err)
		}
	}
}

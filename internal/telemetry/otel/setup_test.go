package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewProvidersEmptyEndpointIsNoop(t *testing.T) {
	p, err := NewProviders(context.Background(), "  ", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if p.TracerProvider == nil || p.MeterProvider == nil || p.LoggerProvider == nil {
		t.Fatal("no-op providers must still be non-nil")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestNewProvidersRejectsBadEndpoint(t *testing.T) {
	for _, endpoint := range []string{"http://[invalid", "http://"} {
		if _, err := NewProviders(context.Background(), endpoint, "test-service", false); err == nil {
			t.Errorf("NewProviders accepted endpoint %q", endpoint)
		}
	}
}

// Exporter construction does not dial, so providers come up without a collector.
func TestNewProvidersWithEndpoint(t *testing.T) {
	p, err := NewProviders(context.Background(), "localhost:4317", "test-service", true)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	defer func() { _ = p.Shutdown(context.Background()) }()
	if p.TracerProvider == nil || p.MeterProvider == nil || p.LoggerProvider == nil {
		t.Fatal("providers must be non-nil")
	}
}

func TestSetGlobal(t *testing.T) {
	oldTP := otel.GetTracerProvider()
	oldMP := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(oldTP)
		otel.SetMeterProvider(oldMP)
	}()

	p, err := NewProviders(context.Background(), "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	p.SetGlobal()

	if otel.GetTracerProvider() != p.TracerProvider {
		t.Error("global TracerProvider not set")
	}
	if otel.GetMeterProvider() != p.MeterProvider {
		t.Error("global MeterProvider not set")
	}
}

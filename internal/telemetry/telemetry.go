// Package telemetry exposes the SDK's own health instruments through the
// host application's OpenTelemetry meter provider.
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a meter for the given instrumentation scope, resolved from
// the global provider at call time. Hosts that never install a meter
// provider get no-op instruments, so self-telemetry costs nothing.
func Meter(name string) metric.Meter {
	return otel.GetMeterProvider().Meter(name)
}

// MeterFrom resolves a meter from the given provider, falling back to the
// global provider when mp is nil. Components take an optional provider so
// hosts can route SDK self-telemetry without touching global state.
func MeterFrom(mp metric.MeterProvider, name string) metric.Meter {
	if mp != nil {
		return mp.Meter(name)
	}
	return Meter(name)
}

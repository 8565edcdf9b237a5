package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestSetup_Inactive(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no endpoint", Options{ServiceName: "dynsm-test", Enabled: true}},
		{"disabled", Options{ServiceName: "dynsm-test", Endpoint: "http://localhost:4318"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := otel.GetTracerProvider()
			shutdown, err := Setup(context.Background(), tt.opts)
			require.NoError(t, err)
			require.NoError(t, shutdown(context.Background()))
			assert.Equal(t, before, otel.GetTracerProvider())
		})
	}
}

func TestSetup_RegistersProvider(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	shutdown, err := Setup(context.Background(), Options{
		ServiceName: "dynsm-test",
		Endpoint:    "http://localhost:4318",
		Enabled:     true,
	})
	require.NoError(t, err)
	defer shutdown(context.Background())

	assert.IsType(t, &sdktrace.TracerProvider{}, otel.GetTracerProvider())
}

func TestOptions_Attributes(t *testing.T) {
	attrs := Options{ServiceName: "dynsm", Version: "1.2.0", RunName: "impact", Participants: 2}.attributes()
	assert.Contains(t, attrs, attribute.String("service.name", "dynsm"))
	assert.Contains(t, attrs, attribute.String("service.version", "1.2.0"))
	assert.Contains(t, attrs, attribute.String("dynsm.run", "impact"))
	assert.Contains(t, attrs, attribute.Int("dynsm.participants", 2))

	assert.Len(t, Options{ServiceName: "dynsm"}.attributes(), 1)
}

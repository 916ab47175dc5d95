package telemetry

import (
	"os"
	"strconv"
)

// Environment variables read by LoadConfig.
const (
	EnvEnabled  = "HOOKWATCH_OTEL_ENABLED"
	EnvEndpoint = "HOOKWATCH_OTEL_ENDPOINT"
	EnvInsecure = "HOOKWATCH_OTEL_INSECURE"
)

// Config holds OTLP metrics exporter configuration.
type Config struct {
	Endpoint string
	Enabled  bool
	Insecure bool
}

// LoadConfig loads exporter configuration from environment variables.
func LoadConfig() Config {
	enabled, _ := strconv.ParseBool(os.Getenv(EnvEnabled))
	insecure, _ := strconv.ParseBool(os.Getenv(EnvInsecure))

	return Config{
		Endpoint: os.Getenv(EnvEndpoint),
		Enabled:  enabled,
		Insecure: insecure,
	}
}

// Package config loads service configuration for applications embedding
// the model registry.
//
// LoadConfig searches for config.yml and .env files in standard locations,
// reads them with viper and godotenv, binds environment variables and
// unmarshals the result into the caller's struct.
//
// # Usage
//
//	var cfg config.ServiceConfig
//	err := config.LoadConfig("model-service", &cfg)
//
// Model provider overrides are configured as a list:
//
//	models:
//	  strict: true
//	  overrides:
//	    - family: model.RecordID
//	      alternative: verbatim
//
// Environment variables override file values; LOGGING_LEVEL=debug sets
// logging.level. With WithEnvPrefix("modelkit") only MODELKIT_* variables
// are bound and the prefix is stripped.
//
// Telemetry export is off unless telemetry.enabled is set:
//
//	telemetry:
//	  enabled: true
//	  endpoint: otel-collector:4318
//	  sample_rate: 0.25
package config

// Package config provides layered configuration for the fetchview service.
//
// Values are resolved in three layers, each overriding the last:
// built-in defaults, an optional YAML file named by FETCHVIEW_CONFIG,
// and environment variables.
//
// Environment Variables:
//   - HOST, PORT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_ENABLED, RATE_LIMIT_RPS, RATE_LIMIT_BURST
//   - CORS_ALLOW_ORIGINS
//   - FETCH_TIMEOUT, FETCH_USER_AGENT
package config

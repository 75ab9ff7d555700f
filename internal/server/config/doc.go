// Package config defines the server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - load.go: layered loading through internal/infra/confloader
//   - verify.go: validation
//   - sanitize.go: masking secrets for logs
package config

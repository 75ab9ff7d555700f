// Package config holds the ispstatus-cli configuration file
// (~/.ispstatus/cli.yaml). Values in the file are defaults; command-line
// flags and environment variables override them.
package config

// Package main provides the entry point for ispstatus-cli.
//
// Usage:
//
//	ispstatus-cli list [--node N] [--isp I]
//	ispstatus-cli report --node N --isp I --status S
//	ispstatus-cli backfill seed.yaml
//	ispstatus-cli delete --node N --isp I
//	ispstatus-cli -o json --server http://status:3000 --api-key KEY list
//
// Defaults for the global flags are read from ~/.ispstatus/cli.yaml.
package main

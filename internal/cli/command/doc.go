// Package command defines the ispstatus-cli commands on urfave/cli/v2.
//
// Every command resolves its settings the same way. It starts from
// ~/.ispstatus/cli.yaml (or --config), then applies environment
// variables and flags. It then talks to the status endpoint through
// connection.HTTPClient.
package command

// Package output renders ispstatus-cli results as an aligned table, JSON
// or YAML.
package output

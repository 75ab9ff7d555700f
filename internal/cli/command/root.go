package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ispstatus-go/internal/cli/config"
	"github.com/yndnr/ispstatus-go/internal/cli/connection"
	"github.com/yndnr/ispstatus-go/internal/cli/output"
	"github.com/yndnr/ispstatus-go/internal/infra/buildinfo"
	"github.com/yndnr/ispstatus-go/internal/infra/tlsroots"
)

// requestTimeout bounds a single CLI round trip.
const requestTimeout = 30 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "ispstatus-cli",
		Usage:                "Inspect and update the ISP status endpoint",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			ListCommand(),
			ReportCommand(),
			BackfillCommand(),
			DeleteCommand(),
			VersionCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file (default ~/.ispstatus/cli.yaml)",
			EnvVars: []string{"ISPSTATUS_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server address (default http://localhost:3000)",
			EnvVars: []string{"ISPSTATUS_SERVER"},
		},
		&cli.StringFlag{
			Name:    "prefix",
			Aliases: []string{"p"},
			Usage:   "mount path of the status endpoint (default /isp-status)",
			EnvVars: []string{"ISPSTATUS_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"k"},
			Usage:   "API key sent in the X-API-Key header",
			EnvVars: []string{"ISPSTATUS_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM file with CA certificates trusted for https servers",
			EnvVars: []string{"ISPSTATUS_CA_FILE"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml (default table)",
		},
	}
}

// GlobalFlags holds the resolved connection and output settings.
type GlobalFlags struct {
	Server string
	Prefix string
	APIKey string
	CAFile string
	Output output.Format
}

// ParseGlobalFlags merges the CLI config file with environment variables
// and flags. Explicitly set flags win.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	override := func(dst *string, name string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	override(&cfg.Server, "server")
	override(&cfg.Prefix, "prefix")
	override(&cfg.APIKey, "api-key")
	override(&cfg.CAFile, "ca-file")
	override(&cfg.Output, "output")

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	return &GlobalFlags{
		Server: cfg.Server,
		Prefix: cfg.Prefix,
		APIKey: cfg.APIKey,
		CAFile: cfg.CAFile,
		Output: format,
	}, nil
}

// newClient resolves the global flags and builds a client from them.
func newClient(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}

	opts := []connection.ClientOption{connection.WithTimeout(requestTimeout)}
	if flags.CAFile != "" {
		pool := tlsroots.NewPool()
		if err := pool.AddCertFile(flags.CAFile); err != nil {
			return nil, nil, err
		}
		opts = append(opts, connection.WithTLSConfig(pool.ClientTLSConfig()))
	}

	return connection.NewHTTPClient(flags.Server, flags.Prefix, flags.APIKey, opts...), flags, nil
}

func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, requestTimeout)
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// printResult writes a mutation acknowledgement in the selected format.
func printResult(c *cli.Context, format output.Format, result string) error {
	if format == output.FormatTable {
		_, err := fmt.Fprintln(stdout(c), result)
		return err
	}
	return output.NewFormatter(format).Format(stdout(c), map[string]string{"result": result})
}

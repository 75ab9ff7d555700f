package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/ispstatus-go/internal/cli/output"
	"github.com/yndnr/ispstatus-go/internal/infra/buildinfo"
)

// VersionCommand prints the CLI build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show build information",
		Action: versionAction,
	}
}

func versionAction(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	info := buildinfo.Get()
	if format != output.FormatTable {
		return output.NewFormatter(format).Format(stdout(c), info)
	}

	table := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	table.AddRow("version", info.Version)
	table.AddRow("commit", info.Commit)
	table.AddRow("build_time", info.BuildTime)
	table.AddRow("go_version", info.GoVersion)
	return table.Render(stdout(c))
}

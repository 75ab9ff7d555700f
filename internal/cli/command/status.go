package command

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/ispstatus-go/internal/cli/connection"
	"github.com/yndnr/ispstatus-go/internal/cli/output"
	"github.com/yndnr/ispstatus-go/internal/core/domain"
)

func labelFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "node",
			Aliases:  []string{"n"},
			Usage:    "node label",
			Required: required,
		},
		&cli.StringFlag{
			Name:     "isp",
			Aliases:  []string{"i"},
			Usage:    "isp label",
			Required: required,
		},
	}
}

// ListCommand fetches the exposition and prints one row per label set.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List reported statuses",
		Flags:   labelFlags(false),
		Action:  listAction,
	}
}

// ReportCommand upserts the status of one label set.
func ReportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Report the status of a node/isp pair",
		Flags: append(labelFlags(true), &cli.IntFlag{
			Name:     "status",
			Usage:    "status value",
			Required: true,
		}),
		Action: reportAction,
	}
}

// BackfillCommand seeds last-update timestamps from a JSON or YAML file.
func BackfillCommand() *cli.Command {
	return &cli.Command{
		Name:      "backfill",
		Usage:     "Seed last-update timestamps for pairs that have none",
		ArgsUsage: "FILE (JSON or YAML list of {node, isp, lastupdate}; - reads stdin)",
		Action:    backfillAction,
	}
}

// DeleteCommand removes one label set.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:    "delete",
		Aliases: []string{"rm"},
		Usage:   "Remove a node/isp pair",
		Flags:   labelFlags(true),
		Action:  deleteAction,
	}
}

// StatusRow is one label set reassembled from the exposition.
type StatusRow struct {
	Node       string `json:"node" yaml:"node"`
	ISP        string `json:"isp" yaml:"isp"`
	Status     *int64 `json:"status,omitempty" yaml:"status,omitempty"`
	LastUpdate *int64 `json:"lastupdate,omitempty" yaml:"lastupdate,omitempty"`
}

// StatusRows renders as a table with one line per label set.
type StatusRows []StatusRow

// Table implements output.Tabular.
func (rows StatusRows) Table() *output.Table {
	t := &output.Table{Headers: []string{"NODE", "ISP", "STATUS", "LAST UPDATE"}}
	for _, r := range rows {
		status, updated := "-", "-"
		if r.Status != nil {
			status = strconv.FormatInt(*r.Status, 10)
		}
		if r.LastUpdate != nil {
			updated = time.Unix(*r.LastUpdate, 0).UTC().Format(time.RFC3339)
		}
		t.AddRow(r.Node, r.ISP, status, updated)
	}
	return t
}

// ParseExposition folds exposition lines into rows sorted by node then isp.
// Lines for unknown metrics are ignored.
func ParseExposition(body string) (StatusRows, error) {
	index := make(map[domain.LabelSet]int)
	var rows StatusRows

	for line := range strings.Lines(body) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sample, err := domain.ParseLine(line)
		if err != nil {
			return nil, err
		}

		i, ok := index[sample.Labels]
		if !ok {
			i = len(rows)
			index[sample.Labels] = i
			rows = append(rows, StatusRow{Node: sample.Labels.Node, ISP: sample.Labels.ISP})
		}

		value := sample.Value
		switch sample.Metric {
		case domain.MetricStatus:
			rows[i].Status = &value
		case domain.MetricLastUpdate:
			rows[i].LastUpdate = &value
		}
	}

	slices.SortFunc(rows, func(a, b StatusRow) int {
		return cmp.Or(cmp.Compare(a.Node, b.Node), cmp.Compare(a.ISP, b.ISP))
	})
	return rows, nil
}

// Filter keeps rows whose labels match the non-empty arguments.
func (rows StatusRows) Filter(node, isp string) StatusRows {
	if node == "" && isp == "" {
		return rows
	}
	return slices.DeleteFunc(slices.Clone(rows), func(r StatusRow) bool {
		return (node != "" && r.Node != node) || (isp != "" && r.ISP != isp)
	})
}

func listAction(c *cli.Context) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Get(ctx)
	if err != nil {
		return err
	}
	body, err := connection.ReadBody(resp)
	if err != nil {
		return err
	}

	rows, err := ParseExposition(string(body))
	if err != nil {
		return fmt.Errorf("unexpected response: %w", err)
	}
	rows = rows.Filter(c.String("node"), c.String("isp"))
	if rows == nil {
		rows = StatusRows{}
	}

	return output.NewFormatter(flags.Output).Format(stdout(c), rows)
}

type reportBody struct {
	Node   string `json:"node"`
	ISP    string `json:"isp"`
	Status int    `json:"status"`
}

func reportAction(c *cli.Context) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Post(ctx, reportBody{
		Node:   c.String("node"),
		ISP:    c.String("isp"),
		Status: c.Int("status"),
	})
	if err != nil {
		return err
	}
	if _, err := connection.ReadBody(resp); err != nil {
		return err
	}
	return printResult(c, flags.Output, "OK")
}

// BackfillItem is one entry of a backfill input file.
type BackfillItem struct {
	Node       string `json:"node" yaml:"node"`
	ISP        string `json:"isp" yaml:"isp"`
	LastUpdate int64  `json:"lastupdate" yaml:"lastupdate"`
}

// ParseBackfill decodes a JSON array or a YAML sequence of backfill items.
func ParseBackfill(data []byte) ([]BackfillItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("backfill input is empty")
	}

	var items []BackfillItem
	if trimmed[0] == '[' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("parse backfill json: %w", err)
		}
		return items, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(trimmed))
	dec.KnownFields(true)
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("parse backfill yaml: %w", err)
	}
	return items, nil
}

func readInput(c *cli.Context, name string) ([]byte, error) {
	if name == "-" {
		r := c.App.Reader
		if r == nil {
			r = os.Stdin
		}
		return io.ReadAll(r)
	}
	return os.ReadFile(name)
}

func backfillAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("backfill expects exactly one FILE argument (use - for stdin)", 2)
	}

	data, err := readInput(c, c.Args().First())
	if err != nil {
		return fmt.Errorf("read backfill input: %w", err)
	}
	items, err := ParseBackfill(data)
	if err != nil {
		return err
	}
	if items == nil {
		items = []BackfillItem{}
	}

	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Patch(ctx, items)
	if err != nil {
		return err
	}
	if _, err := connection.ReadBody(resp); err != nil {
		return err
	}
	return printResult(c, flags.Output, fmt.Sprintf("OK (%d entries sent)", len(items)))
}

func deleteAction(c *cli.Context) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Delete(ctx, url.Values{
		"node": {c.String("node")},
		"isp":  {c.String("isp")},
	})
	if err != nil {
		return err
	}
	if _, err := connection.ReadBody(resp); err != nil {
		return err
	}
	return printResult(c, flags.Output, "OK")
}

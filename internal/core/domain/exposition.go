package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Metric names emitted by the exposition.
const (
	MetricStatus     = "isp_status"
	MetricLastUpdate = "isp_status_lastupdate"
)

// Sample is one parsed exposition line.
type Sample struct {
	Metric string
	Labels LabelSet
	Value  int64
}

// FormatLine renders one exposition line without the trailing newline.
// key is the canonical label key as returned by LabelSet.Key.
func FormatLine(metric, key string, value int64) string {
	return metric + "{" + key + "} " + strconv.FormatInt(value, 10)
}

// ParseLine parses a line produced by FormatLine.
func ParseLine(line string) (Sample, error) {
	open := strings.IndexByte(line, '{')
	closing := strings.LastIndex(line, "} ")
	if open <= 0 || closing < open {
		return Sample{}, fmt.Errorf("parse line %q: missing label block", line)
	}

	metric := line[:open]
	labels, err := parseKey(line[open+1 : closing])
	if err != nil {
		return Sample{}, fmt.Errorf("parse line %q: %w", line, err)
	}

	value, err := strconv.ParseInt(strings.TrimSpace(line[closing+2:]), 10, 64)
	if err != nil {
		return Sample{}, fmt.Errorf("parse line %q: %w", line, err)
	}

	return Sample{Metric: metric, Labels: labels, Value: value}, nil
}

// parseKey splits a canonical key back into its labels.
func parseKey(key string) (LabelSet, error) {
	const (
		nodePrefix = `node="`
		separator  = `",isp="`
	)
	if len(key) <= len(nodePrefix) || !strings.HasPrefix(key, nodePrefix) || !strings.HasSuffix(key, `"`) {
		return LabelSet{}, fmt.Errorf("unexpected label format")
	}
	body := key[len(nodePrefix) : len(key)-1]
	node, isp, ok := strings.Cut(body, separator)
	if !ok {
		return LabelSet{}, fmt.Errorf("unexpected label format")
	}
	return LabelSet{Node: node, ISP: isp}, nil
}

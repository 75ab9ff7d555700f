package output

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Node   string `json:"node" yaml:"node"`
	ISP    string `json:"isp" yaml:"isp"`
	Status int    `json:"status" yaml:"status"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"", FormatTable, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	if _, ok := NewFormatter(FormatTable).(*TableFormatter); !ok {
		t.Error("expected TableFormatter")
	}
	if _, ok := NewFormatter("unknown").(*TableFormatter); !ok {
		t.Error("unknown format should fall back to TableFormatter")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	data := []sample{{Node: "n1", ISP: "a", Status: 1}}

	if err := (&JSONFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "[\n  {\n    \"node\": \"n1\",\n    \"isp\": \"a\",\n    \"status\": 1\n  }\n]\n"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	data := []sample{{Node: "n1", ISP: "a", Status: 1}, {Node: "n2", ISP: "b", Status: 0}}

	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "- node: n1\n  isp: a\n  status: 1\n- node: n2\n  isp: b\n  status: 0\n"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestYAMLFormatter_Map(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLFormatter{}).Format(&buf, map[string]string{"version": "dev"}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "version: dev" {
		t.Errorf("Format() = %q", buf.String())
	}
}

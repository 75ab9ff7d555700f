package output

import (
	"bytes"
	"strings"
	"testing"
)

type sampleRows []sample

func (s sampleRows) Table() *Table {
	t := &Table{Headers: []string{"NODE", "ISP"}}
	for _, r := range s {
		t.AddRow(r.Node, r.ISP)
	}
	return t
}

func TestTableFormatter_Format_Table(t *testing.T) {
	table := &Table{
		Headers: []string{"NAME", "VALUE"},
		Rows: [][]string{
			{"key1", "value1"},
			{"longer-key", "value2"},
		},
	}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "NAME        VALUE\nkey1        value1\nlonger-key  value2\n"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestTableFormatter_Format_TableValue(t *testing.T) {
	table := Table{Headers: []string{"COL"}, Rows: [][]string{{"data"}}}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "data") {
		t.Error("Format() missing data from Table value")
	}
}

func TestTableFormatter_Format_NoHeaders(t *testing.T) {
	table := &Table{Headers: []string{"NAME"}, Rows: [][]string{{"row"}}}

	var buf bytes.Buffer
	if err := (&TableFormatter{NoHeaders: true}).Format(&buf, table); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "row\n" {
		t.Errorf("Format() = %q, want %q", buf.String(), "row\n")
	}
}

func TestTableFormatter_Format_Tabular(t *testing.T) {
	var buf bytes.Buffer
	rows := sampleRows{{Node: "n1", ISP: "a"}}

	if err := (&TableFormatter{}).Format(&buf, rows); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "NODE  ISP\nn1    a\n" {
		t.Errorf("Format() = %q", buf.String())
	}
}

func TestTableFormatter_Format_Nil(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("Format(nil) wrote %q", buf.String())
	}
}

func TestTableFormatter_Format_FallbackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, map[string]int{"applied": 2}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"applied\": 2\n}\n" {
		t.Errorf("Format() = %q", buf.String())
	}
}

func TestTable_RenderHeadersOnly(t *testing.T) {
	var buf bytes.Buffer
	table := &Table{}
	table.SetHeaders("NODE", "ISP")

	if err := table.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "NODE  ISP\n" {
		t.Errorf("Render() = %q", buf.String())
	}
}

package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLabelLength is the maximum length of a node or isp label in bytes.
const MaxLabelLength = 256

// LabelSet identifies one tracked (node, isp) pair.
type LabelSet struct {
	Node string
	ISP  string
}

// NewLabelSet builds a LabelSet and validates both labels.
func NewLabelSet(node, isp string) (LabelSet, error) {
	ls := LabelSet{Node: node, ISP: isp}
	if err := ls.Validate(); err != nil {
		return LabelSet{}, err
	}
	return ls, nil
}

// Validate checks that both labels can be embedded in the canonical key
// without ambiguity.
//
// Labels must be non-empty valid UTF-8 of at most MaxLabelLength bytes and
// must not contain double quotes, backslashes or control characters.
func (ls LabelSet) Validate() error {
	if err := validateLabel("node", ls.Node); err != nil {
		return err
	}
	return validateLabel("isp", ls.ISP)
}

// Key returns the canonical map key: node="<node>",isp="<isp>".
func (ls LabelSet) Key() string {
	var b strings.Builder
	b.Grow(len(ls.Node) + len(ls.ISP) + 14)
	b.WriteString(`node="`)
	b.WriteString(ls.Node)
	b.WriteString(`",isp="`)
	b.WriteString(ls.ISP)
	b.WriteByte('"')
	return b.String()
}

// String implements fmt.Stringer.
func (ls LabelSet) String() string {
	return ls.Key()
}

func validateLabel(name, value string) error {
	if value == "" {
		return ErrInvalidLabel.WithDetails(name + " must not be empty")
	}
	if len(value) > MaxLabelLength {
		return ErrInvalidLabel.WithDetails(name + " exceeds maximum length")
	}
	if !utf8.ValidString(value) {
		return ErrInvalidLabel.WithDetails(name + " is not valid UTF-8")
	}
	for _, r := range value {
		if r == '"' || r == '\\' || unicode.IsControl(r) {
			return ErrInvalidLabel.WithDetails(name + " contains a forbidden character")
		}
	}
	return nil
}

// BackfillEntry is a validated conditional last-update seed.
type BackfillEntry struct {
	Labels     LabelSet
	LastUpdate int64
}

// NewBackfillEntry builds a BackfillEntry, rejecting invalid labels and
// negative timestamps.
func NewBackfillEntry(node, isp string, lastUpdate int64) (BackfillEntry, error) {
	ls, err := NewLabelSet(node, isp)
	if err != nil {
		return BackfillEntry{}, err
	}
	if lastUpdate < 0 {
		return BackfillEntry{}, ErrInvalidValue.WithDetails("lastupdate must not be negative")
	}
	return BackfillEntry{Labels: ls, LastUpdate: lastUpdate}, nil
}

// BackfillResult reports how a backfill batch was applied.
type BackfillResult struct {
	Applied int
	Skipped int
}

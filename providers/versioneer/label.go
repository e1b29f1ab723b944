package versioneer

import (
	"fmt"
	"strings"
)

// Label is the closed set of canonical pre-release labels.
type Label int

// Supported pre-release labels, ordered by precedence.
const (
	Alpha Label = iota
	Beta
	RC
)

var (
	labelNames      = [...]string{"alpha", "beta", "rc"}
	labelShortNames = [...]string{"a", "b", "rc"}
	labelRONNames   = [...]string{"Alpha", "Beta", "Rc"}
)

// labelAliases maps every accepted input spelling to its canonical label.
var labelAliases = map[string]Label{
	"alpha":   Alpha,
	"a":       Alpha,
	"beta":    Beta,
	"b":       Beta,
	"rc":      RC,
	"c":       RC,
	"preview": RC,
	"pre":     RC,
}

// LookupLabel resolves any alias spelling (case-insensitive) to a Label.
func LookupLabel(s string) (Label, bool) {
	l, ok := labelAliases[strings.ToLower(s)]
	return l, ok
}

// ParseLabel is LookupLabel returning an error for unknown spellings.
func ParseLabel(s string) (Label, error) {
	l, ok := LookupLabel(s)
	if !ok {
		return 0, fmt.Errorf("invalid pre-release label %q, valid labels: alpha, beta, rc", s)
	}
	return l, nil
}

// String returns the long form ('alpha', 'beta', 'rc') used by SemVer.
func (l Label) String() string {
	if l < Alpha || l > RC {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return labelNames[l]
}

// Short returns the PEP 440 normalized form ('a', 'b', 'rc').
func (l Label) Short() string {
	if l < Alpha || l > RC {
		return l.String()
	}
	return labelShortNames[l]
}

// RON returns the identifier used in the canonical serialization.
func (l Label) RON() string {
	if l < Alpha || l > RC {
		return l.String()
	}
	return labelRONNames[l]
}

// Next returns the following label. RC is terminal.
func (l Label) Next() (Label, bool) {
	if l >= RC {
		return l, false
	}
	return l + 1, true
}

// PreRelease is a labelled pre-release with an optional number.
type PreRelease struct {
	Label  Label
	Number *uint64
}

// String renders the pre-release as 'label' or 'label.N'.
func (p PreRelease) String() string {
	if p.Number == nil {
		return p.Label.String()
	}
	return fmt.Sprintf("%s.%d", p.Label, *p.Number)
}

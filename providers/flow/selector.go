package flow

import (
	"github.com/zerv/zerv-core/providers/fetchers"
	"github.com/zerv/zerv-core/providers/ver"
	"github.com/zerv/zerv-core/providers/versioneer"
)

// TagSelector accepts tags that parse under a grammar and ranks them by version.
type TagSelector struct {
	grammar ver.Grammar
	parsed  map[string]*versioneer.Vars
}

var _ fetchers.TagSelector = (*TagSelector)(nil)

// NewTagSelector creates a selector for grammar. ver.Auto accepts every supported grammar.
func NewTagSelector(grammar ver.Grammar) *TagSelector {
	return &TagSelector{grammar: grammar, parsed: map[string]*versioneer.Vars{}}
}

func (s *TagSelector) parse(name string) *versioneer.Vars {
	if v, ok := s.parsed[name]; ok {
		return v
	}
	var v *versioneer.Vars
	if z, err := ver.Parse(name, s.grammar); err == nil {
		v = &z.Vars
	}
	s.parsed[name] = v
	return v
}

// Accept reports whether name parses as a version.
func (s *TagSelector) Accept(name string) bool {
	return s.parse(name) != nil
}

// Less orders accepted tags by version, then by name.
func (s *TagSelector) Less(a, b string) bool {
	va, vb := s.parse(a), s.parse(b)
	if va == nil || vb == nil {
		return va == nil && vb != nil
	}
	if c := versioneer.Compare(*va, *vb, releaseOrder); c != 0 {
		return c < 0
	}
	return a < b
}

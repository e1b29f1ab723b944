package versioneer

import (
	"strconv"

	"github.com/zerv/zerv-core/internal/ptr"
)

// Vars is the canonical superset model. Every optional field is a pointer, nil meaning None.
type Vars struct {
	Major *uint64
	Minor *uint64
	Patch *uint64
	Epoch *uint64

	PreRelease *PreRelease
	Post       *uint64
	Dev        *uint64

	Distance         *uint64
	Dirty            *bool
	BumpedBranch     *string
	BumpedCommitHash *string
	BumpedTimestamp  *int64

	LastBranch     *string
	LastCommitHash *string
	LastTimestamp  *int64
	LastTagVersion *string

	Custom Custom
}

// Clone returns a deep copy.
func (v Vars) Clone() Vars {
	out := Vars{
		Major:            ptr.Clone(v.Major),
		Minor:            ptr.Clone(v.Minor),
		Patch:            ptr.Clone(v.Patch),
		Epoch:            ptr.Clone(v.Epoch),
		Post:             ptr.Clone(v.Post),
		Dev:              ptr.Clone(v.Dev),
		Distance:         ptr.Clone(v.Distance),
		Dirty:            ptr.Clone(v.Dirty),
		BumpedBranch:     ptr.Clone(v.BumpedBranch),
		BumpedCommitHash: ptr.Clone(v.BumpedCommitHash),
		BumpedTimestamp:  ptr.Clone(v.BumpedTimestamp),
		LastBranch:       ptr.Clone(v.LastBranch),
		LastCommitHash:   ptr.Clone(v.LastCommitHash),
		LastTimestamp:    ptr.Clone(v.LastTimestamp),
		LastTagVersion:   ptr.Clone(v.LastTagVersion),
	}
	if v.PreRelease != nil {
		pr := PreRelease{Label: v.PreRelease.Label, Number: ptr.Clone(v.PreRelease.Number)}
		out.PreRelease = &pr
	}
	if len(v.Custom) > 0 {
		out.Custom = append(Custom(nil), v.Custom...)
	}
	return out
}

// Merge returns a copy of v where every non-nil field of overlay replaces the
// receiver's value. Custom entries are merged key by key.
func (v Vars) Merge(overlay Vars) Vars {
	out := v.Clone()
	o := overlay.Clone()
	pick(&out.Major, o.Major)
	pick(&out.Minor, o.Minor)
	pick(&out.Patch, o.Patch)
	pick(&out.Epoch, o.Epoch)
	pick(&out.PreRelease, o.PreRelease)
	pick(&out.Post, o.Post)
	pick(&out.Dev, o.Dev)
	pick(&out.Distance, o.Distance)
	pick(&out.Dirty, o.Dirty)
	pick(&out.BumpedBranch, o.BumpedBranch)
	pick(&out.BumpedCommitHash, o.BumpedCommitHash)
	pick(&out.BumpedTimestamp, o.BumpedTimestamp)
	pick(&out.LastBranch, o.LastBranch)
	pick(&out.LastCommitHash, o.LastCommitHash)
	pick(&out.LastTimestamp, o.LastTimestamp)
	pick(&out.LastTagVersion, o.LastTagVersion)
	for _, e := range o.Custom {
		out.Custom = out.Custom.With(e.Key, e.Value)
	}
	return out
}

func pick[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// Has reports whether the field currently holds a value.
func (v Vars) Has(f Field) bool {
	_, ok := v.Text(f)
	return ok
}

// Value returns the scalar value of a field. Pre-release resolves to its label, bool
// fields to "true"/"false". The boolean is false when the field is None or unknown.
func (v Vars) Value(f Field) (Value, bool) {
	switch f {
	case FieldMajor:
		return numValue(v.Major)
	case FieldMinor:
		return numValue(v.Minor)
	case FieldPatch:
		return numValue(v.Patch)
	case FieldEpoch:
		return numValue(v.Epoch)
	case FieldPost:
		return numValue(v.Post)
	case FieldDev:
		return numValue(v.Dev)
	case FieldDistance:
		return numValue(v.Distance)
	case FieldPreRelease:
		if v.PreRelease == nil {
			return Value{}, false
		}
		return StrValue(v.PreRelease.Label.String()), true
	case FieldDirty:
		if v.Dirty == nil {
			return Value{}, false
		}
		return StrValue(strconv.FormatBool(*v.Dirty)), true
	case FieldBumpedBranch:
		return strValue(v.BumpedBranch)
	case FieldBumpedCommitHash:
		return strValue(v.BumpedCommitHash)
	case FieldBumpedCommitHashShort:
		return strValue(shortHash(v.BumpedCommitHash))
	case FieldBumpedTimestamp:
		return tsValue(v.BumpedTimestamp)
	case FieldLastBranch:
		return strValue(v.LastBranch)
	case FieldLastCommitHash:
		return strValue(v.LastCommitHash)
	case FieldLastCommitHashShort:
		return strValue(shortHash(v.LastCommitHash))
	case FieldLastTimestamp:
		return tsValue(v.LastTimestamp)
	case FieldLastTagVersion:
		return strValue(v.LastTagVersion)
	}
	if name, ok := f.Custom(); ok {
		return v.Custom.Get(name)
	}
	if pattern, ok := f.Timestamp(); ok {
		ts := v.BumpedTimestamp
		if ts == nil {
			ts = v.LastTimestamp
		}
		if ts == nil {
			return Value{}, false
		}
		s, err := FormatTimestamp(pattern, *ts)
		if err != nil {
			return Value{}, false
		}
		return ParseValue(s), true
	}
	return Value{}, false
}

// Text returns the textual value of a field. Pre-release renders as 'label[.N]'.
func (v Vars) Text(f Field) (string, bool) {
	if f == FieldPreRelease {
		if v.PreRelease == nil {
			return "", false
		}
		return v.PreRelease.String(), true
	}
	val, ok := v.Value(f)
	if !ok {
		return "", false
	}
	return val.String(), true
}

func numValue(p *uint64) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	return NumValue(*p), true
}

func strValue(p *string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	return StrValue(*p), true
}

func tsValue(p *int64) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	if *p < 0 {
		return StrValue(strconv.FormatInt(*p, 10)), true
	}
	return NumValue(uint64(*p)), true
}

func shortHash(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	if len(s) > ShortHashLen {
		s = s[:ShortHashLen]
	}
	return &s
}

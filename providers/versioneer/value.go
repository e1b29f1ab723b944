package versioneer

import (
	"strconv"
	"strings"
)

// Value is a scalar identifier that is either numeric or alphanumeric.
type Value struct {
	Str   string
	Num   uint64
	IsNum bool
}

// NumValue builds a numeric Value.
func NumValue(n uint64) Value {
	return Value{Num: n, IsNum: true}
}

// StrValue builds an alphanumeric Value.
func StrValue(s string) Value {
	return Value{Str: s}
}

// ParseValue returns a numeric Value when s is a canonical decimal number
// (no sign, no leading zeros), otherwise an alphanumeric one. Text is never altered.
func ParseValue(s string) Value {
	if isCanonicalNumber(s) {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return NumValue(n)
		}
	}
	return StrValue(s)
}

func isCanonicalNumber(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String returns the textual form.
func (v Value) String() string {
	if v.IsNum {
		return strconv.FormatUint(v.Num, 10)
	}
	return v.Str
}

// Compare orders values the way SemVer orders pre-release identifiers:
// numeric identifiers compare numerically and sort before alphanumeric ones,
// alphanumeric identifiers compare lexically by code point.
func (v Value) Compare(o Value) int {
	switch {
	case v.IsNum && o.IsNum:
		return compareUint(v.Num, o.Num)
	case v.IsNum:
		return -1
	case o.IsNum:
		return 1
	}
	return strings.Compare(v.Str, o.Str)
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CustomEntry is one named custom variable.
type CustomEntry struct {
	Key   string
	Value Value
}

// Custom is the ordered custom variable mapping.
type Custom []CustomEntry

// Get returns the value stored under key.
func (c Custom) Get(key string) (Value, bool) {
	for _, e := range c {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// With returns a copy of c where key is set to v. New keys are appended.
func (c Custom) With(key string, v Value) Custom {
	out := make(Custom, 0, len(c)+1)
	found := false
	for _, e := range c {
		if e.Key == key {
			e.Value = v
			found = true
		}
		out = append(out, e)
	}
	if !found {
		out = append(out, CustomEntry{Key: key, Value: v})
	}
	return out
}

package versioneer

import (
	"strings"
)

// Field references one canonical model variable inside a schema.
type Field string

// Canonical model fields.
const (
	FieldMajor                 Field = "major"
	FieldMinor                 Field = "minor"
	FieldPatch                 Field = "patch"
	FieldEpoch                 Field = "epoch"
	FieldPreRelease            Field = "pre_release"
	FieldPost                  Field = "post"
	FieldDev                   Field = "dev"
	FieldDistance              Field = "distance"
	FieldDirty                 Field = "dirty"
	FieldBumpedBranch          Field = "bumped_branch"
	FieldBumpedCommitHash      Field = "bumped_commit_hash"
	FieldBumpedCommitHashShort Field = "bumped_commit_hash_short"
	FieldBumpedTimestamp       Field = "bumped_timestamp"
	FieldLastBranch            Field = "last_branch"
	FieldLastCommitHash        Field = "last_commit_hash"
	FieldLastCommitHashShort   Field = "last_commit_hash_short"
	FieldLastTimestamp         Field = "last_timestamp"
	FieldLastTagVersion        Field = "last_tag_version"
)

const (
	customPrefix    = "custom."
	timestampPrefix = "ts."

	// ShortHashLen is the length of the *_commit_hash_short fields.
	ShortHashLen = 7
)

var knownFields = map[Field]bool{
	FieldMajor: true, FieldMinor: true, FieldPatch: true, FieldEpoch: true,
	FieldPreRelease: true, FieldPost: true, FieldDev: true,
	FieldDistance: true, FieldDirty: true,
	FieldBumpedBranch: true, FieldBumpedCommitHash: true, FieldBumpedCommitHashShort: true, FieldBumpedTimestamp: true,
	FieldLastBranch: true, FieldLastCommitHash: true, FieldLastCommitHashShort: true, FieldLastTimestamp: true,
	FieldLastTagVersion: true,
}

// VersionFields lists the version fields by canonical significance, most significant first.
var VersionFields = []Field{FieldEpoch, FieldMajor, FieldMinor, FieldPatch, FieldPreRelease, FieldPost, FieldDev}

// ContextFields lists the VCS-context fields affected by context-aware bumps.
var ContextFields = []Field{FieldDistance, FieldDirty, FieldBumpedBranch, FieldBumpedCommitHash, FieldBumpedTimestamp}

// CustomField references a custom variable.
func CustomField(name string) Field {
	return Field(customPrefix + name)
}

// TimestampField references a timestamp pattern (e.g. 'YYYY').
func TimestampField(pattern string) Field {
	return Field(timestampPrefix + pattern)
}

// Custom returns the custom variable name if f is a custom field.
func (f Field) Custom() (string, bool) {
	name, ok := strings.CutPrefix(string(f), customPrefix)
	return name, ok && name != ""
}

// Timestamp returns the pattern if f is a timestamp field.
func (f Field) Timestamp() (string, bool) {
	pattern, ok := strings.CutPrefix(string(f), timestampPrefix)
	return pattern, ok && pattern != ""
}

// Valid reports whether the field exists in the canonical model.
func (f Field) Valid() bool {
	if knownFields[f] {
		return true
	}
	if _, ok := f.Custom(); ok {
		return true
	}
	if pattern, ok := f.Timestamp(); ok {
		_, known := timestampPatterns[pattern]
		return known
	}
	return false
}

// IsVersion reports whether f is one of VersionFields.
func (f Field) IsVersion() bool {
	return VersionRank(f) >= 0
}

// IsContext reports whether f is one of ContextFields.
func (f Field) IsContext() bool {
	for _, c := range ContextFields {
		if c == f {
			return true
		}
	}
	return false
}

// VersionRank returns the canonical significance index of a version field, or -1.
func VersionRank(f Field) int {
	for i, v := range VersionFields {
		if v == f {
			return i
		}
	}
	return -1
}

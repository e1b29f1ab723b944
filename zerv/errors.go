package zerv

import (
	"errors"

	"github.com/zerv/zerv-core/providers/bump"
	"github.com/zerv/zerv-core/providers/fetchers"
	"github.com/zerv/zerv-core/providers/render"
	"github.com/zerv/zerv-core/providers/schemas"
	"github.com/zerv/zerv-core/providers/ver"
	"github.com/zerv/zerv-core/providers/versioneer"
)

var (
	// ErrUnrecognizedFormat is returned when the input matches no supported grammar.
	ErrUnrecognizedFormat = ver.ErrUnrecognizedFormat
	// ErrSchemaFieldMissing is returned when a template names a field outside the schema.
	ErrSchemaFieldMissing = render.ErrSchemaFieldMissing
	// ErrInvalidBumpTarget is returned when a bump cannot progress.
	ErrInvalidBumpTarget = bump.ErrInvalidBumpTarget
	// ErrUnknownPreset is returned for an unrecognized schema preset.
	ErrUnknownPreset = schemas.ErrUnknownPreset
	// ErrNoRepository is returned outside a working repository.
	ErrNoRepository = fetchers.ErrNoRepository
	// ErrNoTagFound is logged when no version tag is reachable.
	ErrNoTagFound = fetchers.ErrNoTagFound
	// ErrInvalidSchema is returned for a schema that breaks its invariants.
	ErrInvalidSchema = versioneer.ErrInvalidSchema
	// ErrMalformed is returned for a canonical document that cannot be read.
	ErrMalformed = versioneer.ErrMalformed
	// ErrVersionMismatch is returned when two derived versions disagree.
	ErrVersionMismatch = errors.New("version mismatch")
)

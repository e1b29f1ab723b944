package bump

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerv/zerv-core/internal/ptr"
	"github.com/zerv/zerv-core/providers/versioneer"
)

func TestParseComponentSpec(t *testing.T) {
	idx, v, err := ParseComponentSpec("0")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Nil(t, v)

	idx, v, err = ParseComponentSpec("~1=2024")
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
	assert.Equal(t, uint64(2024), *v)

	for _, spec := range []string{"", "x", "-1", "~0", "1=", "1=abc"} {
		_, _, err := ParseComponentSpec(spec)
		assert.True(t, errors.Is(err, ErrInvalidBumpTarget), spec)
	}
}

func TestApplyComponents_Fields(t *testing.T) {
	z := versioneer.Zerv{Schema: standard, Vars: full()}

	out, err := ApplyComponents(z, []ComponentRequest{{Segment: versioneer.Core, Index: 1, Amount: 1}}, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), *out.Vars.Minor)
	assert.Equal(t, uint64(0), *out.Vars.Patch)
	assert.Equal(t, uint64(3), *z.Vars.Minor, "input is not modified")

	out, err = ApplyComponents(z, []ComponentRequest{{Segment: versioneer.Core, Index: -1, Override: ptr.Point[uint64](9)}}, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), *out.Vars.Patch)
	assert.Equal(t, uint64(3), *out.Vars.Minor)

	// extra_core index 1 is pre_release: override then bump its number
	out, err = ApplyComponents(z, []ComponentRequest{{Segment: versioneer.ExtraCore, Index: 1, Override: ptr.Point[uint64](5), Amount: 2}}, false)
	require.NoError(t, err)
	assert.Equal(t, "alpha.7", out.Vars.PreRelease.String())
	assert.Nil(t, out.Vars.Post)
}

func TestApplyComponents_IntLiteral(t *testing.T) {
	schema := versioneer.MustSchema(
		versioneer.Fields(versioneer.FieldMajor),
		nil,
		[]versioneer.Component{versioneer.Str("linux"), versioneer.Int(20)},
	)
	z := versioneer.Zerv{Schema: schema, Vars: versioneer.Vars{Major: ptr.Point[uint64](1)}}

	out, err := ApplyComponents(z, []ComponentRequest{{Segment: versioneer.Build, Index: 1, Amount: 1}}, false)
	require.NoError(t, err)
	assert.Equal(t, versioneer.Int(21), out.Schema.Build[1])
	assert.Equal(t, versioneer.Int(20), z.Schema.Build[1])

	out, err = ApplyComponents(z, []ComponentRequest{{Segment: versioneer.Build, Index: -1, Override: ptr.Point[uint64](7), Amount: 1}}, false)
	require.NoError(t, err)
	assert.Equal(t, versioneer.Int(8), out.Schema.Build[1])
}

func TestApplyComponents_Invalid(t *testing.T) {
	schema := versioneer.MustSchema(
		versioneer.Fields(versioneer.FieldMajor),
		nil,
		[]versioneer.Component{versioneer.Str("linux"), versioneer.Var(versioneer.FieldDistance)},
	)
	z := versioneer.Zerv{Schema: schema, Vars: versioneer.Vars{Major: ptr.Point[uint64](1)}}

	for _, r := range []ComponentRequest{
		{Segment: versioneer.Core, Index: 1, Amount: 1},
		{Segment: versioneer.Core, Index: -2, Amount: 1},
		{Segment: versioneer.ExtraCore, Index: 0, Amount: 1},
		{Segment: versioneer.Build, Index: 0, Amount: 1},
		{Segment: versioneer.Build, Index: 1, Amount: 1},
	} {
		_, err := ApplyComponents(z, []ComponentRequest{r}, false)
		assert.True(t, errors.Is(err, ErrInvalidBumpTarget), "%+v: %v", r, err)
	}
}

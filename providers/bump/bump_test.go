package bump

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerv/zerv-core/internal/ptr"
	"github.com/zerv/zerv-core/providers/versioneer"
)

var (
	coreOnly = versioneer.MustSchema(versioneer.Fields(versioneer.FieldMajor, versioneer.FieldMinor, versioneer.FieldPatch), nil, nil)
	standard = versioneer.MustSchema(
		versioneer.Fields(versioneer.FieldMajor, versioneer.FieldMinor, versioneer.FieldPatch),
		versioneer.Fields(versioneer.FieldEpoch, versioneer.FieldPreRelease, versioneer.FieldPost, versioneer.FieldDev),
		versioneer.Fields(versioneer.FieldBumpedBranch, versioneer.FieldDistance, versioneer.FieldBumpedCommitHashShort),
	)
)

func full() versioneer.Vars {
	return versioneer.Vars{
		Epoch:            ptr.Point[uint64](1),
		Major:            ptr.Point[uint64](2),
		Minor:            ptr.Point[uint64](3),
		Patch:            ptr.Point[uint64](4),
		PreRelease:       &versioneer.PreRelease{Label: versioneer.Alpha, Number: ptr.Point[uint64](1)},
		Post:             ptr.Point[uint64](5),
		Dev:              ptr.Point[uint64](6),
		Distance:         ptr.Point[uint64](7),
		Dirty:            ptr.Point(true),
		BumpedBranch:     ptr.Point("main"),
		BumpedCommitHash: ptr.Point("deadbeefcafe"),
		BumpedTimestamp:  ptr.Point[int64](1700000000),
	}
}

func TestBump_MinorResetsLower(t *testing.T) {
	in := versioneer.Vars{
		Major:      ptr.Point[uint64](1),
		Minor:      ptr.Point[uint64](2),
		Patch:      ptr.Point[uint64](3),
		PreRelease: &versioneer.PreRelease{Label: versioneer.RC, Number: ptr.Point[uint64](1)},
	}
	for _, schema := range []versioneer.Schema{coreOnly, standard} {
		out, err := Bump(in, schema, Minor, 1, false)
		require.NoError(t, err)
		assert.Equal(t, versioneer.Vars{
			Major: ptr.Point[uint64](1),
			Minor: ptr.Point[uint64](3),
			Patch: ptr.Point[uint64](0),
		}, out)
	}
	// input untouched
	assert.Equal(t, uint64(2), *in.Minor)
	assert.NotNil(t, in.PreRelease)
}

func TestBump_Resets(t *testing.T) {
	cases := []struct {
		Target Target
		Expect func(v *versioneer.Vars)
	}{
		{Epoch, func(v *versioneer.Vars) {
			// epoch follows the release segment in this schema, the release is kept
			v.Epoch = ptr.Point[uint64](2)
			v.PreRelease, v.Post, v.Dev = nil, nil, nil
		}},
		{Major, func(v *versioneer.Vars) {
			v.Major = ptr.Point[uint64](3)
			v.Minor, v.Patch = ptr.Point[uint64](0), ptr.Point[uint64](0)
			v.PreRelease, v.Post, v.Dev = nil, nil, nil
		}},
		{Patch, func(v *versioneer.Vars) {
			v.Patch = ptr.Point[uint64](5)
			v.PreRelease, v.Post, v.Dev = nil, nil, nil
		}},
		{PreReleaseLabel, func(v *versioneer.Vars) {
			v.PreRelease = &versioneer.PreRelease{Label: versioneer.Beta, Number: ptr.Point[uint64](0)}
			v.Post, v.Dev = nil, nil
		}},
		{PreReleaseNum, func(v *versioneer.Vars) {
			v.PreRelease = &versioneer.PreRelease{Label: versioneer.Alpha, Number: ptr.Point[uint64](2)}
			v.Post, v.Dev = nil, nil
		}},
		{Post, func(v *versioneer.Vars) {
			v.Post = ptr.Point[uint64](6)
			v.Dev = nil
		}},
		{Dev, func(v *versioneer.Vars) {
			v.Dev = ptr.Point[uint64](7)
		}},
	}
	for _, c := range cases {
		t.Run(string(c.Target), func(t *testing.T) {
			expect := full()
			c.Expect(&expect)
			out, err := Bump(full(), standard, c.Target, 1, false)
			require.NoError(t, err)
			assert.Equal(t, expect, out)
		})
	}
}

func TestBump_Context(t *testing.T) {
	out, err := Bump(full(), standard, Major, 1, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), *out.Distance)
	assert.True(t, *out.Dirty)
	assert.Equal(t, "main", *out.BumpedBranch)
	assert.NotNil(t, out.BumpedCommitHash)
	assert.NotNil(t, out.BumpedTimestamp)

	out, err = Bump(full(), standard, Major, 1, true)
	require.NoError(t, err)
	assert.Nil(t, out.Distance)
	assert.Nil(t, out.Dirty)
	assert.Nil(t, out.BumpedBranch)
	assert.Nil(t, out.BumpedCommitHash)
	assert.Nil(t, out.BumpedTimestamp)
}

func TestBump_AbsentDefaultsToZero(t *testing.T) {
	out, err := Bump(versioneer.Vars{}, coreOnly, Patch, 3, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), *out.Patch)
	assert.Nil(t, out.Major)

	out, err = Bump(versioneer.Vars{}, coreOnly, Post, 1, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), *out.Post)

	out, err = Bump(versioneer.Vars{}, coreOnly, PreReleaseNum, 2, false)
	require.NoError(t, err)
	assert.Equal(t, &versioneer.PreRelease{Label: versioneer.Alpha, Number: ptr.Point[uint64](2)}, out.PreRelease)
}

func TestBump_PreReleaseLabel(t *testing.T) {
	out, err := Bump(versioneer.Vars{}, standard, PreReleaseLabel, 1, false)
	require.NoError(t, err)
	assert.Equal(t, versioneer.Alpha, out.PreRelease.Label)
	assert.Equal(t, uint64(0), *out.PreRelease.Number)

	out, err = Bump(versioneer.Vars{}, standard, PreReleaseLabel, 3, false)
	require.NoError(t, err)
	assert.Equal(t, versioneer.RC, out.PreRelease.Label)

	rc := versioneer.Vars{PreRelease: &versioneer.PreRelease{Label: versioneer.RC, Number: ptr.Point[uint64](4)}}
	_, err = Bump(rc, standard, PreReleaseLabel, 1, false)
	assert.True(t, errors.Is(err, ErrInvalidBumpTarget))

	beta := versioneer.Vars{PreRelease: &versioneer.PreRelease{Label: versioneer.Beta}}
	_, err = Bump(beta, standard, PreReleaseLabel, 2, false)
	assert.True(t, errors.Is(err, ErrInvalidBumpTarget))
}

func TestBump_Overflow(t *testing.T) {
	top := versioneer.Vars{Major: ptr.Point[uint64](math.MaxUint64)}
	_, err := Bump(top, standard, Major, 1, false)
	assert.True(t, errors.Is(err, ErrInvalidBumpTarget))

	pr := versioneer.Vars{PreRelease: &versioneer.PreRelease{Label: versioneer.RC, Number: ptr.Point[uint64](math.MaxUint64 - 1)}}
	out, err := Bump(pr, standard, PreReleaseNum, 1, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), *out.PreRelease.Number)
	_, err = Bump(out, standard, PreReleaseNum, 1, false)
	assert.True(t, errors.Is(err, ErrInvalidBumpTarget))
}

func TestBump_NeverResetsMoreSignificant(t *testing.T) {
	// epoch placed last in precedence must survive a major bump
	schema := versioneer.MustSchema(versioneer.Fields(versioneer.FieldMajor), versioneer.Fields(versioneer.FieldEpoch), nil)
	out, err := Bump(full(), schema, Major, 1, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), *out.Epoch)
	assert.Equal(t, uint64(0), *out.Minor)
}

func TestBump_FollowsSchemaPrecedence(t *testing.T) {
	// post outranks patch here, so a patch bump leaves post alone
	schema := versioneer.MustSchema(
		versioneer.Fields(versioneer.FieldMajor, versioneer.FieldPatch),
		versioneer.Fields(versioneer.FieldPost),
		nil,
		versioneer.ExtraCore, versioneer.Core, versioneer.Build,
	)
	assert.Equal(t, []versioneer.Field{
		versioneer.FieldEpoch, versioneer.FieldPost, versioneer.FieldMajor, versioneer.FieldMinor,
		versioneer.FieldPatch, versioneer.FieldPreRelease, versioneer.FieldDev,
	}, Order(schema))

	out, err := Bump(full(), schema, Patch, 1, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), *out.Post)
	assert.Nil(t, out.PreRelease)
	assert.Nil(t, out.Dev)

	out, err = Bump(full(), schema, Post, 1, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), *out.Patch)
	assert.Equal(t, uint64(6), *out.Post)
}

func TestOrder_PlacesMissingFieldsCanonically(t *testing.T) {
	assert.Equal(t, versioneer.VersionFields, Order(coreOnly))
	assert.Equal(t, []versioneer.Field{
		versioneer.FieldMajor, versioneer.FieldMinor, versioneer.FieldPatch,
		versioneer.FieldEpoch, versioneer.FieldPreRelease, versioneer.FieldPost, versioneer.FieldDev,
	}, Order(standard))
}

func TestBump_Errors(t *testing.T) {
	_, err := Bump(full(), standard, Target("build"), 1, false)
	assert.True(t, errors.Is(err, ErrInvalidBumpTarget))

	_, err = ParseTarget("nope")
	assert.True(t, errors.Is(err, ErrInvalidBumpTarget))

	target, err := ParseTarget("Pre_Release_Num")
	assert.NoError(t, err)
	assert.Equal(t, PreReleaseNum, target)
}

func TestApply_OverrideWins(t *testing.T) {
	in := versioneer.Vars{Major: ptr.Point[uint64](1), Minor: ptr.Point[uint64](2), Patch: ptr.Point[uint64](3)}
	plans := []Plan{
		{
			Bumps:     []Request{{Target: Minor, Amount: 1}, {Target: Patch, Amount: 1}},
			Overrides: versioneer.Vars{Patch: ptr.Point[uint64](9)},
		},
		{
			Bumps:     []Request{{Target: Patch, Amount: 1}, {Target: Minor, Amount: 1}},
			Overrides: versioneer.Vars{Patch: ptr.Point[uint64](9)},
		},
	}
	for _, p := range plans {
		out, err := Apply(in, coreOnly, p)
		require.NoError(t, err)
		assert.Equal(t, versioneer.Vars{
			Major: ptr.Point[uint64](1),
			Minor: ptr.Point[uint64](3),
			Patch: ptr.Point[uint64](9),
		}, out)
	}
}

func TestApply_HigherFirst(t *testing.T) {
	in := versioneer.Vars{Major: ptr.Point[uint64](1), Minor: ptr.Point[uint64](2), Patch: ptr.Point[uint64](3)}
	out, err := Apply(in, standard, Plan{Bumps: []Request{
		{Target: Patch, Amount: 2},
		{Target: PreReleaseNum, Amount: 1},
		{Target: Major, Amount: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), *out.Major)
	assert.Equal(t, uint64(0), *out.Minor)
	assert.Equal(t, uint64(2), *out.Patch)
	assert.Equal(t, &versioneer.PreRelease{Label: versioneer.Alpha, Number: ptr.Point[uint64](1)}, out.PreRelease)
}

func TestApply_LabelThenNumber(t *testing.T) {
	in := versioneer.Vars{PreRelease: &versioneer.PreRelease{Label: versioneer.Alpha, Number: ptr.Point[uint64](4)}}
	out, err := Apply(in, standard, Plan{Bumps: []Request{
		{Target: PreReleaseNum, Amount: 1},
		{Target: PreReleaseLabel, Amount: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, &versioneer.PreRelease{Label: versioneer.Beta, Number: ptr.Point[uint64](1)}, out.PreRelease)
}

func TestApply_ContextOverridesSurvive(t *testing.T) {
	out, err := Apply(full(), standard, Plan{
		Bumps:     []Request{{Target: Minor, Amount: 1}},
		Overrides: versioneer.Vars{Distance: ptr.Point[uint64](0)},
		Context:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), *out.Distance)
	assert.Nil(t, out.Dirty)
}

package versioneer

// Compare orders two models under a schema. It returns -1, 0 or +1.
//
// Fields compare in the schema's resolved field order. Absent numeric version fields count
// as zero. A release outranks its pre-release and dev builds, so an absent pre_release or
// dev ranks above a present one, while an absent post ranks below a present one.
func Compare(a, b Vars, s Schema) int {
	for _, f := range s.FieldOrder() {
		if c := compareField(a, b, f); c != 0 {
			return c
		}
	}
	return 0
}

func compareField(a, b Vars, f Field) int {
	switch f {
	case FieldMajor, FieldMinor, FieldPatch, FieldEpoch, FieldDistance:
		av, _ := a.Value(f)
		bv, _ := b.Value(f)
		return compareUint(av.Num, bv.Num)
	case FieldPreRelease:
		return comparePreRelease(a.PreRelease, b.PreRelease)
	case FieldPost:
		return compareOptional(a.Post, b.Post, -1)
	case FieldDev:
		return compareOptional(a.Dev, b.Dev, 1)
	case FieldDirty:
		return compareBool(a.Dirty, b.Dirty)
	}

	av, aok := a.Value(f)
	bv, bok := b.Value(f)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	return av.Compare(bv)
}

// compareOptional compares numeric options; absent is the rank of a missing value
// relative to a present one.
func compareOptional(a, b *uint64, absent int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return absent
	case b == nil:
		return -absent
	}
	return compareUint(*a, *b)
}

func comparePreRelease(a, b *PreRelease) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if a.Label != b.Label {
		if a.Label < b.Label {
			return -1
		}
		return 1
	}
	var an, bn uint64
	if a.Number != nil {
		an = *a.Number
	}
	if b.Number != nil {
		bn = *b.Number
	}
	return compareUint(an, bn)
}

func compareBool(a, b *bool) int {
	av := a != nil && *a
	bv := b != nil && *b
	switch {
	case av == bv:
		return 0
	case bv:
		return -1
	}
	return 1
}

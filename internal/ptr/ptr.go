// Package ptr provides helper functions to get pointers to basic types.
package ptr

// Point returns a pointer to the given value.
func Point[T any](v T) *T {
	return &v
}

// Deref returns the value pointed to by p.
// If p is nil, it returns the zero value of type T.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Clone returns a new pointer holding a copy of *p, or nil when p is nil.
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Equal reports whether both pointers are nil or both point to equal values.
func Equal[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

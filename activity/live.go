package activity

// Ref is a reference to a live domain object. The zero value is absent.
// Refs never serialise: after a restore every Ref in a Pending is absent,
// whatever its phase tag claims.
type Ref[T any] struct {
	value   T
	present bool
}

// Some wraps a present value.
func Some[T any](v T) Ref[T] {
	return Ref[T]{value: v, present: true}
}

// Get returns the value and whether it is present.
func (r Ref[T]) Get() (T, bool) {
	return r.value, r.present
}

// Present reports whether the value is available in this process.
func (r Ref[T]) Present() bool {
	return r.present
}

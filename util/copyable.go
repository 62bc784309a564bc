package util

// Copyable is implemented by payloads that know how to clone themselves
// deeply enough that the copy can be mutated without aliasing the original.
type Copyable[A any] interface {
	Copy() A
}

// CloneSlice returns a copy of s with a fresh backing array.
func CloneSlice[A any](s []A) []A {
	if s == nil {
		return nil
	}
	out := make([]A, len(s))
	copy(out, s)
	return out
}

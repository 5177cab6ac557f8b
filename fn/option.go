package fn

// Option is a generic container that either holds a value of type A, or
// holds nothing at all. It is used in place of a pointer or a boolean
// out-parameter when the absence of a value is a normal, expected outcome
// rather than an error.
type Option[A any] struct {
	isSome bool
	some   A
}

// Some creates an Option that holds a present value.
func Some[A any](a A) Option[A] {
	return Option[A]{
		isSome: true,
		some:   a,
	}
}

// None creates an Option holding no value.
func None[A any]() Option[A] {
	return Option[A]{}
}

// IsSome returns true if the Option holds a value.
func (o Option[A]) IsSome() bool {
	return o.isSome
}

// IsNone returns true if the Option holds no value.
func (o Option[A]) IsNone() bool {
	return !o.isSome
}

// WhenSome executes the given closure if and only if the Option holds a
// value, passing that value in.
func (o Option[A]) WhenSome(f func(A)) {
	if !o.isSome {
		return
	}

	f(o.some)
}

// UnwrapOr returns the held value, or the supplied default if the Option is
// empty.
func (o Option[A]) UnwrapOr(a A) A {
	if !o.isSome {
		return a
	}

	return o.some
}

// UnwrapOrFunc returns the held value, or the result of calling f if the
// Option is empty.
func (o Option[A]) UnwrapOrFunc(f func() A) A {
	if !o.isSome {
		return f()
	}

	return o.some
}


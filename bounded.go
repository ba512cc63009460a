package mcrelay

// BoundedString pairs a string with a maximum character-length limit. The
// type itself checks nothing; decode-side enforcement happens only when the
// limit is passed to Reader.ReadString. The limit never travels on the wire;
// both endpoints must agree on it out of band by sharing the same packet
// definition.
type BoundedString struct {
	Value    string
	MaxChars int
}

// BoundedBytes pairs a byte slice with a maximum length, the slice analogue
// of BoundedString; enforcement happens only when the limit is passed to
// Reader.ReadByteArray.
type BoundedBytes struct {
	Value  []byte
	MaxLen int
}

// Option represents the wire Option<T>: a leading bool presence flag followed
// by T only when present.
type Option[T any] struct {
	Present bool
	Value   T
}

func Some[T any](v T) Option[T] {
	return Option[T]{Present: true, Value: v}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

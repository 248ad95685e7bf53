// Package uid provides generators for unique identifiers.
package uid

// NumberID generates unique numeric identifiers.
type NumberID interface {
	Generate() uint64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}

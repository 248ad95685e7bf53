package hash

// Hash hashes plaintext secrets and verifies candidates against stored hashes.
type Hash interface {
	// Hash takes a plaintext string and returns its hashed representation.
	Hash(str string) ([]byte, error)

	// Verify checks whether the plaintext string matches the given hash.
	Verify(hashed, str string) bool
}

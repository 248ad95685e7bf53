package validator

// Validator validates request and domain structs against their declared
// constraints.
type Validator interface {
	// Validate returns nil when data satisfies its constraints.
	Validate(data any) error
}

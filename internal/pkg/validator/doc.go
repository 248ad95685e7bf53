// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code depends on a consumer-side Validator interface so validation
// can be shared and tested consistently. The concrete implementation here is
// built on go-playground/validator v10 with English translations.
package validator

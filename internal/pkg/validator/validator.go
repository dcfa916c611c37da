package validator

// Validator validates request and domain structs using struct tags.
type Validator interface {
	Validate(data any) error
}

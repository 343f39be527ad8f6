package core

// FieldError is a validation failure of one request field, keyed by its JSON path.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports invalid input caught outside struct-tag validation.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(flds ...FieldError) error {
	return &ValidationError{Fields: flds}
}

func (err *ValidationError) Error() string {
	if len(err.Fields) == 0 {
		return "invalid input"
	}
	return err.Fields[0].Field + ": " + err.Fields[0].Error
}

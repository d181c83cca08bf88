package emailverify

import "errors"

var (
	// ErrInvalidConfig is returned by Verify when the Config passed to New
	// failed validation. The wrapping error lists the offending fields.
	ErrInvalidConfig = errors.New("emailverify: invalid config")

	// ErrNilContext is returned when Verify is called with a nil context.
	ErrNilContext = errors.New("emailverify: nil context")
)

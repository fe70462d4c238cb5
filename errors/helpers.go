package errors

// Wrap attaches an operation to an existing error, preserving the code and
// retryability when the cause is already a DetectError. If err is nil,
// returns nil.
func Wrap(op Operation, err error) error {
	if err == nil {
		return nil
	}
	if de, ok := err.(*DetectError); ok {
		return &DetectError{
			Op:        op,
			Component: de.Component,
			Code:      de.Code,
			Err:       de,
			Retryable: de.Retryable,
		}
	}
	return New(op, err)
}

// WithMetadata returns a copy of the error carrying additional context.
// The original error is left untouched.
func WithMetadata(e *DetectError, md map[string]interface{}) *DetectError {
	clone := *e
	clone.Metadata = make(map[string]interface{}, len(e.Metadata)+len(md))
	for k, v := range e.Metadata {
		clone.Metadata[k] = v
	}
	for k, v := range md {
		clone.Metadata[k] = v
	}
	return &clone
}

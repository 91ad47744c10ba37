package masker

import "fmt"

// DetectionFailedError reports that the configured detector returned an
// error for a masking request. The original text is never included.
type DetectionFailedError struct {
	Err error
}

func (e *DetectionFailedError) Error() string {
	return fmt.Sprintf("sensitive data detection failed: %v", e.Err)
}

func (e *DetectionFailedError) Unwrap() error { return e.Err }

// DetectionTimeoutError reports that detection exceeded the masker's
// configured deadline.
type DetectionTimeoutError struct {
	Err error
}

func (e *DetectionTimeoutError) Error() string {
	return fmt.Sprintf("sensitive data detection timed out: %v", e.Err)
}

func (e *DetectionTimeoutError) Unwrap() error { return e.Err }

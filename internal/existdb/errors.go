package existdb

import "fmt"

// StatusError reports a non-2xx response from the eXist-db REST API. The
// service layer inspects Code to translate low-level HTTP failures into
// domain errors; this type deliberately carries no business meaning.
type StatusError struct {
	Code int
	Op   string
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("existdb %s: status %d: %s", e.Op, e.Code, e.Body)
	}
	return fmt.Sprintf("existdb %s: status %d", e.Op, e.Code)
}

// IsNotFound reports whether err is a StatusError with code 404.
func IsNotFound(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.Code == 404
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a StatusError.
func StatusCode(err error) int {
	if se, ok := err.(*StatusError); ok {
		return se.Code
	}
	return 0
}

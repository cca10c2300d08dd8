package backend

import (
	"fmt"
	"net/http"
	"unicode/utf8"
)

// Cause classifies why a call to the remote endpoint did not produce usable data.
// It only feeds logs and metrics; callers must not branch on it.
type Cause int

const (
	CauseUnreachable Cause = iota + 1
	CauseBadStatus
	CausePermissionPage
	CauseBackendCrashed
	CauseMalformedBody
	CauseUnexpectedShape
)

func (c Cause) String() string {
	switch c {
	case CauseUnreachable:
		return "unreachable"
	case CauseBadStatus:
		return "bad_status"
	case CausePermissionPage:
		return "permission_page"
	case CauseBackendCrashed:
		return "backend_crashed"
	case CauseMalformedBody:
		return "malformed_body"
	case CauseUnexpectedShape:
		return "unexpected_shape"
	default:
		return "unknown"
	}
}

// Hint is the operator-facing explanation logged next to a failure.
func (c Cause) Hint() string {
	switch c {
	case CauseUnreachable:
		return "endpoint unreachable (DNS, TLS, timeout or connection refused)"
	case CauseBadStatus:
		return "endpoint answered with a non-2xx status"
	case CausePermissionPage:
		return "endpoint returned an HTML login/permission page; check the deployment's access settings"
	case CauseBackendCrashed:
		return "endpoint script crashed before producing JSON"
	case CauseMalformedBody:
		return "endpoint returned a body that is not a JSON object"
	case CauseUnexpectedShape:
		return "endpoint returned a JSON object whose fields do not match the expected shape"
	default:
		return "unknown failure"
	}
}

// NetworkError means the request could not complete at all.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError means the endpoint answered outside the 2xx range.
type HTTPStatusError struct {
	StatusCode int
	Snippet    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("server responded with %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ApplicationError is a failure the backend reported explicitly with success=false.
// Its message is shown to users verbatim.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string { return e.Message }

func (*ApplicationError) classified() {}

// TransportFailure is a 2xx response whose body could not be understood.
type TransportFailure struct {
	Cause   Cause
	Snippet string
}

func (e *TransportFailure) Error() string {
	return "unexpected response from server: " + e.Cause.Hint()
}

func (*TransportFailure) classified() {}

// causeOf maps any error produced by the transport or the classifier to a Cause.
func causeOf(err error) Cause {
	switch e := err.(type) {
	case *NetworkError:
		return CauseUnreachable
	case *HTTPStatusError:
		return CauseBadStatus
	case *TransportFailure:
		return e.Cause
	default:
		return CauseMalformedBody
	}
}

// snippet keeps the first 200 bytes of b for logs, cut on a rune boundary.
func snippet(b []byte) string {
	const max = 200
	if len(b) <= max {
		return string(b)
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut]) + "..."
}

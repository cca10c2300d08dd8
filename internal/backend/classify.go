package backend

import (
	"bytes"
	"encoding/json"
	"strings"
)

// GenericErrorMessage is used when the backend flags a failure without saying why.
const GenericErrorMessage = "The server reported an error."

// ClassifiedResponse is one of *Success, *ApplicationError or *TransportFailure.
type ClassifiedResponse interface {
	classified()
}

// Success carries the parsed response object.
type Success struct {
	Data json.RawMessage
}

func (*Success) classified() {}

var (
	permissionMarkers = []string{
		"accounts.google.com",
		"servicelogin",
		"you need permission",
		"you need access",
		"<title>sign in",
	}
	crashMarkers = []string{
		"script function not found",
		"typeerror:",
		"referenceerror:",
		"exception:",
		"the script completed but did not return anything",
	}
)

// Classify decides what a raw 2xx response body means.
func Classify(raw []byte) ClassifiedResponse {
	fields, ok := parseObject(raw)
	if !ok {
		return &TransportFailure{Cause: sniff(raw), Snippet: snippet(raw)}
	}
	// The application-error path runs on an already parsed object, so a backend
	// message that reads like a parse failure is never demoted to a body problem.
	if flag, present := fields["success"]; present && isFalse(flag) {
		return &ApplicationError{Message: errorMessage(fields)}
	}
	return &Success{Data: json.RawMessage(bytes.TrimSpace(raw))}
}

func parseObject(raw []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func sniff(raw []byte) Cause {
	text := strings.ToLower(string(raw))
	for _, m := range permissionMarkers {
		if strings.Contains(text, m) {
			return CausePermissionPage
		}
	}
	for _, m := range crashMarkers {
		if strings.Contains(text, m) {
			return CauseBackendCrashed
		}
	}
	return CauseMalformedBody
}

func isFalse(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("false"))
}

func errorMessage(fields map[string]json.RawMessage) string {
	for _, key := range []string{"error", "message"} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return GenericErrorMessage
}

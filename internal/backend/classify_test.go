package backend

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyApplicationError(t *testing.T) {
	for _, msg := range []string{"Invalid access code", "Sheet 'Surveys' not found", "x"} {
		raw, err := json.Marshal(map[string]any{"success": false, "error": msg})
		require.NoError(t, err)

		res, ok := Classify(raw).(*ApplicationError)
		require.True(t, ok, "expected application error for %q", msg)
		assert.Equal(t, msg, res.Message)
	}
}

func TestClassifyApplicationErrorWithoutMessage(t *testing.T) {
	res, ok := Classify([]byte(`{"success":false}`)).(*ApplicationError)
	require.True(t, ok)
	assert.Equal(t, GenericErrorMessage, res.Message)

	res, ok = Classify([]byte(`{"success":false,"error":""}`)).(*ApplicationError)
	require.True(t, ok)
	assert.Equal(t, GenericErrorMessage, res.Message)

	res, ok = Classify([]byte(`{"success":false,"message":"quota exceeded"}`)).(*ApplicationError)
	require.True(t, ok)
	assert.Equal(t, "quota exceeded", res.Message)
}

func TestClassifyKeepsParseLikeApplicationMessages(t *testing.T) {
	raw := []byte(`{"success":false,"error":"SyntaxError: Unexpected token < in JSON at position 0"}`)

	res, ok := Classify(raw).(*ApplicationError)
	require.True(t, ok, "got %T", Classify(raw))
	assert.Equal(t, "SyntaxError: Unexpected token < in JSON at position 0", res.Message)
}

func TestClassifyPermissionPage(t *testing.T) {
	pages := []string{
		`<!DOCTYPE html><html><head><title>Sign in - Google Accounts</title></head></html>`,
		`<html><body><a href="https://accounts.google.com/ServiceLogin?continue=x">login</a></body></html>`,
		`<html><body>You need permission to access this script</body></html>`,
	}
	for _, page := range pages {
		res, ok := Classify([]byte(page)).(*TransportFailure)
		require.True(t, ok)
		assert.Equal(t, CausePermissionPage, res.Cause, page)
	}
}

func TestClassifyCrashedBackend(t *testing.T) {
	res, ok := Classify([]byte(`<html><body>TypeError: Cannot read properties of undefined (reading 'getRange')</body></html>`)).(*TransportFailure)
	require.True(t, ok)
	assert.Equal(t, CauseBackendCrashed, res.Cause)

	res, ok = Classify([]byte(`Script function not found: doPost`)).(*TransportFailure)
	require.True(t, ok)
	assert.Equal(t, CauseBackendCrashed, res.Cause)
}

func TestClassifyMalformedBody(t *testing.T) {
	for _, raw := range []string{"", "   ", "<html>oops</html>", `{"success":true`, `[1,2]`, `"ok"`, `null`} {
		res, ok := Classify([]byte(raw)).(*TransportFailure)
		require.True(t, ok, "raw %q", raw)
		assert.Equal(t, CauseMalformedBody, res.Cause, "raw %q", raw)
	}
}

func TestClassifySuccess(t *testing.T) {
	res, ok := Classify([]byte(` {"success":true,"companies":[]} `)).(*Success)
	require.True(t, ok)
	assert.JSONEq(t, `{"success":true,"companies":[]}`, string(res.Data))

	// A missing or non-boolean flag is not an explicit failure.
	_, ok = Classify([]byte(`{"companies":[]}`)).(*Success)
	assert.True(t, ok)
	_, ok = Classify([]byte(`{"success":null}`)).(*Success)
	assert.True(t, ok)
	_, ok = Classify([]byte(`{"success":"false"}`)).(*Success)
	assert.True(t, ok)
}

func TestSnippetTruncates(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	s := snippet(long)
	assert.Len(t, s, 203)
	assert.Equal(t, "abc", snippet([]byte("abc")))
}

func TestSnippetKeepsRunesWhole(t *testing.T) {
	// 199 ASCII bytes then a two-byte rune straddling the cut.
	b := append(bytes.Repeat([]byte("a"), 199), []byte("éééé")...)
	s := snippet(b)
	assert.True(t, utf8.ValidString(s))
	assert.Equal(t, strings.Repeat("a", 199)+"...", s)

	b = append(bytes.Repeat([]byte("a"), 198), []byte("éééé")...)
	assert.Equal(t, strings.Repeat("a", 198)+"é...", snippet(b))
}

package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportSendsSimpleRequest(t *testing.T) {
	var gotType, gotBody, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	raw, err := NewTransport(nil).Send(context.Background(), srv.URL, []byte(`{"action":"getCompanyData"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"success":true}`, string(raw))
	assert.Equal(t, "text/plain;charset=utf-8", gotType)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, `{"action":"getCompanyData"}`, gotBody)
}

func TestTransportFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/exec", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/echo", http.StatusFound)
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"redirected":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	raw, err := NewTransport(srv.Client()).Send(context.Background(), srv.URL+"/exec", []byte(`{}`))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"redirected":true`)
}

func TestTransportStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := NewTransport(nil).Send(context.Background(), srv.URL, []byte(`{}`))
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "boom", statusErr.Snippet)
}

func TestTransportNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewTransport(nil).Send(context.Background(), url, []byte(`{}`))
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, url, netErr.URL)

	err = NewTransport(nil).SendBlind(context.Background(), url, []byte(`{}`))
	assert.True(t, errors.As(err, &netErr))
}

func TestSendBlindIgnoresStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	assert.NoError(t, NewTransport(nil).SendBlind(context.Background(), srv.URL, []byte(`{}`)))
}

func TestNewHTTPClientAddsBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(context.Background(), 0, "secret-token")
	_, err := NewTransport(client).Send(context.Background(), srv.URL, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", auth)

	plain := NewHTTPClient(context.Background(), 0, "")
	_, err = NewTransport(plain).Send(context.Background(), srv.URL, []byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, auth)
}

package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// contentType keeps every call a "simple request": the upstream script host does
// not answer CORS preflight, so JSON is sent as plain text.
const contentType = "text/plain;charset=utf-8"

// Transport issues single POST requests to the remote endpoint. It keeps no state
// besides the underlying client and never retries.
type Transport struct {
	httpClient *http.Client
}

func NewTransport(httpClient *http.Client) *Transport {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Transport{httpClient: httpClient}
}

// NewHTTPClient builds the client used for the remote endpoint. A zero timeout
// leaves the platform default in place. When bearerToken is set every request is
// authorized with it, which domain-restricted script deployments require.
func NewHTTPClient(ctx context.Context, timeout time.Duration, bearerToken string) *http.Client {
	var c *http.Client
	if bearerToken != "" {
		c = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bearerToken, TokenType: "Bearer"}))
	} else {
		c = &http.Client{}
	}
	c.Timeout = timeout
	return c
}

func (t *Transport) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	return resp, nil
}

// Send posts body to url and returns the raw response text. Redirects are followed
// by the client.
func (t *Transport) Send(ctx context.Context, url string, body []byte) ([]byte, error) {
	resp, err := t.post(ctx, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Snippet: snippet(raw)}
	}
	return raw, nil
}

// SendBlind posts body and ignores whatever comes back. It only fails when the
// request could not leave the process.
func (t *Transport) SendBlind(ctx context.Context, url string, body []byte) error {
	resp, err := t.post(ctx, url, body)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

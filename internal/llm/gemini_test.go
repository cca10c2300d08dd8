package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Path              string          `json:"-"`
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction"`
	GenerationConfig  struct {
		Temperature     float32 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type fakeGemini struct {
	mu       sync.Mutex
	requests []geminiRequest
	chunks   []string
	reply    string
	status   int
}

func candidate(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]},"index":0}]}`, text)
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req geminiRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	req.Path = r.URL.Path
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`, f.status)
		return
	}
	if !strings.Contains(r.URL.Path, ":streamGenerateContent") {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, candidate(f.reply))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	for _, c := range f.chunks {
		_, _ = fmt.Fprintf(w, "data: %s\n\n", candidate(c))
	}
}

func (f *fakeGemini) last() geminiRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestGemini(t *testing.T, f *fakeGemini) *Gemini {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	p, err := NewGemini(context.Background(), "test-key", srv.URL+"/", "test-model")
	require.NoError(t, err)
	return p
}

func TestGeminiSessionStreamsChunks(t *testing.T) {
	f := &fakeGemini{chunks: []string{"Hel", "lo", " there"}}
	p := newTestGemini(t, f)
	assert.Equal(t, "gemini:test-model", p.Name())

	session, err := p.OpenSession(context.Background(), "be brief")
	require.NoError(t, err)

	var got []string
	for chunk, err := range session.SendStream(context.Background(), "hi") {
		require.NoError(t, err)
		got = append(got, chunk)
	}
	assert.Equal(t, []string{"Hel", "lo", " there"}, got)

	req := f.last()
	assert.Contains(t, req.Path, "test-model:streamGenerateContent")
	require.NotNil(t, req.SystemInstruction)
	require.NotEmpty(t, req.SystemInstruction.Parts)
	assert.Equal(t, "be brief", req.SystemInstruction.Parts[0].Text)
	require.NotEmpty(t, req.Contents)
	last := req.Contents[len(req.Contents)-1]
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, "hi", last.Parts[0].Text)
}

func TestGeminiSessionYieldsError(t *testing.T) {
	f := &fakeGemini{status: http.StatusTooManyRequests}
	p := newTestGemini(t, f)
	session, err := p.OpenSession(context.Background(), "")
	require.NoError(t, err)

	var errs int
	var chunks []string
	for chunk, err := range session.SendStream(context.Background(), "hi") {
		if err != nil {
			errs++
			continue
		}
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, 1, errs)
	assert.Empty(t, chunks)
}

func TestGeminiGenerate(t *testing.T) {
	f := &fakeGemini{reply: "Please repair the leaking faucet."}
	p := newTestGemini(t, f)

	out, err := p.Generate(context.Background(), "context block", GenerateOptions{System: "write a request", Temperature: 0.4, MaxTokens: 200})
	require.NoError(t, err)
	assert.Equal(t, "Please repair the leaking faucet.", out)

	req := f.last()
	assert.Contains(t, req.Path, "test-model:generateContent")
	assert.InDelta(t, 0.4, req.GenerationConfig.Temperature, 0.001)
	assert.Equal(t, 200, req.GenerationConfig.MaxOutputTokens)
	require.NotNil(t, req.SystemInstruction)
	assert.Equal(t, "write a request", req.SystemInstruction.Parts[0].Text)
	require.Len(t, req.Contents, 1)
	assert.Equal(t, "context block", req.Contents[0].Parts[0].Text)
}

func TestGeminiGenerateError(t *testing.T) {
	p := newTestGemini(t, &fakeGemini{status: http.StatusInternalServerError})
	_, err := p.Generate(context.Background(), "context block", GenerateOptions{})
	assert.ErrorContains(t, err, "GenAI generate failed")
}

func TestNewGemini(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "", "")
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	p, err := NewGemini(context.Background(), "k", "", "")
	require.NoError(t, err)
	assert.Equal(t, "gemini:"+defaultGeminiModel, p.Name())

	prov, err := New(context.Background(), Config{Provider: "Gemini", GeminiAPIKey: "k", GeminiModel: "m"})
	require.NoError(t, err)
	assert.Equal(t, "gemini:m", prov.Name())
}

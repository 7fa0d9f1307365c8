package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/beautytracker/internal/vision"
)

// messagesServer returns a test server mimicking the Messages API that
// replies with text and records the last request body.
func messagesServer(t *testing.T, text string, got *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-test",
			"stop_reason": "end_turn",
			"content":     []map[string]any{{"type": "text", "text": text}},
			"usage":       map[string]int{"input_tokens": 10, "output_tokens": 20},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClaudeIdentify(t *testing.T) {
	var req map[string]any
	server := messagesServer(t, "```json\n[{\"name\":\"Ruby Woo\",\"brand\":\"MAC\",\"category\":\"Makeup\",\"confidence\":\"high\"}]\n```", &req)

	analyzer := NewClaudeAnalyzer("sk-test", "claude-test", server.URL)
	result, err := analyzer.Identify(context.Background(), bytes.NewReader([]byte{0xFF, 0xD8}), "image/jpeg")
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "MAC", result.Products[0].Brand)
	assert.Equal(t, "Makeup", result.Products[0].Category)
	assert.Contains(t, result.RawResponse, "Ruby Woo")

	assert.Equal(t, "claude-test", req["model"])
	messages := req["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	source := content[0].(map[string]any)["source"].(map[string]any)
	assert.Equal(t, "base64", source["type"])
	assert.Equal(t, "image/jpeg", source["media_type"])
	assert.Equal(t, vision.IdentifyPrompt, content[1].(map[string]any)["text"])
}

func TestClaudeIdentifyMalformedJSON(t *testing.T) {
	server := messagesServer(t, `[{"name": "x",]`, nil)

	analyzer := NewClaudeAnalyzer("sk-test", "claude-test", server.URL)
	_, err := analyzer.Identify(context.Background(), bytes.NewReader([]byte{0xFF, 0xD8}), "image/png")
	assert.ErrorIs(t, err, vision.ErrMalformedResponse)
}

func TestClaudeIdentifyAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	analyzer := NewClaudeAnalyzer("sk-test", "claude-test", server.URL)
	_, err := analyzer.Identify(context.Background(), bytes.NewReader([]byte{0xFF, 0xD8}), "image/jpeg")
	assert.Error(t, err)
}

func TestClaudeIdentifyReadError(t *testing.T) {
	analyzer := NewClaudeAnalyzer("sk-test", "claude-test", "")

	_, err := analyzer.Identify(context.Background(), &errReader{}, "image/jpeg")
	assert.Error(t, err)
}

func TestNormaliseMIME(t *testing.T) {
	assert.Equal(t, "image/webp", normaliseMIME("image/webp"))
	assert.Equal(t, "image/jpeg", normaliseMIME("application/octet-stream"))
}

// errReader always returns an error on Read.
type errReader struct{}

func (e *errReader) Read(_ []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/debaterag/pkg/config"
	"github.com/kadirpekel/debaterag/pkg/debate"
	"github.com/kadirpekel/debaterag/pkg/rag"
)

type stubProvider struct {
	fn func(prompt string) (string, error)
}

func (p *stubProvider) Complete(ctx context.Context, model, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.fn != nil {
		return p.fn(prompt)
	}
	return "stub answer", nil
}

func (p *stubProvider) ModelName() string { return "stub-model" }
func (p *stubProvider) Close() error      { return nil }

// stubRetriever returns indexed chunks in insertion order.
type stubRetriever struct {
	chunks []rag.Chunk
}

func (r *stubRetriever) Index(ctx context.Context, chunks []rag.Chunk) error {
	r.chunks = chunks
	return nil
}

func (r *stubRetriever) Search(ctx context.Context, query string, k int) ([]rag.Chunk, error) {
	if k > len(r.chunks) {
		k = len(r.chunks)
	}
	if k <= 0 {
		return nil, nil
	}
	return r.chunks[:k], nil
}

func newTestServer(t *testing.T, provider *stubProvider) *httptest.Server {
	t.Helper()

	if provider == nil {
		provider = &stubProvider{}
	}
	engine, err := debate.New(config.DebateConfig{}, provider, func(ctx context.Context) (rag.Retriever, error) {
		return &stubRetriever{}, nil
	})
	require.NoError(t, err)

	cfg := config.ServerConfig{HandshakeTimeout: 1}
	ts := httptest.NewServer(New(cfg, engine).Router())
	t.Cleanup(ts.Close)
	return ts
}

func postDebate(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/debate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleDebate(t *testing.T) {
	provider := &stubProvider{fn: func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, "You synthesize") {
			return "Final Answer: Paris.", nil
		}
		return "Paris, per my document.", nil
	}}
	ts := newTestServer(t, provider)

	resp := postDebate(t, ts, `{
		"query": "What is the capital of France?",
		"documents": ["The capital of France is Paris."],
		"rounds": 1
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var result debate.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	assert.Equal(t, "What is the capital of France?", result.Query)
	assert.Equal(t, "Final Answer: Paris.", result.FinalAnswer)
	assert.NotEmpty(t, result.Steps)
	assert.Equal(t, "setup", result.Steps[0].Stage)
	assert.Equal(t, 1, result.Stats.Documents)
	assert.Equal(t, 1, result.Stats.Rounds)
	assert.Equal(t, "stub-model", result.Stats.Model)
}

func TestHandleDebateInvalidJSON(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := postDebate(t, ts, "{not json")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid JSON body", body.Detail)
}

func TestHandleDebateEmptyQuery(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := postDebate(t, ts, `{"query": "  ", "documents": ["text"]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Detail, "query")
}

func TestHandleDebateNoDocuments(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := postDebate(t, ts, `{"query": "anything", "documents": ["", "   "]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleDebateCompletionFailure(t *testing.T) {
	provider := &stubProvider{fn: func(prompt string) (string, error) {
		return "", fmt.Errorf("model unavailable")
	}}
	ts := newTestServer(t, provider)

	resp := postDebate(t, ts, `{"query": "anything", "documents": ["text"]}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Detail, "model unavailable")
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleIndex(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func dialDebateWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/debate"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestDebateWSStream(t *testing.T) {
	provider := &stubProvider{fn: func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, "You synthesize") {
			return "Final Answer: Paris.", nil
		}
		return "Paris.", nil
	}}
	ts := newTestServer(t, provider)

	conn := dialDebateWS(t, ts)
	require.NoError(t, conn.WriteJSON(DebateRequest{
		Query:     "What is the capital of France?",
		Documents: []string{"The capital of France is Paris."},
		Rounds:    1,
	}))

	var ready map[string]string
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, "ready", ready["event"])

	var steps []debate.Step
	var done *debate.Event
	for {
		var event debate.Event
		require.NoError(t, conn.ReadJSON(&event))
		if event.Event == debate.EventStep {
			require.NotNil(t, event.Data)
			steps = append(steps, *event.Data)
			continue
		}
		require.Equal(t, debate.EventDone, event.Event)
		done = &event
		break
	}

	// setup, indexing, retrieved count, retrieval summary, evidence,
	// ambiguity, one debate round, closing ambiguity, synthesis.
	assert.Len(t, steps, 9)
	assert.Equal(t, "setup", steps[0].Stage)
	assert.Equal(t, "synthesis", steps[len(steps)-1].Stage)

	require.NotNil(t, done)
	assert.Equal(t, "Final Answer: Paris.", done.FinalAnswer)
	require.NotNil(t, done.Stats)
	assert.Equal(t, 1, done.Stats.Documents)

	// The server closes with a normal close frame after the terminal event.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure),
		"expected normal closure, got %v", err)
}

func TestDebateWSInvalidRequest(t *testing.T) {
	ts := newTestServer(t, nil)

	conn := dialDebateWS(t, ts)
	require.NoError(t, conn.WriteJSON(DebateRequest{Query: "", Documents: []string{"text"}}))

	var ready map[string]string
	require.NoError(t, conn.ReadJSON(&ready))
	require.Equal(t, "ready", ready["event"])

	var event debate.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, debate.EventError, event.Event)
	assert.Contains(t, event.Detail, "query")
}

func TestDebateWSMalformedPayload(t *testing.T) {
	ts := newTestServer(t, nil)

	conn := dialDebateWS(t, ts)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var event debate.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, debate.EventError, event.Event)
	assert.Contains(t, event.Detail, "Invalid request payload")
}

func TestDebateWSHandshakeTimeout(t *testing.T) {
	ts := newTestServer(t, nil)

	// Connect but never send a payload; the 1s handshake window expires.
	conn := dialDebateWS(t, ts)

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var event debate.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, debate.EventError, event.Event)
	assert.Contains(t, event.Detail, "No payload received")
}

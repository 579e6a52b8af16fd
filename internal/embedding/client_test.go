package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *observer.ObservedLogs) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core), "hf-token")
	c.APIURL = server.URL
	return c, logs
}

func TestClientSendsRequest(t *testing.T) {
	var got request
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/"+DefaultModel, r.URL.Path)
		assert.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(rawRows(2, Dimension, 1))
	})

	m := c.Embed(context.Background(), []string{"first", ""})
	requireShape(t, m, 2)
	assert.Equal(t, []string{"first", ""}, got.Inputs)
	assert.True(t, got.Options.WaitForModel)
	assert.Equal(t, 1.0, m[0][0])
	assert.Equal(t, 2.0, m[1][0])
}

func TestClientEmptyInputMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	})

	assert.Empty(t, c.Embed(context.Background(), nil))
	assert.Zero(t, calls.Load())
}

func TestClientFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		message string
	}{
		{
			name: "structured error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
			},
			message: "unusable embedding response, using zero vectors",
		},
		{
			name: "bad status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":"overloaded"}`))
			},
			message: "embedding service returned bad status, using zero vectors",
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("oops"))
			},
			message: "unusable embedding response, using zero vectors",
		},
		{
			name: "malformed shape",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[{"a":1,"b":2}]`))
			},
			message: "unusable embedding response, using zero vectors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, logs := newTestClient(t, tt.handler)

			m := c.Embed(context.Background(), []string{"a", "b", "c"})
			requireShape(t, m, 3)
			assert.True(t, m.IsZero())
			assert.Equal(t, 1, logs.FilterMessage(tt.message).Len())
		})
	}
}

func TestClientBadStatusLogsUpstreamError(t *testing.T) {
	c, logs := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	})

	c.Embed(context.Background(), []string{"a"})
	entries := logs.FilterMessage("embedding service returned bad status, using zero vectors").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "invalid token", entries[0].ContextMap()["upstream_error"])
}

func TestClientTransportFailure(t *testing.T) {
	c, logs := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	c.HTTPClient.Timeout = 20 * time.Millisecond

	m := c.Embed(context.Background(), []string{"a"})
	requireShape(t, m, 1)
	assert.True(t, m.IsZero())
	assert.Equal(t, 1, logs.FilterMessage("embedding request failed, using zero vectors").Len())
}

func TestEmbedOne(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(rawVector(Dimension, 0.2))
	})

	v := EmbedOne(context.Background(), c, "only one")
	assert.Len(t, v, Dimension)
	assert.Equal(t, 0.2, v[0])
}

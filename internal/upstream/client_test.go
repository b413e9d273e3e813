package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/policy-oracle/policyoracle/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(&Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
	return client, srv
}

func userMessage(content string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: content}}
}

func TestStreamChat_ReturnsRawBody(t *testing.T) {
	const streamBody = "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\ndata: [DONE]\n\n"

	var gotReq openai.ChatCompletionRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, streamBody)
	})

	body, err := client.StreamChat(context.Background(), userMessage("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(raw) != streamBody {
		t.Errorf("body = %q", raw)
	}
	if !gotReq.Stream {
		t.Error("request must ask for a stream")
	}
	if gotReq.Model != "test-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
}

func TestStreamChat_RateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down"}}`)
	})

	_, err := client.StreamChat(context.Background(), userMessage("q"))
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestStreamChat_QuotaExceeded(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	_, err := client.StreamChat(context.Background(), userMessage("q"))
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestStreamChat_GenericFailureCarriesDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"model overloaded"}}`)
	})

	_, err := client.StreamChat(context.Background(), userMessage("q"))
	if !errors.Is(err, domain.ErrUpstreamError) {
		t.Fatalf("expected ErrUpstreamError, got %v", err)
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("error should carry the upstream detail, got %q", err.Error())
	}
}

func TestStreamChat_TransportError(t *testing.T) {
	client, srv := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	srv.Close()

	_, err := client.StreamChat(context.Background(), userMessage("q"))
	if !errors.Is(err, domain.ErrUpstreamError) {
		t.Fatalf("expected ErrUpstreamError for transport failure, got %v", err)
	}
}

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterAnalysisMetrics()
	os.Exit(m.Run())
}

func completionServer(t *testing.T, content string, check func(req map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if check != nil {
			check(req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 4, "total_tokens": 44},
		})
	}))
}

func newTestLabeler(url string) *Labeler {
	return NewLabeler(&Config{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-model",
		Timeout: 5 * time.Second,
		Logger:  zap.NewNop(),
	})
}

func TestLabeler_Summarize(t *testing.T) {
	server := completionServer(t, "  \"Tropical Fruit.\"\n", func(req map[string]any) {
		if req["model"] != "test-model" {
			t.Errorf("model = %v", req["model"])
		}
		msgs, _ := req["messages"].([]any)
		if len(msgs) != 2 {
			t.Errorf("expected 2 messages, got %d", len(msgs))
			return
		}
		user, _ := msgs[1].(map[string]any)["content"].(string)
		if !strings.Contains(user, "Keywords: mango, banana") {
			t.Errorf("prompt misses keywords: %q", user)
		}
		if !strings.Contains(user, "- ripe mango season") {
			t.Errorf("prompt misses samples: %q", user)
		}
	})
	defer server.Close()

	before := testutil.ToFloat64(metrics.LabelingRequestsTotal.WithLabelValues("test-model", "success"))

	label, err := newTestLabeler(server.URL).Summarize(context.Background(),
		[]string{"mango", "banana"}, []string{"ripe   mango\nseason"})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if label != "Tropical Fruit" {
		t.Errorf("label = %q, want %q", label, "Tropical Fruit")
	}

	after := testutil.ToFloat64(metrics.LabelingRequestsTotal.WithLabelValues("test-model", "success"))
	if after-before != 1 {
		t.Errorf("success counter delta = %v, want 1", after-before)
	}
}

func TestLabeler_BlankCompletion(t *testing.T) {
	server := completionServer(t, "  ", nil)
	defer server.Close()

	_, err := newTestLabeler(server.URL).Summarize(context.Background(), []string{"a"}, nil)
	if !errors.Is(err, domain.ErrLabelingFailed) {
		t.Fatalf("expected ErrLabelingFailed, got %v", err)
	}
}

func TestLabeler_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer server.Close()

	before := testutil.ToFloat64(metrics.LabelingRequestsTotal.WithLabelValues("test-model", "error"))

	_, err := newTestLabeler(server.URL).Summarize(context.Background(), []string{"a"}, nil)
	if !errors.Is(err, domain.ErrLabelingFailed) {
		t.Fatalf("expected ErrLabelingFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status code in error, got %v", err)
	}

	after := testutil.ToFloat64(metrics.LabelingRequestsTotal.WithLabelValues("test-model", "error"))
	if after-before != 1 {
		t.Errorf("error counter delta = %v, want 1", after-before)
	}
}

func TestLabeler_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	l := NewLabeler(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model", Timeout: 50 * time.Millisecond})
	_, err := l.Summarize(context.Background(), []string{"a"}, nil)
	if !errors.Is(err, domain.ErrLabelingFailed) {
		t.Fatalf("expected ErrLabelingFailed, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestLabeler_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer server.Close()

	if err := newTestLabeler(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

func TestCleanLabel(t *testing.T) {
	tests := map[string]string{
		"Space Exploration":            "Space Exploration",
		"Topic: Space Exploration.":    "Space Exploration",
		"**Space Exploration**\nextra": "Space Exploration",
		"'quoted'":                     "quoted",
		"":                             "",
	}
	for in, want := range tests {
		if got := cleanLabel(in); got != want {
			t.Errorf("cleanLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo", 3); got != "hél…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 3); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}

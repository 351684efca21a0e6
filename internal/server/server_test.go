package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sovralabs/sovra/internal/config"
	"github.com/sovralabs/sovra/internal/ollama"
)

func testConfig(backendURL string) config.ServerConfig {
	return config.ServerConfig{
		Port:           5001,
		OllamaBaseURL:  backendURL,
		Model:          "phi3:mini",
		SystemPrompt:   "system preamble",
		SenderLabel:    "IA (Sovra)",
		SystemSender:   "Sistema",
		StatusLabel:    "AGI_ONLINE",
		ActivePolicy:   "LEY 003",
		StakedTokens:   "8,901,234 ASVA",
		QueryTimeout:   2 * time.Second,
		ProbeTimeout:   time.Second,
		AllowedOrigins: []string{"*"},
		RateLimit:      100,
		RateBurst:      100,
	}
}

func mockBackend(t *testing.T, respond func(req ollama.GenerateRequest) (int, any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected backend path %s", r.URL.Path)
		}
		var req ollama.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode backend request: %v", err)
		}
		code, body := respond(req)
		w.WriteHeader(code)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}))
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var decoded map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, decoded
}

func TestQueryWithoutPromptReturns400(t *testing.T) {
	h := New(testConfig("http://127.0.0.1:0"))
	w, resp := doJSON(t, h, http.MethodPost, "/query", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp["sender"] != "Sistema" {
		t.Fatalf("expected system sender, got %v", resp["sender"])
	}
	if !strings.Contains(resp["response"].(string), "prompt") {
		t.Fatalf("unexpected error message %v", resp["response"])
	}
}

func TestQuerySuccessEnvelope(t *testing.T) {
	backend := mockBackend(t, func(req ollama.GenerateRequest) (int, any) {
		if req.System != "system preamble" {
			t.Fatalf("system preamble not forwarded: %q", req.System)
		}
		if req.Options == nil || req.Options.Temperature != 0.2 {
			t.Fatalf("expected temperature 0.2, got %+v", req.Options)
		}
		return http.StatusOK, ollama.Completion{Model: req.Model, Response: "  answer  "}
	})
	defer backend.Close()

	h := New(testConfig(backend.URL))
	w, resp := doJSON(t, h, http.MethodPost, "/query", `{"prompt":"what is staking?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp["response"] != "answer" {
		t.Fatalf("expected trimmed answer, got %v", resp["response"])
	}
	if resp["sender"] != "IA (Sovra)" {
		t.Fatalf("unexpected sender %v", resp["sender"])
	}
	if _, err := time.Parse(time.RFC3339, resp["timestamp"].(string)); err != nil {
		t.Fatalf("timestamp not RFC3339: %v", resp["timestamp"])
	}
}

func TestQueryBackendErrorStatus(t *testing.T) {
	backend := mockBackend(t, func(req ollama.GenerateRequest) (int, any) {
		return http.StatusInternalServerError, nil
	})
	defer backend.Close()

	h := New(testConfig(backend.URL))
	w, resp := doJSON(t, h, http.MethodPost, "/query", `{"prompt":"anything at all"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	msg := resp["response"].(string)
	if !strings.Contains(msg, "500") {
		t.Fatalf("message should mention the backend status code: %q", msg)
	}
}

func TestQueryBackendUnreachable(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close()

	h := New(testConfig(backend.URL))
	w, resp := doJSON(t, h, http.MethodPost, "/query", `{"prompt":"anything at all"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	msg := resp["response"].(string)
	if !strings.Contains(msg, "cannot reach") {
		t.Fatalf("message should distinguish transport failure: %q", msg)
	}
}

func TestStatusDegradesWhenBackendDown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close()

	h := New(testConfig(backend.URL))
	w, resp := doJSON(t, h, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("probe failure must not fail /status, got %d", w.Code)
	}
	if !strings.Contains(resp["backendStatus"].(string), "OFFLINE") {
		t.Fatalf("expected degraded backendStatus, got %v", resp["backendStatus"])
	}
	data := resp["data"].(map[string]any)
	if data["model"] != "phi3:mini" || data["activePolicy"] != "LEY 003" {
		t.Fatalf("unexpected data block %v", data)
	}
}

func TestStatusReportsBackendOnline(t *testing.T) {
	backend := mockBackend(t, func(req ollama.GenerateRequest) (int, any) {
		if req.Prompt != "verify" {
			t.Fatalf("probe must use the throwaway prompt, got %q", req.Prompt)
		}
		return http.StatusOK, ollama.Completion{Model: req.Model, Response: "ok"}
	})
	defer backend.Close()

	h := New(testConfig(backend.URL))
	w, resp := doJSON(t, h, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(resp["backendStatus"].(string), "CONNECTED") {
		t.Fatalf("expected connected backendStatus, got %v", resp["backendStatus"])
	}
}

func TestRateLimitRejectsAboveBurst(t *testing.T) {
	backend := mockBackend(t, func(req ollama.GenerateRequest) (int, any) {
		return http.StatusOK, ollama.Completion{Model: req.Model, Response: "ok"}
	})
	defer backend.Close()

	cfg := testConfig(backend.URL)
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	h := New(cfg)

	w1, _ := doJSON(t, h, http.MethodPost, "/query", `{"prompt":"first request ok"}`)
	if w1.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", w1.Code)
	}
	w2, _ := doJSON(t, h, http.MethodPost, "/query", `{"prompt":"second request blocked"}`)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := New(testConfig("http://127.0.0.1:0"))
	w, resp := doJSON(t, h, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || resp["status"] != "ok" {
		t.Fatalf("unexpected healthz response %d %v", w.Code, resp)
	}
}

func TestMetricsExposed(t *testing.T) {
	h := New(testConfig("http://127.0.0.1:0"))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "sovra_") {
		t.Fatal("expected sovra collectors in metrics output")
	}
}

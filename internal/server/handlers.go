package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/sovralabs/sovra/internal/logx"
	"github.com/sovralabs/sovra/internal/metrics"
	"github.com/sovralabs/sovra/internal/ollama"
)

type statusData struct {
	Status       string `json:"status"`
	ActivePolicy string `json:"activePolicy"`
	StakedTokens string `json:"stakedTokens"`
	Port         int    `json:"port"`
	Model        string `json:"model"`
}

type statusResponse struct {
	Status        string     `json:"status"`
	Message       string     `json:"message"`
	Data          statusData `json:"data"`
	BackendStatus string     `json:"backendStatus"`
}

type queryRequest struct {
	Prompt string `json:"prompt"`
}

type queryResponse struct {
	Response  string `json:"response"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

// handleStatus reports the static service state plus a best-effort backend
// probe. A failed probe degrades the backendStatus field only; the HTTP
// call itself always succeeds.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	backendStatus := "OLLAMA CONNECTED"
	probeCtx, cancel := context.WithTimeout(r.Context(), s.cfg.ProbeTimeout)
	defer cancel()
	_, err := s.client.Generate(probeCtx, ollama.GenerateRequest{
		Model:  s.cfg.Model,
		Prompt: "verify",
		Stream: false,
	})
	if err != nil {
		backendStatus = fmt.Sprintf("OLLAMA OFFLINE (check %s)", s.cfg.OllamaBaseURL)
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "Connected",
		Message: fmt.Sprintf("Sovra core running on port %d", s.cfg.Port),
		Data: statusData{
			Status:       s.cfg.StatusLabel,
			ActivePolicy: s.cfg.ActivePolicy,
			StakedTokens: s.cfg.StakedTokens,
			Port:         s.cfg.Port,
			Model:        s.cfg.Model,
		},
		BackendStatus: backendStatus,
	})
}

// handleQuery forwards the prompt to the backend with the configured system
// preamble and a low temperature for terse, stable answers.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	logID := chiMiddleware.GetReqID(r.Context())

	var req queryRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		metrics.RecordQuery("invalid")
		s.writeError(w, http.StatusBadRequest, "Error: prompt is empty.")
		return
	}

	if !s.limiter.Allow() {
		metrics.RecordQuery("rate_limited")
		s.writeError(w, http.StatusTooManyRequests, "Error: too many requests, try again shortly.")
		return
	}

	genID := uuid.NewString()
	logx.Log.Info().Str("request_id", logID).Str("generation_id", genID).Str("model", s.cfg.Model).Msg("dispatch")

	genCtx, cancel := context.WithTimeout(r.Context(), s.cfg.QueryTimeout)
	defer cancel()
	start := time.Now()
	comp, err := s.client.Generate(genCtx, ollama.GenerateRequest{
		Model:   s.cfg.Model,
		Prompt:  req.Prompt,
		System:  s.cfg.SystemPrompt,
		Stream:  false,
		Options: &ollama.Options{Temperature: 0.2},
	})
	metrics.ObserveGeneration(time.Since(start).Seconds())

	if err != nil {
		var se *ollama.StatusError
		if errors.As(err, &se) {
			metrics.RecordQuery("backend_error")
			metrics.RecordBackendFailure("status")
			logx.Log.Error().Str("request_id", logID).Int("code", se.Code).Msg("backend error status")
			s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("LLM error: backend returned status %d.", se.Code))
			return
		}
		metrics.RecordQuery("backend_error")
		metrics.RecordBackendFailure("transport")
		logx.Log.Error().Str("request_id", logID).Err(err).Msg("backend unreachable")
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Connection error: cannot reach inference backend at %s.", s.cfg.OllamaBaseURL))
		return
	}

	output := strings.TrimSpace(comp.Response)
	if output == "" {
		output = "No response found."
	}
	metrics.RecordQuery("success")
	logx.Log.Info().Str("request_id", logID).Int("eval_count", comp.EvalCount).Msg("complete")
	writeJSON(w, http.StatusOK, queryResponse{
		Response:  output,
		Sender:    s.cfg.SenderLabel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError emits the same envelope shape as a success so frontends can
// render it without branching, with the system sender tag.
func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, queryResponse{
		Response:  msg,
		Sender:    s.cfg.SystemSender,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

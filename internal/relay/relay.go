package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sovralabs/sovra/internal/config"
	"github.com/sovralabs/sovra/internal/logx"
	"github.com/sovralabs/sovra/internal/ollama"
)

// Relay bridges a single prompt, an event payload, or an interactive
// session to the inference backend and normalizes the outcome.
type Relay struct {
	client *ollama.Client
	cfg    config.RelayConfig
}

func New(client *ollama.Client, cfg config.RelayConfig) *Relay {
	return &Relay{client: client, cfg: cfg}
}

// ErrBackendUnavailable is returned by Init when the backend never became
// reachable or the configured model could not be made available.
var ErrBackendUnavailable = errors.New("inference backend unavailable")

// Init verifies the backend is reachable and the configured model is
// present, downloading it if needed. It is the only place with automatic
// retry; everything after runs once and surfaces failures directly.
func (r *Relay) Init(ctx context.Context) error {
	if !r.WaitForBackend(ctx) {
		return fmt.Errorf("%w: no response from %s", ErrBackendUnavailable, r.cfg.OllamaBaseURL)
	}
	if !r.EnsureModel(ctx) {
		return fmt.Errorf("%w: model %q not available", ErrBackendUnavailable, r.cfg.Model)
	}
	logx.Log.Info().Str("model", r.cfg.Model).Msg("backend ready")
	return nil
}

// WaitForBackend probes the backend until it answers, up to the configured
// number of attempts with a fixed delay between them. No backoff: the
// backend is local and either starting up or absent.
func (r *Relay) WaitForBackend(ctx context.Context) bool {
	retries := r.cfg.ConnectRetries
	if retries <= 0 {
		retries = 1
	}
	for attempt := 1; attempt <= retries; attempt++ {
		logx.Log.Info().Int("attempt", attempt).Int("max", retries).Str("host", r.cfg.OllamaBaseURL).Msg("connecting to backend")
		probeCtx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
		ok := r.client.Reachable(probeCtx)
		cancel()
		if ok {
			logx.Log.Info().Msg("connected to backend")
			return true
		}
		if attempt < retries {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(r.cfg.ConnectDelay):
			}
		}
	}
	return false
}

// EnsureModel checks that the configured model is listed by the backend and
// triggers a download when it is not. The match is a deliberate substring
// match so tag variants (phi3:mini vs phi3:mini-instruct) satisfy it.
func (r *Relay) EnsureModel(ctx context.Context) bool {
	listCtx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	models, err := r.client.Tags(listCtx)
	cancel()
	if err != nil {
		logx.Log.Error().Err(err).Msg("list models failed")
		return false
	}
	for _, m := range models {
		if strings.Contains(m, r.cfg.Model) {
			logx.Log.Info().Str("model", m).Msg("model found")
			return true
		}
	}

	logx.Log.Info().Str("model", r.cfg.Model).Msg("model not found; downloading (this may take several minutes)")
	pullCtx, cancel := context.WithTimeout(ctx, r.cfg.PullTimeout)
	defer cancel()
	if err := r.client.Pull(pullCtx, r.cfg.Model); err != nil {
		logx.Log.Error().Err(err).Str("model", r.cfg.Model).Msg("model download failed")
		return false
	}
	logx.Log.Info().Str("model", r.cfg.Model).Msg("model downloaded")
	return true
}

// Generate runs one completion and folds both outcomes into a Result.
// The output falls back to a fixed placeholder when the backend answers
// 200 with no response field.
func (r *Relay) Generate(ctx context.Context, prompt string) Result {
	genCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	comp, err := r.client.Generate(genCtx, ollama.GenerateRequest{
		Model:   r.cfg.Model,
		Prompt:  prompt,
		Stream:  false,
		Options: &ollama.Options{Temperature: 0.7, TopP: 0.9},
	})
	if err != nil {
		return Fail(fmt.Sprintf("backend connection failed: %v", err))
	}

	output := comp.Response
	if output == "" {
		output = "No response found."
	}
	model := comp.Model
	if model == "" {
		model = r.cfg.Model
	}
	return Result{
		Status:          StatusSuccess,
		Output:          output,
		Model:           model,
		TotalDuration:   comp.TotalDuration,
		PromptEvalCount: comp.PromptEvalCount,
		EvalCount:       comp.EvalCount,
	}
}

// ProcessEvent extracts a prompt from the event payload and forwards it.
func (r *Relay) ProcessEvent(ctx context.Context, e Event) Result {
	prompt, ok := ExtractPrompt(e)
	if !ok {
		return Fail("no valid prompt found in event payload")
	}
	logx.Log.Info().Str("prompt", truncate(prompt, 100)).Msg("event prompt received")

	res := r.Generate(ctx, prompt)
	if res.OK() {
		logx.Log.Info().Int("eval_count", res.EvalCount).Msg("response generated")
	} else {
		logx.Log.Error().Str("message", res.Message).Msg("generation failed")
	}
	return res
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

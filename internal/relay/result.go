package relay

// Result is the normalized outcome printed by the relay. Exactly one of
// the two shapes is populated: a success carries the generated output and
// whatever counters the backend echoed, a failure carries only a message.
type Result struct {
	Status          string `json:"status"`
	Output          string `json:"output,omitempty"`
	Model           string `json:"model,omitempty"`
	TotalDuration   int64  `json:"total_duration,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
	Message         string `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func (r Result) OK() bool { return r.Status == StatusSuccess }

// Fail builds an error result with a human-readable message.
func Fail(msg string) Result {
	return Result{Status: StatusError, Message: msg}
}

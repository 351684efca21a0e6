package relay

import "strings"

// Event is the structured payload read on stdin in --event mode. No schema
// is enforced beyond the candidate prompt fields below; anything else in
// the payload is ignored.
type Event struct {
	Comment     *Comment     `json:"comment,omitempty"`
	Issue       *Issue       `json:"issue,omitempty"`
	PullRequest *PullRequest `json:"pull_request,omitempty"`
}

type Comment struct {
	Body string `json:"body"`
}

type Issue struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type PullRequest struct {
	Body string `json:"body"`
}

// MinPromptLen is the minimum trimmed length for a usable prompt.
const MinPromptLen = 10

// promptSources lists the candidate fields in priority order: comment body,
// issue body, pull-request body, issue title. Comments are assumed more
// actionable than titles; the ordering is load-bearing for compatibility.
var promptSources = []func(Event) string{
	func(e Event) string {
		if e.Comment != nil {
			return e.Comment.Body
		}
		return ""
	},
	func(e Event) string {
		if e.Issue != nil {
			return e.Issue.Body
		}
		return ""
	},
	func(e Event) string {
		if e.PullRequest != nil {
			return e.PullRequest.Body
		}
		return ""
	},
	func(e Event) string {
		if e.Issue != nil {
			return e.Issue.Title
		}
		return ""
	},
}

// ExtractPrompt returns the prompt text from the first non-empty candidate
// field. The first non-empty field wins outright: when its trimmed form is
// shorter than MinPromptLen the whole event is treated as having no prompt,
// without falling through to lower-priority fields.
func ExtractPrompt(e Event) (string, bool) {
	for _, src := range promptSources {
		v := src(e)
		if v == "" {
			continue
		}
		if len(strings.TrimSpace(v)) < MinPromptLen {
			return "", false
		}
		return v, true
	}
	return "", false
}

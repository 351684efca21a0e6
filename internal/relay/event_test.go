package relay

import "testing"

func TestExtractPromptPriorityOrder(t *testing.T) {
	e := Event{
		Comment:     &Comment{Body: "comment body wins here"},
		Issue:       &Issue{Title: "issue title present", Body: "issue body present too"},
		PullRequest: &PullRequest{Body: "pull request body present"},
	}
	got, ok := ExtractPrompt(e)
	if !ok {
		t.Fatal("expected a prompt")
	}
	if got != "comment body wins here" {
		t.Fatalf("expected comment body, got %q", got)
	}
}

func TestExtractPromptFallsBackInOrder(t *testing.T) {
	cases := []struct {
		name string
		e    Event
		want string
	}{
		{"issue body", Event{Issue: &Issue{Body: "issue body is the prompt"}}, "issue body is the prompt"},
		{"pull request body", Event{PullRequest: &PullRequest{Body: "pull request body prompt"}}, "pull request body prompt"},
		{"issue title", Event{Issue: &Issue{Title: "a long enough issue title"}}, "a long enough issue title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractPrompt(tc.e)
			if !ok || got != tc.want {
				t.Fatalf("expected %q, got %q (ok=%v)", tc.want, got, ok)
			}
		})
	}
}

func TestExtractPromptAbsentWhenAllEmptyOrShort(t *testing.T) {
	if _, ok := ExtractPrompt(Event{}); ok {
		t.Fatal("empty event must yield no prompt")
	}
	e := Event{
		Comment:     &Comment{Body: ""},
		Issue:       &Issue{Title: "short", Body: ""},
		PullRequest: &PullRequest{Body: "   "},
	}
	if _, ok := ExtractPrompt(e); ok {
		t.Fatal("too-short fields must yield no prompt")
	}
}

func TestExtractPromptShortFirstFieldDoesNotFallThrough(t *testing.T) {
	// The first non-empty field wins outright; a short comment body must
	// not let a longer issue body take over.
	e := Event{
		Comment: &Comment{Body: "short"},
		Issue:   &Issue{Body: "this issue body is plenty long"},
	}
	if _, ok := ExtractPrompt(e); ok {
		t.Fatal("short comment body must make the whole event promptless")
	}
}

func TestExtractPromptTrimsForLengthOnly(t *testing.T) {
	e := Event{Comment: &Comment{Body: "  padded prompt text  "}}
	got, ok := ExtractPrompt(e)
	if !ok {
		t.Fatal("expected a prompt")
	}
	if got != "  padded prompt text  " {
		t.Fatalf("prompt must be returned unmodified, got %q", got)
	}
}

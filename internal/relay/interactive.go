package relay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Interactive runs a line-based chat loop against the backend until the
// input ends or the user types one of the exit words.
func (r *Relay) Interactive(ctx context.Context, in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "Interactive mode - type 'quit' or 'exit' to leave")
	fmt.Fprintln(out, strings.Repeat("-", 50))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "quit", "exit", "salir":
			return
		case "":
			continue
		}

		res := r.Generate(ctx, line)
		if res.OK() {
			fmt.Fprintf(out, "\n%s: %s\n", res.Model, res.Output)
		} else {
			fmt.Fprintf(out, "\nError: %s\n", res.Message)
		}
	}
}

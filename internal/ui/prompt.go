// Package ui provides plain line-oriented prompts for the CLI surface.
// Interactive flows that need full-screen widgets live in internal/tui; this
// package covers the cases where a command just needs one answer on stdin,
// such as an overwrite confirmation or a token paste.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter asks questions on a line-oriented stream and parses the answers.
// Reader and writer are injected so tests can drive it from buffers.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter wraps the given streams. For the CLI these are os.Stdin and
// os.Stderr so prompts never mix with redirected command output.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm asks a yes/no question and returns the answer. An empty line
// selects the default; anything other than y/yes/n/no re-asks.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		fmt.Fprintf(p.out, "%s %s ", question, hint)
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// Input asks for one line of text. An empty line selects the default.
func (p *Prompter) Input(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Select prints a numbered list of options and returns the chosen index. An
// empty line selects the default index, which is marked in the listing.
func (p *Prompter) Select(title string, options []string, def int) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options to select from")
	}
	if def < 0 || def >= len(options) {
		def = 0
	}

	fmt.Fprintln(p.out, title)
	for i, option := range options {
		marker := " "
		if i == def {
			marker = "*"
		}
		fmt.Fprintf(p.out, " %s %d) %s\n", marker, i+1, option)
	}

	for {
		fmt.Fprintf(p.out, "Choice [%d]: ", def+1)
		answer, err := p.readLine()
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return def, nil
		}
		choice, err := strconv.Atoi(answer)
		if err != nil || choice < 1 || choice > len(options) {
			fmt.Fprintf(p.out, "Enter a number between 1 and %d.\n", len(options))
			continue
		}
		return choice - 1, nil
	}
}

// readLine reads up to the next newline and trims surrounding whitespace. A
// final line without a trailing newline is still returned; EOF only surfaces
// once the input is fully drained, which also bounds the re-ask loops above.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

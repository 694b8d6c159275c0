// Package picker implements the interactive policy selection workflow:
// a numbered menu answered by index or exact name on a line-oriented
// stdin/stdout pair, so it also works when input is piped.
package picker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoCandidates means there was nothing to choose from, as opposed to
// a choice that matched nothing.
var ErrNoCandidates = errors.New("no customer-managed policies available to choose from")

// SelectionError reports an answer that matched no listed policy.
// Invalid input fails the prompt immediately; there is no re-prompt.
type SelectionError struct {
	Input string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("selection %q matches no listed policy", e.Input)
}

// Candidate is one selectable policy: the name that answers are
// matched against, plus an optional detail shown on its menu row.
type Candidate struct {
	Name   string
	Detail string
}

// Picker prompts on Out and reads answers from In.
type Picker struct {
	In  io.Reader
	Out io.Writer

	br *bufio.Reader
}

// reader wraps In once so buffered input survives across prompts.
func (p *Picker) reader() *bufio.Reader {
	if p.br == nil {
		p.br = bufio.NewReader(p.In)
	}
	return p.br
}

// Pick chooses exactly one policy name. The attached set is offered
// first when non-empty; an empty answer there falls through to the full
// customer-managed set, where a choice is required.
func (p *Picker) Pick(attached, all []Candidate) (string, error) {
	in := p.reader()

	if len(attached) > 0 {
		fmt.Fprintln(p.Out, "Policies attached to your user:")
		printMenu(p.Out, attached)
		fmt.Fprint(p.Out, "Select by number or name (Enter to list all customer-managed policies): ")

		answer := readLine(in)
		if answer != "" {
			return match(attached, answer)
		}
	}

	if len(all) == 0 {
		return "", ErrNoCandidates
	}

	fmt.Fprintln(p.Out, "Customer-managed policies in this account:")
	printMenu(p.Out, all)
	fmt.Fprint(p.Out, "Select by number or name: ")

	answer := readLine(in)
	if answer == "" {
		return "", &SelectionError{Input: answer}
	}
	return match(all, answer)
}

// ConfirmOverwrite asks before replacing path. Only an explicit yes
// confirms; everything else, including EOF, declines.
func (p *Picker) ConfirmOverwrite(path string) bool {
	fmt.Fprintf(p.Out, "File %s already exists. Overwrite? [y/N]: ", path)
	answer := readLine(p.reader())
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func printMenu(out io.Writer, candidates []Candidate) {
	for i, c := range candidates {
		if c.Detail != "" {
			fmt.Fprintf(out, "  %d) %s  (%s)\n", i+1, c.Name, c.Detail)
		} else {
			fmt.Fprintf(out, "  %d) %s\n", i+1, c.Name)
		}
	}
}

// match resolves an answer to a candidate: a number is a 1-based index,
// anything else must equal a candidate name exactly (case-sensitive).
func match(candidates []Candidate, answer string) (string, error) {
	if n, err := strconv.Atoi(answer); err == nil {
		if n < 1 || n > len(candidates) {
			return "", &SelectionError{Input: answer}
		}
		return candidates[n-1].Name, nil
	}
	for _, c := range candidates {
		if c.Name == answer {
			return c.Name, nil
		}
	}
	return "", &SelectionError{Input: answer}
}

func readLine(in *bufio.Reader) string {
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// prompter reads one answer per line from the command's input.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

// ask prints question and returns the trimmed answer. ok is false once the
// input is exhausted, which every interactive loop treats as quit.
func (p *prompter) ask(question string) (answer string, ok bool) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// confirm asks a yes/no question. Only "yes" counts as yes.
func (p *prompter) confirm(question string) bool {
	answer, ok := p.ask(question)
	return ok && strings.EqualFold(answer, "yes")
}

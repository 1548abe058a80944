package command

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Line is one line of operator input.
type Line struct {
	Char byte   // first byte of the line, '\n' for an empty line
	Rest string // the remainder, normally discarded
}

// Reader reads operator input line by line.  It is used by the outbound
// loop only and is not safe for concurrent use.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadCommand blocks for one line and splits it into the command byte
// and the rest.  A final line without a trailing newline is still
// returned; io.EOF is reported only when no input is left.
func (r *Reader) ReadCommand() (Line, error) {
	s, err := r.readLine()
	if err != nil {
		return Line{}, err
	}
	if s == "" {
		return Line{Char: '\n'}, nil
	}
	return Line{Char: s[0], Rest: s[1:]}, nil
}

// ReadParams blocks for one line holding two integers, such as a
// distance or angle followed by a power percentage.
func (r *Reader) ReadParams() (int32, int32, error) {
	s, err := r.readLine()
	if err != nil {
		return 0, 0, err
	}
	p0, p1, err := parseParams(s)
	if err != nil {
		return 0, 0, fmt.Errorf("parameters %q: %w", s, err)
	}
	return p0, p1, nil
}

func (r *Reader) readLine() (string, error) {
	s, err := r.br.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// ── prompts ──────────────────────────────────────────────────────────

// Prompt is printed before each command is read on an interactive
// terminal.
const Prompt = "Command (f=forward, b=reverse, l=turn left, r=turn right, s=stop, " +
	"c=clear stats, g=get stats, h=colour, v=distance, q=exit)\n"

// ParamsPrompt returns the prompt shown before ReadParams for ch.
func ParamsPrompt(ch byte) string {
	if Classify(ch) == KindTurn {
		return "Enter angle in degrees (e.g. 90) and power in % (e.g. 75) separated by space.\n"
	}
	return "Enter distance in cm (e.g. 50) and power in % (e.g. 75) separated by space.\n"
}

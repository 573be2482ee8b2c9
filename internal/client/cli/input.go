package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for x/term.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// readLine prints prompt and reads one trimmed line from r. A final line
// without a newline is accepted.
func readLine(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads a password without echo when stdin is a terminal and
// falls back to a plain line otherwise, so the CLI can be scripted.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func readSecret(r *bufio.Reader, w io.Writer, prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if isTerminal(fd) {
		if _, err := fmt.Fprint(w, prompt); err != nil {
			return nil, err
		}
		pw, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return nil, err
		}
		return pw, nil
	}

	line, err := readLine(r, w, prompt)
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

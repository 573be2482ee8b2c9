package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("  alice  \nlast"))

	got, err := readLine(r, &out, "Username: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
	assert.Equal(t, "Username: ", out.String())

	got, err = readLine(r, &out, "Email: ")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = readLine(r, &out, "More: ")
	require.Error(t, err)
}

func stubTerminal(t *testing.T, terminal bool, pw []byte, err error) {
	t.Helper()
	origRead, origIs := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = origRead, origIs })

	isTerminal = func(int) bool { return terminal }
	readPassword = func(int) ([]byte, error) { return pw, err }
}

func TestReadSecret_Terminal(t *testing.T) {
	stubTerminal(t, true, []byte("s3cret"), nil)

	var out bytes.Buffer
	got, err := readSecret(bufio.NewReader(strings.NewReader("")), &out, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), got)
	assert.Equal(t, "Password: \n", out.String())
}

func TestReadSecret_TerminalError(t *testing.T) {
	stubTerminal(t, true, nil, errors.New("tty gone"))

	_, err := readSecret(bufio.NewReader(strings.NewReader("")), &bytes.Buffer{}, "Password: ")
	require.EqualError(t, err, "tty gone")
}

func TestReadSecret_Piped(t *testing.T) {
	stubTerminal(t, false, nil, errors.New("must not be called"))

	got, err := readSecret(bufio.NewReader(strings.NewReader("piped-pw\n")), &bytes.Buffer{}, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, []byte("piped-pw"), got)
}

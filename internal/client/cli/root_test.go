package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	tokenrpc "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/dmitrijs2005/authkeeper/internal/server/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type harness struct {
	cfg *Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	issuer, err := auth.NewIssuer([]byte("cli-secret"), time.Hour)
	require.NoError(t, err)

	sessions := services.NewSessionService(nil, repomanager.NewMemoryRepositoryManager(),
		auth.NewBcryptHasher(bcrypt.MinCost), issuer, nil, nil, nopLogger{})
	srv := httptest.NewServer(web.NewHandler(sessions, time.Hour, nil, nopLogger{}).Routes(issuer))
	t.Cleanup(srv.Close)

	rpc := tokenrpc.NewGRPCServer("", nopLogger{}, issuer)
	origVerify := verifyRemote
	verifyRemote = func(ctx context.Context, _ string, token string) (string, error) {
		resp, err := rpc.VerifyToken(ctx, wrapperspb.String(token))
		if err != nil {
			return "", err
		}
		return resp.GetValue(), nil
	}
	t.Cleanup(func() { verifyRemote = origVerify })

	stubTerminal(t, false, nil, errors.New("no terminal in tests"))

	return &harness{cfg: &Config{
		ServerURL: srv.URL,
		GRPCAddr:  "unused",
		TokenFile: filepath.Join(t.TempDir(), "token"),
	}}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cfg := *h.cfg
	cmd := NewRootCmd(&cfg)
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_FullLifecycle(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "secret123\n", "register", "--username", "alice", "--email", "alice@x.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered and signed in as alice")

	out, err = h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "user id: ")

	_, err = h.run(t, "secret123\n", "register", "--username", "alice", "--email", "alice@x.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User already exists")

	out, err = h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = h.run(t, "", "whoami")
	require.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = h.run(t, "wrong\n", "login", "--email", "alice@x.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")

	out, err = h.run(t, "alice@x.com\nsecret123\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in")

	out, err = h.run(t, "n\n", "delete")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted")

	out, err = h.run(t, "", "delete", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Account deleted successfully")

	_, err = h.run(t, "secret123\n", "login", "--email", "alice@x.com")
	require.Error(t, err)
}

func TestCLI_WhoamiInvalidSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, NewTokenStore(h.cfg.TokenFile).Save("not-a-jwt"))

	_, err := h.run(t, "", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session is no longer valid: invalid token")
}

func TestCLI_DeleteRequiresSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "delete", "--yes")
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestCLI_ServerFlagOverridesConfig(t *testing.T) {
	cfg := &Config{ServerURL: "http://a", GRPCAddr: "b", TokenFile: "c"}
	cmd := NewRootCmd(cfg)
	cmd.SetArgs([]string{"--server", "http://override", "logout", "--help"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "http://override", cfg.ServerURL)
}

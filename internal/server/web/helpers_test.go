package web

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l recordingLogger) Debug(_ context.Context, msg string, args ...any) { l.add("debug", msg, args) }
func (l recordingLogger) Info(_ context.Context, msg string, args ...any)  { l.add("info", msg, args) }
func (l recordingLogger) Warn(_ context.Context, msg string, args ...any)  { l.add("warn", msg, args) }
func (l recordingLogger) Error(_ context.Context, msg string, args ...any) { l.add("error", msg, args) }
func (l recordingLogger) With(...any) logging.Logger                       { return l }

func (l recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range *l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

type fakeSessions struct {
	registerErr error
	loginErr    error
	deleteErr   error

	registered  []string
	deletedFor  []*services.Identity
	deleteCalls int
	logouts     int
}

func (f *fakeSessions) Register(_ context.Context, username, email, password string) (*services.Session, error) {
	f.registered = append(f.registered, email)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &services.Session{
		User:  &models.User{ID: "u-1", UserName: username, Email: email, PasswordHash: "hash"},
		Token: fmt.Sprintf("token-for-%s", email),
	}, nil
}

func (f *fakeSessions) Login(_ context.Context, email, password string) (*services.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.Session{User: &models.User{ID: "u-1", Email: email}, Token: "login-token"}, nil
}

func (f *fakeSessions) DeleteAccount(_ context.Context, id *services.Identity) error {
	f.deleteCalls++
	f.deletedFor = append(f.deletedFor, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return nil
}

func (f *fakeSessions) RecordLogout() { f.logouts++ }

type stubVerifier map[string]string

func (v stubVerifier) Verify(token string) (string, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return "", fmt.Errorf("unknown token %q", token)
}

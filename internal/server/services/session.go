// Package services contains server-side business logic. This file implements
// SessionService, which registers users, authenticates them, issues session
// tokens and deletes accounts. It is the only place where storage, hashing
// and signing failures are translated into the errors transports see.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/notify"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// Identity is the authenticated caller, as established by a verified
// session token.
type Identity struct {
	UserID string
}

// Session is the result of a successful Register or Login.
type Session struct {
	User  *models.User
	Token string
}

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// NotificationQueue accepts messages for background delivery.
type NotificationQueue interface {
	Submit(ctx context.Context, msg notify.Message) bool
}

// dummyPassword is hashed once and verified against on unknown-email logins.
const dummyPassword = "authkeeper-timing-equalizer"

type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	issuer      TokenIssuer
	queue       NotificationQueue
	recorder    metrics.Recorder
	logger      logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewSessionService wires the service. queue and recorder may be nil.
func NewSessionService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	hasher auth.PasswordHasher,
	issuer TokenIssuer,
	queue NotificationQueue,
	recorder metrics.Recorder,
	logger logging.Logger,
) *SessionService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &SessionService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		issuer:      issuer,
		queue:       queue,
		recorder:    recorder,
		logger:      logger.With("module", "session"),
	}
}

// Register creates a user, issues its first token and queues a welcome
// message. Errors: common.ErrorConflict, common.ErrorInternal.
func (s *SessionService) Register(ctx context.Context, username, email, password string) (*Session, error) {
	log := s.logger.With("operation", metrics.OpRegister)
	repo := s.repomanager.Users(s.db)

	_, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, s.fail(metrics.OpRegister, common.ErrorConflict)
	case !errors.Is(err, common.ErrorNotFound):
		log.Error(ctx, "lookup by email failed", "error", err)
		return nil, s.fail(metrics.OpRegister, common.ErrorInternal)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		log.Error(ctx, "password hashing failed", "error", err)
		return nil, s.fail(metrics.OpRegister, common.ErrorInternal)
	}

	user, err := repo.Create(ctx, &models.User{UserName: username, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateKey) {
			return nil, s.fail(metrics.OpRegister, common.ErrorConflict)
		}
		log.Error(ctx, "create user failed", "error", err)
		return nil, s.fail(metrics.OpRegister, common.ErrorInternal)
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		log.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return nil, s.fail(metrics.OpRegister, common.ErrorInternal)
	}

	// the record exists and the token verifies on its own, so a failed
	// write-back only loses the stored copy
	if err := repo.UpdateToken(ctx, user.ID, token); err != nil {
		log.Warn(ctx, "storing issued token failed", "user_id", user.ID, "error", err)
	} else {
		user.Token = token
	}

	log.Info(ctx, "user registered", "user_id", user.ID)
	s.welcome(ctx, user)

	s.recorder.SessionOperation(metrics.OpRegister, metrics.OutcomeSuccess)
	return &Session{User: user, Token: token}, nil
}

// Login verifies credentials and issues a fresh token. An unknown email and
// a wrong password both return common.ErrorInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	log := s.logger.With("operation", metrics.OpLogin)
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnVerify(ctx, password)
			return nil, s.fail(metrics.OpLogin, common.ErrorInvalidCredentials)
		}
		log.Error(ctx, "lookup by email failed", "error", err)
		return nil, s.fail(metrics.OpLogin, common.ErrorInternal)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		log.Error(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
		return nil, s.fail(metrics.OpLogin, common.ErrorInternal)
	}
	if !ok {
		return nil, s.fail(metrics.OpLogin, common.ErrorInvalidCredentials)
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		log.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return nil, s.fail(metrics.OpLogin, common.ErrorInternal)
	}

	s.recorder.SessionOperation(metrics.OpLogin, metrics.OutcomeSuccess)
	return &Session{User: user, Token: token}, nil
}

// DeleteAccount removes the caller's record. A nil identity returns
// common.ErrorUnauthorized without touching the store. Tokens already issued
// for the account stay valid until they expire.
func (s *SessionService) DeleteAccount(ctx context.Context, identity *Identity) error {
	if identity == nil || identity.UserID == "" {
		return s.fail(metrics.OpDelete, common.ErrorUnauthorized)
	}

	log := s.logger.With("operation", metrics.OpDelete, "user_id", identity.UserID)
	if err := s.repomanager.Users(s.db).DeleteByID(ctx, identity.UserID); err != nil {
		log.Error(ctx, "delete user failed", "error", err)
		return s.fail(metrics.OpDelete, common.ErrorInternal)
	}

	log.Info(ctx, "account deleted")
	s.recorder.SessionOperation(metrics.OpDelete, metrics.OutcomeSuccess)
	return nil
}

// RecordLogout counts a logout. Logout has no server-side state to change.
func (s *SessionService) RecordLogout() {
	s.recorder.SessionOperation(metrics.OpLogout, metrics.OutcomeSuccess)
}

func (s *SessionService) fail(op string, err error) error {
	outcome := metrics.OutcomeError
	switch {
	case errors.Is(err, common.ErrorConflict):
		outcome = metrics.OutcomeConflict
	case errors.Is(err, common.ErrorUnauthorized):
		outcome = metrics.OutcomeUnauthorized
	}
	s.recorder.SessionOperation(op, outcome)
	return err
}

// burnVerify spends one bcrypt comparison so an unknown email takes about as
// long as a wrong password.
func (s *SessionService) burnVerify(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Error(ctx, "dummy hash failed", "error", err)
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

func (s *SessionService) welcome(ctx context.Context, user *models.User) {
	if s.queue == nil {
		return
	}
	if !s.queue.Submit(ctx, WelcomeMessage(user)) {
		s.logger.Warn(ctx, "welcome message not queued", "user_id", user.ID)
	}
}

// WelcomeMessage builds the registration greeting for user.
func WelcomeMessage(user *models.User) notify.Message {
	name := user.UserName
	if name == "" {
		name = user.Email
	}
	return notify.Message{
		To:      user.Email,
		Subject: "Welcome to AuthKeeper",
		Text:    fmt.Sprintf("Hi %s,\n\nYour account %s is ready. You can sign in any time.\n", name, user.Email),
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>Your account <b>%s</b> is ready. You can sign in any time.</p>",
			html.EscapeString(name), html.EscapeString(user.Email)),
	}
}

// Package server wires the AuthKeeper components together: storage, token
// issuer, session service, notification dispatcher, metrics and the HTTP and
// gRPC endpoints. It handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/notify"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/dmitrijs2005/authkeeper/internal/server/web"
)

// seams for tests
var (
	logOutput      io.Writer = os.Stdout
	connectStorage           = repomanager.Connect
	newS3Outbox              = func(ctx context.Context, cfg notify.S3Config) (notify.Notifier, error) {
		return notify.NewS3Outbox(ctx, cfg)
	}
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	storage    *repomanager.Storage
	issuer     *auth.Issuer
	metrics    *metrics.Metrics
	dispatcher *notify.Dispatcher
	sessions   *services.SessionService
}

// NewApp builds every component. A missing signing secret or an unreachable
// database fails here, before anything listens.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(logOutput, c.LogLevel)

	issuer, err := auth.NewIssuer([]byte(c.SecretKey), c.TokenValidityDuration)
	if err != nil {
		return nil, err
	}

	storage, err := connectStorage(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	notifier, err := buildNotifier(ctx, c, logger)
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("notifier init error: %w", err)
	}

	m := metrics.New()
	d := notify.NewDispatcher(notifier, c.NotifyQueueSize, logger, m)

	sessions := services.NewSessionService(
		storage.DB,
		storage.Manager,
		auth.NewBcryptHasher(c.PasswordHashCost),
		issuer,
		d,
		m,
		logger,
	)

	return &App{
		config:     c,
		logger:     logger,
		storage:    storage,
		issuer:     issuer,
		metrics:    m,
		dispatcher: d,
		sessions:   sessions,
	}, nil
}

func buildNotifier(ctx context.Context, c *config.Config, logger logging.Logger) (notify.Notifier, error) {
	if c.S3Bucket == "" {
		logger.Info(ctx, "No S3 bucket configured, welcome messages are logged only")
		return notify.NewLogNotifier(logger), nil
	}
	return newS3Outbox(ctx, notify.S3Config{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
	})
}

// HTTPHandler is the complete HTTP surface: session routes, health and metrics.
func (app *App) HTTPHandler() http.Handler {
	h := web.NewHandler(app.sessions, app.issuer.Validity(), app.metrics.Handler(), app.logger)
	return h.Routes(app.issuer)
}

// GRPCServer is the token verification endpoint.
func (app *App) GRPCServer() *gs.GRPCServer {
	return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.issuer)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or
// either server fails, then releases resources.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		app.logger.Error(ctx, err.Error())
		errOnce.Do(func() { firstErr = err })
		cancelFunc()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := web.NewServer(app.config.EndpointAddrHTTP, app.HTTPHandler(), app.logger).Run(ctx); err != nil {
			fail(fmt.Errorf("http server: %w", err))
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.GRPCServer().Run(ctx); err != nil {
			fail(fmt.Errorf("grpc server: %w", err))
		}
	}()

	wg.Wait()
	app.Close()

	app.logger.Info(context.Background(), "App stopped")
	return firstErr
}

// Close drains pending notifications and closes the database.
func (app *App) Close() {
	app.dispatcher.Close()
	if err := app.storage.Close(); err != nil {
		app.logger.Error(context.Background(), "closing storage failed", "error", err)
	}
}

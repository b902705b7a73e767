package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"

	"project-tasks/internal/auth"
	"project-tasks/internal/notify"
	"project-tasks/internal/task"
)

type Server struct {
	cfg Config

	router chi.Router
	signer *auth.TokenSigner
	users  auth.UserStore
	tasks  *task.Service
	worker *notify.Worker
	logger *log.Logger

	storageClient *mongo.Client

	rlLoginIP    *multiLimiter
	rlLoginID    *multiLimiter
	rlRegisterIP *multiLimiter
}

// New connects to Mongo and wires the full production stack.
func New(ctx context.Context, cfg Config) (*Server, error) {
	cfg.setDefaults()
	if cfg.MongoURI == "" {
		return nil, errors.New("server: MongoURI required")
	}
	if cfg.MongoDB == "" {
		return nil, errors.New("server: MongoDB required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("server: JWTSecret required")
	}

	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}

	users, err := auth.NewMongoUserStoreWithClient(ctx, cli, cfg.MongoDB, cfg.UsersCollection)
	if err != nil {
		return nil, err
	}
	tasks, err := task.NewMongoStoreWithClient(ctx, cli, cfg.MongoDB, cfg.TasksCollection)
	if err != nil {
		return nil, err
	}
	outbox, err := notify.NewMongoOutboxWithClient(ctx, cli, cfg.MongoDB, cfg.OutboxCollection)
	if err != nil {
		return nil, err
	}

	s := NewWithStores(cfg, users, tasks, outbox)
	s.storageClient = cli
	return s, nil
}

// NewWithStores wires the server against caller-supplied stores. Tests and
// the storage-free dev mode use it with the in-memory implementations.
func NewWithStores(cfg Config, users auth.UserStore, tasks task.Store, outbox notify.OutboxStore) *Server {
	cfg.setDefaults()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)
	mail := notify.NewSMTPMailer(cfg.SMTP, logger)

	s := &Server{
		cfg:    cfg,
		signer: auth.NewTokenSigner([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.TokenTTL),
		users:  users,
		tasks:  task.NewService(tasks, outbox, mail, logger),
		worker: notify.NewWorker(outbox, mail, logger),
		logger: logger,
	}

	perWindow := func(n int, window time.Duration) float64 { return float64(n) / window.Seconds() }
	s.rlLoginIP = newMultiLimiter(rate.Limit(perWindow(10, time.Minute)), 10, 1*time.Hour)
	s.rlLoginID = newMultiLimiter(rate.Limit(perWindow(5, time.Minute)), 5, 1*time.Hour)
	s.rlRegisterIP = newMultiLimiter(rate.Limit(perWindow(5, time.Minute)), 5, 1*time.Hour)

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Printf("panic: %v", rec)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
		}
	}()

	if s.addCORSHeaders(w, r); r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.router.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler { return s }

// Run serves on addr and drains the notification outbox until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.worker.Run(ctx)

	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Printf("listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) Close(ctx context.Context) error {
	if s.storageClient != nil {
		return s.storageClient.Disconnect(ctx)
	}
	return nil
}

// addCORSHeaders echoes the origin back only when it is on the allow-list;
// credentialed requests require an exact origin, never a wildcard.
func (s *Server) addCORSHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE,OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Origin,X-Requested-With,Content-Type,Accept,Authorization")
			h.Add("Vary", "Origin")
			return
		}
	}
}

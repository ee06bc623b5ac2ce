package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wardensec/warden/internal/config"
	"github.com/wardensec/warden/internal/gateway"
	"github.com/wardensec/warden/internal/vault"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = time.Minute
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

const sessionCookie = "warden_session"

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway-protected demo server",
	Long: `Serve starts an HTTP server whose API sits behind the request gateway:
security headers, HTTPS enforcement, per-client rate limiting and CSRF
validation, with credential operations backed by the vault.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:3400", "Server address (host:port)")
	rootCmd.AddCommand(serveCmd)
}

// validateAddr checks the server address format.
func validateAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("must be in host:port format: %w", err)
	}

	if host != "" && host != "localhost" {
		if ip := net.ParseIP(host); ip == nil {
			if strings.ContainsAny(host, " \t\n") {
				return fmt.Errorf("invalid host: %s", host)
			}
		}
	}

	if port == "" {
		return errors.New("port is required")
	}
	if _, err := net.LookupPort("tcp", port); err != nil {
		return fmt.Errorf("invalid port %q: %w", port, err)
	}
	return nil
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if err := validateAddr(serveAddr); err != nil {
		return fmt.Errorf("invalid address %q: %w", serveAddr, err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cfg)
	logger.Info("starting server", "version", AppVersion, "addr", serveAddr)

	v := vault.New(cfg.Vault.HashWorkers, logger.With("component", "vault"))
	sessions := newSessionTokens(v)

	gw, err := gateway.New(gateway.Options{
		RequireHTTPS:      cfg.Gateway.RequireHTTPS,
		TrustProxy:        cfg.Gateway.TrustProxy,
		StrictMode:        cfg.Gateway.StrictMode,
		RateLimitRequests: cfg.Gateway.RateLimitRequests,
		RateLimitWindow:   cfg.Gateway.RateLimitWindow,
		CSRFHeader:        cfg.Gateway.CSRFHeader,
		CSRFField:         cfg.Gateway.CSRFField,
		CSRFQuery:         cfg.Gateway.CSRFQuery,
		Tokens:            sessions,
	}, logger.With("component", "gateway"))
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /api/v1/csrf", gw.Secure(sessions.issue))
	mux.Handle("POST /api/v1/credentials", gw.Secure(handleHashCredential(v)))

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	}
}

// sessionTokens issues per-session CSRF tokens and implements
// gateway.TokenSource. Sessions live in memory; restarting the server
// invalidates them.
type sessionTokens struct {
	vault *vault.Vault

	mu     sync.RWMutex
	tokens map[string]string
}

func newSessionTokens(v *vault.Vault) *sessionTokens {
	return &sessionTokens{vault: v, tokens: make(map[string]string)}
}

// ExpectedToken implements gateway.TokenSource.
func (s *sessionTokens) ExpectedToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[cookie.Value]
	return token, ok
}

// issue creates a session if the request has none and returns its CSRF
// token.
func (s *sessionTokens) issue(w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.mu.RLock()
		token, ok := s.tokens[cookie.Value]
		s.mu.RUnlock()
		if ok {
			return writeJSON(w, map[string]string{"csrfToken": token})
		}
	}

	token, err := s.vault.GenerateToken(0)
	if err != nil {
		return fmt.Errorf("generating CSRF token: %w", err)
	}

	sessionID := uuid.NewString()
	s.mu.Lock()
	s.tokens[sessionID] = token
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	return writeJSON(w, map[string]string{"csrfToken": token})
}

// handleHashCredential hashes the posted password through the vault and
// returns the derived credential. The plaintext is never logged or stored.
func handleHashCredential(v *vault.Vault) gateway.Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return gateway.NewValidationError("invalid_body", "request body must be JSON with a password field", http.StatusBadRequest)
		}
		if req.Password == "" {
			return gateway.NewValidationError("missing_password", "password is required", http.StatusBadRequest)
		}

		cred, err := v.HashPassword(r.Context(), req.Password, "")
		if err != nil {
			return fmt.Errorf("hashing credential: %w", err)
		}
		return writeJSON(w, map[string]string{"hash": cred.Hash, "salt": cred.Salt})
	}
}

func writeJSON(w http.ResponseWriter, body any) error {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	return nil
}

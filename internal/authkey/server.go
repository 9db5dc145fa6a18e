package authkey

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route is the mint endpoint.
const Route = "/tailscale-authkey"

// Environment variables read by ConfigFromEnv.
const (
	EnvClientID       = "TAILSCALE_OAUTH_CLIENT_ID"
	EnvClientSecret   = "TAILSCALE_OAUTH_CLIENT_SECRET"
	EnvTailnet        = "TAILNET_NAME"
	EnvAPIBase        = "TAILSCALE_API_BASE"
	EnvOperatorTokens = "TELEOP_OPERATOR_TOKENS"
)

// Config holds the service settings.
type Config struct {
	ClientID       string
	ClientSecret   string
	Tailnet        string
	APIBase        string
	OperatorTokens []string
}

// ConfigFromEnv reads Config from getenv. Operator tokens are comma separated.
func ConfigFromEnv(getenv func(string) string) Config {
	var tokens []string
	for _, t := range strings.Split(getenv(EnvOperatorTokens), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return Config{
		ClientID:       getenv(EnvClientID),
		ClientSecret:   getenv(EnvClientSecret),
		Tailnet:        getenv(EnvTailnet),
		APIBase:        getenv(EnvAPIBase),
		OperatorTokens: tokens,
	}
}

// Configured reports whether the admin API credentials are present.
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.Tailnet != ""
}

// Verifier decides whether a bearer token belongs to a verified operator.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// Allowlist verifies tokens against a fixed set.
type Allowlist []string

func (a Allowlist) Verify(_ context.Context, token string) (bool, error) {
	ok := false
	for _, t := range a {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			ok = true
		}
	}
	return ok, nil
}

// Server serves the mint endpoint.
type Server struct {
	configured bool
	verifier   Verifier
	minter     Minter
	logger     *slog.Logger
}

// NewServer returns a server. configured=false makes every authorised request
// fail with 500.
func NewServer(configured bool, verifier Verifier, minter Minter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{configured: configured, verifier: verifier, minter: minter, logger: logger}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})
	r.Options(Route, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post(Route, s.mint)
	return r
}

func (s *Server) mint(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !s.configured {
		http.Error(w, "Server not configured", http.StatusInternalServerError)
		return
	}

	verified, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		s.logger.Warn("operator verification failed", "err", err)
	}
	if err != nil || !verified {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	key, err := s.minter.Mint(r.Context())
	if err != nil {
		s.logger.Error("mint auth key", "err", err)
		http.Error(w, "Key create failed", http.StatusBadGateway)
		return
	}
	s.logger.Info("auth key minted")

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(key); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}

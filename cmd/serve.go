package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zvilnymo/casecheck/internal/bot"
	"github.com/zvilnymo/casecheck/internal/report"
	"github.com/zvilnymo/casecheck/internal/resilience"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Telegram webhook and JSON lookup server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}

		handler := bot.NewHandler(env.Builder, newTelegramClient(), report.NewHTMLRenderer(env.Location), lookupTimeout())
		if cfg.Server.APIToken == "" {
			zap.L().Info("server.api_token not set, JSON API disabled")
		}
		router := buildRouter(handler, env.Breakers, routerConfig{
			WebhookSecret: cfg.Telegram.WebhookSecret,
			APIToken:      cfg.Server.APIToken,
			CORSOrigins:   cfg.Server.CORSOrigins,
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// apiTokenHeader carries the token the JSON API requires.
const apiTokenHeader = "X-Api-Token"

// routerConfig holds the secrets and origins the router enforces.
type routerConfig struct {
	WebhookSecret string
	APIToken      string
	CORSOrigins   []string
}

// buildRouter wires the health check, the Telegram webhook and the JSON
// lookup API. The API is mounted only when an API token is configured, and
// CORS headers are sent only for the listed origins. breakers may be nil.
func buildRouter(h *bot.Handler, breakers *resilience.ServiceBreakers, rc routerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if breakers != nil {
			body["breakers"] = breakers.States()
		}
		writeJSON(w, http.StatusOK, body)
	})

	r.Post("/telegram/webhook", h.Webhook(rc.WebhookSecret))

	if rc.APIToken == "" {
		return r
	}

	r.Route("/api", func(r chi.Router) {
		if len(rc.CORSOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: rc.CORSOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type", apiTokenHeader},
				MaxAge:         300,
			}))
		}
		r.Use(requireToken(rc.APIToken))
		r.Get("/check", func(w http.ResponseWriter, r *http.Request) {
			phone := r.URL.Query().Get("phone")
			if phone == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phone is required"})
				return
			}
			rep, err := h.Lookup(r.Context(), phone)
			if err != nil {
				zap.L().Error("api: check failed", zap.Error(err))
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": report.DescribeError(err)})
				return
			}
			writeJSON(w, http.StatusOK, rep)
		})
	})

	return r
}

// requireToken rejects requests whose apiTokenHeader does not match token.
func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(r.Header.Get(apiTokenHeader)), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

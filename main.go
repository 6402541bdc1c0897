package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"clawstreetbets/config"
	"clawstreetbets/database"
	"clawstreetbets/handlers/admin"
	agenthandlers "clawstreetbets/handlers/agents"
	markethandlers "clawstreetbets/handlers/markets"
	"clawstreetbets/market"
	"clawstreetbets/middleware"
	"clawstreetbets/migration"
	_ "clawstreetbets/migration/migrations"
	"clawstreetbets/moltbook"
	"clawstreetbets/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := migration.RunAll(db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	client := moltbook.NewClient()
	crossposter := moltbook.NewCrossposter(client, cfg.MoltbookAPIKey)
	svc := market.NewService(db, client, crossposter)
	auth := middleware.NewAgentAuth(db, []byte(cfg.JWTSecret))
	sec := security.NewSecurityService()

	// Write-path rate limit, per client IP
	limiter := middleware.NewIPRateLimiter(
		rate.Limit(float64(cfg.RateLimit.PerMinute)/60.0), cfg.RateLimit.Burst)
	limited := func(h http.HandlerFunc) http.Handler {
		return limiter.Middleware(h)
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/agents/register", agenthandlers.RegisterHandler(db, sec)).Methods(http.MethodPost)
	api.HandleFunc("/agents/session", agenthandlers.SessionHandler(auth)).Methods(http.MethodPost)
	api.HandleFunc("/agents/me", agenthandlers.MeHandler(auth)).Methods(http.MethodGet)

	// Static market paths must be registered before /markets/{id}
	api.HandleFunc("/markets/categories", markethandlers.CategoriesHandler(svc)).Methods(http.MethodGet)
	api.HandleFunc("/markets/leaderboard", markethandlers.LeaderboardHandler(svc)).Methods(http.MethodGet)
	api.Handle("/markets", limited(markethandlers.CreateMarketHandler(svc, auth, sec))).Methods(http.MethodPost)
	api.HandleFunc("/markets", markethandlers.ListMarketsHandler(svc, auth)).Methods(http.MethodGet)
	api.HandleFunc("/markets/{id}", markethandlers.GetMarketHandler(svc, auth, sec)).Methods(http.MethodGet)
	api.Handle("/markets/{id}/vote", limited(markethandlers.CastVoteHandler(svc, auth))).Methods(http.MethodPost)
	api.Handle("/markets/{id}/vote", limited(markethandlers.RemoveVoteHandler(svc, auth))).Methods(http.MethodDelete)
	api.Handle("/markets/{id}/vote/moltbook", limited(markethandlers.MoltbookVoteHandler(svc))).Methods(http.MethodPost)
	api.Handle("/markets/{id}/close", limited(markethandlers.CloseMarketHandler(svc, auth))).Methods(http.MethodPatch)
	api.Handle("/markets/{id}/resolve", limited(markethandlers.ResolveMarketHandler(svc, auth))).Methods(http.MethodPatch)

	api.HandleFunc("/admin/reconcile", admin.ReconcileHandler(db, cfg.AdminPasswordHash)).Methods(http.MethodPost)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key", "X-Admin-Key"},
	}).Handler(middleware.SecurityHeaders(r))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("clawstreetbets listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	crossposter.Close()
}

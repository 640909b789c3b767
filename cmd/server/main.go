package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/interlock/interlock/backend-go/internal/auth"
	"github.com/interlock/interlock/backend-go/internal/config"
	"github.com/interlock/interlock/backend-go/internal/imagestore"
	"github.com/interlock/interlock/backend-go/internal/live"
	mw "github.com/interlock/interlock/backend-go/internal/middleware"
	"github.com/interlock/interlock/backend-go/internal/puzzle"
	"github.com/interlock/interlock/backend-go/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}

	st := store.New(pool)

	authService := auth.NewService(st, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	puzzleService := puzzle.NewService(st)
	puzzleHandler := puzzle.NewHandler(puzzleService)

	images := imagestore.NewStore(cfg.ImageDir)
	if err := images.Init(); err != nil {
		slog.Error("init image store", "error", err)
		os.Exit(1)
	}
	imageHandler := imagestore.NewHandler(images)

	hub := live.NewHub()
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS)

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/auth/guest", authHandler.Guest).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Image endpoints (public — used by playground and authenticated users)
	r.HandleFunc("/images/upload", imageHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/images/").Handler(imageHandler.Serve()).Methods("GET")

	// Protected API routes. Guests hold valid tokens but own nothing, so
	// the puzzle surface requires a stored account.
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)
	api.Use(auth.RequireAccount)

	api.HandleFunc("/puzzles", puzzleHandler.List).Methods("GET")
	api.HandleFunc("/puzzles", puzzleHandler.Create).Methods("POST")
	api.HandleFunc("/puzzles/{puzzleId}", puzzleHandler.Get).Methods("GET")
	api.HandleFunc("/puzzles/{puzzleId}", puzzleHandler.Delete).Methods("DELETE")
	api.HandleFunc("/puzzles/{puzzleId}/snapshots/latest", puzzleHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/puzzles/{puzzleId}/snapshots", puzzleHandler.SaveSnapshot).Methods("POST")

	// WebSocket endpoint for spectating and presence
	r.HandleFunc("/ws/puzzle/{puzzleId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, cfg.AllowedOrigins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *live.Hub, authSvc *auth.Service, allowedOrigins string) {
	vars := mux.Vars(r)
	puzzleID := vars["puzzleId"]

	// Auth via query param; browsers cannot set websocket headers. The
	// playground accepts guest tokens minted by /auth/guest.
	const playgroundPuzzleID = "pz_playground"
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	ident, err := authSvc.Identify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var displayName string
	if ident.Guest {
		if puzzleID != playgroundPuzzleID {
			http.Error(w, "guests may only join the playground", http.StatusForbidden)
			return
		}
		displayName = ident.DisplayName
	} else {
		user, err := authSvc.GetUser(r.Context(), ident.UserID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(allowedOrigins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := live.NewClient(hub, conn, ident.UserID, displayName, puzzleID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

func originPatterns(allowedOrigins string) []string {
	var patterns []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		origin = strings.TrimPrefix(origin, "http://")
		origin = strings.TrimPrefix(origin, "https://")
		if origin != "" {
			patterns = append(patterns, origin)
		}
	}
	return patterns
}

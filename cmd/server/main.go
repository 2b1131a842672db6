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
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/invitio/invitio/backend-go/internal/asset"
	"github.com/invitio/invitio/backend-go/internal/auth"
	"github.com/invitio/invitio/backend-go/internal/config"
	"github.com/invitio/invitio/backend-go/internal/db"
	"github.com/invitio/invitio/backend-go/internal/invite"
	mw "github.com/invitio/invitio/backend-go/internal/middleware"
	"github.com/invitio/invitio/backend-go/internal/preview"
	"github.com/invitio/invitio/backend-go/internal/project"
	"github.com/invitio/invitio/backend-go/internal/share"
	"github.com/invitio/invitio/backend-go/internal/shortlink"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("parse redis url", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("connect to redis", "error", err)
		os.Exit(1)
	}

	queries := db.New(pool)

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	projectService := project.NewService(queries)
	projectHandler := project.NewHandler(projectService)

	inviteService := invite.NewService(queries)
	inviteHandler := invite.NewHandler(inviteService)

	assetHandler := asset.NewHandler(cfg.AssetDir)

	links := shortlink.NewStore(rdb, shortlink.DefaultTTL)
	shareHandler := share.NewHandler(links, cfg.ViewerOrigin)

	hub := preview.NewHub()

	allowedOrigins := map[string]bool{}
	var originPatterns []string
	for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		allowedOrigins[o] = true
		originPatterns = append(originPatterns, strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://"))
	}

	r := mux.NewRouter()
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(allowedOrigins))

	// Public routes.
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/images/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Guest editor surface, reachable with only an invite token.
	r.HandleFunc("/editor/{token}", inviteHandler.GetDocument).Methods("GET")
	r.HandleFunc("/editor/{token}", inviteHandler.SaveDocument).Methods("PUT")
	r.HandleFunc("/editor/{token}/rsvp", inviteHandler.SubmitRSVP).Methods("POST", "OPTIONS")

	// Share links.
	r.HandleFunc("/s/{token}", shareHandler.Resolve).Methods("GET")
	r.HandleFunc("/api/share/shorten", shareHandler.Shorten).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/share/qr", shareHandler.QR).Methods("GET")

	// Authenticated API.
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/projects", projectHandler.List).Methods("GET")
	api.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	api.HandleFunc("/projects/{projectId}", projectHandler.Get).Methods("GET")
	api.HandleFunc("/projects/{projectId}", projectHandler.Update).Methods("PUT")
	api.HandleFunc("/projects/{projectId}", projectHandler.Delete).Methods("DELETE")
	api.HandleFunc("/projects/{projectId}/invites", inviteHandler.Create).Methods("POST")
	api.HandleFunc("/projects/{projectId}/rsvps", inviteHandler.ListRSVPs).Methods("GET")

	// Live preview: the editing host pushes document updates to watchers.
	r.HandleFunc("/ws/preview/{projectId}", func(w http.ResponseWriter, req *http.Request) {
		handlePreviewSocket(w, req, hub, authService, originPatterns)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run()
		return nil
	})

	g.Go(func() error {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		hub.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// handlePreviewSocket upgrades the connection and attaches it to the preview
// hub. The project owner joins as the publishing host by presenting a valid
// token; everyone else is a read-only watcher.
func handlePreviewSocket(w http.ResponseWriter, r *http.Request, hub *preview.Hub, authSvc *auth.Service, originPatterns []string) {
	projectID := mux.Vars(r)["projectId"]

	host := false
	if token := r.URL.Query().Get("token"); token != "" {
		if _, err := authSvc.ValidateToken(token); err == nil {
			host = true
		} else {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := preview.NewClient(hub, conn, projectID, uuid.New().String(), host)
	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

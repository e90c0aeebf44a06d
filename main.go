package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wanderplan/agi"
	"wanderplan/auth"
	"wanderplan/config"
	"wanderplan/db"
	"wanderplan/itinerary"
	"wanderplan/logger"
	"wanderplan/metrics"
	"wanderplan/middleware"
	"wanderplan/notify"
	"wanderplan/ratelim"
	"wanderplan/rdx"
	"wanderplan/routes"
	"wanderplan/users"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// corsOptions allows bearer-token clients from origins. Credentials (cookies)
// are never allowed, so a wildcard origin cannot be echoed back with them.
func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Hijack keeps websocket upgrades working through the wrapper.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer cannot be hijacked")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// loggingMiddleware logs each request and counts its status code.
func loggingMiddleware(rec metrics.Recorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		rec.RecordHTTPStatus(sw.status)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger.SetupDefault(os.Stdout, cfg.LogLevel)

	db.Configure(cfg.MongoURI, cfg.MongoDB)
	cache := rdx.New(cfg.RedisAddr, cfg.RedisPassword)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	if cfg.OpenAIKey == "" {
		slog.Warn("OPENAI_API_KEY is not set; generation requests will fail")
	}
	gen := agi.New(agi.Options{
		APIKey:  cfg.OpenAIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Models:  cfg.AIModels,
		Timeout: cfg.AITimeout,
		Metrics: collector,
	})

	tokens := middleware.NewAuthenticator(cfg.JWTSecret, cache)
	people := users.NewMongoStore()
	dir := users.NewDirectory(people, cache)

	hub := notify.NewHub()
	go hub.Run()

	svc := itinerary.NewService(itinerary.NewMongoStore(), people, dir, gen, hub, collector)

	router := httprouter.New()
	routes.RoutesWrapper(router, routes.Deps{
		Auth:        &auth.Handlers{Users: people, Tokens: tokens, Revoked: cache, TokenTTL: cfg.TokenTTL},
		Users:       &users.Handlers{Store: people, Directory: dir, UploadDir: cfg.UploadDir},
		Itineraries: &itinerary.Handlers{Service: svc, BaseURL: cfg.BaseURL},
		Hub:         hub,
		Tokens:      tokens,
		RateLimiter: ratelim.NewRateLimiter(cfg.GenerateRatePerMin),
		Gatherer:    reg,
		UploadDir:   cfg.UploadDir,
	})

	// CORS → security headers → logging → router
	corsHandler := cors.New(corsOptions(cfg.CORSOrigins)).Handler(router)

	handler := loggingMiddleware(collector, securityHeaders(corsHandler))

	// Generation can take a while across several models, so the write timeout
	// leaves room for a full fallback chain.
	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.AITimeout*time.Duration(max(len(cfg.AIModels), 1)) + 15*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		slog.Info("stopping notice hub")
		hub.Stop()
	})

	go func() {
		slog.Info("server listening", "addr", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutdown signal received; shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	if err := db.Disconnect(ctx); err != nil {
		slog.Error("mongo disconnect", "error", err)
	}
	if c, ok := cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Error("cache close", "error", err)
		}
	}
	slog.Info("server stopped cleanly")
}

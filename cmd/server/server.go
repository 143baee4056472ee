package server

import (
	"context"
	"net/http"
	"time"

	appkafka "example.com/minitwitter/internal/broker"
	config "example.com/minitwitter/internal/init"
	"example.com/minitwitter/internal/logger"
	"example.com/minitwitter/internal/middleware"
	"example.com/minitwitter/internal/social"
	"example.com/minitwitter/internal/store"
)

type Server struct {
	svc         *social.Service
	kafkaWriter appkafka.KafkaWriter
}

var logg = logger.New()

// Run starts the HTTPS server with JWT-protected routes and graceful shutdown.
func Run(ctx context.Context, st store.StoreInterface, writer appkafka.KafkaWriter, addr string) {
	cfg := config.Get()
	pages := social.PageConfig{Default: 5, Max: 5}
	if cfg != nil {
		pages = social.PageConfig{Default: cfg.FeedPageSizeDefault, Max: cfg.FeedPageSizeMax}
	}

	s := &Server{
		svc:         social.New(st, pages),
		kafkaWriter: writer,
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second, // prevent slowloris attacks
		WriteTimeout: 10 * time.Second,
	}

	// --- Start server in a goroutine ---
	go func() {
		logg.Info("server", "Starting HTTPS server on "+addr)
		// TLS: cert.pem and key.pem should be valid certificates in specified paths
		if err := srv.ListenAndServeTLS("/certs/cert.pem", "/certs/key.pem"); err != nil && err != http.ErrServerClosed {
			logg.Error("server", "Server stopped unexpectedly", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	logg.Info("server", "Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server", "Error during server shutdown", err)
	} else {
		logg.Info("server", "Server stopped gracefully")
	}
}

// routes wires the HTTP surface. Registration is public; everything else
// resolves the caller through the JWT middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /users", http.HandlerFunc(s.registerHandler))

	mux.Handle("POST /users/follow/{id}", middleware.JWTAuth(http.HandlerFunc(s.followHandler)))
	mux.Handle("POST /posts", middleware.JWTAuth(http.HandlerFunc(s.createPostHandler)))
	mux.Handle("GET /posts", middleware.JWTAuth(http.HandlerFunc(s.listPostsHandler)))
	mux.Handle("PATCH /posts/{id}", middleware.JWTAuth(http.HandlerFunc(s.updatePostHandler)))
	mux.Handle("DELETE /posts/{id}", middleware.JWTAuth(http.HandlerFunc(s.deletePostHandler)))
	mux.Handle("POST /posts/{id}/like", middleware.JWTAuth(http.HandlerFunc(s.likeHandler)))
	mux.Handle("GET /feed", middleware.JWTAuth(http.HandlerFunc(s.getFeedHandler)))

	return mux
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bookstore-backend/internal/config"
	"bookstore-backend/internal/database"
	"bookstore-backend/internal/handlers"
	"bookstore-backend/internal/middleware"
	"bookstore-backend/internal/services"
	"bookstore-backend/internal/storage"
	"bookstore-backend/internal/tracing"
)

func main() {
	cfg := config.Load()

	shutdownTracer, err := tracing.InitTracer(cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connecting to MinIO...")
	objectStore, err := storage.NewObjectStore(
		cfg.MinIOEndpoint,
		cfg.MinIOAccessKey,
		cfg.MinIOSecretKey,
		cfg.MinIOImageBucket,
		cfg.MinIORawBucket,
		cfg.MinIOPublicBaseURL,
		cfg.MinIOUseSSL,
	)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}

	log.Println("Connecting to Redis...")
	redisClient, err := storage.NewRedisClient(cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()

	bookStore := storage.NewBookStore(db)
	bookService := services.NewBookService(objectStore, bookStore, redisClient)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	bookHandler := handlers.NewBookHandler(bookService, cfg.UploadTempDir, cfg.MaxUploadBytes())

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.Handle("/api/auth/register",
		otelhttp.NewHandler(http.HandlerFunc(authHandler.RegisterUser), "POST /api/auth/register")).Methods("POST")
	router.Handle("/api/auth/login",
		otelhttp.NewHandler(http.HandlerFunc(authHandler.LoginUser), "POST /api/auth/login")).Methods("POST")
	router.Handle("/api/auth/me",
		otelhttp.NewHandler(authMiddleware.RequireAuth(http.HandlerFunc(authHandler.GetMe)), "GET /api/auth/me")).Methods("GET")

	router.Handle("/api/books",
		otelhttp.NewHandler(authMiddleware.RequireAuth(http.HandlerFunc(bookHandler.CreateBook)), "POST /api/books")).Methods("POST")
	router.Handle("/api/books",
		otelhttp.NewHandler(http.HandlerFunc(bookHandler.ListBooks), "GET /api/books")).Methods("GET")
	router.Handle("/api/books/{bookId}",
		otelhttp.NewHandler(http.HandlerFunc(bookHandler.GetBook), "GET /api/books/{bookId}")).Methods("GET")
	router.Handle("/api/books/{bookId}",
		otelhttp.NewHandler(authMiddleware.RequireAuth(http.HandlerFunc(bookHandler.UpdateBook)), "PATCH /api/books/{bookId}")).Methods("PATCH")
	router.Handle("/api/books/{bookId}",
		otelhttp.NewHandler(authMiddleware.RequireAuth(http.HandlerFunc(bookHandler.DeleteBook)), "DELETE /api/books/{bookId}")).Methods("DELETE")

	handler := corsMiddleware(cfg.CORSAllowOrigin, router)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func corsMiddleware(allowOrigin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must stay strict because of http-only cookies
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

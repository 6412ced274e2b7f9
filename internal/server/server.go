package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"library-lending/internal/auth"
	"library-lending/internal/config"
	"library-lending/internal/domain"
	"library-lending/internal/handler"
	"library-lending/internal/repository"
	"library-lending/internal/service"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
)

// Server represents the HTTP server
type Server struct {
	router *mux.Router
	server *http.Server
	db     *sql.DB
	logger *slog.Logger
	port   string
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// Initialize database connection
	db, err := sql.Open("postgres", cfg.GetDBConnectionString())
	if err != nil {
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test database connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("Successfully connected to database")
	}

	// Initialize store (Unit of Work)
	store := repository.NewStore(db, logger)

	// Initialize services
	loanService := service.NewLoanService(store, logger, cfg.MaxActiveLoans, cfg.LoanPeriodDays)
	bookService := service.NewBookService(store, logger)
	memberService := service.NewMemberService(store, logger)
	userService := service.NewUserService(store, logger)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret)

	// Initialize handlers
	loanHandler := handler.NewLoanHandler(loanService)
	bookHandler := handler.NewBookHandler(bookService)
	memberHandler := handler.NewMemberHandler(memberService)
	authHandler := handler.NewAuthHandler(userService, issuer)

	// Setup router
	router := mux.NewRouter()

	// Add middleware for logging
	router.Use(loggingMiddleware(logger))

	// Public auth routes
	public := router.PathPrefix("/api/auth").Subrouter()
	public.HandleFunc("/register", authHandler.Register).Methods("POST")
	public.HandleFunc("/login", authHandler.Login).Methods("POST")

	// Everything else under /api requires a verified token; role policy is
	// declared per route, mirroring the operations' role sets.
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.Authenticate(issuer))

	allStaff := []domain.Role{domain.RoleAdmin, domain.RoleLibrarian, domain.RoleStaff}
	librarians := []domain.Role{domain.RoleAdmin, domain.RoleLibrarian}
	adminOnly := []domain.Role{domain.RoleAdmin}

	// Borrowing transaction routes. Fixed paths before parameterized ones.
	api.Handle("/transactions/overdue", auth.RequireRole(loanHandler.Overdue, librarians...)).Methods("GET")
	api.Handle("/transactions/member/{memberId}/history", auth.RequireRole(loanHandler.MemberHistory, allStaff...)).Methods("GET")
	api.Handle("/transactions/book/{bookId}/availability", auth.RequireRole(loanHandler.Availability, allStaff...)).Methods("GET")
	api.Handle("/transactions", auth.RequireRole(loanHandler.Create, allStaff...)).Methods("POST")
	api.Handle("/transactions", auth.RequireRole(loanHandler.List, allStaff...)).Methods("GET")
	api.Handle("/transactions/{id}", auth.RequireRole(loanHandler.Get, allStaff...)).Methods("GET")
	api.Handle("/transactions/{id}", auth.RequireRole(loanHandler.Update, allStaff...)).Methods("PUT")
	api.Handle("/transactions/{id}", auth.RequireRole(loanHandler.Delete, adminOnly...)).Methods("DELETE")
	api.Handle("/transactions/{id}/return", auth.RequireRole(loanHandler.Return, allStaff...)).Methods("POST")

	// Catalog routes
	api.Handle("/books", auth.RequireRole(bookHandler.Create, librarians...)).Methods("POST")
	api.Handle("/books", auth.RequireRole(bookHandler.List, allStaff...)).Methods("GET")
	api.Handle("/books/{id}", auth.RequireRole(bookHandler.Get, allStaff...)).Methods("GET")
	api.Handle("/books/{id}", auth.RequireRole(bookHandler.Update, librarians...)).Methods("PUT")
	api.Handle("/books/{id}", auth.RequireRole(bookHandler.Delete, adminOnly...)).Methods("DELETE")

	// Member routes
	api.Handle("/members", auth.RequireRole(memberHandler.Create, allStaff...)).Methods("POST")
	api.Handle("/members", auth.RequireRole(memberHandler.List, allStaff...)).Methods("GET")
	api.Handle("/members/{id}", auth.RequireRole(memberHandler.Get, allStaff...)).Methods("GET")
	api.Handle("/members/{id}", auth.RequireRole(memberHandler.Update, allStaff...)).Methods("PUT")
	api.Handle("/members/{id}", auth.RequireRole(memberHandler.Delete, adminOnly...)).Methods("DELETE")

	// Health check
	router.HandleFunc("/health", healthHandler(db)).Methods("GET")

	return &Server{
		router: router,
		db:     db,
		logger: logger,
	}, nil
}

// healthHandler reports liveness, checking database connectivity.
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create response wrapper to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	// Get the actual port being used
	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	// Create HTTP server
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.logger != nil {
		s.logger.Info("Starting server", "port", s.port)
	}

	// Start server in background
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("Server failed to start", "error", err)
			}
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("Shutting down server")
	}

	// Close database connection
	if s.db != nil {
		s.db.Close()
	}

	// Shutdown HTTP server
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	// Initialize logger - use io.Discard for tests to avoid panic
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		// Test environment - use discard logger
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		// Production environment - use stdout
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	// Start the server and get the actual port
	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		return nil, "", err
	}

	return server, port, nil
}

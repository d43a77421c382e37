package billing

import (
	"log/slog"
	"net/http"
)

// Server handles HTTP requests for the ingestion API
type Server struct {
	service *Service
	mux     *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(service *Service) *Server {
	return NewServerWithMux(service, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, mux *http.ServeMux) *Server {
	s := &Server{
		service: service,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds CORS headers to responses. The presentation layer is
// a separate client app, so every response needs them.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// registerRoutes registers the four ingestion API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/save", s.handleSave)
	s.mux.HandleFunc("GET /billing-info", s.handleListBillingRecords)
	s.mux.HandleFunc("GET /categories", s.handleListCategories)
	s.mux.HandleFunc("POST /update-billing-category", s.handleAssignCategory)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

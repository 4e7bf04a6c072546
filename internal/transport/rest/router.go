package rest

import (
	"net/http"
	"strings"

	"promptcraft/internal/logger"
	"promptcraft/internal/service"
	"promptcraft/internal/transport/rest/handler"
	"promptcraft/internal/transport/rest/middleware"
	"promptcraft/internal/transport/ws"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"

	_ "promptcraft/docs"
)

// Container holds all dependencies for the router
type Container struct {
	SessionService *service.SessionService
	WSHub          *ws.Hub
	Logger         *logger.Logger
	AllowedOrigins string // comma separated, "*" allows any
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	catalogHandler := handler.NewCatalogHandler(c.SessionService)
	sessionHandler := handler.NewSessionHandler(c.SessionService, c.Logger)
	promptHandler := handler.NewPromptHandler(c.SessionService)
	wsHandler := ws.NewHandler(c.WSHub, c.SessionService, c.Logger)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))
	r.Use(middleware.RequestLogger(c.Logger))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/swagger/doc.json", serveSwaggerDoc).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/questions", catalogHandler.List).Methods("GET", "OPTIONS")

	v1.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/draft", sessionHandler.SaveDraft).Methods("PUT", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/answer", sessionHandler.RecordAnswer).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/advance", sessionHandler.Advance).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/retreat", sessionHandler.Retreat).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/reset", sessionHandler.Reset).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/export", sessionHandler.ExportLinks).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/export/{target}", sessionHandler.ExportLink).Methods("GET", "OPTIONS")

	v1.HandleFunc("/prompts", promptHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/prompts/{sessionId}", promptHandler.Get).Methods("GET", "OPTIONS")

	// WebSocket routes
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	return r
}

func serveSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, `{"error":"api docs unavailable"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	allowAny := allowedOrigins == "" || allowedOrigins == "*"
	allowed := make(map[string]bool)
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowAny {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin := r.Header.Get("Origin"); allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

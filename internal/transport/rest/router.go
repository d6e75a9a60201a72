package rest

import (
	"growdoctor/internal/metrics"
	"growdoctor/internal/service"
	"growdoctor/internal/transport/rest/handler"
	"growdoctor/internal/transport/rest/middleware"
	"growdoctor/internal/transport/ws"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	DiagnoseService *service.DiagnoseService
	Metrics         *metrics.Metrics
	WSHub           *ws.Hub
	Logger          *slog.Logger

	CORSAllowedOrigins []string
	UploadMaxBytes     int64
	UploadAllowedTypes []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()

	// Initialize handlers
	diagnoseHandler := handler.NewDiagnoseHandler(c.DiagnoseService, c.UploadMaxBytes, c.UploadAllowedTypes, logger)
	legalHandler := handler.NewLegalHandler(c.DiagnoseService)

	// request id first so every later line carries it
	r.Use(middleware.RequestID)
	r.Use(middleware.NewAccessLog(logger, c.Metrics).Handler)
	r.Use(middleware.CORS(c.CORSAllowedOrigins))

	r.HandleFunc("/diagnose", diagnoseHandler.Diagnose).Methods("POST", "OPTIONS")
	r.HandleFunc("/legal", legalHandler.Legal).Methods("GET", "OPTIONS")
	r.HandleFunc("/health", handler.Health).Methods("GET", "OPTIONS")

	// POST stays for external pingers that always used it
	r.Handle("/metrics", c.Metrics.Handler()).Methods("GET", "POST")

	if c.WSHub != nil {
		wsHandler := ws.NewHandler(c.WSHub, c.CORSAllowedOrigins, logger)
		r.HandleFunc("/ws/clients/{clientId}", wsHandler.ClientWS).Methods("GET")
	}

	return r
}

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpggio/prdinsights/internal/mcp"
)

// MCPHandler handles MCP method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, tenantID, method string, params json.RawMessage) (any, error)
}

// Options configures the HTTP router.
type Options struct {
	// Auth wraps the tenant-scoped routes. Nil runs them as mcp.DefaultTenant.
	Auth func(http.Handler) http.Handler
	// MCP serves the streamable MCP transport at /mcp when set. It
	// authenticates through the MCP server's own middleware.
	MCP http.Handler
}

// Server wires HTTP handlers.
type Server struct {
	handler MCPHandler
}

// NewServer creates an HTTP server router with middleware.
func NewServer(handler MCPHandler, opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	srv := &Server{handler: handler}

	r.Get("/health", srv.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		} else {
			r.Use(DefaultTenantMiddleware(mcp.DefaultTenant))
		}
		r.Post("/rpc", srv.handleRPC)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, rpcErr := DecodeRequest(w, r)
	if rpcErr != nil {
		WriteError(w, nil, rpcErr)
		return
	}

	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}

	result, err := s.handler.Handle(r.Context(), tenantID, req.Method, req.Params)
	if req.IsNotification() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	id := responseID(req.ID)
	if err != nil {
		writeHandlerError(w, id, err)
		return
	}

	WriteResult(w, id, result)
}

func writeHandlerError(w http.ResponseWriter, id any, err error) {
	if errors.Is(err, ErrUnauthorized) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if errors.Is(err, mcp.ErrUnknownMethod) {
		WriteError(w, id, &Error{Code: ErrMethodNotFound, Message: err.Error()})
		return
	}
	var apiErr *mcp.APIError
	if errors.As(err, &apiErr) {
		code := ErrInternal
		if apiErr.Code == "INVALID_PARAMS" {
			code = ErrInvalidParams
		}
		WriteError(w, id, &Error{Code: code, Message: apiErr.Message, Data: apiErr})
		return
	}
	WriteError(w, id, &Error{Code: ErrInternal, Message: err.Error()})
}

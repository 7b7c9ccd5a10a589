package rpc

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/LeJamon/goLSKd/internal/rpc/rpc_types"
)

// maxBodySize bounds a request body
const maxBodySize = 1 << 20

// Config controls the JSON-RPC server
type Config struct {
	RequestTimeout time.Duration
	// SubmitRate is submissions per second per client. Zero disables limiting.
	SubmitRate  float64
	SubmitBurst int
	// Admin grants loopback clients the admin role
	Admin   bool
	Version string
}

// Server handles HTTP JSON-RPC requests.
// Format: {"method": "method_name", "params": [{...}]}
type Server struct {
	registry *rpc_types.MethodRegistry
	services *rpc_types.ServiceContainer
	limiter  *RateLimiter
	gatherer prometheus.Gatherer
	config   Config
	log      logrus.FieldLogger
}

// NewServer creates a server over services. gatherer backs /metrics and
// may be nil.
func NewServer(cfg Config, services *rpc_types.ServiceContainer, gatherer prometheus.Gatherer, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		registry: rpc_types.NewMethodRegistry(),
		services: services,
		gatherer: gatherer,
		config:   cfg,
		log:      log.WithField("component", "rpc"),
	}
	if cfg.SubmitRate > 0 {
		s.limiter = NewRateLimiter(cfg.SubmitRate, cfg.SubmitBurst)
	}

	s.registerAllMethods()

	return s
}

// Registry exposes the registered methods
func (s *Server) Registry() *rpc_types.MethodRegistry {
	return s.registry
}

// Limiter returns the submission rate limiter, nil when limiting is off
func (s *Server) Limiter() *RateLimiter {
	return s.limiter
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	r.Post("/", s.handlePostRequest)
	r.Get("/", s.handleGetRequest)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Request is a JSON-RPC request
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// handleGetRequest serves simple queries, server_info by default
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("command")
	if method == "" {
		method = "server_info"
	}

	result, rpcErr := s.executeMethod(method, nil, s.newContext(r))
	s.writeResponse(w, map[string]any{"command": method}, result, rpcErr)
}

// handlePostRequest processes a JSON-RPC payload
func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, "internal", "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeError(w, "jsonInvalid", "Invalid JSON: "+err.Error())
		return
	}
	if request.Method == "" {
		rpcErr := rpc_types.RpcErrorMissingCommand()
		s.writeResponse(w, nil, nil, rpcErr)
		return
	}

	// params is an array with one object
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	result, rpcErr := s.executeMethod(request.Method, params, s.newContext(r))

	var requestObj any = map[string]any{"command": request.Method}
	if params != nil {
		var reqMap map[string]any
		if err := json.Unmarshal(params, &reqMap); err == nil && reqMap != nil {
			reqMap["command"] = request.Method
			requestObj = reqMap
		}
	}
	s.writeResponse(w, requestObj, result, rpcErr)
}

func (s *Server) newContext(r *http.Request) *rpc_types.RpcContext {
	ip := clientIP(r)
	role := rpc_types.RoleGuest
	if s.config.Admin && isLoopback(ip) {
		role = rpc_types.RoleAdmin
	}
	return &rpc_types.RpcContext{
		Context:  r.Context(),
		Role:     role,
		ClientIP: ip,
		Services: s.services,
	}
}

// executeMethod executes an RPC method with the given parameters
func (s *Server) executeMethod(method string, params json.RawMessage, ctx *rpc_types.RpcContext) (any, *rpc_types.RpcError) {
	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, rpc_types.RpcErrorMethodNotFound(method)
	}

	if ctx.Role < handler.RequiredRole() {
		s.log.WithFields(logrus.Fields{"method": method, "client": ctx.ClientIP}).Warn("Rejected untrusted request")
		return nil, rpc_types.RpcErrorUntrusted(method)
	}

	if method == "submit" && s.limiter != nil && !s.limiter.Allow(ctx.ClientIP) {
		s.log.WithField("client", ctx.ClientIP).Debug("Submission rate limit exceeded")
		return nil, rpc_types.RpcErrorSlowDown()
	}

	return handler.Handle(ctx, params)
}

// writeResponse writes result.status = "success" or "error"
func (s *Server) writeResponse(w http.ResponseWriter, request any, result any, rpcErr *rpc_types.RpcError) {
	var resultObj map[string]any
	if rpcErr != nil {
		resultObj = map[string]any{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
		if request != nil {
			resultObj["request"] = request
		}
	} else if m, ok := result.(map[string]any); ok {
		resultObj = m
		resultObj["status"] = "success"
	} else {
		resultObj = map[string]any{
			"status": "success",
			"data":   result,
		}
	}
	s.write(w, map[string]any{"result": resultObj})
}

// writeError writes an error for requests that never reached a method
func (s *Server) writeError(w http.ResponseWriter, errorCode string, message string) {
	s.write(w, map[string]any{
		"result": map[string]any{
			"status":        "error",
			"error":         errorCode,
			"error_message": message,
		},
	})
}

func (s *Server) write(w http.ResponseWriter, response map[string]any) {
	responseData, err := json.Marshal(response)
	if err != nil {
		s.log.WithError(err).Error("Failed to marshal response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(responseData)
}

// clientIP is the connection's remote host. Forwarding headers are not
// trusted since the role depends on it.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

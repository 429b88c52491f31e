package mcp

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
)

// sseBasePath keeps parity with the stdio-less deployments the server
// replaces: clients connect to /mcp/sse and post to /mcp/message.
const sseBasePath = "/mcp"

// HTTPServer is the HTTP front door: the MCP SSE transport plus a
// health endpoint, on one mux.
type HTTPServer struct {
	mcp    *Server
	mux    *http.ServeMux
	addr   string
	listen func(network, address string) (net.Listener, error)
	serve  func(net.Listener, http.Handler) error
}

// NewHTTPServer wraps the MCP server in an SSE transport bound to the
// given address.
func NewHTTPServer(s *Server, host string, port int) *HTTPServer {
	srv := &HTTPServer{
		mcp:    s,
		addr:   fmt.Sprintf("%s:%d", host, port),
		listen: net.Listen,
		serve:  http.Serve,
	}
	srv.mux = http.NewServeMux()
	srv.routes()
	return srv
}

func (h *HTTPServer) routes() {
	sse := server.NewSSEServer(h.mcp.mcp,
		server.WithStaticBasePath(sseBasePath),
		server.WithKeepAliveInterval(30*time.Second),
	)
	h.mux.Handle(sseBasePath+"/", sse)
	h.mux.HandleFunc("GET /health", h.handleHealth)
}

// Start listens and serves until the listener fails or is closed.
func (h *HTTPServer) Start() error {
	listenFn := h.listen
	if listenFn == nil {
		listenFn = net.Listen
	}
	serveFn := h.serve
	if serveFn == nil {
		serveFn = http.Serve
	}

	ln, err := listenFn("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("zendesk-mcp server: listen %s: %w", h.addr, err)
	}
	h.mcp.logger.Info("MCP SSE server listening",
		"addr", h.addr,
		"sse", sseBasePath+"/sse",
		"message", sseBasePath+"/message",
	)
	return serveFn(ln, h.mux)
}

// Handler exposes the mux for in-process tests.
func (h *HTTPServer) Handler() http.Handler {
	return h.mux
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serverName,
		"version": serverVersion,
	})
}

func jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

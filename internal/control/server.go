// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package control provides an HTTP control socket for process management
// and operator commands.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/internal/console"
	"github.com/gatewarden/gatewarden/internal/xdg"
)

// HealthResponse is returned by the /health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// StatusResponse is returned by the /status endpoint.
type StatusResponse struct {
	Running       bool  `json:"running"`
	PID           int   `json:"pid"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	Sessions      int   `json:"sessions"`
}

// ShutdownResponse is returned by the /shutdown endpoint.
type ShutdownResponse struct {
	Message string `json:"message"`
}

// NameRequest carries a single participant name for list operations.
type NameRequest struct {
	Name string `json:"name"`
}

// CredentialRequest carries a name and secret for credential registration.
type CredentialRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// NamesResponse is returned by list endpoints.
type NamesResponse struct {
	Names []string `json:"names"`
}

// ReloadResponse is returned by the credential reload endpoint.
type ReloadResponse struct {
	Count int `json:"count"`
}

// ErrorResponse is returned when an operation fails.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// ShutdownFunc is called when shutdown is requested.
type ShutdownFunc func()

// SessionCounter reports how many sessions are currently authenticated.
type SessionCounter interface {
	Count() int
}

// Operations is the subset of front-end operations exposed over the socket.
type Operations interface {
	AddCredential(ctx context.Context, actor console.Actor, name, secret string) error
	ReloadCredentials(ctx context.Context, actor console.Actor) (int, error)
	WhitelistAdd(ctx context.Context, actor console.Actor, name string) error
	WhitelistRemove(ctx context.Context, actor console.Actor, name string) error
	WhitelistList(ctx context.Context, actor console.Actor) ([]string, error)
	WhitelistReload(ctx context.Context, actor console.Actor) error
	AdminAdd(ctx context.Context, actor console.Actor, name string) error
	AdminRemove(ctx context.Context, actor console.Actor, name string) error
	AdminList(ctx context.Context, actor console.Actor) ([]string, error)
}

// socketActor is the identity operator commands run under. The socket is
// owner-only, so anything that can reach it already has host privileges.
var socketActor = console.Actor{Name: "console", Elevated: true}

// Server runs HTTP over a Unix socket for process management, operator
// commands, and host-delivered session events.
type Server struct {
	ops          Operations
	gateway      SessionGateway
	login        LoginOperations
	sessions     SessionCounter
	startTime    time.Time
	listener     net.Listener
	httpServer   *http.Server
	socketPath   string
	shutdownFunc ShutdownFunc
	running      atomic.Bool
}

// NewServer creates a new control socket server.
func NewServer(ops Operations, gateway SessionGateway, login LoginOperations, sessions SessionCounter, shutdownFunc ShutdownFunc) (*Server, error) {
	if ops == nil {
		return nil, oops.Errorf("operations cannot be nil")
	}
	if gateway == nil {
		return nil, oops.Errorf("session gateway cannot be nil")
	}
	if login == nil {
		return nil, oops.Errorf("login operations cannot be nil")
	}
	if sessions == nil {
		return nil, oops.Errorf("session counter cannot be nil")
	}
	s := &Server{
		ops:          ops,
		gateway:      gateway,
		login:        login,
		sessions:     sessions,
		startTime:    time.Now(),
		shutdownFunc: shutdownFunc,
	}
	s.running.Store(true)
	return s, nil
}

// SocketPath returns the path to the Unix socket.
func SocketPath() string {
	return filepath.Join(xdg.RuntimeDir(), "gatewarden.sock")
}

// Start begins listening on the Unix socket.
func (s *Server) Start() error {
	socketPath := SocketPath()
	s.socketPath = socketPath

	// Ensure runtime directory exists
	if err := xdg.EnsureDir(filepath.Dir(socketPath)); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}

	// Remove existing socket file if present
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions to owner-only
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /shutdown", s.handleShutdown)
	mux.HandleFunc("GET /whitelist", s.handleWhitelistList)
	mux.HandleFunc("POST /whitelist/add", s.handleWhitelistAdd)
	mux.HandleFunc("POST /whitelist/remove", s.handleWhitelistRemove)
	mux.HandleFunc("POST /whitelist/reload", s.handleWhitelistReload)
	mux.HandleFunc("GET /admins", s.handleAdminList)
	mux.HandleFunc("POST /admins/add", s.handleAdminAdd)
	mux.HandleFunc("POST /admins/remove", s.handleAdminRemove)
	mux.HandleFunc("POST /credentials/add", s.handleCredentialAdd)
	mux.HandleFunc("POST /credentials/reload", s.handleCredentialReload)
	mux.HandleFunc("POST /session/join", s.handleSessionJoin)
	mux.HandleFunc("POST /session/leave", s.handleSessionLeave)
	mux.HandleFunc("POST /session/action", s.handleSessionAction)
	mux.HandleFunc("POST /session/login", s.handleSessionLogin)

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("control socket server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the control socket server.
func (s *Server) Stop(ctx context.Context) error {
	s.running.Store(false)

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown http server: %w", err)
		}
	}

	// Close listener if httpServer didn't handle it
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Warn("failed to close control socket listener", "error", err)
		}
	}

	// Clean up socket file
	if s.socketPath != "" {
		if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove control socket file",
				"path", s.socketPath,
				"error", err,
			)
		}
	}

	return nil
}

// handleHealth returns health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleStatus returns running status.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Running:       s.running.Load(),
		PID:           os.Getpid(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Sessions:      s.sessions.Count(),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleShutdown initiates graceful shutdown.
func (s *Server) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, ShutdownResponse{Message: "shutdown initiated"})

	// Trigger shutdown asynchronously
	if s.shutdownFunc != nil {
		go s.shutdownFunc()
	}
}

func (s *Server) handleWhitelistList(w http.ResponseWriter, r *http.Request) {
	names, err := s.ops.WhitelistList(r.Context(), socketActor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, NamesResponse{Names: names})
}

func (s *Server) handleWhitelistAdd(w http.ResponseWriter, r *http.Request) {
	s.nameOp(w, r, s.ops.WhitelistAdd)
}

func (s *Server) handleWhitelistRemove(w http.ResponseWriter, r *http.Request) {
	s.nameOp(w, r, s.ops.WhitelistRemove)
}

func (s *Server) handleWhitelistReload(w http.ResponseWriter, r *http.Request) {
	if err := s.ops.WhitelistReload(r.Context(), socketActor); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	names, err := s.ops.AdminList(r.Context(), socketActor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, NamesResponse{Names: names})
}

func (s *Server) handleAdminAdd(w http.ResponseWriter, r *http.Request) {
	s.nameOp(w, r, s.ops.AdminAdd)
}

func (s *Server) handleAdminRemove(w http.ResponseWriter, r *http.Request) {
	s.nameOp(w, r, s.ops.AdminRemove)
}

func (s *Server) handleCredentialAdd(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "invalid request body",
			Reason: "request body must be JSON with name and secret fields",
		})
		return
	}
	if err := s.ops.AddCredential(r.Context(), socketActor, req.Name, req.Secret); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleCredentialReload(w http.ResponseWriter, r *http.Request) {
	count, err := s.ops.ReloadCredentials(r.Context(), socketActor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ReloadResponse{Count: count})
}

// nameOp decodes a NameRequest and runs a single-name operation.
func (s *Server) nameOp(w http.ResponseWriter, r *http.Request, op func(context.Context, console.Actor, string) error) {
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "invalid request body",
			Reason: "request body must be JSON with a name field",
		})
		return
	}
	if err := op(r.Context(), socketActor, req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, struct{}{})
}

// writeError maps an operation error to an HTTP status and JSON body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if oopsErr, ok := oops.AsOops(err); ok {
		switch oopsErr.Code() {
		case console.CodeUnauthorized:
			status = http.StatusForbidden
		case console.CodeInvalidInput:
			status = http.StatusBadRequest
		case console.CodeAlreadyExists:
			status = http.StatusConflict
		case console.CodeNotFound:
			status = http.StatusNotFound
		}
	}
	s.writeJSON(w, status, ErrorResponse{
		Error:  err.Error(),
		Reason: console.Reason(err),
	})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode control response", "error", err)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package control

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/console"
	"github.com/gatewarden/gatewarden/internal/gate"
)

// JoinRequest is delivered by the host when a participant connects.
type JoinRequest struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
}

// LeaveRequest is delivered by the host when a participant disconnects.
type LeaveRequest struct {
	Identity string `json:"identity"`
}

// ActionRequest is one intercepted host action awaiting a verdict.
type ActionRequest struct {
	Identity  string `json:"identity"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

// ActionResponse carries the gate's verdict. The host must veto the action
// when Decision is "deny".
type ActionResponse struct {
	Decision string `json:"decision"`
}

// LoginRequest is a credential submission relayed by the host.
type LoginRequest struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Code     string `json:"code"`
}

// LoginResponse reports the attempt outcome and the text to show the
// participant.
type LoginResponse struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

// SessionGateway is the slice of the gate the host-facing endpoints drive.
type SessionGateway interface {
	OnJoin(ctx context.Context, ev gate.JoinEvent)
	OnLeave(ctx context.Context, id ulid.ULID)
	OnAction(ctx context.Context, ev gate.ActionEvent) gate.Decision
}

// LoginOperations handles credential submissions from participants.
type LoginOperations interface {
	Login(ctx context.Context, actor console.Actor, name, code string) auth.Result
}

func (s *Server) handleSessionJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	id, ok := s.decodeIdentity(w, r, &req, func() string { return req.Identity })
	if !ok {
		return
	}
	s.gateway.OnJoin(r.Context(), gate.JoinEvent{Identity: id, Name: req.Name})
	s.writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleSessionLeave(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	id, ok := s.decodeIdentity(w, r, &req, func() string { return req.Identity })
	if !ok {
		return
	}
	s.gateway.OnLeave(r.Context(), id)
	s.writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	id, ok := s.decodeIdentity(w, r, &req, func() string { return req.Identity })
	if !ok {
		return
	}
	decision := s.gateway.OnAction(r.Context(), gate.ActionEvent{
		Identity:  id,
		Name:      req.Name,
		Category:  gate.ParseCategory(req.Category),
		Synthetic: req.Synthetic,
	})
	s.writeJSON(w, http.StatusOK, ActionResponse{Decision: decision.String()})
}

func (s *Server) handleSessionLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	id, ok := s.decodeIdentity(w, r, &req, func() string { return req.Identity })
	if !ok {
		return
	}
	actor := console.Actor{Identity: id, Name: req.Name}
	result := s.login.Login(r.Context(), actor, req.Name, req.Code)
	s.writeJSON(w, http.StatusOK, LoginResponse{
		Outcome: result.Outcome.String(),
		Message: console.LoginMessage(result),
	})
}

// decodeIdentity decodes the request body into req and parses the identity
// field. It writes a 400 response and returns ok=false on failure. The
// identity value is read through getIdentity because decoding fills req after
// the call site runs.
func (s *Server) decodeIdentity(w http.ResponseWriter, r *http.Request, req any, getIdentity func() string) (ulid.ULID, bool) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "invalid request body",
			Reason: "request body must be JSON",
		})
		return ulid.ULID{}, false
	}
	id, err := ulid.Parse(getIdentity())
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "invalid identity",
			Reason: "identity must be a ULID",
		})
		return ulid.ULID{}, false
	}
	return id, true
}

// SessionJoin reports a participant connecting.
func (c *Client) SessionJoin(ctx context.Context, id ulid.ULID, name string) error {
	return c.post(ctx, "/session/join", JoinRequest{Identity: id.String(), Name: name}, &struct{}{})
}

// SessionLeave reports a participant disconnecting.
func (c *Client) SessionLeave(ctx context.Context, id ulid.ULID) error {
	return c.post(ctx, "/session/leave", LeaveRequest{Identity: id.String()}, &struct{}{})
}

// SessionAction submits an intercepted action and returns the verdict label.
func (c *Client) SessionAction(ctx context.Context, id ulid.ULID, name, category string, synthetic bool) (string, error) {
	var resp ActionResponse
	err := c.post(ctx, "/session/action", ActionRequest{
		Identity:  id.String(),
		Name:      name,
		Category:  category,
		Synthetic: synthetic,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Decision, nil
}

// SessionLogin submits a credential attempt for a participant.
func (c *Client) SessionLogin(ctx context.Context, id ulid.ULID, name, code string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, "/session/login", LoginRequest{
		Identity: id.String(),
		Name:     name,
		Code:     code,
	}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

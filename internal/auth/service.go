// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package auth provides the per-participant authentication state machine.
//
// A participant moves Unauthenticated → Authenticated exactly once per
// session; the only way back is a disconnect, which the host reports to the
// gate and which clears the registry entry.
package auth

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Outcome classifies the result of a login attempt.
type Outcome int

// Login outcomes.
const (
	OutcomeSuccess Outcome = iota
	OutcomeAlreadyLoggedIn
	OutcomeWrongCredential
	OutcomeUnknownName
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAlreadyLoggedIn:
		return "already_logged_in"
	case OutcomeWrongCredential:
		return "wrong_credential"
	case OutcomeUnknownName:
		return "unknown_name"
	default:
		return "unknown"
	}
}

// Result is the outcome of a login attempt together with the credential name
// the participant supplied, so callers can render consistent feedback.
type Result struct {
	Outcome Outcome
	Name    string
}

// CredentialStore defines the credential operations the service needs.
type CredentialStore interface {
	// Has reports whether a credential exists for name.
	Has(name string) bool

	// Verify reports whether the presented code matches the credential.
	Verify(name, code string) bool

	// Add inserts a new credential and persists it.
	Add(name, secret string) error
}

// SessionRegistry defines the session operations the service needs.
type SessionRegistry interface {
	// MarkAuthenticated records a participant as authenticated.
	MarkAuthenticated(id ulid.ULID)

	// IsAuthenticated reports whether a participant has authenticated.
	IsAuthenticated(id ulid.ULID) bool
}

// Service orchestrates the credential store and session registry to answer
// login and credential-registration requests.
type Service struct {
	credentials CredentialStore
	sessions    SessionRegistry
}

// NewService creates a Service. Returns an error if a dependency is nil.
func NewService(credentials CredentialStore, sessions SessionRegistry) (*Service, error) {
	if credentials == nil {
		return nil, oops.Errorf("credential store is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session registry is required")
	}
	return &Service{
		credentials: credentials,
		sessions:    sessions,
	}, nil
}

// AttemptLogin runs one login attempt for the participant identified by id.
// Outcomes are values, never errors: the caller branches on Result.Outcome.
// Only OutcomeSuccess mutates the session registry.
func (s *Service) AttemptLogin(_ context.Context, id ulid.ULID, name, code string) Result {
	result := Result{Name: name}

	switch {
	case s.sessions.IsAuthenticated(id):
		result.Outcome = OutcomeAlreadyLoggedIn
	case !s.credentials.Has(name):
		result.Outcome = OutcomeUnknownName
		slog.Warn("login attempt with unknown credential name",
			"identity", id.String(),
			"name", name,
		)
	case !s.credentials.Verify(name, code):
		result.Outcome = OutcomeWrongCredential
		slog.Warn("failed login attempt",
			"identity", id.String(),
			"name", name,
		)
	default:
		s.sessions.MarkAuthenticated(id)
		result.Outcome = OutcomeSuccess
		slog.Info("participant logged in",
			"identity", id.String(),
			"name", name,
		)
	}

	RecordLoginAttempt(result.Outcome)
	return result
}

// RegisterCredential creates a new credential at runtime. This is the only
// path that does so, and it is privileged: the caller must enforce
// authorization before invoking it.
func (s *Service) RegisterCredential(_ context.Context, name, secret string) error {
	if err := s.credentials.Add(name, secret); err != nil {
		//nolint:wrapcheck // store errors already carry code and context
		return err
	}
	return nil
}

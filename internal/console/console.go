// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package console exposes the gateway's operations to a command front-end.
//
// Every operation returns a result or outcome code plus, for failures, an
// error whose Reason string the front-end renders. Privileged operations
// require the acting entity to be an administrator by name, or to carry a
// host-level elevated capability (e.g. the server console).
package console

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// Actor is the entity invoking a front-end operation, as resolved by the host.
type Actor struct {
	Identity ulid.ULID
	Name     string

	// Elevated marks host-level administrator privilege (server console or
	// equivalent), which authorizes privileged operations regardless of
	// admin-list membership.
	Elevated bool
}

// AuthService defines the authentication operations the console needs.
type AuthService interface {
	AttemptLogin(ctx context.Context, id ulid.ULID, name, code string) auth.Result
	RegisterCredential(ctx context.Context, name, secret string) error
}

// AuthorizationStore defines the allow-list operations the console needs.
type AuthorizationStore interface {
	IsAdmin(name string) bool
	AddBypass(name string) (bool, error)
	RemoveBypass(name string) (bool, error)
	BypassNames() []string
	AddAdmin(name string) (bool, error)
	RemoveAdmin(name string) (bool, error)
	AdminNames() []string
	Reload()
}

// CredentialStore defines the credential-store maintenance operations the
// console needs.
type CredentialStore interface {
	Reload()
	Count() int
}

// Console wires front-end operations to the underlying services.
type Console struct {
	auth        AuthService
	authz       AuthorizationStore
	credentials CredentialStore
}

// New creates a Console. Returns an error if any dependency is nil.
func New(authService AuthService, authzStore AuthorizationStore, credentials CredentialStore) (*Console, error) {
	if authService == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if authzStore == nil {
		return nil, oops.Errorf("authorization store is required")
	}
	if credentials == nil {
		return nil, oops.Errorf("credential store is required")
	}
	return &Console{
		auth:        authService,
		authz:       authzStore,
		credentials: credentials,
	}, nil
}

// requireAdmin authorizes a privileged operation.
func (c *Console) requireAdmin(actor Actor, operation string) error {
	if actor.Elevated || c.authz.IsAdmin(actor.Name) {
		return nil
	}
	slog.Warn("unauthorized front-end operation",
		"operation", operation,
		"actor", actor.Name,
	)
	return ErrUnauthorized(operation)
}

// LoginMessage renders the front-end feedback line for a login result.
func LoginMessage(result auth.Result) string {
	switch result.Outcome {
	case auth.OutcomeSuccess:
		return "Login successful. Welcome back, " + result.Name + "!"
	case auth.OutcomeAlreadyLoggedIn:
		return "You are already logged in."
	case auth.OutcomeWrongCredential:
		return "Wrong code. Please try again."
	case auth.OutcomeUnknownName:
		return "Unknown name. Please check your name."
	default:
		return "Something went wrong. Try again."
	}
}

// Login attempts to authenticate the actor with the given credential.
// Not privileged: any participant may attempt to log in.
func (c *Console) Login(ctx context.Context, actor Actor, name, code string) auth.Result {
	return c.auth.AttemptLogin(ctx, actor.Identity, name, code)
}

// AddCredential registers a new credential. Privileged.
func (c *Console) AddCredential(ctx context.Context, actor Actor, name, secret string) error {
	if err := c.requireAdmin(actor, "add_credential"); err != nil {
		return err
	}
	if err := c.auth.RegisterCredential(ctx, name, secret); err != nil {
		//nolint:wrapcheck // service errors already carry code and context
		return err
	}
	slog.Info("credential registered via front-end",
		"name", name,
		"actor", actor.Name,
	)
	return nil
}

// ReloadCredentials re-reads the credential table from durable storage.
// Privileged.
func (c *Console) ReloadCredentials(_ context.Context, actor Actor) (int, error) {
	if err := c.requireAdmin(actor, "reload_credentials"); err != nil {
		return 0, err
	}
	c.credentials.Reload()
	return c.credentials.Count(), nil
}

// WhitelistAdd adds a name to the bypass list. Privileged.
func (c *Console) WhitelistAdd(_ context.Context, actor Actor, name string) error {
	if err := c.requireAdmin(actor, "whitelist_add"); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName()
	}
	changed, err := c.authz.AddBypass(name)
	if err != nil {
		//nolint:wrapcheck // store errors already carry code and context
		return err
	}
	if !changed {
		return ErrAlreadyPresent("bypass", name)
	}
	return nil
}

// WhitelistRemove removes a name from the bypass list. Privileged.
// Removal does not revoke sessions already authenticated.
func (c *Console) WhitelistRemove(_ context.Context, actor Actor, name string) error {
	if err := c.requireAdmin(actor, "whitelist_remove"); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName()
	}
	changed, err := c.authz.RemoveBypass(name)
	if err != nil {
		//nolint:wrapcheck // store errors already carry code and context
		return err
	}
	if !changed {
		return ErrNotPresent("bypass", name)
	}
	return nil
}

// WhitelistList returns the bypass list in stored order. Privileged.
func (c *Console) WhitelistList(_ context.Context, actor Actor) ([]string, error) {
	if err := c.requireAdmin(actor, "whitelist_list"); err != nil {
		return nil, err
	}
	return c.authz.BypassNames(), nil
}

// WhitelistReload re-reads the allow-lists from durable storage. Privileged.
func (c *Console) WhitelistReload(_ context.Context, actor Actor) error {
	if err := c.requireAdmin(actor, "whitelist_reload"); err != nil {
		return err
	}
	c.authz.Reload()
	return nil
}

// AdminAdd adds a name to the administrator list. Privileged.
func (c *Console) AdminAdd(_ context.Context, actor Actor, name string) error {
	if err := c.requireAdmin(actor, "admin_add"); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName()
	}
	changed, err := c.authz.AddAdmin(name)
	if err != nil {
		//nolint:wrapcheck // store errors already carry code and context
		return err
	}
	if !changed {
		return ErrAlreadyPresent("admin", name)
	}
	return nil
}

// AdminRemove removes a name from the administrator list. Privileged.
func (c *Console) AdminRemove(_ context.Context, actor Actor, name string) error {
	if err := c.requireAdmin(actor, "admin_remove"); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName()
	}
	changed, err := c.authz.RemoveAdmin(name)
	if err != nil {
		//nolint:wrapcheck // store errors already carry code and context
		return err
	}
	if !changed {
		return ErrNotPresent("admin", name)
	}
	return nil
}

// AdminList returns the administrator list in stored order. Privileged.
func (c *Console) AdminList(_ context.Context, actor Actor) ([]string, error) {
	if err := c.requireAdmin(actor, "admin_list"); err != nil {
		return nil, err
	}
	return c.authz.AdminNames(), nil
}

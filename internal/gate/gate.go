// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package gate decides, per intercepted host action, whether an untrusted
// participant's action proceeds.
//
// Decisions are fail closed: anything the gate cannot positively classify is
// denied. The gate never fails hard; every path resolves to an allow or deny
// plus an optional notification signal for the host to render.
package gate

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Category is the closed set of intercepted action classes. The zero value is
// CategoryUnknown, which is always denied.
type Category int

// Action categories delivered by the host.
const (
	CategoryUnknown Category = iota
	CategoryMove
	CategoryBlockBreak
	CategoryBlockPlace
	CategoryInteract
	CategoryItemUse
)

// String returns the category label used in logs and metrics.
func (c Category) String() string {
	switch c {
	case CategoryMove:
		return "move"
	case CategoryBlockBreak:
		return "block_break"
	case CategoryBlockPlace:
		return "block_place"
	case CategoryInteract:
		return "interact"
	case CategoryItemUse:
		return "item_use"
	default:
		return "unknown"
	}
}

// ParseCategory maps a wire label to a Category. Unrecognized labels map to
// CategoryUnknown, which the gate always denies.
func ParseCategory(s string) Category {
	switch s {
	case "move":
		return CategoryMove
	case "block_break":
		return CategoryBlockBreak
	case "block_place":
		return CategoryBlockPlace
	case "interact":
		return CategoryInteract
	case "item_use":
		return CategoryItemUse
	default:
		return CategoryUnknown
	}
}

// known reports whether the category is a member of the closed set.
func (c Category) known() bool {
	switch c {
	case CategoryMove, CategoryBlockBreak, CategoryBlockPlace, CategoryInteract, CategoryItemUse:
		return true
	default:
		return false
	}
}

// Decision is the gate's verdict for one action. The zero value is deny.
type Decision int

// Verdicts. The host must veto the action's effect on DecisionDeny.
const (
	DecisionDeny Decision = iota
	DecisionAllow
)

// String returns the decision label used in logs and metrics.
func (d Decision) String() string {
	if d == DecisionAllow {
		return "allow"
	}
	return "deny"
}

// ActionEvent is one intercepted action.
type ActionEvent struct {
	Identity ulid.ULID
	Name     string
	Category Category

	// Synthetic marks automation stand-ins the host fabricates (they have no
	// human at the keyboard). They are always allowed and never enter the
	// session registry.
	Synthetic bool
}

// JoinEvent is delivered once when a participant connects.
type JoinEvent struct {
	Identity ulid.ULID
	Name     string
}

// SessionRegistry defines the registry operations the gate needs.
type SessionRegistry interface {
	MarkAuthenticated(id ulid.ULID)
	IsAuthenticated(id ulid.ULID) bool
	Clear(id ulid.ULID)
}

// AuthorizationStore answers bypass-list membership queries.
type AuthorizationStore interface {
	IsBypassed(name string) bool
}

// DefaultMovementNotifyInterval throttles movement-denial notifications so a
// frozen participant is reminded to log in without being flooded every tick.
const DefaultMovementNotifyInterval = 5 * time.Second

// Config configures a Gate.
type Config struct {
	// MovementNotifyInterval is the minimum spacing between movement-denial
	// notifications per identity. Defaults to DefaultMovementNotifyInterval
	// if zero or negative.
	MovementNotifyInterval time.Duration
}

// Gate consults the session registry and authorization store to gate actions.
type Gate struct {
	sessions SessionRegistry
	authz    AuthorizationStore
	notifier Notifier
	throttle *notifyThrottle
}

// NewGate creates a Gate. If notifier is nil, NopNotifier is used.
// Returns an error if sessions or authz is nil.
func NewGate(sessions SessionRegistry, authz AuthorizationStore, notifier Notifier, cfg Config) (*Gate, error) {
	if sessions == nil {
		return nil, oops.Errorf("session registry is required")
	}
	if authz == nil {
		return nil, oops.Errorf("authorization store is required")
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	interval := cfg.MovementNotifyInterval
	if interval <= 0 {
		interval = DefaultMovementNotifyInterval
	}

	return &Gate{
		sessions: sessions,
		authz:    authz,
		notifier: notifier,
		throttle: newNotifyThrottle(interval),
	}, nil
}

// OnAction decides one intercepted action. It is the gate's only entry point
// from live traffic and never fails: unknown categories and unauthenticated
// participants resolve to DecisionDeny.
func (g *Gate) OnAction(ctx context.Context, ev ActionEvent) Decision {
	if ev.Synthetic {
		return DecisionAllow
	}

	if !ev.Category.known() {
		slog.Warn("denying action with unmapped category",
			"identity", ev.Identity.String(),
			"category", int(ev.Category),
		)
		RecordDecision(ev.Category, DecisionDeny)
		return DecisionDeny
	}

	if g.sessions.IsAuthenticated(ev.Identity) {
		RecordDecision(ev.Category, DecisionAllow)
		return DecisionAllow
	}

	if g.authz.IsBypassed(ev.Name) {
		g.autoAuthenticate(ctx, ev.Identity, ev.Name, SignalAutoLogin)
		RecordDecision(ev.Category, DecisionAllow)
		return DecisionAllow
	}

	g.notifyDenied(ctx, ev)
	RecordDecision(ev.Category, DecisionDeny)
	return DecisionDeny
}

// notifyDenied emits the must-authenticate signal. Movement denials happen
// every tick, so they are throttled per identity; mutation and interaction
// denials notify on every attempt.
func (g *Gate) notifyDenied(ctx context.Context, ev ActionEvent) {
	if ev.Category == CategoryMove && !g.throttle.allow(ev.Identity) {
		return
	}
	g.notifier.Notify(ctx, ev.Identity, SignalAuthRequired)
}

// autoAuthenticate marks an allow-listed participant authenticated without
// credential verification.
func (g *Gate) autoAuthenticate(ctx context.Context, id ulid.ULID, name string, kind SignalKind) {
	g.sessions.MarkAuthenticated(id)
	g.notifier.Notify(ctx, id, kind)
	RecordAutoLogin()
	slog.Info("participant auto-authenticated from bypass list",
		"identity", id.String(),
		"name", name,
	)
}

// OnJoin handles a participant connecting. Allow-listed names are
// authenticated immediately and welcomed; everyone else is told how to log in.
func (g *Gate) OnJoin(ctx context.Context, ev JoinEvent) {
	if g.authz.IsBypassed(ev.Name) {
		g.autoAuthenticate(ctx, ev.Identity, ev.Name, SignalWelcomeAutoLogin)
		return
	}
	g.notifier.Notify(ctx, ev.Identity, SignalLoginInstructions)
	slog.Info("participant joined unauthenticated",
		"identity", ev.Identity.String(),
		"name", ev.Name,
	)
}

// OnLeave handles a participant disconnecting. The registry entry is cleared
// unconditionally, whether or not the participant ever authenticated.
func (g *Gate) OnLeave(_ context.Context, id ulid.ULID) {
	g.sessions.Clear(id)
	g.throttle.forget(id)
	slog.Info("participant session cleared", "identity", id.String())
}

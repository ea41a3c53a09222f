// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package gate

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
)

// SignalKind classifies the notification signals the gate emits. The host
// owns rendering and delivery; the gate only says what happened.
type SignalKind int

// Signals.
const (
	// SignalAuthRequired tells an unauthenticated participant their action
	// was blocked and they must log in.
	SignalAuthRequired SignalKind = iota

	// SignalAutoLogin informs a participant they were authenticated from the
	// bypass list mid-session.
	SignalAutoLogin

	// SignalWelcomeAutoLogin welcomes a bypass-listed participant on join.
	SignalWelcomeAutoLogin

	// SignalLoginInstructions tells a joining participant how to authenticate.
	SignalLoginInstructions
)

// String returns the signal label used in logs.
func (k SignalKind) String() string {
	switch k {
	case SignalAuthRequired:
		return "auth_required"
	case SignalAutoLogin:
		return "auto_login"
	case SignalWelcomeAutoLogin:
		return "welcome_auto_login"
	case SignalLoginInstructions:
		return "login_instructions"
	default:
		return "unknown"
	}
}

// Notifier receives the gate's notification signals for delivery to
// participants. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, identity ulid.ULID, kind SignalKind)
}

// NopNotifier discards all signals.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, ulid.ULID, SignalKind) {}

// SlogNotifier logs signals instead of delivering them. Used when the gateway
// runs without an attached host front-end.
type SlogNotifier struct{}

// Notify implements Notifier.
func (SlogNotifier) Notify(_ context.Context, identity ulid.ULID, kind SignalKind) {
	slog.Info("gate signal",
		"identity", identity.String(),
		"signal", kind.String(),
	)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package console_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/authz"
	"github.com/gatewarden/gatewarden/internal/console"
	"github.com/gatewarden/gatewarden/internal/credential"
	"github.com/gatewarden/gatewarden/internal/session"
	"github.com/gatewarden/gatewarden/pkg/errutil"
)

type fixture struct {
	console  *console.Console
	authz    *authz.Store
	registry *session.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	credPath := filepath.Join(dir, "userdata.csv")
	require.NoError(t, os.WriteFile(credPath, []byte("username,password\nalice,X123456789\n"), 0o600))
	creds := credential.NewStore(credPath)
	creds.Load()

	lists := authz.NewStore(filepath.Join(dir, "authorization.json"))
	lists.Load()

	registry := session.NewRegistry()
	svc, err := auth.NewService(creds, registry)
	require.NoError(t, err)

	c, err := console.New(svc, lists, creds)
	require.NoError(t, err)

	return &fixture{console: c, authz: lists, registry: registry}
}

var (
	elevated = console.Actor{Identity: ulid.Make(), Name: "server", Elevated: true}
	player   = console.Actor{Identity: ulid.Make(), Name: "randomplayer"}
)

func TestNew(t *testing.T) {
	t.Run("rejects nil dependencies", func(t *testing.T) {
		f := newFixture(t)
		svc, err := auth.NewService(credential.NewStore("unused"), session.NewRegistry())
		require.NoError(t, err)

		_, err = console.New(nil, f.authz, credential.NewStore("unused"))
		assert.Error(t, err)
		_, err = console.New(svc, nil, credential.NewStore("unused"))
		assert.Error(t, err)
		_, err = console.New(svc, f.authz, nil)
		assert.Error(t, err)
	})
}

func TestConsole_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("anyone may attempt login", func(t *testing.T) {
		f := newFixture(t)
		actor := console.Actor{Identity: ulid.Make(), Name: "alice"}

		result := f.console.Login(ctx, actor, "alice", "456789")
		assert.Equal(t, auth.OutcomeSuccess, result.Outcome)
		assert.True(t, f.registry.IsAuthenticated(actor.Identity))
	})

	t.Run("each outcome has a distinct message", func(t *testing.T) {
		f := newFixture(t)
		actor := console.Actor{Identity: ulid.Make(), Name: "alice"}

		messages := map[string]bool{}
		for _, attempt := range []struct{ name, code string }{
			{"ghost", "456789"},   // unknown name
			{"alice", "nope"},     // wrong credential
			{"alice", "456789"},   // success
			{"alice", "whatever"}, // already logged in
		} {
			result := f.console.Login(ctx, actor, attempt.name, attempt.code)
			msg := console.LoginMessage(result)
			assert.NotEmpty(t, msg)
			messages[msg] = true
		}
		assert.Len(t, messages, 4, "outcomes must be distinguishable")
	})
}

func TestConsole_Privilege(t *testing.T) {
	ctx := context.Background()

	t.Run("plain participant is refused", func(t *testing.T) {
		f := newFixture(t)

		err := f.console.WhitelistAdd(ctx, player, "bob")
		errutil.AssertErrorCode(t, err, console.CodeUnauthorized)

		_, err = f.console.WhitelistList(ctx, player)
		errutil.AssertErrorCode(t, err, console.CodeUnauthorized)

		err = f.console.AddCredential(ctx, player, "p1", "secretX")
		errutil.AssertErrorCode(t, err, console.CodeUnauthorized)

		_, err = f.console.ReloadCredentials(ctx, player)
		errutil.AssertErrorCode(t, err, console.CodeUnauthorized)
	})

	t.Run("admin-list member by name is authorized", func(t *testing.T) {
		f := newFixture(t)
		// The default admin list contains "admin".
		admin := console.Actor{Identity: ulid.Make(), Name: "admin"}

		require.NoError(t, f.console.WhitelistAdd(ctx, admin, "bob"))
		assert.True(t, f.authz.IsBypassed("bob"))
	})

	t.Run("elevated capability is a fallback authorization", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.console.WhitelistAdd(ctx, elevated, "bob"))
	})
}

func TestConsole_Whitelist(t *testing.T) {
	ctx := context.Background()

	t.Run("add remove list round trip", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.console.WhitelistAdd(ctx, elevated, "bob"))
		names, err := f.console.WhitelistList(ctx, elevated)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, names)

		require.NoError(t, f.console.WhitelistRemove(ctx, elevated, "bob"))
		names, err = f.console.WhitelistList(ctx, elevated)
		require.NoError(t, err)
		assert.Empty(t, names)

		// Re-adding after removal is not blocked by history.
		require.NoError(t, f.console.WhitelistAdd(ctx, elevated, "bob"))
	})

	t.Run("duplicate add reports already present", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.console.WhitelistAdd(ctx, elevated, "bob"))

		err := f.console.WhitelistAdd(ctx, elevated, "bob")
		errutil.AssertErrorCode(t, err, console.CodeAlreadyExists)
		assert.Contains(t, console.Reason(err), "bob")
	})

	t.Run("absent remove reports not present", func(t *testing.T) {
		f := newFixture(t)

		err := f.console.WhitelistRemove(ctx, elevated, "ghost")
		errutil.AssertErrorCode(t, err, console.CodeNotFound)
	})

	t.Run("empty name is invalid input", func(t *testing.T) {
		f := newFixture(t)

		errutil.AssertErrorCode(t, f.console.WhitelistAdd(ctx, elevated, ""), console.CodeInvalidInput)
		errutil.AssertErrorCode(t, f.console.WhitelistRemove(ctx, elevated, ""), console.CodeInvalidInput)
	})

	t.Run("reload discards nothing persisted", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.console.WhitelistAdd(ctx, elevated, "bob"))

		require.NoError(t, f.console.WhitelistReload(ctx, elevated))
		assert.True(t, f.authz.IsBypassed("bob"), "mutations persist before returning, so reload keeps them")
	})
}

func TestConsole_AdminList(t *testing.T) {
	ctx := context.Background()

	t.Run("admin list management mirrors whitelist", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.console.AdminAdd(ctx, elevated, "carol"))
		names, err := f.console.AdminList(ctx, elevated)
		require.NoError(t, err)
		assert.Equal(t, []string{"admin", "carol"}, names)

		// carol is now authorized by name.
		carol := console.Actor{Identity: ulid.Make(), Name: "carol"}
		require.NoError(t, f.console.WhitelistAdd(ctx, carol, "dave"))

		require.NoError(t, f.console.AdminRemove(ctx, elevated, "carol"))
		err = f.console.WhitelistAdd(ctx, carol, "erin")
		errutil.AssertErrorCode(t, err, console.CodeUnauthorized)
	})

	t.Run("duplicate and absent mutations are reported", func(t *testing.T) {
		f := newFixture(t)

		err := f.console.AdminAdd(ctx, elevated, "admin")
		errutil.AssertErrorCode(t, err, console.CodeAlreadyExists)

		err = f.console.AdminRemove(ctx, elevated, "ghost")
		errutil.AssertErrorCode(t, err, console.CodeNotFound)
	})
}

func TestConsole_Credentials(t *testing.T) {
	ctx := context.Background()

	t.Run("add credential then login with it", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.console.AddCredential(ctx, elevated, "p1", "secretX"))
		result := f.console.Login(ctx, console.Actor{Identity: ulid.Make(), Name: "p1"}, "p1", "ecretX")
		assert.Equal(t, auth.OutcomeSuccess, result.Outcome)
	})

	t.Run("reload reports the loaded count", func(t *testing.T) {
		f := newFixture(t)

		count, err := f.console.ReloadCredentials(ctx, elevated)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestReason(t *testing.T) {
	t.Run("nil error has no reason", func(t *testing.T) {
		assert.Empty(t, console.Reason(nil))
	})

	t.Run("plain errors get the generic reason", func(t *testing.T) {
		assert.Equal(t, "Something went wrong. Try again.", console.Reason(assert.AnError))
	})

	t.Run("coded errors get specific reasons", func(t *testing.T) {
		reasons := map[string]bool{}
		for _, err := range []error{
			console.ErrUnauthorized("whitelist_add"),
			console.ErrEmptyName(),
			console.ErrAlreadyPresent("bypass", "bob"),
			console.ErrNotPresent("bypass", "bob"),
		} {
			r := console.Reason(err)
			assert.NotEqual(t, "Something went wrong. Try again.", r)
			reasons[r] = true
		}
		assert.Len(t, reasons, 4, "every failure yields a distinguishable reason")
	})
}

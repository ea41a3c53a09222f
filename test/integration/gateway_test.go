// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/oklog/ulid/v2"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/authz"
	"github.com/gatewarden/gatewarden/internal/console"
	"github.com/gatewarden/gatewarden/internal/control"
	"github.com/gatewarden/gatewarden/internal/credential"
	"github.com/gatewarden/gatewarden/internal/gate"
	"github.com/gatewarden/gatewarden/internal/session"
)

// testEnv holds everything a running gateway needs.
type testEnv struct {
	dataDir       string
	credentials   *credential.Store
	authorization *authz.Store
	registry      *session.Registry
	controlServer *control.Server
	client        *control.Client
}

// setupTestEnv wires a complete gateway against stores in a temp directory
// and starts its control socket server.
func setupTestEnv() (*testEnv, error) {
	tmpDir, err := os.MkdirTemp("", "gatewarden-test-*")
	if err != nil {
		return nil, err
	}

	// Control socket lands under XDG_RUNTIME_DIR
	os.Setenv("XDG_RUNTIME_DIR", tmpDir)

	env := &testEnv{dataDir: filepath.Join(tmpDir, "data")}
	if err := os.MkdirAll(env.dataDir, 0o700); err != nil {
		return nil, err
	}

	env.credentials = credential.NewStore(filepath.Join(env.dataDir, "userdata.csv"))
	env.credentials.Load()

	env.authorization = authz.NewStore(filepath.Join(env.dataDir, "authorization.json"))
	env.authorization.Load()

	env.registry = session.NewRegistry()

	authService, err := auth.NewService(env.credentials, env.registry)
	if err != nil {
		return nil, err
	}

	g, err := gate.NewGate(env.registry, env.authorization, nil, gate.Config{
		MovementNotifyInterval: 50 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}

	front, err := console.New(authService, env.authorization, env.credentials)
	if err != nil {
		return nil, err
	}

	env.controlServer, err = control.NewServer(front, g, front, env.registry, nil)
	if err != nil {
		return nil, err
	}
	if err := env.controlServer.Start(); err != nil {
		return nil, err
	}

	env.client = control.NewClient()
	return env, nil
}

func (env *testEnv) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = env.controlServer.Stop(ctx)
}

var _ = Describe("Gateway", func() {
	var (
		env *testEnv
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		Expect(env.client.WaitReady(ctx)).To(Succeed())
	})

	AfterEach(func() {
		env.teardown()
	})

	Describe("an unauthenticated participant", func() {
		var id ulid.ULID

		BeforeEach(func() {
			id = ulid.Make()
			Expect(env.client.SessionJoin(ctx, id, "newcomer")).To(Succeed())
		})

		It("is denied every restricted action category", func() {
			for _, category := range []string{"move", "block_break", "block_place", "interact", "item_use"} {
				decision, err := env.client.SessionAction(ctx, id, "newcomer", category, false)
				Expect(err).NotTo(HaveOccurred())
				Expect(decision).To(Equal("deny"), "category %s must be denied", category)
			}
		})

		It("is denied actions with categories it cannot classify", func() {
			decision, err := env.client.SessionAction(ctx, id, "newcomer", "teleport", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(decision).To(Equal("deny"))
		})

		It("is allowed after logging in with a default credential", func() {
			// Stores fall back to seeded defaults when no file exists;
			// verification is the last six characters of the secret.
			login, err := env.client.SessionLogin(ctx, id, "player1", "sword1")
			Expect(err).NotTo(HaveOccurred())
			Expect(login.Outcome).To(Equal("success"))

			decision, err := env.client.SessionAction(ctx, id, "player1", "move", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(decision).To(Equal("allow"))
		})

		It("stays denied after a failed login", func() {
			login, err := env.client.SessionLogin(ctx, id, "player1", "wrong!")
			Expect(err).NotTo(HaveOccurred())
			Expect(login.Outcome).To(Equal("wrong_credential"))

			decision, err := env.client.SessionAction(ctx, id, "player1", "move", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(decision).To(Equal("deny"))
		})

		It("cannot log in with an unregistered name", func() {
			login, err := env.client.SessionLogin(ctx, id, "stranger", "123456")
			Expect(err).NotTo(HaveOccurred())
			Expect(login.Outcome).To(Equal("unknown_name"))
		})
	})

	Describe("session lifecycle", func() {
		It("requires a fresh login after reconnecting", func() {
			id := ulid.Make()
			Expect(env.client.SessionJoin(ctx, id, "player2")).To(Succeed())

			login, err := env.client.SessionLogin(ctx, id, "player2", "sword2")
			Expect(err).NotTo(HaveOccurred())
			Expect(login.Outcome).To(Equal("success"))

			Expect(env.client.SessionLeave(ctx, id)).To(Succeed())

			Expect(env.client.SessionJoin(ctx, id, "player2")).To(Succeed())
			decision, err := env.client.SessionAction(ctx, id, "player2", "move", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(decision).To(Equal("deny"))
		})

		It("rejects a second login for an authenticated session", func() {
			id := ulid.Make()
			Expect(env.client.SessionJoin(ctx, id, "player1")).To(Succeed())

			login, err := env.client.SessionLogin(ctx, id, "player1", "sword1")
			Expect(err).NotTo(HaveOccurred())
			Expect(login.Outcome).To(Equal("success"))

			login, err = env.client.SessionLogin(ctx, id, "player1", "sword1")
			Expect(err).NotTo(HaveOccurred())
			Expect(login.Outcome).To(Equal("already_logged_in"))
		})

		It("reflects authenticated sessions in the status report", func() {
			id := ulid.Make()
			Expect(env.client.SessionJoin(ctx, id, "player1")).To(Succeed())
			_, err := env.client.SessionLogin(ctx, id, "player1", "sword1")
			Expect(err).NotTo(HaveOccurred())

			status, err := env.client.Status(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Sessions).To(Equal(1))

			Expect(env.client.SessionLeave(ctx, id)).To(Succeed())
			status, err = env.client.Status(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Sessions).To(BeZero())
		})
	})

	Describe("allow-listed participants", func() {
		It("authenticates them on join without credentials", func() {
			Expect(env.client.WhitelistAdd(ctx, "vip")).To(Succeed())

			id := ulid.Make()
			Expect(env.client.SessionJoin(ctx, id, "vip")).To(Succeed())

			decision, err := env.client.SessionAction(ctx, id, "vip", "block_place", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(decision).To(Equal("allow"))
		})

		It("authenticates them on first action when the join was missed", func() {
			Expect(env.client.WhitelistAdd(ctx, "vip")).To(Succeed())

			id := ulid.Make()
			decision, err := env.client.SessionAction(ctx, id, "vip", "interact", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(decision).To(Equal("allow"))
		})

		It("survives a whitelist reload from disk", func() {
			Expect(env.client.WhitelistAdd(ctx, "vip")).To(Succeed())
			Expect(env.client.WhitelistReload(ctx)).To(Succeed())

			names, err := env.client.WhitelistList(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(ContainElement("vip"))
		})
	})

	Describe("synthetic stand-ins", func() {
		It("are always allowed and never tracked", func() {
			id := ulid.Make()
			decision, err := env.client.SessionAction(ctx, id, "harvester", "block_break", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(decision).To(Equal("allow"))

			status, err := env.client.Status(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Sessions).To(BeZero())
		})
	})

	Describe("credential management", func() {
		It("registers a credential usable without a reload", func() {
			Expect(env.client.CredentialAdd(ctx, "newbie", "supersecret")).To(Succeed())

			id := ulid.Make()
			login, err := env.client.SessionLogin(ctx, id, "newbie", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(login.Outcome).To(Equal("success"))
		})

		It("persists registered credentials across a reload", func() {
			Expect(env.client.CredentialAdd(ctx, "newbie", "supersecret")).To(Succeed())

			count, err := env.client.CredentialReload(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))

			id := ulid.Make()
			login, err := env.client.SessionLogin(ctx, id, "newbie", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(login.Outcome).To(Equal("success"))
		})

		It("falls back to seeded defaults when the table goes missing", func() {
			path := filepath.Join(env.dataDir, "userdata.csv")
			Expect(os.RemoveAll(path)).To(Succeed())

			count, err := env.client.CredentialReload(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(3))

			id := ulid.Make()
			login, err := env.client.SessionLogin(ctx, id, "admin", "min123")
			Expect(err).NotTo(HaveOccurred())
			Expect(login.Outcome).To(Equal("success"))
		})
	})
})

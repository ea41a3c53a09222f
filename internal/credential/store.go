// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package credential provides the identity/secret store backing login.
//
// Credentials live in a comma-separated table on disk: the first row is a
// header and is skipped, every following row is "name,secret". The format has
// no quoting or escaping, so a literal comma in either field is rejected at
// Add time. This matches the on-disk format existing deployments already have.
package credential

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/samber/oops"
)

// Error codes returned by Add.
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeAlreadyExists     = "ALREADY_EXISTS"
	CodePersistenceFailed = "PERSISTENCE_FAILED"
)

// fileHeader is the header row written when the table file is created.
const fileHeader = "username,password"

// codeLength is how many trailing characters of the stored secret a
// participant must present. Secrets shorter than this are compared whole.
// This truncated comparison is the fixed verification policy, not a
// placeholder for real hashing.
const codeLength = 6

// defaultCredentials is the built-in demonstration set used when the table
// file is missing or unreadable. Loading never fails hard: the gateway must
// still boot and gate correctly on these.
func defaultCredentials() map[string]string {
	return map[string]string{
		"admin":   "admin123",
		"player1": "password1",
		"player2": "password2",
	}
}

// Store holds the name → secret mapping and answers verification queries.
// It is safe for concurrent use: readers never observe a partially loaded
// table, and Add is atomic with its durable append.
type Store struct {
	path string

	mu      sync.RWMutex
	secrets map[string]string
}

// NewStore creates a store backed by the table file at path.
// No I/O happens until Load is called.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		secrets: make(map[string]string),
	}
}

// Load reads the table file into memory. A missing file or read failure is a
// recoverable condition: the store falls back to the built-in demonstration
// credentials and logs the degradation.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
}

// Reload clears the in-memory table and re-reads the file. Concurrent Verify
// calls observe either the old or the new fully loaded table, never a partial
// one.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
}

func (s *Store) loadLocked() {
	f, err := os.Open(s.path)
	if err != nil {
		slog.Warn("credential table unavailable, falling back to built-in demonstration credentials",
			"path", s.path,
			"error", err,
		)
		s.secrets = defaultCredentials()
		return
	}
	defer f.Close() //nolint:errcheck // read-only file

	loaded := make(map[string]string)
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		if first {
			// Header row.
			first = false
			continue
		}
		// Rows with more than two fields keep only the second; pre-existing
		// tables written by other tools may carry trailing junk fields.
		parts := strings.Split(scanner.Text(), ",")
		if len(parts) < 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		secret := strings.TrimSpace(parts[1])
		if name == "" || secret == "" {
			continue
		}
		// Last write wins on duplicate names.
		loaded[name] = secret
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("credential table read failed, falling back to built-in demonstration credentials",
			"path", s.path,
			"error", err,
		)
		s.secrets = defaultCredentials()
		return
	}

	s.secrets = loaded
	slog.Info("credential table loaded",
		"path", s.path,
		"count", len(loaded),
	)
}

// Has reports whether a credential exists for name.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.secrets[name]
	return ok
}

// Verify reports whether the presented code matches the credential for name.
// The match succeeds iff code equals the last 6 characters of the stored
// secret (the whole secret when shorter than 6), compared exactly.
func (s *Store) Verify(name, code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secret, ok := s.secrets[name]
	if !ok {
		return false
	}
	return verificationCode(secret) == code
}

// verificationCode returns the portion of a secret a participant must present.
func verificationCode(secret string) string {
	if len(secret) <= codeLength {
		return secret
	}
	return secret[len(secret)-codeLength:]
}

// Add inserts a new credential and appends it to the table file. The insert
// and the append are atomic: when the append fails the in-memory insert is
// rolled back so memory and disk never diverge.
func (s *Store) Add(name, secret string) error {
	if name == "" || secret == "" {
		return oops.Code(CodeInvalidInput).
			Errorf("name and secret must not be empty")
	}
	if strings.Contains(name, ",") || strings.Contains(secret, ",") {
		return oops.Code(CodeInvalidInput).
			Errorf("name and secret must not contain a comma")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.secrets[name]; ok {
		return oops.Code(CodeAlreadyExists).
			With("name", name).
			Errorf("credential %q already exists", name)
	}

	s.secrets[name] = secret
	if err := s.appendRow(name, secret); err != nil {
		delete(s.secrets, name)
		return oops.Code(CodePersistenceFailed).
			With("name", name).
			With("path", s.path).
			Wrap(err)
	}

	slog.Info("credential added", "name", name)
	return nil
}

// appendRow writes a single table row, creating the file with its header row
// first when it does not exist yet.
func (s *Store) appendRow(name, secret string) error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := os.WriteFile(s.path, []byte(fileHeader+"\n"), 0o600); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(name + "," + secret + "\n"); err != nil {
		_ = f.Close() //nolint:errcheck // write error takes precedence
		return err
	}
	return f.Close()
}

// Count returns the number of loaded credentials.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.secrets)
}

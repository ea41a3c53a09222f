// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package authz persists and serves the two authorization allow-lists: names
// that bypass authentication entirely, and names permitted to administer the
// bypass list.
//
// Membership is keyed by participant display name, not by the stable
// identity. This is a deliberate property carried over from existing
// deployments: a name change or name reuse changes authorization status.
package authz

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/samber/oops"
)

// CodePersistenceFailed is returned when a mutation's durable write fails.
const CodePersistenceFailed = "PERSISTENCE_FAILED"

// recordSet is the durable form of the two allow-lists. Unknown or missing
// fields default to empty lists rather than failing the load.
type recordSet struct {
	BypassList []string `json:"bypass_list"`
	AdminList  []string `json:"admin_list"`
}

// defaultRecordSet is the fixed fallback used when no durable state exists or
// the durable content is malformed. It is never empty: the "admin" name is
// always an administrator so the gateway stays manageable.
func defaultRecordSet() recordSet {
	return recordSet{
		BypassList: []string{},
		AdminList:  []string{"admin"},
	}
}

// Store holds the allow-lists and keeps them synchronized with the durable
// file. Every changing mutation persists the full set before returning, so a
// concurrent reader observes either the pre- or post-mutation set, never a
// torn one.
type Store struct {
	path string

	mu      sync.RWMutex
	records recordSet
}

// NewStore creates a store backed by the JSON file at path.
// No I/O happens until Load is called.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		records: defaultRecordSet(),
	}
}

// Load reads the allow-lists from the durable file. When the file does not
// exist the fixed default set is installed and immediately persisted. When the
// file exists but is unreadable or malformed the default set is installed
// without overwriting the file, and the degradation is logged. Never fatal.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
}

// Reload re-reads the durable file, discarding the in-memory set.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
}

func (s *Store) loadLocked() {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.records = defaultRecordSet()
		if saveErr := s.saveLocked(); saveErr != nil {
			slog.Warn("could not persist default authorization lists",
				"path", s.path,
				"error", saveErr,
			)
			return
		}
		slog.Info("created default authorization lists", "path", s.path)
		return
	}
	if err != nil {
		slog.Warn("authorization lists unreadable, falling back to defaults",
			"path", s.path,
			"error", err,
		)
		s.records = defaultRecordSet()
		return
	}

	var loaded recordSet
	if err := json.Unmarshal(data, &loaded); err != nil {
		slog.Warn("authorization lists malformed, falling back to defaults",
			"path", s.path,
			"error", err,
		)
		s.records = defaultRecordSet()
		return
	}

	// Missing fields decode to nil; normalize so the durable form always
	// carries both lists.
	if loaded.BypassList == nil {
		loaded.BypassList = []string{}
	}
	if loaded.AdminList == nil {
		loaded.AdminList = []string{}
	}

	s.records = loaded
	slog.Info("authorization lists loaded",
		"path", s.path,
		"bypass_count", len(loaded.BypassList),
		"admin_count", len(loaded.AdminList),
	)
}

// saveLocked writes the full record set to the durable file.
// Callers must hold the write lock.
func (s *Store) saveLocked() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, append(data, '\n'), 0o600)
}

// IsBypassed reports whether name may skip authentication. Exact match.
func (s *Store) IsBypassed(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.records.BypassList, name)
}

// IsAdmin reports whether name may administer the allow-lists. Exact match.
func (s *Store) IsAdmin(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.records.AdminList, name)
}

// AddBypass adds name to the bypass list. Returns whether the set changed;
// adding a present name is a no-op and performs no write. A changing add
// persists synchronously; on write failure the mutation is rolled back.
func (s *Store) AddBypass(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := addLocked(&s.records.BypassList, name, s.saveLocked)
	if err != nil {
		return false, oops.Code(CodePersistenceFailed).
			With("name", name).
			With("list", "bypass_list").
			Wrap(err)
	}
	return changed, nil
}

// RemoveBypass removes name from the bypass list. Contract mirrors AddBypass.
func (s *Store) RemoveBypass(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := removeLocked(&s.records.BypassList, name, s.saveLocked)
	if err != nil {
		return false, oops.Code(CodePersistenceFailed).
			With("name", name).
			With("list", "bypass_list").
			Wrap(err)
	}
	return changed, nil
}

// AddAdmin adds name to the administrator list. Contract mirrors AddBypass.
func (s *Store) AddAdmin(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := addLocked(&s.records.AdminList, name, s.saveLocked)
	if err != nil {
		return false, oops.Code(CodePersistenceFailed).
			With("name", name).
			With("list", "admin_list").
			Wrap(err)
	}
	return changed, nil
}

// RemoveAdmin removes name from the administrator list. Contract mirrors AddBypass.
func (s *Store) RemoveAdmin(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := removeLocked(&s.records.AdminList, name, s.saveLocked)
	if err != nil {
		return false, oops.Code(CodePersistenceFailed).
			With("name", name).
			With("list", "admin_list").
			Wrap(err)
	}
	return changed, nil
}

// addLocked appends name to list and persists. Rolls back on save failure.
func addLocked(list *[]string, name string, save func() error) (bool, error) {
	if slices.Contains(*list, name) {
		return false, nil
	}
	*list = append(*list, name)
	if err := save(); err != nil {
		*list = (*list)[:len(*list)-1]
		return false, err
	}
	return true, nil
}

// removeLocked deletes name from list and persists. Rolls back on save
// failure, restoring the name at its original position.
func removeLocked(list *[]string, name string, save func() error) (bool, error) {
	i := slices.Index(*list, name)
	if i < 0 {
		return false, nil
	}
	*list = slices.Delete(*list, i, i+1)
	if err := save(); err != nil {
		*list = slices.Insert(*list, i, name)
		return false, err
	}
	return true, nil
}

// BypassNames returns a copy of the bypass list in stored order.
func (s *Store) BypassNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records.BypassList)
}

// AdminNames returns a copy of the administrator list in stored order.
func (s *Store) AdminNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records.AdminList)
}

// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package session holds generated repositories and scripts between the
// create call and the download, keyed by short-lived one-time tokens.
package session

import (
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"go.opendefense.cloud/forge/pkg/manifest"
)

// Kind distinguishes the two deliverable types a session can hold.
type Kind string

const (
	KindBootstrap Kind = "bootstrap"
	KindUpdate    Kind = "update"
)

// Session is one stored deliverable.
type Session struct {
	Token       string
	Kind        Kind
	ClusterName string
	// Tree is the synthesized repository.
	Tree *manifest.Tree
	// Script is the deliverable served on download: the installer for
	// bootstrap sessions, the update script for update sessions.
	Script string

	CreatedAt time.Time
	ExpiresAt time.Time
	OneTime   bool

	accessed bool
}

// Store is an in-memory token store with TTL expiry and optional
// one-time semantics. A background goroutine evicts expired sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl      time.Duration
	interval time.Duration
	logger   logr.Logger
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for eviction diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithTTL sets the default session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithCleanupInterval sets how often expired sessions are evicted.
func WithCleanupInterval(d time.Duration) Option {
	return func(s *Store) { s.interval = d }
}

// withClock overrides the time source in tests.
func withClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store and starts its cleanup goroutine. Callers
// must Stop the store when done.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      time.Hour,
		interval: 5 * time.Minute,
		logger:   logr.Discard(),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.cleanupLoop()
	return s
}

// Stop terminates the cleanup goroutine.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Create stores a new session and returns it with a fresh token.
func (s *Store) Create(kind Kind, cluster string, tree *manifest.Tree, script string, oneTime bool) *Session {
	now := s.now()
	sess := &Session{
		Token:       uuid.NewString(),
		Kind:        kind,
		ClusterName: cluster,
		Tree:        tree,
		Script:      script,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		OneTime:     oneTime,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return sess
}

// Get returns the session for the token and marks it accessed. A
// one-time session is consumed by this call; expired, consumed or
// unknown tokens return false.
func (s *Store) Get(token string) (*Session, bool) {
	return s.get(token, true)
}

// Peek returns the session without consuming it.
func (s *Store) Peek(token string) (*Session, bool) {
	return s.get(token, false)
}

func (s *Store) get(token string, markAccessed bool) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return nil, false
	}
	if sess.OneTime && sess.accessed {
		delete(s.sessions, token)
		return nil, false
	}
	if markAccessed {
		sess.accessed = true
	}
	return sess, true
}

// Delete removes a session explicitly.
func (s *Store) Delete(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	return ok
}

// Len returns the number of stored sessions, including not yet evicted
// expired ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *Store) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.V(1).Info("evicted expired sessions", "count", evicted, "remaining", len(s.sessions))
	}
}

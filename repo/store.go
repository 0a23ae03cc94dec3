// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrLogin indicates a session could not be obtained for the requested identity
	ErrLogin = errors.New("login failed")
	// ErrNotFound indicates a node does not exist
	ErrNotFound = errors.New("node not found")
)

// Session is read access to the committed content on behalf of one identity
type Session interface {
	UserID() string
	NodeByIdentifier(id string) (*Node, error)
	Node(path string) (*Node, error)
	Close() error
}

// Resolver provides privileged service sessions identified by a subservice name
type Resolver interface {
	ServiceSession(ctx context.Context, subservice string) (Session, error)
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithServiceUser allows subservice to obtain service sessions acting as user
func WithServiceUser(subservice string, user string) StoreOption {
	return func(s *Store) {
		s.serviceUsers[subservice] = user
	}
}

// Store holds a content tree and applies commits to it one at a time. Registered editor
// providers see every commit and may add their own changes to it before it is applied.
type Store struct {
	commitMu     sync.Mutex
	mu           sync.RWMutex
	root         *Node
	providers    []EditorProvider
	serviceUsers map[string]string
}

// NewStore creates an empty store
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		root:         NewRoot(),
		serviceUsers: map[string]string{},
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// Register adds a provider whose editors will process every subsequent commit
func (s *Store) Register(p EditorProvider) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.providers = append(s.providers, p)
}

// Root is the most recently committed root
func (s *Store) Root() *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.root
}

// Commit runs change against a builder of the current root, passes the result through every
// registered editor provider and then atomically replaces the root. Nothing is applied when
// change or any editor fails.
func (s *Store) Commit(ctx context.Context, info CommitInfo, change func(root *Builder) error) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	before := s.Root()
	builder := NewBuilder(before)

	err := change(builder)
	if err != nil {
		return err
	}

	for _, p := range s.providers {
		after := builder.State()

		editor, err := p.RootEditor(ctx, before, after, builder, info)
		if err != nil {
			return fmt.Errorf("commit hook failed: %w", err)
		}

		err = Process(editor, before, after)
		if err != nil {
			return fmt.Errorf("commit hook failed: %w", err)
		}
	}

	s.mu.Lock()
	s.root = builder.State()
	s.mu.Unlock()

	return nil
}

// Login opens a session for user over the current root
func (s *Store) Login(user string) Session {
	return &session{user: user, root: s.Root()}
}

// ServiceSession implements Resolver, only subservices configured using WithServiceUser can log in
func (s *Store) ServiceSession(_ context.Context, subservice string) (Session, error) {
	user, ok := s.serviceUsers[subservice]
	if !ok {
		return nil, fmt.Errorf("%w: no service user mapped for %q", ErrLogin, subservice)
	}

	return s.Login(user), nil
}

type session struct {
	user   string
	root   *Node
	once   sync.Once
	byID   map[string]*Node
	closed bool
}

func (s *session) UserID() string {
	return s.user
}

func (s *session) Node(p string) (*Node, error) {
	if s.closed {
		return nil, fmt.Errorf("session closed")
	}

	cur := s.root
	for _, part := range strings.Split(strings.Trim(p, "/"), "/") {
		if part == "" {
			continue
		}

		cur = cur.Child(part)
		if cur == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
	}

	return cur, nil
}

func (s *session) NodeByIdentifier(id string) (*Node, error) {
	if s.closed {
		return nil, fmt.Errorf("session closed")
	}

	s.once.Do(func() {
		s.byID = map[string]*Node{}
		s.index(s.root)
	})

	n, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: identifier %s", ErrNotFound, id)
	}

	return n, nil
}

func (s *session) index(n *Node) {
	if p, ok := n.Property(IdentifierProperty); ok && p.String() != "" {
		s.byID[p.String()] = n
	}

	for _, c := range n.Children() {
		s.index(c)
	}
}

func (s *session) Close() error {
	s.closed = true
	return nil
}

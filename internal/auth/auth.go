// Package auth is a local login stub. It accepts any non-empty
// credentials and remembers the fabricated user between runs. It is not a
// security mechanism.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/records"
	"tracker/internal/storage"
)

// Blob keys.
const (
	KeyAuthenticated = "isAuthenticated"
	KeyCurrentUser   = "currentUser"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrNotAuthenticated   = errors.New("not logged in")
)

const stubName = "John Doe"

type Options struct {
	// Delay is waited before a login succeeds. Zero means no wait.
	Delay  time.Duration
	Clock  func() time.Time
	Logger *log.Logger
}

type Service struct {
	mu    sync.Mutex
	flag  *records.Slot[bool]
	user  *records.Slot[core.User]
	delay time.Duration
	log   *log.Logger
}

func New(store storage.BlobStore, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	ro := records.Options{Clock: opts.Clock, Logger: logger}
	return &Service{
		flag:  records.NewSlot[bool](store, KeyAuthenticated, nil, ro),
		user:  records.NewSlot[core.User](store, KeyCurrentUser, nil, ro),
		delay: opts.Delay,
		log:   logger.WithComponent(log.ComponentAuth),
	}
}

// Login fabricates a user for any non-empty email and password and
// persists the session.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return core.User{}, ErrMissingCredentials
	}
	if err := s.wait(ctx); err != nil {
		return core.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := core.User{ID: 1, Name: stubName, Email: email}
	if err := s.user.Set(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("login: %w", err)
	}
	if err := s.flag.Set(ctx, true); err != nil {
		return core.User{}, errors.Join(fmt.Errorf("login: %w", err), s.user.Clear(ctx))
	}
	s.log.InfoContext(ctx, "logged in", log.FieldOperation, log.OpLogin)
	return u, nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Logout clears both the flag and the stored user.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := errors.Join(s.flag.Clear(ctx), s.user.Clear(ctx))
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.InfoContext(ctx, "logged out", log.FieldOperation, log.OpLogout)
	return nil
}

// CheckAuth re-reads the stored session. The user is restored only when
// the flag is true and a user blob is present.
func (s *Service) CheckAuth(ctx context.Context) (core.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flag.Reload(ctx); err != nil {
		return core.User{}, false, err
	}
	if err := s.user.Reload(ctx); err != nil {
		return core.User{}, false, err
	}
	return s.currentLocked()
}

// Current reports the session as last loaded or changed.
func (s *Service) Current() (core.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok, _ := s.currentLocked()
	return u, ok
}

func (s *Service) currentLocked() (core.User, bool, error) {
	flag, _ := s.flag.Get()
	u, ok := s.user.Get()
	if !flag || !ok {
		return core.User{}, false, nil
	}
	return u, true, nil
}

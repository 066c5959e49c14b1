package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/core/ports"
)

type stubResetStore struct {
	mu     sync.Mutex
	tokens map[string]string
	ttl    time.Duration
}

func (s *stubResetStore) Save(_ context.Context, token, accountID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		s.tokens = make(map[string]string)
	}
	s.tokens[token] = accountID
	s.ttl = ttl
	return nil
}

func (s *stubResetStore) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.tokens[token]
	delete(s.tokens, token)
	return id, nil
}

type stubQueue struct {
	msgs []ports.Message
}

func (q *stubQueue) Enqueue(msg ports.Message) {
	q.msgs = append(q.msgs, msg)
}

func newResetFixture() (*PasswordResetService, *stubStore, *stubResetStore, *stubQueue, *TokenService) {
	store := newStubStore()
	resets := &stubResetStore{}
	queue := &stubQueue{}
	tokens := NewTokenService(testAuthConfig())
	svc := NewPasswordResetService(store, resets, tokens, plainHasher{}, queue,
		"https://app.example.com/reset", 20*time.Minute, zerolog.Nop())
	return svc, store, resets, queue, tokens
}

func TestPasswordResetService_FullFlow(t *testing.T) {
	svc, store, resets, queue, _ := newResetFixture()
	seedAccount(store, "acc-1", "ade@x.com", "08022222222", "OldPass1", domain.RoleCustomer, true)
	ctx := context.Background()

	if err := svc.RequestReset(ctx, "ade@x.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	if len(queue.msgs) != 1 || queue.msgs[0].To != "ade@x.com" {
		t.Fatalf("expected one reset mail, got %+v", queue.msgs)
	}
	if resets.ttl != 20*time.Minute || len(resets.tokens) != 1 {
		t.Fatalf("unexpected stored reset state: ttl=%s tokens=%d", resets.ttl, len(resets.tokens))
	}

	var opaque string
	for tok := range resets.tokens {
		opaque = tok
	}
	if !strings.Contains(queue.msgs[0].Text, "https://app.example.com/reset?token="+opaque) {
		t.Fatalf("reset link missing from mail: %s", queue.msgs[0].Text)
	}

	temp, err := svc.ConfirmReset(ctx, opaque)
	if err != nil {
		t.Fatalf("ConfirmReset returned error: %v", err)
	}
	if _, err := svc.ConfirmReset(ctx, opaque); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("link token must be single use, got %v", err)
	}

	if err := svc.ResetPassword(ctx, temp, "NewPass1"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}
	if store.accounts["acc-1"].PasswordHash != "hashed:NewPass1" {
		t.Fatalf("password not updated")
	}
}

func TestPasswordResetService_TempTokenIsSingleUse(t *testing.T) {
	svc, store, resets, _, _ := newResetFixture()
	seedAccount(store, "acc-1", "ade@x.com", "08022222222", "OldPass1", domain.RoleCustomer, true)
	ctx := context.Background()

	if err := svc.RequestReset(ctx, "ade@x.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	var opaque string
	for tok := range resets.tokens {
		opaque = tok
	}
	temp, err := svc.ConfirmReset(ctx, opaque)
	if err != nil {
		t.Fatalf("ConfirmReset returned error: %v", err)
	}

	if err := svc.ResetPassword(ctx, temp, "NewPass1"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}
	if err := svc.ResetPassword(ctx, temp, "Hijack99"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("replayed reset token: expected ErrInvalidToken, got %v", err)
	}
	if store.accounts["acc-1"].PasswordHash != "hashed:NewPass1" {
		t.Fatalf("replay must not change the password, got %s", store.accounts["acc-1"].PasswordHash)
	}
}

func TestPasswordResetService_UnstampedTempTokenRejected(t *testing.T) {
	svc, store, _, _, tokens := newResetFixture()
	seedAccount(store, "acc-1", "ade@x.com", "08022222222", "OldPass1", domain.RoleCustomer, true)

	temp, _ := tokens.SignTemp("acc-1", map[string]string{"purpose": "password_reset"})
	if err := svc.ResetPassword(context.Background(), temp, "NewPass1"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordResetService_ConfirmForDeletedAccount(t *testing.T) {
	svc, _, resets, _, _ := newResetFixture()
	_ = resets.Save(context.Background(), "link-token", "gone", time.Minute)

	if _, err := svc.ConfirmReset(context.Background(), "link-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordResetService_UnknownIdentifierIsSilent(t *testing.T) {
	svc, _, resets, queue, _ := newResetFixture()

	if err := svc.RequestReset(context.Background(), "ghost@x.com"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(queue.msgs) != 0 || len(resets.tokens) != 0 {
		t.Fatalf("nothing should be issued for unknown identifiers")
	}
}

func TestPasswordResetService_RejectsOtherTokens(t *testing.T) {
	svc, store, _, _, tokens := newResetFixture()
	seedAccount(store, "acc-1", "ade@x.com", "08022222222", "OldPass1", domain.RoleCustomer, true)

	access, _ := tokens.SignAccess("acc-1", domain.RoleCustomer)
	wrongPurpose, _ := tokens.SignTemp("acc-1", map[string]string{"purpose": "something_else"})

	for name, token := range map[string]string{"access": access, "wrong purpose": wrongPurpose, "garbage": "x"} {
		if err := svc.ResetPassword(context.Background(), token, "NewPass1"); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
	if store.accounts["acc-1"].PasswordHash != "hashed:OldPass1" {
		t.Fatalf("password must be unchanged")
	}
}

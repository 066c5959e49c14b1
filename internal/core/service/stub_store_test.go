package service

import (
	"context"
	"sync"
	"time"

	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/core/ports"
)

// stubStore is an in-memory CredentialStore honoring the uniqueness and
// upsert contracts of the real adapter.
type stubStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	otps     map[string]*domain.OtpRecord
	upserts  int

	findErr   error
	createErr error
	upsertErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		accounts: make(map[string]*domain.Account),
		otps:     make(map[string]*domain.OtpRecord),
	}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (s *stubStore) FindAccountByEmailOrPhone(_ context.Context, email, phone string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, a := range s.accounts {
		if (email != "" && a.Email == email) || (phone != "" && a.PhoneNumber == phone) {
			return cloneAccount(a), nil
		}
	}
	return nil, nil
}

func (s *stubStore) FindAccountByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	return cloneAccount(s.accounts[id]), nil
}

func (s *stubStore) CreateAccount(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, a := range s.accounts {
		if a.Email == account.Email || a.PhoneNumber == account.PhoneNumber {
			return domain.ErrConflict
		}
	}
	s.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (s *stubStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (s *stubStore) UpsertOtpForOwner(_ context.Context, ownerID, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts++
	s.otps[ownerID] = &domain.OtpRecord{OwnerID: ownerID, Code: code, ExpiresAt: expiresAt}
	return nil
}

func (s *stubStore) FindOtpByOwner(_ context.Context, ownerID string) (*domain.OtpRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.otps[ownerID]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (s *stubStore) MarkOtpVerified(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.otps[ownerID]
	if !ok {
		return domain.ErrOtpNotFound
	}
	rec.Verified = true
	return nil
}

func (s *stubStore) otp(ownerID string) *domain.OtpRecord {
	rec, _ := s.FindOtpByOwner(context.Background(), ownerID)
	return rec
}

// stubNotifier records every message and can be told to fail.
type stubNotifier struct {
	mu   sync.Mutex
	sent []ports.Message
	err  error
}

func (n *stubNotifier) Send(_ context.Context, msg ports.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// plainHasher keeps tests fast; it is not a real hash.
type plainHasher struct{}

func (plainHasher) Hash(_ context.Context, plain string) (string, error) {
	return "hashed:" + plain, nil
}

func (plainHasher) Verify(_ context.Context, hash, plain string) bool {
	return hash == "hashed:"+plain
}

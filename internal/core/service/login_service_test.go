package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/core/ports"
)

// seedAccount stores an account with the given verification state.
func seedAccount(store *stubStore, id, email, phone, password string, role domain.Role, verified bool) *domain.Account {
	account := &domain.Account{
		ID:           id,
		FullName:     "Test " + id,
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: "hashed:" + password,
		Role:         role,
	}
	_ = store.CreateAccount(context.Background(), account)
	_ = store.UpsertOtpForOwner(context.Background(), id, "123456", time.Now().Add(time.Hour))
	if verified {
		_ = store.MarkOtpVerified(context.Background(), id)
	}
	return account
}

func newLoginSvc(store *stubStore) (*LoginService, *TokenService) {
	tokens := NewTokenService(testAuthConfig())
	return NewLoginService(store, tokens, plainHasher{}, zerolog.Nop()), tokens
}

func TestLoginService_Login_Success(t *testing.T) {
	store := newStubStore()
	seedAccount(store, "acc-1", "ade@x.com", "08022222222", "Secret1A", domain.RoleRider, true)
	svc, tokens := newLoginSvc(store)

	for _, identifier := range []string{"ade@x.com", "ADE@x.com", "08022222222"} {
		res, err := svc.Login(context.Background(), identifier, "Secret1A")
		if err != nil {
			t.Fatalf("Login(%s) returned error: %v", identifier, err)
		}
		claims, err := tokens.Verify(res.Tokens.AccessToken, domain.TokenAccess)
		if err != nil || claims.Subject != "acc-1" || claims.Role != domain.RoleRider {
			t.Fatalf("unexpected access claims %+v, %v", claims, err)
		}
		if _, err := tokens.Verify(res.Tokens.RefreshToken, domain.TokenRefresh); err != nil {
			t.Fatalf("refresh token invalid: %v", err)
		}
	}
}

func TestLoginService_Login_Unverified(t *testing.T) {
	store := newStubStore()
	seedAccount(store, "acc-1", "ade@x.com", "08022222222", "Secret1A", domain.RoleCustomer, false)
	svc, _ := newLoginSvc(store)

	_, err := svc.Login(context.Background(), "ade@x.com", "Secret1A")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLoginService_Login_UniformUnauthorized(t *testing.T) {
	store := newStubStore()
	seedAccount(store, "acc-1", "ade@x.com", "08022222222", "Secret1A", domain.RoleCustomer, true)
	svc, _ := newLoginSvc(store)

	_, wrongPassword := svc.Login(context.Background(), "ade@x.com", "nope")
	_, unknown := svc.Login(context.Background(), "ghost@x.com", "Secret1A")

	if wrongPassword != domain.ErrInvalidCredentials || unknown != domain.ErrInvalidCredentials {
		t.Fatalf("expected identical ErrInvalidCredentials, got %v / %v", wrongPassword, unknown)
	}
	if !errors.Is(wrongPassword, domain.ErrUnauthorized) {
		t.Fatalf("invalid credentials must be an unauthorized error")
	}
}

func TestLoginService_Refresh(t *testing.T) {
	store := newStubStore()
	seedAccount(store, "acc-1", "ade@x.com", "08022222222", "Secret1A", domain.RoleCustomer, true)
	svc, tokens := newLoginSvc(store)

	refresh, _ := tokens.SignRefresh("acc-1")

	// Role changes are picked up on refresh.
	store.accounts["acc-1"].Role = domain.RoleVendor

	res, err := svc.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	claims, _ := tokens.Verify(res.Tokens.AccessToken, domain.TokenAccess)
	if claims == nil || claims.Role != domain.RoleVendor {
		t.Fatalf("expected refreshed role vendor, got %+v", claims)
	}
}

func TestLoginService_Refresh_Failures(t *testing.T) {
	store := newStubStore()
	seedAccount(store, "acc-1", "ade@x.com", "08022222222", "Secret1A", domain.RoleCustomer, true)
	svc, tokens := newLoginSvc(store)

	access, _ := tokens.SignAccess("acc-1", domain.RoleCustomer)
	orphan, _ := tokens.SignRefresh("deleted-account")

	cases := map[string]string{
		"missing":           "",
		"garbage":           "garbage",
		"access as refresh": access,
		"vanished account":  orphan,
	}
	for name, token := range cases {
		if _, err := svc.Refresh(context.Background(), token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("%s: expected ErrUnauthorized, got %v", name, err)
		}
	}
}

func TestLoginService_Me(t *testing.T) {
	store := newStubStore()
	seedAccount(store, "acc-1", "ade@x.com", "08022222222", "Secret1A", domain.RoleCustomer, true)
	svc, _ := newLoginSvc(store)

	account, err := svc.Me(context.Background(), "acc-1")
	if err != nil || account.Email != "ade@x.com" {
		t.Fatalf("unexpected Me result %+v, %v", account, err)
	}
	if _, err := svc.Me(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestSignupVerifyLoginScenario walks the full lifecycle across both flows.
func TestSignupVerifyLoginScenario(t *testing.T) {
	f := newRegistrationFixture()
	login := NewLoginService(f.store, f.tokens, plainHasher{}, zerolog.Nop())
	ctx := context.Background()

	res, err := f.svc.Signup(ctx, janeSignup())
	if err != nil || res.Outcome != ports.SignupCreated {
		t.Fatalf("signup failed: %+v, %v", res, err)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected email dispatch attempt")
	}

	if _, err := login.Login(ctx, "jane@x.com", "Secret1A"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("login before verification: expected ErrForbidden, got %v", err)
	}

	if _, err := f.svc.VerifyOtp(ctx, "jane@x.com", "000000"); !errors.Is(err, domain.ErrOtpMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	code := f.store.otp(res.Account.ID).Code
	if _, err := f.svc.VerifyOtp(ctx, "jane@x.com", code); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if _, err := login.Login(ctx, "jane@x.com", "Secret1A"); err != nil {
		t.Fatalf("login after verification failed: %v", err)
	}

	other := janeSignup()
	other.Email, other.PhoneNumber = "kola@x.com", "08033333333"
	if _, err := f.svc.Signup(ctx, other); err != nil {
		t.Fatalf("second signup failed: %v", err)
	}
	if _, err := login.Login(ctx, "kola@x.com", "Secret1A"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("unverified account: expected ErrForbidden, got %v", err)
	}
}

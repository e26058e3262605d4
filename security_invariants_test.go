package goTenantAuth

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Full lifecycle: login, use, rotate, use, logout, everything dead.
func TestSessionLifecycleWalkthrough(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := a.Validate(ctx, login.AccessToken); err != nil {
		t.Fatalf("validate after login: %v", err)
	}

	rotated, err := a.Rotate(ctx, login.SessionID, login.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if _, err := a.Validate(ctx, rotated.AccessToken); err != nil {
		t.Fatalf("validate after rotate: %v", err)
	}
	if _, err := a.Validate(ctx, login.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("old access = %v, want ErrTokenRevoked", err)
	}

	if _, err := a.Logout(ctx, login.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := a.Validate(ctx, rotated.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("post-logout access = %v, want ErrTokenRevoked", err)
	}
	if _, err := a.Rotate(ctx, login.SessionID, rotated.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("post-logout rotate = %v, want ErrSessionNotFound", err)
	}
}

// Expiry always wins: an expired token fails with ErrTokenExpired even when
// it is also revoked.
func TestExpiryTakesPrecedenceOverRevocationInCodec(t *testing.T) {
	a, clock := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	clock.Advance(16 * time.Minute)
	if _, err := a.Validate(ctx, login.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

// A revoked-and-unexpired token reports revocation before anything else.
func TestRevocationCheckedBeforeVerification(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := a.Logout(ctx, login.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := a.Validate(ctx, login.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("err = %v, want ErrTokenRevoked", err)
	}
}

// Session expiry is fixed at creation: heavy activity never extends it.
func TestSessionExpiryIsFixed(t *testing.T) {
	a, clock := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refresh := login.RefreshToken
	for i := 0; i < 12; i++ {
		clock.Advance(2*time.Hour + 5*time.Minute)
		rotated, err := a.Rotate(ctx, login.SessionID, refresh)
		if err != nil {
			if i < 11 {
				t.Fatalf("rotate %d: %v", i, err)
			}
			// 24h elapsed: the session is gone despite constant activity.
			if !errors.Is(err, ErrSessionNotFound) {
				t.Fatalf("final rotate = %v, want ErrSessionNotFound", err)
			}
			return
		}
		refresh = rotated.RefreshToken
	}
	t.Fatal("session outlived its fixed expiry")
}

// Session identifiers stay unique under volume.
func TestSessionIDUniqueness(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		res, err := a.Login(ctx, "user-1", "tenant-a", nil)
		if err != nil {
			t.Fatalf("Login %d: %v", i, err)
		}
		if _, dup := seen[res.SessionID]; dup {
			t.Fatalf("duplicate session id at iteration %d", i)
		}
		seen[res.SessionID] = struct{}{}
	}
}

func TestSweepPurgesExpiredState(t *testing.T) {
	a, clock := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	// Leave a revocation entry behind too.
	if _, err := a.Rotate(ctx, login.SessionID, login.RefreshToken); err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	clock.Advance(400 * time.Hour)
	purged, err := a.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if purged < 2 {
		t.Fatalf("purged = %d, want at least the session and one revocation entry", purged)
	}

	again, err := a.Sweep(ctx)
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if again != 0 {
		t.Fatalf("second sweep purged %d, want 0", again)
	}
}

// Tenants never share anything observable: tokens from one tenant are inert
// against another, and introspection stays per subject.
func TestTenantIsolationEndToEnd(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	alpha, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	beta, err := a.Login(ctx, "user-2", "tenant-b", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := a.Guard().Authorize(ctx, alpha.AccessToken, "tenant-b"); !errors.Is(err, ErrCrossTenantAccess) {
		t.Fatalf("alpha into b = %v, want ErrCrossTenantAccess", err)
	}
	if _, err := a.Guard().Authorize(ctx, beta.AccessToken, "tenant-a"); !errors.Is(err, ErrCrossTenantAccess) {
		t.Fatalf("beta into a = %v, want ErrCrossTenantAccess", err)
	}

	// A cross-tenant logout attempt by session id still requires knowing the
	// id; the guard never leaks it across tenants, and revoking one tenant's
	// session leaves the other untouched.
	if _, err := a.Logout(ctx, alpha.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := a.Validate(ctx, beta.AccessToken); err != nil {
		t.Fatalf("tenant-b damaged by tenant-a logout: %v", err)
	}
}

package goTenantAuth

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goTenantAuth/token"
)

func TestGuardAuthorizeSameTenant(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	tc, err := a.Guard().Authorize(ctx, login.AccessToken, "tenant-a")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if tc.SubjectID != "user-1" || tc.TenantID != "tenant-a" {
		t.Fatalf("context = %+v", tc)
	}
	if tc.SessionID != login.SessionID {
		t.Fatalf("session id = %q, want %q", tc.SessionID, login.SessionID)
	}
}

func TestGuardDeniesCrossTenant(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// A perfectly valid token never crosses the boundary, and an empty
	// resource tenant is a denial, not a wildcard.
	for _, resource := range []string{"tenant-b", "TENANT-A", "tenant-a ", ""} {
		if _, err := a.Guard().Authorize(ctx, login.AccessToken, resource); !errors.Is(err, ErrCrossTenantAccess) {
			t.Fatalf("Authorize(%q) = %v, want ErrCrossTenantAccess", resource, err)
		}
	}

	snap := a.MetricsSnapshot()
	if snap.Counters[MetricCrossTenantDenied] != 4 {
		t.Fatalf("denials = %d, want 4", snap.Counters[MetricCrossTenantDenied])
	}
}

func TestGuardRejectsMissingTenantClaim(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	// Mint a tenantless token with the same signing material.
	cfg := testConfig()
	codec, err := token.NewCodec(token.Config{
		AccessTTL:     a.config.Token.AccessTTL,
		RefreshTTL:    a.config.Token.RefreshTTL,
		AccessSecret:  cfg.Token.AccessSecret,
		RefreshSecret: cfg.Token.RefreshSecret,
		Issuer:        cfg.Token.Issuer,
		Clock:         a.clock,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	raw, err := codec.IssueAccess("user-1", "", nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if _, err := a.Guard().SessionContext(ctx, raw); !errors.Is(err, ErrMissingTenantClaim) {
		t.Fatalf("err = %v, want ErrMissingTenantClaim", err)
	}
	if _, err := a.Guard().Authorize(ctx, raw, "tenant-a"); !errors.Is(err, ErrMissingTenantClaim) {
		t.Fatalf("err = %v, want ErrMissingTenantClaim", err)
	}
}

func TestGuardExtractTenant(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	tenant, err := a.Guard().ExtractTenant(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("ExtractTenant: %v", err)
	}
	if tenant != "tenant-a" {
		t.Fatalf("tenant = %q, want tenant-a", tenant)
	}

	if _, err := a.Guard().ExtractTenant(ctx, "garbage"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("err = %v, want ErrTokenMalformed", err)
	}
}

func TestGuardRejectsRevokedToken(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := a.Logout(ctx, login.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := a.Guard().Authorize(ctx, login.AccessToken, "tenant-a"); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("err = %v, want ErrTokenRevoked", err)
	}
}

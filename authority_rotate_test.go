package goTenantAuth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRotateSwapsPairAndRevokesOld(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := a.Rotate(ctx, login.SessionID, login.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if rotated.AccessToken == login.AccessToken || rotated.RefreshToken == login.RefreshToken {
		t.Fatal("rotation returned the same pair")
	}

	// The previous access token is dead immediately.
	if _, err := a.Validate(ctx, login.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("old access err = %v, want ErrTokenRevoked", err)
	}
	// The new one works.
	if _, err := a.Validate(ctx, rotated.AccessToken); err != nil {
		t.Fatalf("new access: %v", err)
	}
	// The session record now carries the new pair.
	sess, err := a.SessionInfo(ctx, login.SessionID)
	if err != nil {
		t.Fatalf("SessionInfo: %v", err)
	}
	if sess.AccessToken != rotated.AccessToken || sess.RefreshToken != rotated.RefreshToken {
		t.Fatalf("session pair not updated: %+v", sess)
	}
}

func TestRotateRejectsReusedRefreshToken(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := a.Rotate(ctx, login.SessionID, login.RefreshToken); err != nil {
		t.Fatalf("first Rotate: %v", err)
	}

	// Replay of the consumed token, including a client retrying after a
	// response it never saw, is always a revocation error.
	if _, err := a.Rotate(ctx, login.SessionID, login.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("err = %v, want ErrTokenRevoked", err)
	}
}

func TestRotateChains(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refresh := login.RefreshToken
	for i := 0; i < 5; i++ {
		rotated, err := a.Rotate(ctx, login.SessionID, refresh)
		if err != nil {
			t.Fatalf("Rotate %d: %v", i, err)
		}
		refresh = rotated.RefreshToken
	}

	// Every earlier generation is dead; the newest still works.
	if _, err := a.Rotate(ctx, login.SessionID, login.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("generation 0 err = %v, want ErrTokenRevoked", err)
	}
	if _, err := a.Rotate(ctx, login.SessionID, refresh); err != nil {
		t.Fatalf("newest generation: %v", err)
	}
}

func TestRotateMismatchedSessionLeavesVictimIntact(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	attacker, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login attacker: %v", err)
	}
	victim, err := a.Login(ctx, "user-2", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login victim: %v", err)
	}

	// A valid refresh token paired with another session's ID is rejected
	// without touching the target session's pair.
	if _, err := a.Rotate(ctx, victim.SessionID, attacker.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("err = %v, want ErrTokenRevoked", err)
	}

	if _, err := a.Validate(ctx, victim.AccessToken); err != nil {
		t.Fatalf("victim access token: %v", err)
	}
	if _, err := a.Rotate(ctx, victim.SessionID, victim.RefreshToken); err != nil {
		t.Fatalf("victim rotate: %v", err)
	}
	if _, err := a.Rotate(ctx, attacker.SessionID, attacker.RefreshToken); err != nil {
		t.Fatalf("attacker rotate on own session: %v", err)
	}
}

func TestRotateUnknownSession(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := a.Rotate(ctx, "no-such-session", login.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRotateExpiredRefreshToken(t *testing.T) {
	a, clock := newTestAuthority(t, func(b *Builder) {
		cfg := testConfig()
		cfg.Session.TTL = 400 * time.Hour
		b.WithConfig(cfg)
	})
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	clock.Advance(169 * time.Hour)
	if _, err := a.Rotate(ctx, login.SessionID, login.RefreshToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestRotateRejectsAccessTokenAsRefresh(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Distinct signing secrets per kind mean this fails verification, which
	// surfaces as a malformed token rather than a kind mismatch.
	if _, err := a.Rotate(ctx, login.SessionID, login.AccessToken); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("err = %v, want ErrTokenMalformed", err)
	}
}

func TestRotateConcurrentSingleWinner(t *testing.T) {
	a, _ := newTestAuthority(t)
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []*RotateResult
	)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			res, err := a.Rotate(ctx, login.SessionID, login.RefreshToken)
			switch {
			case err == nil:
				mu.Lock()
				winners = append(winners, res)
				mu.Unlock()
			case errors.Is(err, ErrTokenRevoked):
				// Expected for losers.
			default:
				t.Errorf("worker %d: %v", n, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("winners = %d, want exactly 1", len(winners))
	}

	// The stored pair is the winner's, coherent and usable.
	sess, err := a.SessionInfo(ctx, login.SessionID)
	if err != nil {
		t.Fatalf("SessionInfo: %v", err)
	}
	if sess.AccessToken != winners[0].AccessToken || sess.RefreshToken != winners[0].RefreshToken {
		t.Fatalf("stored pair is not the winner's: %+v", sess)
	}
	if _, err := a.Validate(ctx, winners[0].AccessToken); err != nil {
		t.Fatalf("winner access token: %v", err)
	}
}

package goTenantAuth

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func drainEvents(t *testing.T, sink *ChannelSink, want int) []AuditEvent {
	t.Helper()

	events := make([]AuditEvent, 0, want)
	timeout := time.After(2 * time.Second)
	for len(events) < want {
		select {
		case ev := <-sink.C:
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("got %d events, want %d", len(events), want)
		}
	}
	return events
}

func TestAuditEventsFlowThroughSink(t *testing.T) {
	sink := NewChannelSink(64)
	a, _ := newTestAuthority(t, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	ctx := WithClientIP(context.Background(), "192.0.2.10")

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := a.Rotate(ctx, login.SessionID, login.RefreshToken); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if _, err := a.Logout(ctx, login.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	events := drainEvents(t, sink, 3)

	wantTypes := []AuditEventType{AuditLogin, AuditRotate, AuditLogout}
	for i, ev := range events {
		if ev.Type != wantTypes[i] {
			t.Fatalf("event %d type = %q, want %q", i, ev.Type, wantTypes[i])
		}
		if !ev.Success {
			t.Fatalf("event %d not successful: %+v", i, ev)
		}
		if ev.SubjectID != "user-1" || ev.TenantID != "tenant-a" || ev.SessionID != login.SessionID {
			t.Fatalf("event %d identity: %+v", i, ev)
		}
		if ev.IP != "192.0.2.10" {
			t.Fatalf("event %d ip = %q", i, ev.IP)
		}
	}
}

func TestAuditCrossTenantDenialCarriesBothTenants(t *testing.T) {
	sink := NewChannelSink(64)
	a, _ := newTestAuthority(t, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := a.Guard().Authorize(ctx, login.AccessToken, "tenant-b"); err == nil {
		t.Fatal("cross-tenant access allowed")
	}

	events := drainEvents(t, sink, 2)
	denial := events[1]
	if denial.Type != AuditCrossTenantDenied {
		t.Fatalf("type = %q, want %q", denial.Type, AuditCrossTenantDenied)
	}
	if denial.TenantID != "tenant-a" || denial.ResourceTenant != "tenant-b" {
		t.Fatalf("tenants = %q -> %q", denial.TenantID, denial.ResourceTenant)
	}
}

func TestAuditNeverContainsRawTokens(t *testing.T) {
	var buf bytes.Buffer
	a, _ := newTestAuthority(t, func(b *Builder) {
		b.WithAuditSink(NewJSONWriterSink(&buf))
	})
	ctx := context.Background()

	login, err := a.Login(ctx, "user-1", "tenant-a", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	rotated, err := a.Rotate(ctx, login.SessionID, login.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if _, err := a.Logout(ctx, login.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	a.Close()

	out := buf.String()
	for _, raw := range []string{login.AccessToken, login.RefreshToken, rotated.AccessToken, rotated.RefreshToken} {
		if strings.Contains(out, raw) {
			t.Fatal("raw token material leaked into the audit stream")
		}
	}

	// And the stream is one valid JSON object per line.
	scanner := bufio.NewScanner(&buf)
	lines := 0
	for scanner.Scan() {
		var ev AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		lines++
	}
	if lines != 3 {
		t.Fatalf("lines = %d, want 3", lines)
	}
}

func TestDispatcherCountsDrops(t *testing.T) {
	block := make(chan struct{})
	slow := sinkFunc(func(AuditEvent) { <-block })

	d := newAuditDispatcher(slow, 1)
	for i := 0; i < 10; i++ {
		d.emit(AuditEvent{Type: AuditLogin})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink")
	}
	close(block)
	d.Close()
}

type sinkFunc func(AuditEvent)

func (f sinkFunc) Write(ev AuditEvent) { f(ev) }

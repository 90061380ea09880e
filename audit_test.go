package authservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authservice "github.com/Vadimvill/auth-service"
	"github.com/Vadimvill/auth-service/internal/directory"
)

// auditHarness builds an engine with auditing and metrics on, plus a
// channel sink to observe events.
func auditHarness(t *testing.T) (*authservice.Engine, *directory.MemoryDirectory, *authservice.ChannelSink, string) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dir := directory.NewMemory()
	sink := authservice.NewChannelSink(64)

	cfg := fastConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Metrics.Enabled = true

	engine, err := authservice.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserDirectory(dir).
		WithRoleDirectory(dir).
		WithPermissionDirectory(dir).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := context.Background()
	role, err := dir.CreateRole(ctx, "editor")
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	user, err := engine.Register(ctx, authservice.CreateUserInput{
		FullName: "Edith Editor",
		Email:    "editor@example.com",
		Password: "plenty-strong",
		RoleID:   role.ID,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return engine, dir, sink, user.ID
}

func nextEvent(t *testing.T, sink *authservice.ChannelSink) authservice.AuditEvent {
	t.Helper()
	select {
	case event := <-sink.Events():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return authservice.AuditEvent{}
	}
}

func TestEngineEmitsAuditTrail(t *testing.T) {
	engine, _, sink, userID := auditHarness(t)
	ctx := authservice.WithClientIP(context.Background(), "203.0.113.9")

	// Registration in the harness emits first.
	event := nextEvent(t, sink)
	if event.Action != authservice.AuditActionRegister {
		t.Fatalf("first action = %q, want register", event.Action)
	}

	if _, err := engine.Login(ctx, "editor@example.com", "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
	event = nextEvent(t, sink)
	if event.Action != authservice.AuditActionLogin || event.Success {
		t.Fatalf("failed login event = %+v", event)
	}
	if event.IP != "203.0.113.9" {
		t.Fatalf("event IP = %q, want caller IP", event.IP)
	}

	if _, err := engine.Login(ctx, "editor@example.com", "plenty-strong"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	event = nextEvent(t, sink)
	if event.Action != authservice.AuditActionLogin || !event.Success {
		t.Fatalf("successful login event = %+v", event)
	}
	if event.UserID != userID {
		t.Fatalf("event user = %q, want %q", event.UserID, userID)
	}

	if err := engine.Logout(ctx, userID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	event = nextEvent(t, sink)
	if event.Action != authservice.AuditActionLogout {
		t.Fatalf("logout event = %+v", event)
	}
}

func TestEngineCountsMetrics(t *testing.T) {
	engine, _, sink, userID := auditHarness(t)
	ctx := context.Background()

	// Drain harness registration event.
	nextEvent(t, sink)

	if _, err := engine.Login(ctx, "editor@example.com", "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
	result, err := engine.Login(ctx, "editor@example.com", "plenty-strong")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := engine.Validate(ctx, result.AccessToken); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := engine.Validate(ctx, "garbage"); err == nil {
		t.Fatal("garbage token accepted")
	}
	if err := engine.Logout(ctx, userID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	snap := engine.MetricsSnapshot()
	expect := map[authservice.MetricID]uint64{
		authservice.MetricLoginSuccess:    1,
		authservice.MetricLoginFailure:    1,
		authservice.MetricValidateSuccess: 1,
		authservice.MetricValidateFailure: 1,
		authservice.MetricLogout:          1,
		authservice.MetricSessionCreated:  1,
		authservice.MetricSessionRevoked:  1,
		authservice.MetricAccountCreated:  1,
	}
	for id, want := range expect {
		if got := snap.Counters[id]; got != want {
			t.Errorf("counter %d = %d, want %d", id, got, want)
		}
	}
}

package identity

import (
	"context"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	signed, err := tokens.Generate("u1", "u1@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	user, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if user.UID != "u1" || user.Email != "u1@example.com" {
		t.Fatalf("verified identity = %+v", user)
	}
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	tokens, _ := NewTokenService("secret-a")
	other, _ := NewTokenService("secret-b")

	signed, err := other.Generate("u1", "u1@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := tokens.Verify(signed); err == nil {
		t.Fatal("expected verification failure for token signed with another secret")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tokens, _ := NewTokenService("test-secret")
	if _, err := tokens.Verify("not.a.token"); err == nil {
		t.Fatal("expected verification failure")
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := VerifyPassword("hunter2hunter2", hash); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword("wrong", hash); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestProviderEmitsOrderedEvents(t *testing.T) {
	tokens, _ := NewTokenService("test-secret")
	provider := NewProvider(tokens)

	var events []*User
	provider.Subscribe(func(u *User) { events = append(events, u) })

	// Initial event fires immediately with the signed-out state.
	if len(events) != 1 || events[0] != nil {
		t.Fatalf("events after subscribe = %v", events)
	}

	signed, _ := tokens.Generate("u1", "u1@example.com")
	if err := provider.SignInWithToken(context.Background(), signed); err != nil {
		t.Fatalf("SignInWithToken: %v", err)
	}
	if len(events) != 2 || events[1] == nil || events[1].UID != "u1" {
		t.Fatalf("events after sign-in = %v", events)
	}

	if err := provider.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if len(events) != 3 || events[2] != nil {
		t.Fatalf("events after sign-out = %v", events)
	}

	// Signing out while signed out is a no-op: no fourth event.
	if err := provider.SignOut(context.Background()); err != nil {
		t.Fatalf("idempotent SignOut: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events after repeated sign-out = %v", events)
	}
}

func TestProviderRejectsBadCredential(t *testing.T) {
	tokens, _ := NewTokenService("test-secret")
	provider := NewProvider(tokens)

	var events int
	provider.Subscribe(func(*User) { events++ })

	if err := provider.SignInWithToken(context.Background(), "garbage"); err == nil {
		t.Fatal("expected sign-in failure")
	}
	if events != 1 {
		t.Fatalf("failed sign-in emitted an event (count=%d)", events)
	}
}

func TestProviderUnsubscribe(t *testing.T) {
	tokens, _ := NewTokenService("test-secret")
	provider := NewProvider(tokens)

	var events int
	unsubscribe := provider.Subscribe(func(*User) { events++ })
	unsubscribe()

	signed, _ := tokens.Generate("u1", "u1@example.com")
	if err := provider.SignInWithToken(context.Background(), signed); err != nil {
		t.Fatalf("SignInWithToken: %v", err)
	}
	if events != 1 {
		t.Fatalf("unsubscribed callback still invoked (count=%d)", events)
	}
}

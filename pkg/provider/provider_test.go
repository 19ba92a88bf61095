package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"content_trans_api/models/models"
	"content_trans_api/pkg/reference"
	"content_trans_api/pkg/trerr"
)

type stubAdapter struct {
	id        string
	authCalls int
	authErr   error
	liveness  error
	ttl       time.Duration
}

func (a *stubAdapter) ID() string { return a.id }

func (a *stubAdapter) Authenticate(ctx context.Context) (Credential, error) {
	a.authCalls++
	if a.authErr != nil {
		return Credential{}, a.authErr
	}
	return Credential{Token: "tok", ExpiresAt: time.Now().Add(a.ttl)}, nil
}

func (a *stubAdapter) CheckConnection(ctx context.Context, cred Credential) error {
	return a.liveness
}

func (a *stubAdapter) Submit(ctx context.Context, cred Credential, req *models.TranslationRequest) (reference.ProviderReference, error) {
	return reference.ProviderReference{}, nil
}

func (a *stubAdapter) Modify(ctx context.Context, cred Credential, ref reference.ProviderReference, addedLanguages []string) error {
	return nil
}

func (a *stubAdapter) Ingest(payload models.NotificationPayload) (*models.DomainEvent, error) {
	return nil, nil
}

func TestCredentialCacheReusesLiveCredential(t *testing.T) {
	cache := NewCredentialCache()
	a := &stubAdapter{id: "p1", ttl: time.Hour}
	ctx := context.Background()

	first, err := cache.Get(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.Get(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if a.authCalls != 1 {
		t.Errorf("authenticate calls = %d, want 1", a.authCalls)
	}
	if first.Token != second.Token {
		t.Error("cached credential was not reused")
	}
}

func TestCredentialCacheRefreshesExpired(t *testing.T) {
	cache := NewCredentialCache()
	a := &stubAdapter{id: "p1", ttl: -time.Minute}
	ctx := context.Background()

	if _, err := cache.Get(ctx, a); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get(ctx, a); err != nil {
		t.Fatal(err)
	}
	if a.authCalls != 2 {
		t.Errorf("authenticate calls = %d, want 2 (expired credential must refresh)", a.authCalls)
	}
}

func TestCredentialCacheRefreshesOnLivenessFailure(t *testing.T) {
	cache := NewCredentialCache()
	a := &stubAdapter{id: "p1", ttl: time.Hour}
	ctx := context.Background()

	if _, err := cache.Get(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.liveness = errors.New("session revoked")
	if _, err := cache.Get(ctx, a); err != nil {
		t.Fatal(err)
	}
	if a.authCalls != 2 {
		t.Errorf("authenticate calls = %d, want 2 (dead session must refresh)", a.authCalls)
	}
}

func TestCredentialCacheInvalidate(t *testing.T) {
	cache := NewCredentialCache()
	a := &stubAdapter{id: "p1", ttl: time.Hour}
	ctx := context.Background()

	if _, err := cache.Get(ctx, a); err != nil {
		t.Fatal(err)
	}
	cache.Invalidate("p1")
	if _, err := cache.Get(ctx, a); err != nil {
		t.Fatal(err)
	}
	if a.authCalls != 2 {
		t.Errorf("authenticate calls = %d, want 2 after invalidation", a.authCalls)
	}
}

func TestCredentialCacheAuthFailure(t *testing.T) {
	cache := NewCredentialCache()
	a := &stubAdapter{id: "p1", authErr: &trerr.ConnectionError{Op: "login", Err: errors.New("refused")}}

	_, err := cache.Get(context.Background(), a)
	if !trerr.IsConnection(err) {
		t.Errorf("auth failure = %v, want connection error", err)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubAdapter{id: "poetry"})
	reg.Register(&stubAdapter{id: "epoetry"})

	if _, ok := reg.Get("poetry"); !ok {
		t.Error("registered adapter not found")
	}
	if _, ok := reg.Get("nope"); ok {
		t.Error("unknown adapter found")
	}

	ids := reg.IDs()
	if len(ids) != 2 || ids[0] != "epoetry" || ids[1] != "poetry" {
		t.Errorf("IDs() = %v, want sorted [epoetry poetry]", ids)
	}
}

func TestMapNativeEvent(t *testing.T) {
	vocab := map[string]models.EventType{"DELIVERED": models.EventDelivered}

	ev, err := MapNativeEvent("poetry", "DELIVERED", vocab)
	if err != nil || ev != models.EventDelivered {
		t.Errorf("mapped = %v %v", ev, err)
	}

	_, err = MapNativeEvent("poetry", "EXPLODED", vocab)
	if !trerr.IsProtocol(err) {
		t.Errorf("unmapped event = %v, want protocol error", err)
	}
}

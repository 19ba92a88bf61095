package provider

import (
	"context"
	"sort"
	"sync"
	"time"

	"content_trans_api/models/models"
	"content_trans_api/pkg/reference"
	"content_trans_api/pkg/trerr"

	"golang.org/x/sync/singleflight"
)

// Credential is a bearer credential obtained from a provider.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

func (c Credential) Expired() bool {
	return c.Token == "" || !c.ExpiresAt.After(time.Now())
}

// Adapter is the provider-agnostic contract every concrete provider
// (legacy SOAP, successor SOAP, REST) implements. The synchronization
// engine depends only on this interface.
type Adapter interface {
	ID() string

	// Authenticate obtains a fresh bearer credential. Failure is a
	// ConnectionError, fatal to the calling operation; the caller
	// decides about retrying.
	Authenticate(ctx context.Context) (Credential, error)

	// CheckConnection is the liveness probe for a cached credential.
	CheckConnection(ctx context.Context, cred Credential) error

	// Submit creates a new dossier. The returned reference is recorded
	// once and never changes for the lifetime of the request.
	Submit(ctx context.Context, cred Credential, req *models.TranslationRequest) (reference.ProviderReference, error)

	// Modify adds languages to an already-accepted, still-active
	// dossier. The adapter rejects the call when the provider's own
	// status is not its "accepted" sub-state rather than letting the
	// provider API return an ambiguous error.
	Modify(ctx context.Context, cred Credential, ref reference.ProviderReference, addedLanguages []string) error

	// Ingest normalizes one inbound notification into a domain event.
	// An unresolvable reference yields a NotFoundError value, never a
	// panic; unknown native events yield a ProtocolError.
	Ingest(payload models.NotificationPayload) (*models.DomainEvent, error)
}

// Poller is implemented by pull-mode adapters whose providers do not push
// callbacks.
type Poller interface {
	Poll(ctx context.Context, cred Credential, ref reference.ProviderReference) ([]models.NotificationPayload, error)
}

// CredentialCache holds one cached credential per provider and guards
// refreshes with singleflight, so concurrent operations never trigger
// parallel refreshes against the same provider.
type CredentialCache struct {
	mu    sync.RWMutex
	creds map[string]Credential
	group singleflight.Group
}

func NewCredentialCache() *CredentialCache {
	return &CredentialCache{creds: make(map[string]Credential)}
}

// Get returns a live credential for the adapter, refreshing only when the
// cached one is expired or rejected by the liveness check.
func (c *CredentialCache) Get(ctx context.Context, a Adapter) (Credential, error) {
	c.mu.RLock()
	cred, ok := c.creds[a.ID()]
	c.mu.RUnlock()

	if ok && !cred.Expired() {
		if err := a.CheckConnection(ctx, cred); err == nil {
			return cred, nil
		}
	}

	v, err, _ := c.group.Do(a.ID(), func() (interface{}, error) {
		// Another caller may have refreshed while we waited.
		c.mu.RLock()
		cur := c.creds[a.ID()]
		c.mu.RUnlock()
		if !cur.Expired() && cur.Token != cred.Token {
			return cur, nil
		}

		fresh, err := a.Authenticate(ctx)
		if err != nil {
			return Credential{}, err
		}
		c.mu.Lock()
		c.creds[a.ID()] = fresh
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return Credential{}, err
	}
	return v.(Credential), nil
}

// Invalidate drops a cached credential, forcing the next Get to refresh.
func (c *CredentialCache) Invalidate(providerID string) {
	c.mu.Lock()
	delete(c.creds, providerID)
	c.mu.Unlock()
}

// Registry of configured adapters, keyed by provider ID.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.ID()] = a
}

func (r *Registry) Get(id string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	return a, ok
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MapNativeEvent translates a provider-native event name through an
// adapter's vocabulary. Unmapped events become a ProtocolError, never a
// silent coercion.
func MapNativeEvent(providerID, native string, vocab map[string]models.EventType) (models.EventType, error) {
	ev, ok := vocab[native]
	if !ok {
		return "", &trerr.ProtocolError{Provider: providerID, Event: native}
	}
	return ev, nil
}

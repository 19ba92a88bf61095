package reference

import (
	"fmt"
	"sync"

	"content_trans_api/models/tables"
	"content_trans_api/pkg/trerr"

	"xorm.io/xorm"
)

// Registry maps internal request IDs to provider references and back.
// A mapping is one-to-one and immutable once written.
type Registry interface {
	Register(requestID string, ref ProviderReference) error
	Resolve(ref ProviderReference) (string, error)
	// LegacyCarryOver returns the reference string migrated from the
	// predecessor system, when one exists. Additive outbound metadata
	// only; it never participates in status resolution.
	LegacyCarryOver(requestID string) (string, bool, error)
	SetLegacyReference(requestID, legacy string) error
}

// MemoryRegistry is used by tests and the dev mode.
type MemoryRegistry struct {
	mu       sync.RWMutex
	byRef    map[string]string
	byReq    map[string]ProviderReference
	legacies map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byRef:    make(map[string]string),
		byReq:    make(map[string]ProviderReference),
		legacies: make(map[string]string),
	}
}

func (m *MemoryRegistry) Register(requestID string, ref ProviderReference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byReq[requestID]; ok {
		return fmt.Errorf("request %s already has a provider reference", requestID)
	}
	key := ref.ToReference()
	if _, ok := m.byRef[key]; ok {
		return fmt.Errorf("reference %s already registered", key)
	}
	m.byReq[requestID] = ref
	m.byRef[key] = requestID
	return nil
}

func (m *MemoryRegistry) Resolve(ref ProviderReference) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byRef[ref.ToReference()]
	if !ok {
		return "", &trerr.NotFoundError{Reference: ref.ToReference()}
	}
	return id, nil
}

func (m *MemoryRegistry) LegacyCarryOver(requestID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	legacy, ok := m.legacies[requestID]
	return legacy, ok && legacy != "", nil
}

func (m *MemoryRegistry) SetLegacyReference(requestID, legacy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legacies[requestID] = legacy
	return nil
}

// XormRegistry persists mappings in the provider_references table.
type XormRegistry struct {
	Engine *xorm.Engine
}

func NewXormRegistry(engine *xorm.Engine) *XormRegistry {
	return &XormRegistry{Engine: engine}
}

func (x *XormRegistry) Register(requestID string, ref ProviderReference) error {
	existing := &tables.ProviderReferences{}
	has, err := x.Engine.ID(requestID).Get(existing)
	if err != nil {
		return err
	}
	if has && existing.Reference != "" {
		return fmt.Errorf("request %s already has a provider reference", requestID)
	}

	row := &tables.ProviderReferences{
		RequestId:     requestID,
		Reference:     ref.ToReference(),
		RequesterCode: ref.RequesterCode,
		Year:          ref.Year,
		Number:        ref.Number,
		Version:       ref.Version,
		Part:          ref.Part,
		ServiceType:   ref.ServiceType,
	}
	if has {
		// Row pre-created by a legacy reference carry-over.
		row.LegacyReference = existing.LegacyReference
		_, err = x.Engine.ID(requestID).AllCols().Update(row)
		return err
	}
	_, err = x.Engine.Insert(row)
	return err
}

func (x *XormRegistry) Resolve(ref ProviderReference) (string, error) {
	row := &tables.ProviderReferences{}
	has, err := x.Engine.Where("reference = ?", ref.ToReference()).Get(row)
	if err != nil {
		return "", err
	}
	if !has {
		return "", &trerr.NotFoundError{Reference: ref.ToReference()}
	}
	return row.RequestId, nil
}

func (x *XormRegistry) LegacyCarryOver(requestID string) (string, bool, error) {
	row := &tables.ProviderReferences{}
	has, err := x.Engine.ID(requestID).Get(row)
	if err != nil {
		return "", false, err
	}
	if !has || row.LegacyReference == "" {
		return "", false, nil
	}
	return row.LegacyReference, true, nil
}

func (x *XormRegistry) SetLegacyReference(requestID, legacy string) error {
	row := &tables.ProviderReferences{}
	has, err := x.Engine.ID(requestID).Get(row)
	if err != nil {
		return err
	}
	if !has {
		_, err = x.Engine.Insert(&tables.ProviderReferences{
			RequestId:       requestID,
			LegacyReference: legacy,
		})
		return err
	}
	_, err = x.Engine.ID(requestID).Cols("legacy_reference").
		Update(&tables.ProviderReferences{LegacyReference: legacy})
	return err
}

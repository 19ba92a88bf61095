package extract

// Bridges the external content store and the translatable document model.
// Field semantics come from the injected policy; nothing here hardcodes
// what a particular entity type looks like.

import (
	"fmt"
	"log/slog"
	"strconv"

	"content_trans_api/models/models"
	"content_trans_api/pkg/document"
)

// Property is one named text value on a field item. Format is the text
// format attached as leaf metadata so downstream rendering survives the
// round trip.
type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Format    string `json:"format,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
}

// FieldItem is one delta of a multi-value field.
type FieldItem struct {
	Properties []Property `json:"properties"`
}

// Field is one field on an entity revision, items in delta order.
type Field struct {
	Name               string      `json:"name"`
	Label              string      `json:"label"`
	Computed           bool        `json:"computed"`
	OptionsConstrained bool        `json:"options_constrained"`
	Items              []FieldItem `json:"items"`
}

// Entity is a content entity revision as served by the content store.
type Entity struct {
	Type       string  `json:"type"`
	ID         string  `json:"id"`
	RevisionID string  `json:"revision_id"`
	Fields     []Field `json:"fields"`
}

// ContentStore is the narrow interface onto the external content system
// that owns the source entities.
type ContentStore interface {
	GetRevision(entityType, id, revisionID string) (*Entity, error)
	// SaveTranslation writes a translated document as the target-language
	// revision. False means the revision could not be saved; the caller
	// must not advance language status to synchronised.
	SaveTranslation(entityType, id, revisionID, langcode string, doc *document.Document) bool
	LatestRevisionID(entityType, id string) (string, error)
}

// FieldPolicy decides per entity type which fields may be translated.
// Supplied externally.
type FieldPolicy interface {
	IsTranslatable(entityType, fieldName string) bool
}

type Engine struct {
	Store  ContentStore
	Policy FieldPolicy
}

func NewEngine(store ContentStore, policy FieldPolicy) *Engine {
	return &Engine{Store: store, Policy: policy}
}

// Extract walks an entity revision into a translatable document. A field
// is translatable unless explicitly excluded: options-constrained fields,
// computed fields, or fields the policy rules out. Excluded fields still
// appear as leaves, flagged non-translatable, so the merge guard can catch
// providers echoing them back.
func (e *Engine) Extract(ref models.EntityRef) (*document.Document, error) {
	entity, err := e.Store.GetRevision(ref.EntityType, ref.EntityID, ref.RevisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load revision %s of %s/%s: %w",
			ref.RevisionID, ref.EntityType, ref.EntityID, err)
	}

	doc := document.New()
	for _, field := range entity.Fields {
		translatable := !field.Computed && !field.OptionsConstrained &&
			e.Policy.IsTranslatable(entity.Type, field.Name)

		for delta, item := range field.Items {
			for _, prop := range item.Properties {
				path := field.Name + document.Separator +
					strconv.Itoa(delta) + document.Separator + prop.Name
				leaf := document.Leaf{
					Label:        field.Label,
					Text:         prop.Value,
					Translatable: translatable,
					Format:       prop.Format,
					MaxLength:    prop.MaxLength,
				}
				if err := doc.AddLeaf(path, leaf); err != nil {
					return nil, err
				}
			}
		}
	}
	return doc, nil
}

// Reinsert writes each leaf's translation into the corresponding
// target-language field values. Failure is reported, not thrown.
func (e *Engine) Reinsert(doc *document.Document, ref models.EntityRef, targetLang string) bool {
	ok := e.Store.SaveTranslation(ref.EntityType, ref.EntityID, ref.RevisionID, targetLang, doc)
	if !ok {
		slog.Error("reinsertion failed, language must stay unsynchronised",
			"entity_type", ref.EntityType, "entity_id", ref.EntityID,
			"revision_id", ref.RevisionID, "langcode", targetLang)
	}
	return ok
}

// PolicyFunc adapts a plain function to FieldPolicy.
type PolicyFunc func(entityType, fieldName string) bool

func (f PolicyFunc) IsTranslatable(entityType, fieldName string) bool {
	return f(entityType, fieldName)
}

// ExcludeListPolicy is the config-driven default policy: everything is
// translatable except the listed fields per entity type.
type ExcludeListPolicy struct {
	Excluded map[string][]string
}

func (p *ExcludeListPolicy) IsTranslatable(entityType, fieldName string) bool {
	for _, name := range p.Excluded[entityType] {
		if name == fieldName {
			return false
		}
	}
	return true
}

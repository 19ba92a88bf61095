package extract

import (
	"errors"
	"testing"

	"content_trans_api/models/models"
	"content_trans_api/pkg/document"
)

// fakeStore serves one canned entity and records SaveTranslation calls.
type fakeStore struct {
	entity   *Entity
	latest   string
	saveOK   bool
	saved    []string
	savedDoc *document.Document
}

func (s *fakeStore) GetRevision(entityType, id, revisionID string) (*Entity, error) {
	if s.entity == nil || revisionID != s.entity.RevisionID {
		return nil, errors.New("revision not found")
	}
	return s.entity, nil
}

func (s *fakeStore) SaveTranslation(entityType, id, revisionID, langcode string, doc *document.Document) bool {
	s.saved = append(s.saved, langcode)
	s.savedDoc = doc
	return s.saveOK
}

func (s *fakeStore) LatestRevisionID(entityType, id string) (string, error) {
	return s.latest, nil
}

func testEntity() *Entity {
	return &Entity{
		Type:       "article",
		ID:         "42",
		RevisionID: "7",
		Fields: []Field{
			{
				Name:  "title",
				Label: "Title",
				Items: []FieldItem{
					{Properties: []Property{{Name: "value", Value: "Hello", MaxLength: 64}}},
				},
			},
			{
				Name:  "body",
				Label: "Body",
				Items: []FieldItem{
					{Properties: []Property{{Name: "value", Value: "First", Format: "html"}}},
					{Properties: []Property{{Name: "value", Value: "Second", Format: "html"}}},
				},
			},
			{
				Name:     "changed",
				Label:    "Changed",
				Computed: true,
				Items: []FieldItem{
					{Properties: []Property{{Name: "value", Value: "123456"}}},
				},
			},
			{
				Name:               "category",
				Label:              "Category",
				OptionsConstrained: true,
				Items: []FieldItem{
					{Properties: []Property{{Name: "value", Value: "news"}}},
				},
			},
			{
				Name:  "internal_code",
				Label: "Code",
				Items: []FieldItem{
					{Properties: []Property{{Name: "value", Value: "X-1"}}},
				},
			},
		},
	}
}

func testRef() models.EntityRef {
	return models.EntityRef{EntityType: "article", EntityID: "42", RevisionID: "7"}
}

func TestExtractFlagsTranslatability(t *testing.T) {
	store := &fakeStore{entity: testEntity()}
	policy := &ExcludeListPolicy{Excluded: map[string][]string{
		"article": {"internal_code"},
	}}
	eng := NewEngine(store, policy)

	doc, err := eng.Extract(testRef())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	tests := []struct {
		path         string
		translatable bool
	}{
		{"title|0|value", true},
		{"body|0|value", true},
		{"body|1|value", true},
		{"changed|0|value", false},       // computed
		{"category|0|value", false},      // options constrained
		{"internal_code|0|value", false}, // excluded by policy
	}
	for _, tt := range tests {
		leaf, ok := doc.GetLeaf(tt.path)
		if !ok {
			t.Errorf("leaf %s missing", tt.path)
			continue
		}
		if leaf.Translatable != tt.translatable {
			t.Errorf("leaf %s translatable = %v, want %v", tt.path, leaf.Translatable, tt.translatable)
		}
	}

	title, _ := doc.GetLeaf("title|0|value")
	if title.Label != "Title" || title.MaxLength != 64 {
		t.Errorf("title metadata not carried: %+v", title)
	}
	body, _ := doc.GetLeaf("body|1|value")
	if body.Format != "html" || body.Text != "Second" {
		t.Errorf("second delta not carried: %+v", body)
	}
}

func TestExtractUnknownRevision(t *testing.T) {
	store := &fakeStore{entity: testEntity()}
	eng := NewEngine(store, PolicyFunc(func(string, string) bool { return true }))

	ref := testRef()
	ref.RevisionID = "8"
	if _, err := eng.Extract(ref); err == nil {
		t.Error("Extract with unknown revision succeeded")
	}
}

func TestReinsert(t *testing.T) {
	store := &fakeStore{entity: testEntity(), saveOK: true}
	eng := NewEngine(store, PolicyFunc(func(string, string) bool { return true }))

	doc, err := eng.Extract(testRef())
	if err != nil {
		t.Fatal(err)
	}
	if !eng.Reinsert(doc, testRef(), "fr") {
		t.Fatal("Reinsert reported failure")
	}
	if len(store.saved) != 1 || store.saved[0] != "fr" {
		t.Errorf("SaveTranslation calls = %v", store.saved)
	}
	if store.savedDoc != doc {
		t.Error("Reinsert saved a different document")
	}

	store.saveOK = false
	if eng.Reinsert(doc, testRef(), "de") {
		t.Error("Reinsert reported success when the store refused the save")
	}
}

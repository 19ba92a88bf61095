package document

import (
	"encoding/json"
	"reflect"
	"testing"
)

func buildDoc(t *testing.T) *Document {
	t.Helper()
	doc := New()
	leaves := []struct {
		path string
		leaf Leaf
	}{
		{"title|0|value", Leaf{Label: "Title", Text: "Hello <b>world</b>", Translatable: true}},
		{"body|0|value", Leaf{Label: "Body", Text: "Some   body text", Translatable: true, Format: "html"}},
		{"internal_code|0|value", Leaf{Label: "Code", Text: "X-42", Translatable: false}},
		{"tags|1|value", Leaf{Label: "Tag", Text: "news", Translatable: true, MaxLength: 32}},
	}
	for _, l := range leaves {
		if err := doc.AddLeaf(l.path, l.leaf); err != nil {
			t.Fatalf("AddLeaf(%s): %v", l.path, err)
		}
	}
	return doc
}

func TestFlattenPreservesInsertionOrder(t *testing.T) {
	doc := buildDoc(t)
	got := doc.Flatten("")
	want := []string{"title|0|value", "body|0|value", "internal_code|0|value", "tags|1|value"}

	if len(got) != len(want) {
		t.Fatalf("Flatten returned %d leaves, want %d", len(got), len(want))
	}
	for i, pl := range got {
		if pl.Path != want[i] {
			t.Errorf("leaf %d: path = %s, want %s", i, pl.Path, want[i])
		}
	}
}

func TestAddLeafRejectsBadPaths(t *testing.T) {
	doc := New()
	if err := doc.AddLeaf("", Leaf{}); err == nil {
		t.Error("expected error for empty path")
	}
	if err := doc.AddLeaf("a||b", Leaf{}); err == nil {
		t.Error("expected error for empty path component")
	}

	if err := doc.AddLeaf("a", Leaf{Text: "x", Translatable: true}); err != nil {
		t.Fatalf("AddLeaf(a): %v", err)
	}
	if err := doc.AddLeaf("a|b", Leaf{Text: "y"}); err == nil {
		t.Error("expected error for a path passing through a leaf")
	}
}

func TestFilterTranslatable(t *testing.T) {
	doc := buildDoc(t)
	filtered := doc.FilterTranslatable()

	for _, pl := range filtered.Flatten("") {
		if !pl.Leaf.Translatable {
			t.Errorf("non-translatable leaf %s leaked through filter", pl.Path)
		}
	}
	if _, ok := filtered.GetLeaf("internal_code|0|value"); ok {
		t.Error("excluded leaf still present in filtered document")
	}
	if len(filtered.Flatten("")) != 3 {
		t.Errorf("filtered leaf count = %d, want 3", len(filtered.Flatten("")))
	}
}

func TestMergeGuardsNonTranslatable(t *testing.T) {
	doc := buildDoc(t)
	doc.Merge([]PathLeaf{
		{Path: "title|0|value", Leaf: Leaf{Text: "Bonjour <b>monde</b>"}},
		{Path: "internal_code|0|value", Leaf: Leaf{Text: "SHOULD-NOT-LAND"}},
		{Path: "missing|path", Leaf: Leaf{Text: "dropped"}},
	})

	title, _ := doc.GetLeaf("title|0|value")
	if title.Translation != "Bonjour <b>monde</b>" {
		t.Errorf("title translation = %q", title.Translation)
	}
	code, _ := doc.GetLeaf("internal_code|0|value")
	if code.Translation != "" {
		t.Errorf("non-translatable leaf was overwritten: %q", code.Translation)
	}
}

func TestMergeDropsPathThroughLeaf(t *testing.T) {
	doc := buildDoc(t)
	// A provider may echo back a path deeper than anything we sent. It must
	// be dropped like any other unknown path, not treated as a child of the
	// leaf it runs through.
	doc.Merge([]PathLeaf{
		{Path: "title|0|value|extra", Leaf: Leaf{Text: "dropped"}},
	})

	title, _ := doc.GetLeaf("title|0|value")
	if title.Translation != "" {
		t.Errorf("leaf on the path was overwritten: %q", title.Translation)
	}
	if _, ok := doc.GetLeaf("title|0|value|extra"); ok {
		t.Error("phantom leaf appeared below an existing leaf")
	}
}

func TestCharacterCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"plain", "hello", 5},
		{"markup stripped", "Hello <b>world</b>", 11},
		{"whitespace collapsed", "a   b\n\tc", 5},
		{"unicode runes", "héllo", 5},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New()
			if err := doc.AddLeaf("f|0|v", Leaf{Text: tt.text, Translatable: true}); err != nil {
				t.Fatal(err)
			}
			if got := doc.CharacterCount(); got != tt.want {
				t.Errorf("CharacterCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCharacterCountSkipsNonTranslatable(t *testing.T) {
	doc := buildDoc(t)
	// "Hello world" (11) + "Some body text" (14) + "news" (4)
	if got := doc.CharacterCount(); got != 29 {
		t.Errorf("CharacterCount() = %d, want 29", got)
	}
}

func TestPageCount(t *testing.T) {
	doc := New()
	_ = doc.AddLeaf("f|0|v", Leaf{Text: "aaaaaaaaaa", Translatable: true}) // 10 chars

	tests := []struct {
		name       string
		pageSize   int
		multiplier float64
		want       float64
	}{
		{"exact page", 10, 1.0, 1.0},
		{"rounds up", 7, 1.0, 2.0},
		{"multiplier applied", 10, 1.5, 1.5},
		{"zero page size", 0, 1.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := doc.PageCount(tt.pageSize, tt.multiplier); got != tt.want {
				t.Errorf("PageCount(%d, %v) = %v, want %v", tt.pageSize, tt.multiplier, got, tt.want)
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	doc := buildDoc(t)
	doc.Merge([]PathLeaf{{Path: "title|0|value", Leaf: Leaf{Text: "Hallo"}}})

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded := New()
	if err := json.Unmarshal(raw, decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(doc.Flatten(""), decoded.Flatten("")) {
		t.Errorf("round trip changed content:\n before %+v\n after  %+v",
			doc.Flatten(""), decoded.Flatten(""))
	}
}

package pretranslate

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"content_trans_api/pkg/document"
)

func TestFill(t *testing.T) {
	doc := document.New()
	mustAdd := func(path string, leaf document.Leaf) {
		t.Helper()
		if err := doc.AddLeaf(path, leaf); err != nil {
			t.Fatal(err)
		}
	}
	mustAdd("title|0|value", document.Leaf{Text: "Hello", Translatable: true})
	mustAdd("body|0|value", document.Leaf{Text: "World", Translatable: true, Translation: "Monde"})
	mustAdd("code|0|value", document.Leaf{Text: "X-1", Translatable: false})
	mustAdd("teaser|0|value", document.Leaf{Text: "fail-me", Translatable: true})

	svc := New(func(from, to, text string) (string, error) {
		if text == "fail-me" {
			return "", errors.New("quota exceeded")
		}
		return "[" + to + "] " + text, nil
	})

	filled := svc.Fill(doc, "en", "fr")
	if filled != 1 {
		t.Errorf("Fill = %d, want 1", filled)
	}

	title, _ := doc.GetLeaf("title|0|value")
	if title.Translation != "[fr] Hello" {
		t.Errorf("title translation = %q", title.Translation)
	}
	body, _ := doc.GetLeaf("body|0|value")
	if body.Translation != "Monde" {
		t.Errorf("existing translation was overwritten: %q", body.Translation)
	}
	code, _ := doc.GetLeaf("code|0|value")
	if code.Translation != "" {
		t.Errorf("non-translatable leaf was filled: %q", code.Translation)
	}
	teaser, _ := doc.GetLeaf("teaser|0|value")
	if teaser.Translation != "" {
		t.Errorf("failed leaf ended up filled: %q", teaser.Translation)
	}
}

func TestFillRestoresVariables(t *testing.T) {
	svc := New(func(from, to, text string) (string, error) {
		// Simulate the MT system mangling the placeholder.
		return strings.Replace(text, "{name}", "{NAME}", 1), nil
	})

	doc := document.New()
	if err := doc.AddLeaf("greeting|0|value", document.Leaf{
		Text:         "Hello {name}, welcome",
		Translatable: true,
	}); err != nil {
		t.Fatal(err)
	}

	if filled := svc.Fill(doc, "en", "de"); filled != 1 {
		t.Fatalf("Fill = %d, want 1", filled)
	}
	leaf, _ := doc.GetLeaf("greeting|0|value")
	if !strings.Contains(leaf.Translation, "{name}") {
		t.Errorf("placeholder not restored: %q", leaf.Translation)
	}
}

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"braces", "Hello {name}", []string{"{name}"}},
		{"interpolation", "Total #{count} items", []string{"{count}"}},
		{"brackets", "see [link] here", []string{"[link]"}},
		{"tags", "a <b>bold</b> word", []string{"<b>", "</b>"}},
		{"none", "plain text", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractVariables(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractVariables(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

package document

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/iancoleman/orderedmap"
)

// Separator joins structural path components (field|delta|property). It is
// stable so a flattened path can always be split back into its components.
const Separator = "|"

// Leaf is one translatable unit of text inside a document.
type Leaf struct {
	Label        string `json:"label"`
	Text         string `json:"text"`
	Translatable bool   `json:"translatable"`
	MaxLength    int    `json:"max_length,omitempty"`
	Format       string `json:"format,omitempty"`
	Translation  string `json:"translation,omitempty"`
}

// node is either a leaf or an ordered set of children, never both.
type node struct {
	leaf     *Leaf
	children *orderedmap.OrderedMap // key -> *node
}

func newNode() *node {
	return &node{children: orderedmap.New()}
}

// Document is a provider-neutral, order-preserving tree keyed by the
// structural path of the source entity. Child insertion order is kept for
// stable output; it carries no semantic meaning.
type Document struct {
	root *node
}

func New() *Document {
	return &Document{root: newNode()}
}

// PathLeaf pairs a flattened structural path with its leaf.
type PathLeaf struct {
	Path string `json:"path"`
	Leaf Leaf   `json:"leaf"`
}

// AddLeaf inserts a leaf at the given path, creating intermediate nodes as
// needed. Re-adding a path replaces the existing leaf.
func (d *Document) AddLeaf(path string, leaf Leaf) error {
	parts := strings.Split(path, Separator)
	if path == "" || len(parts) == 0 {
		return fmt.Errorf("empty document path")
	}

	cur := d.root
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("empty path component in %q", path)
		}
		if i == len(parts)-1 {
			l := leaf
			cur.children.Set(part, &node{leaf: &l})
			return nil
		}
		next, ok := cur.children.Get(part)
		if !ok {
			n := newNode()
			cur.children.Set(part, n)
			cur = n
			continue
		}
		n := next.(*node)
		if n.leaf != nil {
			return fmt.Errorf("path %q passes through a leaf", path)
		}
		cur = n
	}
	return nil
}

// GetLeaf returns the leaf stored at path, if any.
func (d *Document) GetLeaf(path string) (*Leaf, bool) {
	cur := d.root
	for _, part := range strings.Split(path, Separator) {
		if cur.children == nil {
			// Path extends through a leaf node; nothing stored below it.
			return nil, false
		}
		next, ok := cur.children.Get(part)
		if !ok {
			return nil, false
		}
		cur = next.(*node)
	}
	if cur.leaf == nil {
		return nil, false
	}
	return cur.leaf, true
}

// Flatten walks the tree in insertion order and returns (path, leaf) pairs.
// An optional prefix is prepended to every path. Both the UI and provider
// serializers consume this form.
func (d *Document) Flatten(prefix string) []PathLeaf {
	var out []PathLeaf
	flattenNode(d.root, prefix, &out)
	return out
}

func flattenNode(n *node, prefix string, out *[]PathLeaf) {
	if n.leaf != nil {
		*out = append(*out, PathLeaf{Path: prefix, Leaf: *n.leaf})
		return
	}
	for _, key := range n.children.Keys() {
		child, _ := n.children.Get(key)
		path := key
		if prefix != "" {
			path = prefix + Separator + key
		}
		flattenNode(child.(*node), path, out)
	}
}

// FilterTranslatable returns a copy holding only leaves with
// translatable=true, so provider payloads never leak non-translatable
// content.
func (d *Document) FilterTranslatable() *Document {
	filtered := New()
	for _, pl := range d.Flatten("") {
		if !pl.Leaf.Translatable {
			continue
		}
		_ = filtered.AddLeaf(pl.Path, pl.Leaf)
	}
	return filtered
}

// Merge writes incoming translated text into matching leaves. Paths absent
// from the document are ignored. A leaf with translatable=false is never
// overwritten even if the provider returns text for it; the drop is logged,
// not fatal.
func (d *Document) Merge(translated []PathLeaf) {
	for _, in := range translated {
		leaf, ok := d.GetLeaf(in.Path)
		if !ok {
			slog.Warn("merge: no leaf at path, dropping", "path", in.Path)
			continue
		}
		if !leaf.Translatable {
			slog.Warn("merge: provider returned text for non-translatable leaf, dropping",
				"path", in.Path)
			continue
		}
		leaf.Translation = in.Leaf.Text
	}
}

var (
	markupRe     = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// StripMarkup removes tags and collapses whitespace runs to single spaces.
func StripMarkup(text string) string {
	text = markupRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CharacterCount is the billable volume basis: rune count of every
// translatable leaf's source text, markup stripped, whitespace collapsed.
func (d *Document) CharacterCount() int {
	total := 0
	for _, pl := range d.FilterTranslatable().Flatten("") {
		total += utf8.RuneCountInString(StripMarkup(pl.Leaf.Text))
	}
	return total
}

// PageCount converts the character count into billable pages. Page size and
// multiplier come from provider configuration.
func (d *Document) PageCount(pageSize int, multiplier float64) float64 {
	if pageSize <= 0 {
		return 0
	}
	pages := math.Ceil(float64(d.CharacterCount()) / float64(pageSize))
	return pages * multiplier
}

// JSON serialization: each node becomes either {"leaf": {...}} or
// {"children": {key: node, ...}} with child order preserved.

func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(encodeNode(d.root))
}

func encodeNode(n *node) *orderedmap.OrderedMap {
	out := orderedmap.New()
	if n.leaf != nil {
		out.Set("leaf", n.leaf)
		return out
	}
	children := orderedmap.New()
	for _, key := range n.children.Keys() {
		child, _ := n.children.Get(key)
		children.Set(key, encodeNode(child.(*node)))
	}
	out.Set("children", children)
	return out
}

func (d *Document) UnmarshalJSON(data []byte) error {
	raw := orderedmap.New()
	if err := json.Unmarshal(data, raw); err != nil {
		return err
	}
	root, err := decodeNode(*raw)
	if err != nil {
		return err
	}
	d.root = root
	return nil
}

func decodeNode(raw orderedmap.OrderedMap) (*node, error) {
	if rawLeaf, ok := raw.Get("leaf"); ok {
		leafMap, ok := rawLeaf.(orderedmap.OrderedMap)
		if !ok {
			return nil, fmt.Errorf("malformed leaf node")
		}
		leafBytes, err := json.Marshal(&leafMap)
		if err != nil {
			return nil, err
		}
		leaf := &Leaf{}
		if err := json.Unmarshal(leafBytes, leaf); err != nil {
			return nil, err
		}
		return &node{leaf: leaf}, nil
	}

	n := newNode()
	rawChildren, ok := raw.Get("children")
	if !ok {
		return n, nil
	}
	children, ok := rawChildren.(orderedmap.OrderedMap)
	if !ok {
		return nil, fmt.Errorf("malformed children node")
	}
	for _, key := range children.Keys() {
		rawChild, _ := children.Get(key)
		childMap, ok := rawChild.(orderedmap.OrderedMap)
		if !ok {
			return nil, fmt.Errorf("malformed child node at %q", key)
		}
		child, err := decodeNode(childMap)
		if err != nil {
			return nil, err
		}
		n.children.Set(key, child)
	}
	return n, nil
}

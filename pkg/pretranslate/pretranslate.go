package pretranslate

// Machine pretranslation fills draft suggestions into a language's
// document copy before the professional translation arrives. Suggestions
// only: filling never moves the language status.

import (
	"log"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"content_trans_api/pkg/document"
)

// TranslateFunc performs one machine translation call. Production wiring
// passes the Aliyun client; tests pass a fake.
type TranslateFunc func(from, to, text string) (string, error)

type Service struct {
	Translate TranslateFunc
}

func New(fn TranslateFunc) *Service {
	return &Service{Translate: fn}
}

// Fill writes a machine suggestion into every translatable leaf that has
// no translation yet. Per-leaf failures are logged and skipped so one bad
// string never voids the whole pass. Returns the number of leaves filled.
func (s *Service) Fill(doc *document.Document, from, to string) int {
	filled := 0
	for _, pl := range doc.Flatten("") {
		if !pl.Leaf.Translatable || pl.Leaf.Translation != "" {
			continue
		}
		translated, err := s.translateGuarded(from, to, pl.Leaf.Text)
		if err != nil {
			slog.Warn("pretranslation failed for leaf, skipping",
				"path", pl.Path, "error", err.Error())
			continue
		}
		leaf, ok := doc.GetLeaf(pl.Path)
		if !ok {
			continue
		}
		leaf.Translation = translated
		filled++
	}
	return filled
}

// translateGuarded protects placeholder variables across the MT round
// trip and retries once after a pause on failure, which usually means the
// per-second quota was hit.
func (s *Service) translateGuarded(from, to, text string) (string, error) {
	variablesPre := ExtractVariables(text)

	translated, err := s.Translate(from, to, text)
	if err != nil {
		time.Sleep(3 * time.Second)
		translated, err = s.Translate(from, to, text)
		if err != nil {
			return "", err
		}
	}

	if len(variablesPre) > 0 {
		variablesPost := ExtractVariables(translated)
		if len(variablesPost) == len(variablesPre) {
			for i, v := range variablesPost {
				translated = strings.Replace(translated, v, variablesPre[i], 1)
			}
		}
	}
	return translated, nil
}

var delimiters = [][]string{
	{"{", "}"},
	{"#{", "}"},
	{"[", "]"},
	{"<", ">"},
	{"<", "/>"},
}

func isOverlapping(start, end int, processed map[int]bool) bool {
	for i := start; i < end; i++ {
		if processed[i] {
			return true
		}
	}
	return false
}

// ExtractVariables finds placeholder-like substrings ({name}, <tag>, [x])
// that must survive machine translation verbatim.
func ExtractVariables(text string) []string {
	var variables []string
	processedIndexes := make(map[int]bool)

	for _, delimiter := range delimiters {
		r, err := regexp.Compile("(\\" + delimiter[0] + "+)(.+?)(\\" + delimiter[1] + "+)")
		if err != nil {
			log.Printf("Incorrect delimiters: %s %s", delimiter[0], delimiter[1])
			continue
		}

		indexes := r.FindAllStringIndex(text, -1)
		for _, loc := range indexes {
			if !isOverlapping(loc[0], loc[1], processedIndexes) {
				match := text[loc[0]:loc[1]]
				variables = append(variables, match)
				for i := loc[0]; i < loc[1]; i++ {
					processedIndexes[i] = true
				}
			}
		}
	}
	return variables
}

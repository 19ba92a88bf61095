package provider

import (
	"time"

	"content_trans_api/models/models"
	"content_trans_api/pkg/document"
)

// Job is the provider-neutral outbound shape handed to a transport. Only
// translatable leaves are included, so payloads never leak content the
// provider has no business seeing.
type Job struct {
	RequesterCode   string
	SourceLanguage  string
	TargetLanguages []string
	Deadline        *time.Time
	Message         string
	// LegacyReference carries the predecessor-system ID into the
	// provider's comment field so human reviewers can cross-reference
	// old records. Additive metadata only.
	LegacyReference string
	Leaves          []document.PathLeaf
	Characters      int
	Pages           float64
}

// BuildJob assembles the outbound payload for a request. pageSize and
// multiplier come from the provider's configuration.
func BuildJob(req *models.TranslationRequest, legacyRef string, pageSize int, multiplier float64) Job {
	langs := make([]string, 0, len(req.TargetLanguages))
	for _, ls := range req.TargetLanguages {
		langs = append(langs, ls.Langcode)
	}

	filtered := req.Document.FilterTranslatable()
	return Job{
		SourceLanguage:  req.SourceLanguage,
		TargetLanguages: langs,
		Deadline:        req.Deadline,
		Message:         req.Message,
		LegacyReference: legacyRef,
		Leaves:          filtered.Flatten(""),
		Characters:      filtered.CharacterCount(),
		Pages:           filtered.PageCount(pageSize, multiplier),
	}
}

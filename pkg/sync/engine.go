package sync

// The synchronization engine owns the request lifecycle end to end:
// creation guards, submission, inbound notification ingestion and the
// deferred reinsertion of delivered translations. All status movement
// funnels through pkg/state; all provider talk goes through the adapter
// interface.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"content_trans_api/models/models"
	"content_trans_api/pkg/document"
	"content_trans_api/pkg/extract"
	"content_trans_api/pkg/pretranslate"
	"content_trans_api/pkg/provider"
	"content_trans_api/pkg/reference"
	"content_trans_api/pkg/request"
	"content_trans_api/pkg/state"
	"content_trans_api/pkg/trerr"

	"github.com/google/uuid"
)

// Locker is the scoped lock around reinsertion into the content store,
// keyed by entity+language. The redis-backed implementation lives in
// pkg/rds.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string)
}

// NotifyFunc is called after a translation delivery has been recorded,
// e.g. to fan out operator webhooks. Best effort.
type NotifyFunc func(req *models.TranslationRequest, langcode string, ev models.EventType)

type Engine struct {
	Store       request.Store
	Logs        request.LogStore
	Refs        reference.Registry
	Providers   *provider.Registry
	Creds       *provider.CredentialCache
	Extractor   *extract.Engine
	Locks       *request.KeyedMutex
	EntityLocks Locker
	Notify      NotifyFunc

	// Optional machine-translation service for draft suggestions.
	Pretranslator *pretranslate.Service
}

// Ack is the outcome of processing one inbound notification. Ignored is
// set for absorbed conditions (unknown reference, unknown event) that the
// provider must not retry against.
type Ack struct {
	OK      bool   `json:"ok"`
	Ignored string `json:"ignored,omitempty"`
}

type CreateParams struct {
	Provider        string
	Entity          models.EntityRef
	SourceLanguage  string
	TargetLanguages []string
	AutoAccept      bool
	AutoSync        bool
	Deadline        *time.Time
	Message         string
	LegacyReference string
	Supersedes      string
}

func (e *Engine) log(requestID, level, message, detail string) {
	if e.Logs == nil {
		return
	}
	if err := e.Logs.Append(requestID, level, message, detail); err != nil {
		slog.Error("failed to append request log", "request", requestID, "error", err.Error())
	}
}

// CreateRequest builds a new draft from the source entity. A request may
// only be created from the latest revision, and only when no other
// request for the same content+revision is still open.
func (e *Engine) CreateRequest(params CreateParams) (*models.TranslationRequest, error) {
	if _, ok := e.Providers.Get(params.Provider); !ok {
		return nil, fmt.Errorf("unknown provider %q", params.Provider)
	}
	if len(params.TargetLanguages) == 0 {
		return nil, &trerr.ValidationError{Fields: []trerr.FieldError{
			{Field: "target_languages", Message: "at least one target language is required"},
		}}
	}
	for _, lang := range params.TargetLanguages {
		if lang == params.SourceLanguage {
			return nil, &trerr.ValidationError{Fields: []trerr.FieldError{
				{Field: "target_languages", Message: "target language equals source language: " + lang},
			}}
		}
	}

	latest, err := e.Extractor.Store.LatestRevisionID(params.Entity.EntityType, params.Entity.EntityID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve latest revision: %w", err)
	}
	if latest != params.Entity.RevisionID {
		return nil, &trerr.ConflictError{
			Reason: fmt.Sprintf("revision %s is not the latest (%s); requests may only be created from the latest revision",
				params.Entity.RevisionID, latest),
		}
	}

	open, err := e.Store.OpenRequestExists(params.Entity, "")
	if err != nil {
		return nil, err
	}
	if open {
		return nil, &trerr.ConflictError{
			Reason: "an open translation request already exists for this content revision",
		}
	}

	doc, err := e.Extractor.Extract(params.Entity)
	if err != nil {
		return nil, err
	}

	req := &models.TranslationRequest{
		ID:             uuid.New().String(),
		Provider:       params.Provider,
		Status:         models.RequestDraft,
		SourceLanguage: params.SourceLanguage,
		Entity:         params.Entity,
		Document:       doc,
		AutoAccept:     params.AutoAccept,
		AutoSync:       params.AutoSync,
		Deadline:       params.Deadline,
		Message:        params.Message,
		Supersedes:     params.Supersedes,
		CreatedAt:      time.Now().UTC(),
	}
	for _, lang := range params.TargetLanguages {
		req.TargetLanguages = append(req.TargetLanguages, &models.LanguageStatus{
			Langcode: lang,
			Status:   models.LangRequested,
		})
	}

	if err := e.Store.Insert(req); err != nil {
		return nil, err
	}
	if params.LegacyReference != "" {
		if err := e.Refs.SetLegacyReference(req.ID, params.LegacyReference); err != nil {
			slog.Error("failed to record legacy reference", "request", req.ID, "error", err.Error())
		}
	}
	e.log(req.ID, "info", "request created", "")
	return req, nil
}

// SubmitRequest sends a draft to its provider. The request goes Active
// only after the provider acknowledged; any failure parks it in Failed
// with the target-language list untouched. There is no automatic retry:
// providers charge for request volume, a human or scheduled job must
// resubmit explicitly.
func (e *Engine) SubmitRequest(ctx context.Context, id string) error {
	e.Locks.Lock(id)
	defer e.Locks.Unlock(id)

	req, err := e.Store.Get(id)
	if err != nil {
		return err
	}
	if req.Status != models.RequestDraft && req.Status != models.RequestFailed {
		return &trerr.ConflictError{
			Reason: fmt.Sprintf("request %s is %s, only drafts can be submitted", id, req.Status),
		}
	}
	if len(req.TargetLanguages) == 0 {
		return &trerr.ValidationError{Fields: []trerr.FieldError{
			{Field: "target_languages", Message: "request has no target languages"},
		}}
	}

	adapter, ok := e.Providers.Get(req.Provider)
	if !ok {
		return fmt.Errorf("unknown provider %q", req.Provider)
	}

	cred, err := e.Creds.Get(ctx, adapter)
	if err != nil {
		e.recordSubmitFailure(req, err)
		return err
	}

	ref, err := adapter.Submit(ctx, cred, req)
	if err != nil {
		e.recordSubmitFailure(req, err)
		return err
	}

	if err := e.Refs.Register(req.ID, ref); err != nil {
		// The dossier exists remotely but we could not record the
		// mapping; surface loudly rather than lose the correlation.
		e.log(req.ID, "error", "failed to register provider reference", ref.ToReference())
		return err
	}

	req.ProviderReference = ref.ToReference()
	state.SubmitSucceeded(req)
	if err := e.Store.Update(req); err != nil {
		return err
	}
	e.log(req.ID, "info", "request submitted", ref.ToReference())
	return nil
}

func (e *Engine) recordSubmitFailure(req *models.TranslationRequest, cause error) {
	state.SubmitFailed(req)
	detail := cause.Error()
	var ve *trerr.ValidationError
	if errors.As(cause, &ve) {
		if raw, err := json.Marshal(ve.Fields); err == nil {
			detail = string(raw)
		}
	}
	e.log(req.ID, "error", "submission failed", detail)
	if err := e.Store.Update(req); err != nil {
		slog.Error("failed to persist submission failure", "request", req.ID, "error", err.Error())
	}
}

// ModifyRequest adds target languages to an active request through the
// provider's modify call, then records them as Requested.
func (e *Engine) ModifyRequest(ctx context.Context, id string, addLanguages []string) error {
	e.Locks.Lock(id)
	defer e.Locks.Unlock(id)

	req, err := e.Store.Get(id)
	if err != nil {
		return err
	}
	if req.Status != models.RequestActive {
		return &trerr.ConflictError{
			Reason: fmt.Sprintf("request %s is %s, languages can only be added while active", id, req.Status),
		}
	}

	var added []string
	for _, lang := range addLanguages {
		if req.Language(lang) == nil {
			added = append(added, lang)
		}
	}
	if len(added) == 0 {
		return nil
	}

	adapter, ok := e.Providers.Get(req.Provider)
	if !ok {
		return fmt.Errorf("unknown provider %q", req.Provider)
	}
	ref, err := reference.Parse(req.ProviderReference)
	if err != nil {
		return fmt.Errorf("request %s carries malformed provider reference: %v", id, err)
	}

	cred, err := e.Creds.Get(ctx, adapter)
	if err != nil {
		return err
	}
	if err := adapter.Modify(ctx, cred, ref, added); err != nil {
		e.log(req.ID, "error", "language modification rejected", err.Error())
		return err
	}

	for _, lang := range added {
		req.TargetLanguages = append(req.TargetLanguages, &models.LanguageStatus{
			Langcode: lang,
			Status:   models.LangRequested,
		})
	}
	if err := e.Store.Update(req); err != nil {
		return err
	}
	e.log(req.ID, "info", "languages added", fmt.Sprintf("%v", added))
	return nil
}

// ReceiveNotification is the single entry point for inbound provider
// callbacks (pushed or polled). Unresolvable references and unknown
// events are absorbed: acknowledged, logged, never escalated, so the
// provider does not retry against a permanently-unresolvable reference.
func (e *Engine) ReceiveNotification(providerID string, payload models.NotificationPayload) (Ack, error) {
	adapter, ok := e.Providers.Get(providerID)
	if !ok {
		slog.Warn("notification for unknown provider, ignoring", "provider", providerID)
		return Ack{Ignored: "unknown provider"}, nil
	}

	ev, err := adapter.Ingest(payload)
	if err != nil {
		switch {
		case trerr.IsNotFound(err):
			slog.Info("notification for unknown reference, ignoring",
				"provider", providerID, "reference", payload.Reference)
			return Ack{Ignored: "not found"}, nil
		case trerr.IsProtocol(err):
			slog.Warn("unexpected provider event, dropping",
				"provider", providerID, "event", payload.Event, "reference", payload.Reference)
			return Ack{Ignored: "protocol error"}, nil
		default:
			return Ack{}, err
		}
	}

	if err := e.ApplyEvent(ev); err != nil {
		if trerr.IsNotFound(err) {
			return Ack{Ignored: "not found"}, nil
		}
		return Ack{}, err
	}
	return Ack{OK: true}, nil
}

// ApplyEvent applies one normalized domain event under the per-request
// lock. The status transition and any document merge are persisted in a
// single store update: both land or neither does. Transitions illegal
// from the current state are dropped silently; that is benign reordering,
// not an error.
func (e *Engine) ApplyEvent(ev *models.DomainEvent) error {
	e.Locks.Lock(ev.RequestID)
	defer e.Locks.Unlock(ev.RequestID)

	req, err := e.Store.Get(ev.RequestID)
	if err != nil {
		return err
	}

	if ev.Langcode == "" {
		if !state.ApplyRequestEvent(req, ev.Type) {
			e.log(req.ID, "warn", "request event dropped",
				fmt.Sprintf("event=%s native=%s status=%s", ev.Type, ev.NativeEvent, req.Status))
			return nil
		}
		return e.Store.Update(req)
	}

	ls := req.Language(ev.Langcode)
	if ls == nil {
		e.log(req.ID, "warn", "event for unknown target language dropped",
			fmt.Sprintf("langcode=%s event=%s", ev.Langcode, ev.Type))
		return nil
	}

	// Duplicate delivery for an already-synchronised language: accept and
	// re-merge idempotently, but never re-trigger reinsertion.
	if ev.Type == models.EventDelivered && ls.Status == models.LangSynchronised {
		e.mergeDelivery(req, ls, ev)
		return e.Store.Update(req)
	}

	if !state.ApplyLanguageEvent(req, ev.Langcode, ev.Type) {
		e.log(req.ID, "warn", "language event dropped",
			fmt.Sprintf("langcode=%s event=%s native=%s status=%s", ev.Langcode, ev.Type, ev.NativeEvent, ls.Status))
		return nil
	}

	if ev.Type == models.EventAccepted && ev.AcceptedDeadline != nil {
		ls.AcceptedDeadline = ev.AcceptedDeadline
	}

	delivered := ev.Type == models.EventDelivered
	if delivered {
		e.mergeDelivery(req, ls, ev)
		if req.AutoSync {
			// Translation goes live immediately; failure leaves the
			// language in Review for manual handling.
			if e.reinsertLocked(req, ls) {
				state.ApplyLanguageEvent(req, ls.Langcode, models.EventSynchronised)
			}
		} else if req.AutoAccept {
			state.ApplyLanguageEvent(req, ls.Langcode, models.EventAcceptLocal)
		}
	}

	state.MaybeSynchroniseRequest(req)

	if err := e.Store.Update(req); err != nil {
		return err
	}

	if delivered && e.Notify != nil {
		e.Notify(req, ls.Langcode, ev.Type)
	}
	return nil
}

// mergeDelivery merges the payload's translated leaves into the
// language's own copy of the document, so language X can never touch
// language Y's translations.
func (e *Engine) mergeDelivery(req *models.TranslationRequest, ls *models.LanguageStatus, ev *models.DomainEvent) {
	if ls.TranslatedDoc == nil {
		ls.TranslatedDoc = cloneDocument(req.Document)
	}
	if ls.TranslatedDoc == nil {
		slog.Error("delivery without a source document", "request", req.ID, "langcode", ls.Langcode)
		return
	}
	ls.TranslatedDoc.Merge(ev.TranslatedLeaves)
}

// reinsertLocked writes a delivered translation back into the content
// store under the scoped entity+language lock. Returns false when the
// content moved to a newer revision, the lock is busy or the save
// failed; the synchronization is then deferred, never forced.
func (e *Engine) reinsertLocked(req *models.TranslationRequest, ls *models.LanguageStatus) bool {
	if ls.TranslatedDoc == nil {
		return false
	}

	latest, err := e.Extractor.Store.LatestRevisionID(req.Entity.EntityType, req.Entity.EntityID)
	if err != nil {
		e.log(req.ID, "error", "reinsertion deferred, cannot resolve latest revision", err.Error())
		return false
	}
	if latest != req.Entity.RevisionID {
		e.log(req.ID, "warn", "reinsertion deferred, newer revision exists", latest)
		return false
	}

	ctx := context.Background()
	key := fmt.Sprintf("reinsert:%s:%s:%s", req.Entity.EntityType, req.Entity.EntityID, ls.Langcode)
	if e.EntityLocks != nil {
		ok, err := e.EntityLocks.Acquire(ctx, key, time.Minute)
		if err != nil || !ok {
			e.log(req.ID, "warn", "reinsertion deferred, entity is locked", key)
			return false
		}
		defer e.EntityLocks.Release(ctx, key)
	}

	if !e.Extractor.Reinsert(ls.TranslatedDoc, req.Entity, ls.Langcode) {
		e.log(req.ID, "error", "reinsertion failed", ls.Langcode)
		return false
	}
	return true
}

// SynchronizeLanguage makes an arrived translation live on explicit
// operator request. A conflict (newer revision of the content exists)
// leaves the language in Review rather than discarding the translation.
func (e *Engine) SynchronizeLanguage(ctx context.Context, id, langcode string) error {
	e.Locks.Lock(id)
	defer e.Locks.Unlock(id)

	req, err := e.Store.Get(id)
	if err != nil {
		return err
	}
	ls := req.Language(langcode)
	if ls == nil {
		return &trerr.NotFoundError{Reference: id + "/" + langcode}
	}

	switch ls.Status {
	case models.LangReview, models.LangAcceptedLocally, models.LangSynchronised:
		// Re-synchronising an already-synchronised language is an
		// explicit request, so reinsertion is allowed again.
	default:
		return &trerr.ConflictError{
			Reason: fmt.Sprintf("language %s is %s, nothing to synchronize", langcode, ls.Status),
		}
	}

	latest, err := e.Extractor.Store.LatestRevisionID(req.Entity.EntityType, req.Entity.EntityID)
	if err != nil {
		return err
	}
	if latest != req.Entity.RevisionID {
		e.log(req.ID, "warn", "synchronization conflict: newer revision exists", latest)
		return &trerr.ConflictError{
			Reason: fmt.Sprintf("content has moved to revision %s; resolve manually before synchronizing", latest),
		}
	}

	if !e.reinsertLocked(req, ls) {
		return &trerr.ConflictError{Reason: "reinsertion deferred or failed; language left in review"}
	}

	if ls.Status != models.LangSynchronised {
		state.ApplyLanguageEvent(req, langcode, models.EventSynchronised)
	}
	state.MaybeSynchroniseRequest(req)
	if err := e.Store.Update(req); err != nil {
		return err
	}
	e.log(req.ID, "info", "language synchronised", langcode)
	return nil
}

// PretranslateLanguage fills machine-translation suggestions into the
// language's document copy. Suggestions never change the language status;
// a later provider delivery overwrites them leaf by leaf.
func (e *Engine) PretranslateLanguage(id, langcode string) (int, error) {
	if e.Pretranslator == nil {
		return 0, errors.New("pretranslation is not configured")
	}

	e.Locks.Lock(id)
	defer e.Locks.Unlock(id)

	req, err := e.Store.Get(id)
	if err != nil {
		return 0, err
	}
	ls := req.Language(langcode)
	if ls == nil {
		return 0, &trerr.NotFoundError{Reference: id + "/" + langcode}
	}
	if state.IsTerminalLanguage(ls.Status) {
		return 0, &trerr.ConflictError{
			Reason: fmt.Sprintf("language %s is %s, nothing left to pretranslate", langcode, ls.Status),
		}
	}

	if ls.TranslatedDoc == nil {
		ls.TranslatedDoc = cloneDocument(req.Document)
	}
	if ls.TranslatedDoc == nil {
		return 0, errors.New("request has no document to pretranslate")
	}

	filled := e.Pretranslator.Fill(ls.TranslatedDoc, req.SourceLanguage, langcode)
	if filled == 0 {
		return 0, nil
	}
	if err := e.Store.Update(req); err != nil {
		return 0, err
	}
	e.log(req.ID, "info", "pretranslation suggestions filled",
		fmt.Sprintf("langcode=%s leaves=%d", langcode, filled))
	return filled, nil
}

// RenewRequest starts a fresh draft for the latest revision of the same
// content, back-referencing its predecessor. Only finished requests can
// be renewed; the usual creation guards apply.
func (e *Engine) RenewRequest(id string) (*models.TranslationRequest, error) {
	old, err := e.Store.Get(id)
	if err != nil {
		return nil, err
	}
	switch old.Status {
	case models.RequestFinished, models.RequestSynchronised, models.RequestFailed:
	default:
		return nil, &trerr.ConflictError{
			Reason: fmt.Sprintf("request %s is %s, only finished requests can be renewed", id, old.Status),
		}
	}

	latest, err := e.Extractor.Store.LatestRevisionID(old.Entity.EntityType, old.Entity.EntityID)
	if err != nil {
		return nil, err
	}

	langs := make([]string, 0, len(old.TargetLanguages))
	for _, ls := range old.TargetLanguages {
		langs = append(langs, ls.Langcode)
	}

	legacy, _, _ := e.Refs.LegacyCarryOver(old.ID)
	return e.CreateRequest(CreateParams{
		Provider: old.Provider,
		Entity: models.EntityRef{
			EntityType: old.Entity.EntityType,
			EntityID:   old.Entity.EntityID,
			RevisionID: latest,
		},
		SourceLanguage:  old.SourceLanguage,
		TargetLanguages: langs,
		AutoAccept:      old.AutoAccept,
		AutoSync:        old.AutoSync,
		Deadline:        old.Deadline,
		Message:         old.Message,
		LegacyReference: legacy,
		Supersedes:      old.ID,
	})
}

func cloneDocument(doc *document.Document) *document.Document {
	if doc == nil {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		slog.Error("failed to clone document", "error", err.Error())
		return nil
	}
	out := document.New()
	if err := json.Unmarshal(raw, out); err != nil {
		slog.Error("failed to clone document", "error", err.Error())
		return nil
	}
	return out
}

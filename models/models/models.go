package models

import (
	"time"

	"content_trans_api/pkg/document"
)

// Request lifecycle status. Provider adapters may track richer native
// sub-states but must map onto this closed set for cross-provider
// reporting.
type RequestStatus string

const (
	RequestDraft        RequestStatus = "draft"
	RequestActive       RequestStatus = "active"
	RequestFailed       RequestStatus = "failed"
	RequestFinished     RequestStatus = "finished"
	RequestSynchronised RequestStatus = "synchronised"
)

// Per-target-language status within a request.
type LanguageState string

const (
	LangRequested       LanguageState = "requested"
	LangAccepted        LanguageState = "accepted"
	LangOngoing         LanguageState = "ongoing"
	LangReady           LanguageState = "ready"
	LangSent            LanguageState = "sent"
	LangReview          LanguageState = "review"
	LangAcceptedLocally LanguageState = "accepted_locally"
	LangSynchronised    LanguageState = "synchronised"
	LangSuspended       LanguageState = "suspended"
	LangCancelled       LanguageState = "cancelled"
	LangRejected        LanguageState = "rejected"
	LangClosed          LanguageState = "closed"
)

// EventType is the normalized transition trigger vocabulary. Every
// provider-native event name maps onto one of these or is dropped as a
// protocol error.
type EventType string

const (
	// Per-language triggers.
	EventAccepted     EventType = "accepted"
	EventOngoing      EventType = "ongoing"
	EventReady        EventType = "ready"
	EventSent         EventType = "sent"
	EventDelivered    EventType = "delivered"
	EventAcceptLocal  EventType = "accept_local"
	EventSynchronised EventType = "synchronised"
	EventSuspended    EventType = "suspended"
	EventResumed      EventType = "resumed"
	EventCancelled    EventType = "cancelled"
	EventRejected     EventType = "rejected"
	EventClosed       EventType = "closed"

	// Request-level triggers.
	EventRequestAccepted  EventType = "request_accepted"
	EventRequestRejected  EventType = "request_rejected"
	EventRequestExecuted  EventType = "request_executed"
	EventRequestCancelled EventType = "request_cancelled"
)

// EntityRef is a revision-addressable pointer to the source content. The
// entity itself is owned by the external content store.
type EntityRef struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	RevisionID string `json:"revision_id"`
}

// LanguageStatus tracks one requested target language. TranslatedDoc is a
// per-language copy of the source document carrying that language's merged
// translations, so synchronizing one language can never alter another's.
type LanguageStatus struct {
	Langcode         string             `json:"langcode"`
	Status           LanguageState      `json:"status"`
	PriorStatus      LanguageState      `json:"prior_status,omitempty"`
	AcceptedDeadline *time.Time         `json:"accepted_deadline,omitempty"`
	TranslatedDoc    *document.Document `json:"translated_doc,omitempty"`
}

// TranslationRequest is the core aggregate. Status fields move only
// through the state machine; ProviderReference is immutable once set.
type TranslationRequest struct {
	ID              string            `json:"id"`
	Provider        string            `json:"provider"`
	Status          RequestStatus     `json:"status"`
	SourceLanguage  string            `json:"source_language"`
	TargetLanguages []*LanguageStatus `json:"target_languages"`

	ProviderReference string             `json:"provider_reference,omitempty"`
	Document          *document.Document `json:"document,omitempty"`
	Entity            EntityRef          `json:"entity"`

	AutoAccept bool `json:"auto_accept"`
	AutoSync   bool `json:"auto_sync"`

	Deadline  *time.Time `json:"deadline,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Message   string     `json:"message,omitempty"`

	// Supersedes is the predecessor request's ID when this request was
	// created as a new version of a finished one. Back-reference only.
	Supersedes string `json:"supersedes,omitempty"`
}

// Language returns the status entry for langcode, or nil.
func (r *TranslationRequest) Language(langcode string) *LanguageStatus {
	for _, ls := range r.TargetLanguages {
		if ls.Langcode == langcode {
			return ls
		}
	}
	return nil
}

// NotificationPayload is an inbound provider callback after transport
// decoding. The wire format itself is a collaborator concern.
type NotificationPayload struct {
	Reference        string              `json:"reference"`
	Event            string              `json:"event"`
	Langcode         string              `json:"langcode,omitempty"`
	AcceptedDeadline *time.Time          `json:"accepted_deadline,omitempty"`
	Message          string              `json:"message,omitempty"`
	TranslatedLeaves []document.PathLeaf `json:"translated_leaves,omitempty"`
}

// DomainEvent is the result of normalizing a provider notification:
// a transition trigger bound to an internal request.
type DomainEvent struct {
	RequestID        string
	Type             EventType
	Langcode         string
	NativeEvent      string
	AcceptedDeadline *time.Time
	Message          string
	TranslatedLeaves []document.PathLeaf
}

// Response is the uniform API envelope.
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

type WebhookConfigRequest struct {
	WebhookURL string `json:"webhook_url"`
}

package poetry

// Adapter for the legacy SOAP translation service. The service speaks a
// terse three-letter status vocabulary and assigns dossier references in
// the requester/year/number/version/part/type form. SOAP envelope
// construction lives behind the Transport boundary.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"content_trans_api/models/models"
	"content_trans_api/pkg/provider"
	"content_trans_api/pkg/reference"
	"content_trans_api/pkg/trerr"
)

const ProviderID = "poetry"

// Native dossier status meaning "accepted, work may be modified".
const statusAccepted = "ACP"

type Config struct {
	Endpoint         string
	Username         string
	Password         string
	RequesterCode    string
	ServiceType      string
	PageSize         int
	VolumeMultiplier float64
	Timeout          time.Duration
}

// Result is the decoded outcome of one SOAP call.
type Result struct {
	OK            bool
	Token         string
	ExpiresIn     int
	Reference     string
	DossierStatus string
	Message       string
	FieldErrors   []trerr.FieldError
}

// Transport performs one named operation against the legacy service.
// Envelope encoding/decoding is a collaborator concern.
type Transport interface {
	Call(ctx context.Context, cred provider.Credential, action string, body interface{}) (*Result, error)
}

type Adapter struct {
	cfg       Config
	transport Transport
	refs      reference.Registry
}

func New(cfg Config, transport Transport, refs reference.Registry) *Adapter {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ServiceType == "" {
		cfg.ServiceType = "TRA"
	}
	return &Adapter{cfg: cfg, transport: transport, refs: refs}
}

func (a *Adapter) ID() string { return ProviderID }

// Per-language native event codes.
var langEvents = map[string]models.EventType{
	"ACC": models.EventAccepted,
	"ONG": models.EventOngoing,
	"RDY": models.EventReady,
	"SNT": models.EventSent,
	"LIV": models.EventDelivered,
	"SUS": models.EventSuspended,
	"RES": models.EventResumed,
	"CNL": models.EventCancelled,
	"REF": models.EventRejected,
	"CLO": models.EventClosed,
}

// Dossier-level native event codes.
var requestEvents = map[string]models.EventType{
	"ACP": models.EventRequestAccepted,
	"REJ": models.EventRequestRejected,
	"EXE": models.EventRequestExecuted,
	"ANN": models.EventRequestCancelled,
}

func (a *Adapter) Authenticate(ctx context.Context) (provider.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	res, err := a.transport.Call(ctx, provider.Credential{}, "requestLogin", map[string]string{
		"username": a.cfg.Username,
		"password": a.cfg.Password,
	})
	if err != nil {
		return provider.Credential{}, &trerr.ConnectionError{Op: "authenticate", Err: err}
	}
	if !res.OK || res.Token == "" {
		return provider.Credential{}, &trerr.ConnectionError{
			Op: "authenticate", Err: errors.New(res.Message),
		}
	}
	expires := res.ExpiresIn
	if expires <= 0 {
		expires = 3600
	}
	return provider.Credential{
		Token:     res.Token,
		ExpiresAt: time.Now().Add(time.Duration(expires) * time.Second),
	}, nil
}

func (a *Adapter) CheckConnection(ctx context.Context, cred provider.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	res, err := a.transport.Call(ctx, cred, "checkConnection", nil)
	if err != nil {
		return &trerr.ConnectionError{Op: "checkConnection", Err: err}
	}
	if !res.OK {
		return &trerr.ConnectionError{Op: "checkConnection", Err: errors.New(res.Message)}
	}
	return nil
}

func (a *Adapter) Submit(ctx context.Context, cred provider.Credential, req *models.TranslationRequest) (reference.ProviderReference, error) {
	legacy, _, err := a.refs.LegacyCarryOver(req.ID)
	if err != nil {
		return reference.ProviderReference{}, err
	}

	job := provider.BuildJob(req, legacy, a.cfg.PageSize, a.cfg.VolumeMultiplier)
	job.RequesterCode = a.cfg.RequesterCode

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	res, err := a.transport.Call(ctx, cred, "createNewRequest", job)
	if err != nil {
		return reference.ProviderReference{}, &trerr.ConnectionError{Op: "submit", Err: err}
	}
	if len(res.FieldErrors) > 0 {
		return reference.ProviderReference{}, &trerr.ValidationError{Fields: res.FieldErrors}
	}
	if !res.OK {
		return reference.ProviderReference{}, &trerr.ConnectionError{
			Op: "submit", Err: errors.New(res.Message),
		}
	}

	ref, err := reference.Parse(res.Reference)
	if err != nil {
		return reference.ProviderReference{}, fmt.Errorf("provider returned malformed reference: %v", err)
	}
	return ref, nil
}

func (a *Adapter) Modify(ctx context.Context, cred provider.Credential, ref reference.ProviderReference, addedLanguages []string) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	// The dossier must be in its accepted sub-state; anything else gets
	// rejected locally instead of producing an ambiguous remote error.
	status, err := a.transport.Call(ctx, cred, "getStatus", ref.ToReference())
	if err != nil {
		return &trerr.ConnectionError{Op: "modify", Err: err}
	}
	if status.DossierStatus != statusAccepted {
		return &trerr.ConflictError{
			Reason: fmt.Sprintf("dossier %s is in status %s, languages can only be added while accepted",
				ref.ToReference(), status.DossierStatus),
		}
	}

	res, err := a.transport.Call(ctx, cred, "modifyRequest", map[string]interface{}{
		"reference": ref.ToReference(),
		"languages": addedLanguages,
	})
	if err != nil {
		return &trerr.ConnectionError{Op: "modify", Err: err}
	}
	if len(res.FieldErrors) > 0 {
		return &trerr.ValidationError{Fields: res.FieldErrors}
	}
	if !res.OK {
		return &trerr.ConnectionError{Op: "modify", Err: errors.New(res.Message)}
	}
	return nil
}

func (a *Adapter) Ingest(payload models.NotificationPayload) (*models.DomainEvent, error) {
	ref, err := reference.Parse(payload.Reference)
	if err != nil {
		return nil, &trerr.ProtocolError{Provider: ProviderID, Event: payload.Reference}
	}

	requestID, err := a.refs.Resolve(ref)
	if err != nil {
		return nil, err
	}

	vocab := requestEvents
	if payload.Langcode != "" {
		vocab = langEvents
	}
	ev, err := provider.MapNativeEvent(ProviderID, payload.Event, vocab)
	if err != nil {
		return nil, err
	}

	return &models.DomainEvent{
		RequestID:        requestID,
		Type:             ev,
		Langcode:         payload.Langcode,
		NativeEvent:      payload.Event,
		AcceptedDeadline: payload.AcceptedDeadline,
		Message:          payload.Message,
		TranslatedLeaves: payload.TranslatedLeaves,
	}, nil
}

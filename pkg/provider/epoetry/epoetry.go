package epoetry

// Adapter for the successor SOAP translation service. Richer native
// vocabulary than the legacy service: the dossier itself has
// Accepted/Rejected sub-states and languages move through named planning
// statuses. Everything still maps onto the core's closed trigger set.

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

const ProviderID = "epoetry"

const requestStatusAccepted = "SenderAccepted"

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

type Result struct {
	OK            bool
	Token         string
	ExpiresAt     time.Time
	Reference     string
	RequestStatus string
	Message       string
	FieldErrors   []trerr.FieldError
}

// Transport is the typed operation surface of the successor service.
// Envelope construction and decoding are a collaborator concern.
type Transport interface {
	Login(ctx context.Context, username, password string) (*Result, error)
	Ping(ctx context.Context, cred provider.Credential) error
	CreateLinguisticRequest(ctx context.Context, cred provider.Credential, job provider.Job) (*Result, error)
	GetRequestStatus(ctx context.Context, cred provider.Credential, ref string) (*Result, error)
	ModifyLinguisticRequest(ctx context.Context, cred provider.Credential, ref string, addLangs []string) (*Result, error)
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

var langEvents = map[string]models.EventType{
	"Accepted":         models.EventAccepted,
	"InProgress":       models.EventOngoing,
	"ReadyToBeSent":    models.EventReady,
	"Sent":             models.EventSent,
	"ProductDelivered": models.EventDelivered,
	"Suspended":        models.EventSuspended,
	"Resumed":          models.EventResumed,
	"Cancelled":        models.EventCancelled,
	"Rejected":         models.EventRejected,
	"Closed":           models.EventClosed,
}

var requestEvents = map[string]models.EventType{
	"SenderAccepted":   models.EventRequestAccepted,
	"SenderRejected":   models.EventRequestRejected,
	"RequestExecuted":  models.EventRequestExecuted,
	"RequestCancelled": models.EventRequestCancelled,
}

func (a *Adapter) Authenticate(ctx context.Context) (provider.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	res, err := a.transport.Login(ctx, a.cfg.Username, a.cfg.Password)
	if err != nil {
		return provider.Credential{}, &trerr.ConnectionError{Op: "authenticate", Err: err}
	}
	if !res.OK || res.Token == "" {
		return provider.Credential{}, &trerr.ConnectionError{
			Op: "authenticate", Err: errors.New(res.Message),
		}
	}
	expires := res.ExpiresAt
	if expires.IsZero() {
		expires = time.Now().Add(time.Hour)
	}
	return provider.Credential{Token: res.Token, ExpiresAt: expires}, nil
}

func (a *Adapter) CheckConnection(ctx context.Context, cred provider.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	if err := a.transport.Ping(ctx, cred); err != nil {
		return &trerr.ConnectionError{Op: "checkConnection", Err: err}
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

	res, err := a.transport.CreateLinguisticRequest(ctx, cred, job)
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

	status, err := a.transport.GetRequestStatus(ctx, cred, ref.ToReference())
	if err != nil {
		return &trerr.ConnectionError{Op: "modify", Err: err}
	}
	if status.RequestStatus != requestStatusAccepted {
		return &trerr.ConflictError{
			Reason: fmt.Sprintf("request %s is %s, languages can only be added while %s",
				ref.ToReference(), status.RequestStatus, requestStatusAccepted),
		}
	}

	res, err := a.transport.ModifyLinguisticRequest(ctx, cred, ref.ToReference(), addedLanguages)
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

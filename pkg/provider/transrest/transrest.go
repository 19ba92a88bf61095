package transrest

// Adapter for the REST translation service. Unlike the SOAP generations
// this one is spoken natively over JSON, so no transport indirection is
// needed; the adapter builds its own HTTP calls.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"content_trans_api/models/models"
	"content_trans_api/pkg/provider"
	"content_trans_api/pkg/reference"
	"content_trans_api/pkg/trerr"
)

const ProviderID = "transrest"

const statusAccepted = "accepted"

type Config struct {
	Endpoint         string
	Username         string
	Password         string
	RequesterCode    string
	PageSize         int
	VolumeMultiplier float64
	Timeout          time.Duration
}

type Adapter struct {
	cfg    Config
	client *http.Client
	refs   reference.Registry
}

// New builds the adapter. A nil client falls back to http.DefaultClient;
// production wiring passes the shared pooled client.
func New(cfg Config, client *http.Client, refs reference.Registry) *Adapter {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Adapter{cfg: cfg, client: client, refs: refs}
}

func (a *Adapter) ID() string { return ProviderID }

var langEvents = map[string]models.EventType{
	"accepted":    models.EventAccepted,
	"translating": models.EventOngoing,
	"ready":       models.EventReady,
	"sent":        models.EventSent,
	"delivered":   models.EventDelivered,
	"suspended":   models.EventSuspended,
	"resumed":     models.EventResumed,
	"cancelled":   models.EventCancelled,
	"rejected":    models.EventRejected,
	"closed":      models.EventClosed,
}

var requestEvents = map[string]models.EventType{
	"request.accepted":  models.EventRequestAccepted,
	"request.rejected":  models.EventRequestRejected,
	"request.executed":  models.EventRequestExecuted,
	"request.cancelled": models.EventRequestCancelled,
}

type apiError struct {
	Message string             `json:"message"`
	Errors  []trerr.FieldError `json:"errors"`
}

func (a *Adapter) doJSON(ctx context.Context, cred provider.Credential, method, path string, body interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.Endpoint+path, reader)
	if err != nil {
		return err
	}
	if cred.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return &trerr.ConnectionError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest {
		apiErr := apiError{}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && len(apiErr.Errors) > 0 {
			return &trerr.ValidationError{Fields: apiErr.Errors}
		}
		return &trerr.ConnectionError{Op: path, Err: fmt.Errorf("provider returned %s: %s", resp.Status, apiErr.Message)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &trerr.ConnectionError{Op: path, Err: fmt.Errorf("provider returned %s: %s", resp.Status, string(bodyBytes))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse provider response: %v", err)
		}
	}
	return nil
}

func (a *Adapter) Authenticate(ctx context.Context) (provider.Credential, error) {
	var res struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	err := a.doJSON(ctx, provider.Credential{}, "POST", "/auth/token", map[string]string{
		"username": a.cfg.Username,
		"password": a.cfg.Password,
	}, &res)
	if err != nil {
		if trerr.IsConnection(err) {
			return provider.Credential{}, err
		}
		return provider.Credential{}, &trerr.ConnectionError{Op: "authenticate", Err: err}
	}
	if res.Token == "" {
		return provider.Credential{}, &trerr.ConnectionError{Op: "authenticate", Err: errors.New("empty token")}
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
	return a.doJSON(ctx, cred, "GET", "/auth/ping", nil, nil)
}

func (a *Adapter) Submit(ctx context.Context, cred provider.Credential, req *models.TranslationRequest) (reference.ProviderReference, error) {
	legacy, _, err := a.refs.LegacyCarryOver(req.ID)
	if err != nil {
		return reference.ProviderReference{}, err
	}

	job := provider.BuildJob(req, legacy, a.cfg.PageSize, a.cfg.VolumeMultiplier)
	job.RequesterCode = a.cfg.RequesterCode

	var res struct {
		Reference string `json:"reference"`
	}
	if err := a.doJSON(ctx, cred, "POST", "/v1/requests", job, &res); err != nil {
		return reference.ProviderReference{}, err
	}

	ref, err := reference.Parse(res.Reference)
	if err != nil {
		return reference.ProviderReference{}, fmt.Errorf("provider returned malformed reference: %v", err)
	}
	return ref, nil
}

func (a *Adapter) Modify(ctx context.Context, cred provider.Credential, ref reference.ProviderReference, addedLanguages []string) error {
	var status struct {
		Status string `json:"status"`
	}
	if err := a.doJSON(ctx, cred, "GET", "/v1/requests/"+ref.ToReference()+"/status", nil, &status); err != nil {
		return err
	}
	if status.Status != statusAccepted {
		return &trerr.ConflictError{
			Reason: fmt.Sprintf("request %s is %s, languages can only be added while accepted",
				ref.ToReference(), status.Status),
		}
	}

	return a.doJSON(ctx, cred, "POST", "/v1/requests/"+ref.ToReference()+"/languages",
		map[string]interface{}{"languages": addedLanguages}, nil)
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

// Poll fetches undelivered events for a dossier. The REST service does
// not push callbacks; the poller feeds these payloads into the same
// ingest path the push providers use.
func (a *Adapter) Poll(ctx context.Context, cred provider.Credential, ref reference.ProviderReference) ([]models.NotificationPayload, error) {
	var res struct {
		Events []models.NotificationPayload `json:"events"`
	}
	if err := a.doJSON(ctx, cred, "GET", "/v1/requests/"+ref.ToReference()+"/events", nil, &res); err != nil {
		return nil, err
	}
	return res.Events, nil
}

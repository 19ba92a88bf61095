package transrest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"content_trans_api/models/models"
	"content_trans_api/pkg/document"
	"content_trans_api/pkg/provider"
	"content_trans_api/pkg/reference"
	"content_trans_api/pkg/trerr"
)

func testServer(t *testing.T, handler http.HandlerFunc) (*Adapter, *reference.MemoryRegistry) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	refs := reference.NewMemoryRegistry()
	a := New(Config{
		Endpoint:      srv.URL,
		Username:      "svc",
		Password:      "secret",
		RequesterCode: "WEB",
		PageSize:      750,
	}, srv.Client(), refs)
	return a, refs
}

func TestAuthenticate(t *testing.T) {
	a, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/token" || r.Method != "POST" {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["username"] != "svc" || body["password"] != "secret" {
			t.Errorf("credentials not sent: %v", body)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"token": "tok-1", "expires_in": 60})
	})

	cred, err := a.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if cred.Token != "tok-1" || cred.Expired() {
		t.Errorf("credential = %+v", cred)
	}
}

func TestAuthenticateConnectionError(t *testing.T) {
	a, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := a.Authenticate(context.Background())
	if !trerr.IsConnection(err) {
		t.Errorf("Authenticate = %v, want connection error", err)
	}
}

func submitRequest() *models.TranslationRequest {
	doc := document.New()
	_ = doc.AddLeaf("title|0|value", document.Leaf{Text: "Hello", Translatable: true})
	_ = doc.AddLeaf("code|0|value", document.Leaf{Text: "X-1", Translatable: false})
	return &models.TranslationRequest{
		ID:             "req-1",
		Provider:       ProviderID,
		Status:         models.RequestDraft,
		SourceLanguage: "en",
		TargetLanguages: []*models.LanguageStatus{
			{Langcode: "fr", Status: models.LangRequested},
		},
		Document: doc,
	}
}

func TestSubmit(t *testing.T) {
	var got provider.Job
	a, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/requests" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok-1" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(map[string]string{"reference": "WEB/2026/55/0/0/TRA"})
	})

	cred := provider.Credential{Token: "tok-1", ExpiresAt: time.Now().Add(time.Hour)}
	ref, err := a.Submit(context.Background(), cred, submitRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ref.ToReference() != "WEB/2026/55/0/0/TRA" {
		t.Errorf("reference = %s", ref.ToReference())
	}

	if got.RequesterCode != "WEB" || got.SourceLanguage != "en" {
		t.Errorf("job header = %+v", got)
	}
	// Only translatable content goes over the wire.
	if len(got.Leaves) != 1 || got.Leaves[0].Path != "title|0|value" {
		t.Errorf("leaves sent = %+v", got.Leaves)
	}
}

func TestSubmitValidationError(t *testing.T) {
	a, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(apiError{
			Message: "invalid request",
			Errors:  []trerr.FieldError{{Field: "deadline", Message: "in the past"}},
		})
	})

	_, err := a.Submit(context.Background(), provider.Credential{Token: "t"}, submitRequest())
	if !trerr.IsValidation(err) {
		t.Fatalf("Submit = %v, want validation error", err)
	}
}

func TestModifyRejectedWhenNotAccepted(t *testing.T) {
	a, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "translating"})
	})

	ref, _ := reference.Parse("WEB/2026/55/0/0/TRA")
	err := a.Modify(context.Background(), provider.Credential{Token: "t"}, ref, []string{"de"})
	if !trerr.IsConflict(err) {
		t.Errorf("Modify = %v, want conflict", err)
	}
}

func TestIngest(t *testing.T) {
	a, refs := testServer(t, func(w http.ResponseWriter, r *http.Request) {})
	ref, _ := reference.Parse("WEB/2026/55/0/0/TRA")
	if err := refs.Register("req-1", ref); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		payload  models.NotificationPayload
		wantType models.EventType
		wantErr  func(error) bool
	}{
		{
			name:     "language event",
			payload:  models.NotificationPayload{Reference: ref.ToReference(), Event: "delivered", Langcode: "fr"},
			wantType: models.EventDelivered,
		},
		{
			name:     "request event",
			payload:  models.NotificationPayload{Reference: ref.ToReference(), Event: "request.executed"},
			wantType: models.EventRequestExecuted,
		},
		{
			name:    "unknown reference",
			payload: models.NotificationPayload{Reference: "WEB/2026/99/0/0/TRA", Event: "delivered", Langcode: "fr"},
			wantErr: trerr.IsNotFound,
		},
		{
			name:    "malformed reference",
			payload: models.NotificationPayload{Reference: "not-a-reference", Event: "delivered"},
			wantErr: trerr.IsProtocol,
		},
		{
			name:    "unknown event",
			payload: models.NotificationPayload{Reference: ref.ToReference(), Event: "exploded", Langcode: "fr"},
			wantErr: trerr.IsProtocol,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := a.Ingest(tt.payload)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Errorf("Ingest = %v, wrong error class", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Ingest: %v", err)
			}
			if ev.RequestID != "req-1" || ev.Type != tt.wantType {
				t.Errorf("event = %+v", ev)
			}
		})
	}
}

func TestPoll(t *testing.T) {
	a, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/requests/WEB/2026/55/0/0/TRA/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"events": []models.NotificationPayload{
				{Reference: "WEB/2026/55/0/0/TRA", Event: "accepted", Langcode: "fr"},
				{Reference: "WEB/2026/55/0/0/TRA", Event: "translating", Langcode: "fr"},
			},
		})
	})

	ref, _ := reference.Parse("WEB/2026/55/0/0/TRA")
	events, err := a.Poll(context.Background(), provider.Credential{Token: "t"}, ref)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(events) != 2 || events[1].Event != "translating" {
		t.Errorf("events = %+v", events)
	}
}

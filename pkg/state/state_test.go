package state

import (
	"testing"

	"content_trans_api/models/models"
)

func newRequest(langs ...models.LanguageState) *models.TranslationRequest {
	req := &models.TranslationRequest{
		ID:     "req-1",
		Status: models.RequestActive,
	}
	codes := []string{"fr", "de", "it", "es"}
	for i, s := range langs {
		req.TargetLanguages = append(req.TargetLanguages, &models.LanguageStatus{
			Langcode: codes[i],
			Status:   s,
		})
	}
	return req
}

func TestNextLanguageState(t *testing.T) {
	tests := []struct {
		name   string
		cur    models.LanguageState
		ev     models.EventType
		want   models.LanguageState
		wantOK bool
	}{
		{"forward step", models.LangRequested, models.EventAccepted, models.LangAccepted, true},
		{"skip ahead", models.LangRequested, models.EventSent, models.LangSent, true},
		{"delivered lands in review", models.LangSent, models.EventDelivered, models.LangReview, true},
		{"backward dropped", models.LangSent, models.EventAccepted, models.LangSent, false},
		{"duplicate dropped", models.LangOngoing, models.EventOngoing, models.LangOngoing, false},
		{"cancel from anywhere", models.LangOngoing, models.EventCancelled, models.LangCancelled, true},
		{"reject from anywhere", models.LangRequested, models.EventRejected, models.LangRejected, true},
		{"close from anywhere", models.LangReview, models.EventClosed, models.LangClosed, true},
		{"terminal absorbs", models.LangCancelled, models.EventAccepted, models.LangCancelled, false},
		{"terminal absorbs cancel", models.LangSynchronised, models.EventCancelled, models.LangSynchronised, false},
		{"suspend", models.LangOngoing, models.EventSuspended, models.LangSuspended, true},
		{"suspend while suspended dropped", models.LangSuspended, models.EventSuspended, models.LangSuspended, false},
		{"progress while suspended dropped", models.LangSuspended, models.EventReady, models.LangSuspended, false},
		{"resume only from suspended", models.LangOngoing, models.EventResumed, models.LangOngoing, false},
		{"accept_local only from review", models.LangSent, models.EventAcceptLocal, models.LangSent, false},
		{"accept_local from review", models.LangReview, models.EventAcceptLocal, models.LangAcceptedLocally, true},
		{"synchronised from review", models.LangReview, models.EventSynchronised, models.LangSynchronised, true},
		{"synchronised from accepted_locally", models.LangAcceptedLocally, models.EventSynchronised, models.LangSynchronised, true},
		{"synchronised from sent dropped", models.LangSent, models.EventSynchronised, models.LangSent, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextLanguageState(tt.cur, tt.ev)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("NextLanguageState(%s, %s) = (%s, %v), want (%s, %v)",
					tt.cur, tt.ev, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSuspendResumeRestoresPriorStatus(t *testing.T) {
	req := newRequest(models.LangOngoing)

	if !ApplyLanguageEvent(req, "fr", models.EventSuspended) {
		t.Fatal("suspend was dropped")
	}
	ls := req.Language("fr")
	if ls.Status != models.LangSuspended || ls.PriorStatus != models.LangOngoing {
		t.Fatalf("after suspend: status=%s prior=%s", ls.Status, ls.PriorStatus)
	}

	if !ApplyLanguageEvent(req, "fr", models.EventResumed) {
		t.Fatal("resume was dropped")
	}
	if ls.Status != models.LangOngoing {
		t.Errorf("resume restored %s, want ongoing", ls.Status)
	}
	if ls.PriorStatus != "" {
		t.Errorf("prior status not cleared: %s", ls.PriorStatus)
	}
}

func TestResumeWithoutPriorDefaultsToRequested(t *testing.T) {
	req := newRequest(models.LangSuspended)
	if !ApplyLanguageEvent(req, "fr", models.EventResumed) {
		t.Fatal("resume was dropped")
	}
	if got := req.Language("fr").Status; got != models.LangRequested {
		t.Errorf("resume without prior = %s, want requested", got)
	}
}

func TestApplyLanguageEventIdempotent(t *testing.T) {
	req := newRequest(models.LangRequested)
	if !ApplyLanguageEvent(req, "fr", models.EventAccepted) {
		t.Fatal("first accepted dropped")
	}
	if ApplyLanguageEvent(req, "fr", models.EventAccepted) {
		t.Error("duplicate accepted was applied")
	}
	if got := req.Language("fr").Status; got != models.LangAccepted {
		t.Errorf("status = %s, want accepted", got)
	}
}

func TestApplyLanguageEventUnknownLanguage(t *testing.T) {
	req := newRequest(models.LangRequested)
	if ApplyLanguageEvent(req, "zz", models.EventAccepted) {
		t.Error("event for unknown language was applied")
	}
}

func TestApplyRequestEvent(t *testing.T) {
	tests := []struct {
		name       string
		status     models.RequestStatus
		ev         models.EventType
		wantOK     bool
		wantStatus models.RequestStatus
	}{
		{"accepted is informational", models.RequestActive, models.EventRequestAccepted, true, models.RequestActive},
		{"rejected finishes", models.RequestActive, models.EventRequestRejected, true, models.RequestFinished},
		{"executed finishes", models.RequestActive, models.EventRequestExecuted, true, models.RequestFinished},
		{"cancelled finishes", models.RequestActive, models.EventRequestCancelled, true, models.RequestFinished},
		{"dropped on draft", models.RequestDraft, models.EventRequestAccepted, false, models.RequestDraft},
		{"dropped on finished", models.RequestFinished, models.EventRequestExecuted, false, models.RequestFinished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest()
			req.Status = tt.status
			ok := ApplyRequestEvent(req, tt.ev)
			if ok != tt.wantOK || req.Status != tt.wantStatus {
				t.Errorf("ApplyRequestEvent(%s, %s) = %v with status %s, want %v with %s",
					tt.status, tt.ev, ok, req.Status, tt.wantOK, tt.wantStatus)
			}
		})
	}
}

func TestSubmitTransitions(t *testing.T) {
	req := newRequest()
	req.Status = models.RequestDraft

	if !SubmitFailed(req) || req.Status != models.RequestFailed {
		t.Fatalf("SubmitFailed from draft: status=%s", req.Status)
	}
	if !SubmitSucceeded(req) || req.Status != models.RequestActive {
		t.Fatalf("SubmitSucceeded from failed: status=%s", req.Status)
	}
	if SubmitSucceeded(req) {
		t.Error("SubmitSucceeded applied on an active request")
	}
}

func TestMaybeSynchroniseRequest(t *testing.T) {
	tests := []struct {
		name  string
		langs []models.LanguageState
		want  bool
	}{
		{"all synchronised", []models.LanguageState{models.LangSynchronised, models.LangSynchronised}, true},
		{"mixed terminal with one synchronised", []models.LanguageState{models.LangSynchronised, models.LangCancelled}, true},
		{"one still active", []models.LanguageState{models.LangSynchronised, models.LangOngoing}, false},
		{"all cancelled, none synchronised", []models.LanguageState{models.LangCancelled, models.LangRejected}, false},
		{"suspended is not terminal", []models.LanguageState{models.LangSynchronised, models.LangSuspended}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(tt.langs...)
			got := MaybeSynchroniseRequest(req)
			if got != tt.want {
				t.Errorf("MaybeSynchroniseRequest = %v, want %v", got, tt.want)
			}
			if tt.want && req.Status != models.RequestSynchronised {
				t.Errorf("status = %s, want synchronised", req.Status)
			}
		})
	}
}

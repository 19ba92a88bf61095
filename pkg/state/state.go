package state

// Transition rules for request and per-language status. All status changes
// go through here; callers never mutate status fields directly. Illegal
// transitions are dropped, not errored: out-of-order notifications from
// unreliable transports are expected.

import (
	"log/slog"

	"content_trans_api/models/models"
)

// chainOrder is the normal forward progression of a language. A progress
// event may skip ahead (providers do not all emit every intermediate
// state) but never move backwards.
var chainOrder = map[models.LanguageState]int{
	models.LangRequested:       0,
	models.LangAccepted:        1,
	models.LangOngoing:         2,
	models.LangReady:           3,
	models.LangSent:            4,
	models.LangReview:          5,
	models.LangAcceptedLocally: 6,
	models.LangSynchronised:    7,
}

// progressTarget maps progress events to the chain state they request.
var progressTarget = map[models.EventType]models.LanguageState{
	models.EventAccepted:     models.LangAccepted,
	models.EventOngoing:      models.LangOngoing,
	models.EventReady:        models.LangReady,
	models.EventSent:         models.LangSent,
	models.EventDelivered:    models.LangReview,
	models.EventAcceptLocal:  models.LangAcceptedLocally,
	models.EventSynchronised: models.LangSynchronised,
}

// IsTerminalLanguage reports whether no further transitions are legal.
// Suspended is explicitly not terminal.
func IsTerminalLanguage(s models.LanguageState) bool {
	switch s {
	case models.LangSynchronised, models.LangCancelled, models.LangRejected, models.LangClosed:
		return true
	}
	return false
}

// NextLanguageState computes the state a language would move to on an
// event. ok=false means the transition is illegal from the current state
// and must be dropped.
func NextLanguageState(cur models.LanguageState, ev models.EventType) (models.LanguageState, bool) {
	if IsTerminalLanguage(cur) {
		return cur, false
	}

	switch ev {
	case models.EventCancelled:
		return models.LangCancelled, true
	case models.EventRejected:
		return models.LangRejected, true
	case models.EventClosed:
		return models.LangClosed, true
	case models.EventSuspended:
		if cur == models.LangSuspended {
			return cur, false
		}
		return models.LangSuspended, true
	case models.EventResumed:
		// Handled by ApplyLanguageEvent: resumes to the prior state.
		return cur, cur == models.LangSuspended
	}

	// While suspended only terminal events and resume apply.
	if cur == models.LangSuspended {
		return cur, false
	}

	target, ok := progressTarget[ev]
	if !ok {
		return cur, false
	}

	switch ev {
	case models.EventAcceptLocal:
		// Manual-accept path exists only out of Review.
		if cur != models.LangReview {
			return cur, false
		}
	case models.EventSynchronised:
		if cur != models.LangReview && cur != models.LangAcceptedLocally {
			return cur, false
		}
	default:
		if chainOrder[target] <= chainOrder[cur] {
			return cur, false
		}
	}
	return target, true
}

// ApplyLanguageEvent advances one language's status. Returns false when
// the event was dropped (duplicate, out of order, or terminal state).
func ApplyLanguageEvent(req *models.TranslationRequest, langcode string, ev models.EventType) bool {
	ls := req.Language(langcode)
	if ls == nil {
		slog.Warn("event for unknown target language, dropping",
			"request", req.ID, "langcode", langcode, "event", string(ev))
		return false
	}

	if ev == models.EventResumed {
		if ls.Status != models.LangSuspended {
			return false
		}
		prior := ls.PriorStatus
		if prior == "" {
			prior = models.LangRequested
		}
		ls.Status = prior
		ls.PriorStatus = ""
		return true
	}

	next, ok := NextLanguageState(ls.Status, ev)
	if !ok {
		slog.Debug("illegal language transition, dropping",
			"request", req.ID, "langcode", langcode,
			"from", string(ls.Status), "event", string(ev))
		return false
	}

	if ev == models.EventSuspended {
		ls.PriorStatus = ls.Status
	}
	ls.Status = next
	return true
}

// ApplyRequestEvent advances the request-level status for provider-scope
// events. provider:accepted on an Active request is informational only.
func ApplyRequestEvent(req *models.TranslationRequest, ev models.EventType) bool {
	if req.Status != models.RequestActive {
		return false
	}
	switch ev {
	case models.EventRequestAccepted:
		return true
	case models.EventRequestRejected, models.EventRequestExecuted, models.EventRequestCancelled:
		req.Status = models.RequestFinished
		return true
	}
	return false
}

// SubmitSucceeded moves a draft to Active after the provider acknowledged.
func SubmitSucceeded(req *models.TranslationRequest) bool {
	if req.Status != models.RequestDraft && req.Status != models.RequestFailed {
		return false
	}
	req.Status = models.RequestActive
	return true
}

// SubmitFailed records a failed submission. Target languages are left
// untouched and the request is never silently retried: providers charge
// for request volume.
func SubmitFailed(req *models.TranslationRequest) bool {
	if req.Status != models.RequestDraft && req.Status != models.RequestFailed {
		return false
	}
	req.Status = models.RequestFailed
	return true
}

// MaybeSynchroniseRequest promotes an Active request to Synchronised once
// every language is terminal and at least one actually synchronised.
func MaybeSynchroniseRequest(req *models.TranslationRequest) bool {
	if req.Status != models.RequestActive {
		return false
	}
	anySynced := false
	for _, ls := range req.TargetLanguages {
		if !IsTerminalLanguage(ls.Status) {
			return false
		}
		if ls.Status == models.LangSynchronised {
			anySynced = true
		}
	}
	if !anySynced {
		return false
	}
	req.Status = models.RequestSynchronised
	return true
}

package requests

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"content_trans_api/config"
	"content_trans_api/models/models"
	responsex "content_trans_api/pkg/response"
	"content_trans_api/pkg/sync"
	"content_trans_api/pkg/trerr"
	"content_trans_api/service/bootstrap"

	"github.com/go-chi/chi"
)

type CreateRequestBody struct {
	Provider        string     `json:"provider"`
	EntityType      string     `json:"entity_type"`
	EntityID        string     `json:"entity_id"`
	RevisionID      string     `json:"revision_id"`
	SourceLang      string     `json:"source_lang"`
	TargetLangs     []string   `json:"target_langs"`
	AutoAccept      bool       `json:"auto_accept"`
	AutoSync        bool       `json:"auto_sync"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Message         string     `json:"message"`
	LegacyReference string     `json:"legacy_reference"`
}

type ModifyRequestBody struct {
	AddLanguages []string `json:"add_languages"`
}

// respondError maps domain errors onto the response envelope. Validation
// failures keep their field list so the caller can fix and resubmit.
func respondError(w http.ResponseWriter, err error) {
	var ve *trerr.ValidationError
	switch {
	case errors.As(err, &ve):
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "Validation failed",
			Data: map[string]interface{}{"fields": ve.Fields},
		})
	case trerr.IsConflict(err):
		responsex.RespondWithJSON(w, http.StatusConflict, models.Response{
			Code: http.StatusConflict,
			Msg:  err.Error(),
			Data: map[string]interface{}{},
		})
	case trerr.IsNotFound(err):
		responsex.RespondWithJSON(w, http.StatusNotFound, models.Response{
			Code: http.StatusNotFound,
			Msg:  "Not found",
			Data: map[string]interface{}{},
		})
	case trerr.IsConnection(err):
		responsex.RespondWithJSON(w, http.StatusBadGateway, models.Response{
			Code: http.StatusBadGateway,
			Msg:  err.Error(),
			Data: map[string]interface{}{},
		})
	default:
		responsex.RespondWithJSON(w, http.StatusInternalServerError, models.Response{
			Code: http.StatusInternalServerError,
			Msg:  "Internal server error. Please try again later.",
			Data: map[string]interface{}{},
		})
	}
}

func Create(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "Invalid request format. Please check your request body.",
			Data: map[string]interface{}{},
		})
		return
	}

	if body.Provider == "" || body.EntityType == "" || body.EntityID == "" || body.RevisionID == "" {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "provider, entity_type, entity_id and revision_id are required.",
			Data: map[string]interface{}{},
		})
		return
	}

	if !config.IsLanguageSupported(body.SourceLang) {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "The specified source language is not supported.",
			Data: map[string]interface{}{},
		})
		return
	}
	for _, lang := range body.TargetLangs {
		if !config.IsLanguageSupported(lang) {
			responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
				Code: http.StatusBadRequest,
				Msg:  "Unsupported target language: " + lang,
				Data: map[string]interface{}{},
			})
			return
		}
	}

	req, err := bootstrap.Engine().CreateRequest(sync.CreateParams{
		Provider: body.Provider,
		Entity: models.EntityRef{
			EntityType: body.EntityType,
			EntityID:   body.EntityID,
			RevisionID: body.RevisionID,
		},
		SourceLanguage:  body.SourceLang,
		TargetLanguages: body.TargetLangs,
		AutoAccept:      body.AutoAccept,
		AutoSync:        body.AutoSync,
		Deadline:        body.Deadline,
		Message:         body.Message,
		LegacyReference: body.LegacyReference,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	responsex.RespondWithJSON(w, http.StatusCreated, models.Response{
		Code: http.StatusCreated,
		Msg:  "Translation request created successfully",
		Data: req,
	})
}

func List(w http.ResponseWriter, r *http.Request) {
	limitStr := strings.TrimSpace(r.URL.Query().Get("limit"))
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 50 {
		limit = 20
	}

	pageStr := r.URL.Query().Get("page")
	page, err := strconv.Atoi(pageStr)
	if err != nil || page <= 0 {
		page = 1
	}

	reqs, total, err := bootstrap.Engine().Store.List(limit, (page-1)*limit)
	if err != nil {
		respondError(w, err)
		return
	}

	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Success",
		Data: map[string]interface{}{
			"requests": reqs,
			"total":    total,
		},
	})
}

func GetOne(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	req, err := bootstrap.Engine().Store.Get(id)
	if err != nil {
		respondError(w, err)
		return
	}
	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Success",
		Data: req,
	})
}

func Submit(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := bootstrap.Engine().SubmitRequest(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Request submitted",
		Data: map[string]interface{}{},
	})
}

func Modify(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var body ModifyRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "Invalid request format. Please check your request body.",
			Data: map[string]interface{}{},
		})
		return
	}
	for _, lang := range body.AddLanguages {
		if !config.IsLanguageSupported(lang) {
			responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
				Code: http.StatusBadRequest,
				Msg:  "Unsupported target language: " + lang,
				Data: map[string]interface{}{},
			})
			return
		}
	}

	if err := bootstrap.Engine().ModifyRequest(r.Context(), id, body.AddLanguages); err != nil {
		respondError(w, err)
		return
	}
	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Languages added",
		Data: map[string]interface{}{},
	})
}

func Synchronize(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	langcode := strings.TrimSpace(chi.URLParam(r, "langcode"))

	if err := bootstrap.Engine().SynchronizeLanguage(r.Context(), id, langcode); err != nil {
		respondError(w, err)
		return
	}
	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Language synchronised",
		Data: map[string]interface{}{},
	})
}

func Pretranslate(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	langcode := strings.TrimSpace(chi.URLParam(r, "langcode"))

	filled, err := bootstrap.Engine().PretranslateLanguage(id, langcode)
	if err != nil {
		respondError(w, err)
		return
	}
	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Pretranslation complete",
		Data: map[string]interface{}{"leaves_filled": filled},
	})
}

func Renew(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	req, err := bootstrap.Engine().RenewRequest(id)
	if err != nil {
		respondError(w, err)
		return
	}
	responsex.RespondWithJSON(w, http.StatusCreated, models.Response{
		Code: http.StatusCreated,
		Msg:  "Request renewed",
		Data: req,
	})
}

func GetLog(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	limitStr := strings.TrimSpace(r.URL.Query().Get("limit"))
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := bootstrap.Engine().Logs.List(id, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Success",
		Data: rows,
	})
}

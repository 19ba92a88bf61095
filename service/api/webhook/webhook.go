package webhook

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"content_trans_api/models/models"
	"content_trans_api/models/tables"
	"content_trans_api/pkg/db/mysql"
	responsex "content_trans_api/pkg/response"
	"content_trans_api/utils/validateurl"

	"github.com/go-chi/chi"
)

func AddConfig(w http.ResponseWriter, r *http.Request) {
	var webhookConfigRequest models.WebhookConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&webhookConfigRequest); err != nil {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "Invalid request payload",
			Data: map[string]interface{}{},
		})
		return
	}

	if !validateurl.ValidateURL(webhookConfigRequest.WebhookURL) {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "invalid URL format",
			Data: map[string]interface{}{},
		})
		return
	}

	row := &tables.WebhookConfig{WebhookUrl: webhookConfigRequest.WebhookURL}
	if _, err := mysql.MysqlEngine.Insert(row); err != nil {
		responsex.RespondWithJSON(w, http.StatusInternalServerError, models.Response{
			Code: http.StatusInternalServerError,
			Msg:  "Failed to add webhook config",
			Data: map[string]interface{}{},
		})
		return
	}

	responsex.RespondWithJSON(w, http.StatusCreated, models.Response{
		Code: http.StatusCreated,
		Msg:  "Success",
		Data: row,
	})
}

func UpdateConfig(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "id")), 10, 64)
	if err != nil || id <= 0 {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "Invalid webhook id",
			Data: map[string]interface{}{},
		})
		return
	}

	var webhookConfigRequest models.WebhookConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&webhookConfigRequest); err != nil {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "Invalid request payload",
			Data: map[string]interface{}{},
		})
		return
	}

	if !validateurl.ValidateURL(webhookConfigRequest.WebhookURL) {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "invalid URL format",
			Data: map[string]interface{}{},
		})
		return
	}

	affected, err := mysql.MysqlEngine.ID(id).Update(&tables.WebhookConfig{
		WebhookUrl: webhookConfigRequest.WebhookURL,
	})
	if err != nil {
		responsex.RespondWithJSON(w, http.StatusInternalServerError, models.Response{
			Code: http.StatusInternalServerError,
			Msg:  "Failed to update webhook config",
			Data: map[string]interface{}{},
		})
		return
	}
	if affected == 0 {
		responsex.RespondWithJSON(w, http.StatusNotFound, models.Response{
			Code: http.StatusNotFound,
			Msg:  "Not found",
			Data: map[string]interface{}{},
		})
		return
	}

	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Success",
		Data: map[string]interface{}{},
	})
}

func DeleteConfig(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "id")), 10, 64)
	if err != nil || id <= 0 {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "Invalid webhook id",
			Data: map[string]interface{}{},
		})
		return
	}

	affected, err := mysql.MysqlEngine.ID(id).Delete(&tables.WebhookConfig{})
	if err != nil {
		responsex.RespondWithJSON(w, http.StatusInternalServerError, models.Response{
			Code: http.StatusInternalServerError,
			Msg:  "Failed to delete webhook config",
			Data: map[string]interface{}{},
		})
		return
	}
	if affected == 0 {
		responsex.RespondWithJSON(w, http.StatusNotFound, models.Response{
			Code: http.StatusNotFound,
			Msg:  "Not found",
			Data: map[string]interface{}{},
		})
		return
	}

	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Success",
		Data: map[string]interface{}{},
	})
}

func GetConfig(w http.ResponseWriter, r *http.Request) {
	var configs []tables.WebhookConfig
	if err := mysql.MysqlEngine.Find(&configs); err != nil {
		responsex.RespondWithJSON(w, http.StatusInternalServerError, models.Response{
			Code: http.StatusInternalServerError,
			Msg:  "Failed to load webhook config",
			Data: map[string]interface{}{},
		})
		return
	}

	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Success",
		Data: configs,
	})
}

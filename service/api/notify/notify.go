package notify

import (
	"encoding/json"
	"net/http"
	"strings"

	"content_trans_api/models/models"
	"content_trans_api/pkg/logger"
	responsex "content_trans_api/pkg/response"
	"content_trans_api/pkg/tasks"
	"content_trans_api/service/bootstrap"

	"github.com/go-chi/chi"
)

// Receive accepts one provider notification and queues it for
// processing. The provider gets its acknowledgment as soon as the task
// is enqueued; actual state transitions happen on the worker so a slow
// content store never stalls the provider's callback loop.
func Receive(w http.ResponseWriter, r *http.Request) {
	providerID := strings.TrimSpace(chi.URLParam(r, "provider"))
	if _, ok := bootstrap.Engine().Providers.Get(providerID); !ok {
		responsex.RespondWithJSON(w, http.StatusNotFound, models.Response{
			Code: http.StatusNotFound,
			Msg:  "Unknown provider",
			Data: map[string]interface{}{},
		})
		return
	}

	var payload models.NotificationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "Invalid notification payload",
			Data: map[string]interface{}{},
		})
		return
	}
	if payload.Reference == "" || payload.Event == "" {
		responsex.RespondWithJSON(w, http.StatusBadRequest, models.Response{
			Code: http.StatusBadRequest,
			Msg:  "reference and event are required",
			Data: map[string]interface{}{},
		})
		return
	}

	task, err := tasks.NewNotificationProcessTask(providerID, payload)
	if err != nil {
		responsex.RespondWithJSON(w, http.StatusInternalServerError, models.Response{
			Code: http.StatusInternalServerError,
			Msg:  "Internal server error. Please try again later.",
			Data: map[string]interface{}{},
		})
		return
	}
	info, err := tasks.AsynqClient.Enqueue(task)
	if err != nil {
		responsex.RespondWithJSON(w, http.StatusInternalServerError, models.Response{
			Code: http.StatusInternalServerError,
			Msg:  "Failed to queue notification. Please retry.",
			Data: map[string]interface{}{},
		})
		return
	}

	logger.Logger.Info("notification queued",
		"provider", providerID, "reference", payload.Reference,
		"event", payload.Event, "task", info.ID)

	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Accepted",
		Data: map[string]interface{}{},
	})
}

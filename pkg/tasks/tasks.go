package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"content_trans_api/config"
	"content_trans_api/models/models"
	"content_trans_api/models/tables"
	"content_trans_api/pkg/db/mysql"
	"content_trans_api/pkg/httpclient"
	"content_trans_api/pkg/logger"
	"content_trans_api/pkg/sync"

	"github.com/hibiken/asynq"
)

const (
	NotificationProcess = "notification:process"
	WebhookNotify       = "webhook:notify"
)

var AsynqClient *asynq.Client

// Engine is set by the service wiring before any worker starts. Task
// handlers apply events through it so API and worker share one code path.
var Engine *sync.Engine

type NotificationTaskPayload struct {
	Provider string                     `json:"provider"`
	Payload  models.NotificationPayload `json:"payload"`
}

// WebhookTaskPayload is what gets POSTed to every configured webhook URL
// when a translation arrives.
type WebhookTaskPayload struct {
	RequestID  string    `json:"request_id"`
	Langcode   string    `json:"langcode"`
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
}

func init() {
	AsynqClient = asynq.NewClient(asynq.RedisClientOpt{Addr: fmt.Sprintf("%s:%d", config.Cfg.Redis.Host, config.Cfg.Redis.Port), Password: config.Cfg.Redis.Password})
}

var sendQueue = make(chan WebhookTaskPayload)

// StartSendQueue starts the webhook delivery loop. One goroutine is
// enough: deliveries are rare next to notifications, and per-request
// ordering is preserved.
func StartSendQueue() {
	go func() {
		for payload := range sendQueue {
			retrySendWebhook(payload, 3)
		}
	}()
}

func NewNotificationProcessTask(providerID string, payload models.NotificationPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(NotificationTaskPayload{Provider: providerID, Payload: payload})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(NotificationProcess, raw), nil
}

func NewWebhookNotifyTask(requestID, langcode, event string) (*asynq.Task, error) {
	raw, err := json.Marshal(WebhookTaskPayload{
		RequestID:  requestID,
		Langcode:   langcode,
		Event:      event,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(WebhookNotify, raw), nil
}

// HandleNotificationProcessTask feeds a queued provider notification into
// the synchronization engine. Only transient failures (store or content
// store errors) are retried; absorbed notifications complete normally.
func HandleNotificationProcessTask(ctx context.Context, t *asynq.Task) error {
	var p NotificationTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if Engine == nil {
		return fmt.Errorf("sync engine not wired: %w", asynq.SkipRetry)
	}

	ack, err := Engine.ReceiveNotification(p.Provider, p.Payload)
	if err != nil {
		return fmt.Errorf("failed to process notification: %v", err)
	}
	if ack.Ignored != "" {
		logger.Logger.Info("notification absorbed",
			"provider", p.Provider, "reference", p.Payload.Reference, "reason", ack.Ignored)
	}
	return nil
}

// HandleWebhookNotifyTask hands the payload to the delivery loop. The
// asynq task completes immediately; retries happen inside the loop so a
// slow webhook endpoint never blocks the worker pool.
func HandleWebhookNotifyTask(ctx context.Context, t *asynq.Task) error {
	var p WebhookTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	sendQueue <- p
	return nil
}

func retrySendWebhook(payload WebhookTaskPayload, maxRetries int) {
	var configs []tables.WebhookConfig
	if err := mysql.MysqlEngine.Find(&configs); err != nil {
		logger.Logger.Error("failed to load webhook config", "error", err.Error())
		return
	}
	if len(configs) == 0 {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Logger.Error("failed to marshal webhook payload", "error", err.Error())
		return
	}

	for _, cfg := range configs {
		for attempt := 1; attempt <= maxRetries; attempt++ {
			resp, err := httpclient.Client.Post(cfg.WebhookUrl, "application/json", bytes.NewBuffer(raw))
			if err == nil {
				resp.Body.Close()
			}
			if err != nil || resp.StatusCode != http.StatusOK {
				recordWebhookAttempt(payload.RequestID, cfg.Id, "failed", attempt)
				logger.Logger.Warn("webhook delivery failed",
					"url", cfg.WebhookUrl, "attempt", attempt, "max", maxRetries)
				time.Sleep(2 * time.Second)
				continue
			}
			recordWebhookAttempt(payload.RequestID, cfg.Id, "success", attempt)
			logger.Logger.Info("webhook delivered",
				"url", cfg.WebhookUrl, "request", payload.RequestID, "event", payload.Event)
			break
		}
	}
}

func recordWebhookAttempt(requestID string, webhookID int64, status string, attempt int) {
	_, err := mysql.MysqlEngine.Insert(&tables.RequestLog{
		RequestId: requestID,
		Level:     "info",
		Message:   "webhook " + status,
		Detail:    fmt.Sprintf("webhook_id=%d attempt=%d", webhookID, attempt),
	})
	if err != nil {
		logger.Logger.Error("failed to record webhook attempt", "error", err.Error())
	}
}

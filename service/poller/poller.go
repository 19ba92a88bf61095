package poller

// Pull-mode providers never call back; this process polls their event
// feeds on a schedule and pushes the payloads through the same queued
// ingestion path the push providers use. Re-polling already-applied
// events is harmless: the state machine drops them as benign reordering.

import (
	"context"
	"log"

	"content_trans_api/config"
	"content_trans_api/models/models"
	"content_trans_api/pkg/logger"
	"content_trans_api/pkg/provider"
	"content_trans_api/pkg/reference"
	syncpkg "content_trans_api/pkg/sync"
	"content_trans_api/pkg/tasks"
	"content_trans_api/service/bootstrap"

	"github.com/robfig/cron/v3"
)

const pageSize = 50

func Run() {
	if !config.Cfg.Poller.Enabled {
		log.Println("poller is disabled in configuration")
		return
	}

	eng := bootstrap.Engine()

	c := cron.New()
	if _, err := c.AddFunc(config.Cfg.Poller.Schedule, func() { pollOnce(eng) }); err != nil {
		log.Fatalf("invalid poller schedule %q: %v", config.Cfg.Poller.Schedule, err)
	}

	logger.Logger.Info("poller started", "schedule", config.Cfg.Poller.Schedule)
	c.Start()
	select {}
}

func pollOnce(eng *syncpkg.Engine) {
	ctx := context.Background()
	offset := 0
	for {
		reqs, total, err := eng.Store.List(pageSize, offset)
		if err != nil {
			logger.Logger.Error("poller failed to list requests", "error", err.Error())
			return
		}
		for _, req := range reqs {
			pollRequest(ctx, eng, req)
		}
		offset += len(reqs)
		if len(reqs) == 0 || int64(offset) >= total {
			return
		}
	}
}

func pollRequest(ctx context.Context, eng *syncpkg.Engine, req *models.TranslationRequest) {
	if req.Status != models.RequestActive || req.ProviderReference == "" {
		return
	}

	adapter, ok := eng.Providers.Get(req.Provider)
	if !ok {
		return
	}
	p, ok := adapter.(provider.Poller)
	if !ok {
		// Push-mode provider, nothing to poll.
		return
	}

	ref, err := reference.Parse(req.ProviderReference)
	if err != nil {
		logger.Logger.Error("poller found malformed reference",
			"request", req.ID, "reference", req.ProviderReference)
		return
	}

	cred, err := eng.Creds.Get(ctx, adapter)
	if err != nil {
		logger.Logger.Error("poller authentication failed",
			"provider", req.Provider, "error", err.Error())
		return
	}

	payloads, err := p.Poll(ctx, cred, ref)
	if err != nil {
		logger.Logger.Error("poll failed",
			"provider", req.Provider, "request", req.ID, "error", err.Error())
		return
	}

	for _, payload := range payloads {
		task, err := tasks.NewNotificationProcessTask(req.Provider, payload)
		if err != nil {
			logger.Logger.Error("failed to build notification task", "error", err.Error())
			continue
		}
		if _, err := tasks.AsynqClient.Enqueue(task); err != nil {
			logger.Logger.Error("failed to enqueue polled notification",
				"request", req.ID, "error", err.Error())
		}
	}
}

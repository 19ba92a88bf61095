package bootstrap

// Builds the synchronization engine and its collaborators from
// configuration. Both the API process and the queue worker call Build so
// they share one code path; the engine instance is also handed to the
// task package for queued notification processing.

import (
	"context"
	"time"

	"content_trans_api/config"
	"content_trans_api/models/models"
	"content_trans_api/pkg/contentstore"
	"content_trans_api/pkg/db/mysql"
	"content_trans_api/pkg/extract"
	"content_trans_api/pkg/httpclient"
	"content_trans_api/pkg/logger"
	"content_trans_api/pkg/pretranslate"
	"content_trans_api/pkg/provider"
	"content_trans_api/pkg/provider/epoetry"
	"content_trans_api/pkg/provider/poetry"
	"content_trans_api/pkg/provider/transrest"
	"content_trans_api/pkg/rds"
	"content_trans_api/pkg/reference"
	"content_trans_api/pkg/request"
	"content_trans_api/pkg/sync"
	"content_trans_api/pkg/tasks"
	"content_trans_api/utils/translateapi"
)

var engine *sync.Engine

type redisLocker struct{}

func (redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return rds.AcquireLock(ctx, key, ttl)
}

func (redisLocker) Release(ctx context.Context, key string) {
	rds.ReleaseLock(ctx, key)
}

func providerConfig(cfg config.ProviderConfig) (string, string, string, string, int, float64, time.Duration) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return cfg.Endpoint, cfg.Username, cfg.Password, cfg.RequesterCode, cfg.PageSize, cfg.VolumeMultiplier, timeout
}

// Engine returns the shared synchronization engine, building it on first
// use.
func Engine() *sync.Engine {
	if engine != nil {
		return engine
	}

	refs := reference.NewXormRegistry(mysql.MysqlEngine)
	store := request.NewXormStore(mysql.MysqlEngine)
	logs := request.NewXormLogStore(mysql.MysqlEngine)

	registry := provider.NewRegistry()

	endpoint, user, pass, requester, pageSize, multiplier, timeout := providerConfig(config.Cfg.Providers.Poetry)
	registry.Register(poetry.New(poetry.Config{
		Endpoint:         endpoint,
		Username:         user,
		Password:         pass,
		RequesterCode:    requester,
		PageSize:         pageSize,
		VolumeMultiplier: multiplier,
		Timeout:          timeout,
	}, poetry.NewHTTPTransport(endpoint, httpclient.Client.Client), refs))

	endpoint, user, pass, requester, pageSize, multiplier, timeout = providerConfig(config.Cfg.Providers.Epoetry)
	registry.Register(epoetry.New(epoetry.Config{
		Endpoint:         endpoint,
		Username:         user,
		Password:         pass,
		RequesterCode:    requester,
		PageSize:         pageSize,
		VolumeMultiplier: multiplier,
		Timeout:          timeout,
	}, epoetry.NewHTTPTransport(endpoint, httpclient.Client.Client), refs))

	endpoint, user, pass, requester, pageSize, multiplier, timeout = providerConfig(config.Cfg.Providers.Transrest)
	registry.Register(transrest.New(transrest.Config{
		Endpoint:         endpoint,
		Username:         user,
		Password:         pass,
		RequesterCode:    requester,
		PageSize:         pageSize,
		VolumeMultiplier: multiplier,
		Timeout:          timeout,
	}, httpclient.Client.Client, refs))

	extractor := extract.NewEngine(contentstore.New(), &extract.ExcludeListPolicy{
		Excluded: config.Cfg.Fields.Excluded,
	})

	engine = &sync.Engine{
		Store:         store,
		Logs:          logs,
		Refs:          refs,
		Providers:     registry,
		Creds:         provider.NewCredentialCache(),
		Extractor:     extractor,
		Locks:         request.NewKeyedMutex(),
		EntityLocks:   redisLocker{},
		Notify:        enqueueWebhook,
		Pretranslator: pretranslate.New(translateapi.Translate),
	}
	tasks.Engine = engine
	return engine
}

// enqueueWebhook fans a delivery out to the webhook queue. Failures are
// logged, never propagated: operator notification must not fail the
// event that triggered it.
func enqueueWebhook(req *models.TranslationRequest, langcode string, ev models.EventType) {
	task, err := tasks.NewWebhookNotifyTask(req.ID, langcode, string(ev))
	if err != nil {
		logger.Logger.Error("failed to build webhook task", "error", err.Error())
		return
	}
	if _, err := tasks.AsynqClient.Enqueue(task); err != nil {
		logger.Logger.Error("failed to enqueue webhook task",
			"request", req.ID, "error", err.Error())
	}
}

package api

import (
	"net/http"

	"content_trans_api/config"
	"content_trans_api/models/models"
	responsex "content_trans_api/pkg/response"
	"content_trans_api/pkg/tasks"
	"content_trans_api/service/api/middleware/auth"
	"content_trans_api/service/api/notify"
	"content_trans_api/service/api/requests"
	"content_trans_api/service/api/webhook"
	"content_trans_api/service/bootstrap"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
)

func Run() {
	defer tasks.AsynqClient.Close()

	// The engine is built up front so a misconfigured provider fails the
	// process at startup, not on the first request.
	bootstrap.Engine()

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	// Basic CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Callback-Token", "access_token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/requests", func(r chi.Router) {
		r.Use(auth.Operator())

		r.Post("/", requests.Create)
		r.Get("/", requests.List)
		r.Get("/{id}", requests.GetOne)
		r.Post("/{id}/submit", requests.Submit)
		r.Post("/{id}/languages", requests.Modify)
		r.Post("/{id}/languages/{langcode}/synchronize", requests.Synchronize)
		r.Post("/{id}/languages/{langcode}/pretranslate", requests.Pretranslate)
		r.Post("/{id}/renew", requests.Renew)
		r.Get("/{id}/log", requests.GetLog)
	})

	// Inbound provider callbacks, authenticated by shared token.
	r.Route("/notify", func(r chi.Router) {
		r.Use(auth.Callback())
		r.Post("/{provider}", notify.Receive)
	})

	r.Route("/webhook", func(r chi.Router) {
		r.Use(auth.Operator())

		r.Get("/", webhook.GetConfig)
		r.Post("/", webhook.AddConfig)
		r.Put("/{id}", webhook.UpdateConfig)
		r.Delete("/{id}", webhook.DeleteConfig)
	})

	r.Get("/languages", GetSupportedLanguages)
	r.Get("/providers", GetProviders)

	http.ListenAndServe(config.Cfg.Listen, r)
}

func GetSupportedLanguages(w http.ResponseWriter, r *http.Request) {
	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Success",
		Data: config.SupportedLanguages,
	})
}

func GetProviders(w http.ResponseWriter, r *http.Request) {
	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Success",
		Data: bootstrap.Engine().Providers.IDs(),
	})
}

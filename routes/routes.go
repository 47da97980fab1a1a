package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formtide/survey-runtime/app"
	"github.com/formtide/survey-runtime/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// respondent-facing
	api.Get("/s/{token}", PublicGetSurvey(app))
	api.Post("/s/{token}/responses", PublicSubmitResponse(app))
	api.Post("/s/{token}/evaluate-logic", PublicEvaluateLogic(app))

	// cross-device resume
	api.Get("/s/{token}/progress", GetProgress(app))
	api.Put("/s/{token}/progress", SaveProgress(app))
	api.Delete("/s/{token}/progress", DeleteProgress(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD survey
		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get("/surveys/{id}", GetSurveyByID(app))
		r.Put("/surveys/{id}", UpdateSurvey(app))
		r.Delete("/surveys/{id}", DeleteSurvey(app))

		r.Get("/surveys/{id}/responses", GetSurveyResponses(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

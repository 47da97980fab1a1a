package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/formtide/survey-runtime/app"
	"github.com/formtide/survey-runtime/httpx"
	"github.com/formtide/survey-runtime/log"
	"github.com/formtide/survey-runtime/model"
	"github.com/formtide/survey-runtime/progress"
)

// Saved-progress endpoints let a respondent resume on another device. The
// same retention and token checks apply as for the embedded session; the
// backend is whatever store the server was started with.

func progressSaver(app app.App, shareToken, surveyID string) *progress.AutoSaver {
	return progress.NewAutoSaver(app.Progress, shareToken, surveyID,
		progress.WithDebounce(app.AutoSaveDebounce),
		progress.WithRetention(app.ProgressRetention),
	)
}

func GetProgress(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shareToken := chi.URLParam(r, "token")

		survey, err := fetchSurveyByToken(r.Context(), app, shareToken)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		if survey == nil {
			httpx.LogNotFound(w, "get_survey", shareToken)
			return
		}

		saver := progressSaver(app, shareToken, survey.ID)
		record, ok := saver.Load(r.Context())
		if !ok || record.SurveyID != survey.ID {
			httpx.LogNotFound(w, "get_progress", shareToken)
			return
		}

		render.JSON(w, r, record)
	}
}

type saveProgressRequest struct {
	Answers              model.AnswerMap `json:"answers"`
	CurrentQuestionIndex int             `json:"currentQuestionIndex"`
}

func SaveProgress(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shareToken := chi.URLParam(r, "token")

		var req saveProgressRequest
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		survey, err := fetchSurveyByToken(r.Context(), app, shareToken)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		if survey == nil {
			httpx.LogNotFound(w, "get_survey", shareToken)
			return
		}

		saver := progressSaver(app, shareToken, survey.ID)
		saver.SaveImmediate(r.Context(), req.Answers, req.CurrentQuestionIndex)

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteProgress(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shareToken := chi.URLParam(r, "token")

		survey, err := fetchSurveyByToken(r.Context(), app, shareToken)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		if survey == nil {
			httpx.LogNotFound(w, "get_survey", shareToken)
			return
		}

		saver := progressSaver(app, shareToken, survey.ID)
		saver.Clear(r.Context())

		w.WriteHeader(http.StatusNoContent)
	}
}

package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/formtide/survey-runtime/app"
	"github.com/formtide/survey-runtime/httpx"
	"github.com/formtide/survey-runtime/log"
	"github.com/formtide/survey-runtime/logic"
	"github.com/formtide/survey-runtime/model"
	"github.com/formtide/survey-runtime/validate"
)

// PublicGetSurvey serves the survey definition for a share token: questions
// in order plus their logic rules, ready for a respondent session.
func PublicGetSurvey(app app.App) http.HandlerFunc {
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

		render.JSON(w, r, survey)
	}
}

type submitRequest struct {
	Answers []model.SubmissionAnswer `json:"answers"`
}

type inFlightCheck struct {
	op     bool
	key    string
	result chan<- bool
}

// PublicSubmitResponse validates a full answer set against the questions
// the respondent could actually see and records it. Duplicate in-flight
// submissions from the same address are rejected.
func PublicSubmitResponse(app app.App) http.HandlerFunc {
	inFlight := make(chan inFlightCheck)
	go func() {
		pending := make(map[string]bool)

		for {
			req := <-inFlight
			if req.op {
				req.result <- pending[req.key]
				pending[req.key] = true
			} else {
				delete(pending, req.key)
			}
		}
	}()

	return func(w http.ResponseWriter, r *http.Request) {
		shareToken := chi.URLParam(r, "token")

		var submission submitRequest
		err := render.DecodeJSON(r.Body, &submission)
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

		answers := decodeSubmission(survey, submission.Answers)

		ok, validationErrors := validate.Visible(survey.Questions, answers)
		if !ok {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, map[string]any{
				"errors": validationErrors,
			})
			return
		}

		ip := strings.Split(r.RemoteAddr, ":")[0]
		key := shareToken + "|" + ip
		inFlightDone := make(chan bool)
		inFlight <- inFlightCheck{true, key, inFlightDone}
		if <-inFlightDone {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "response.already_submitting")
			return
		}
		defer func() { inFlight <- inFlightCheck{false, key, nil} }()

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		responseID := uuid.NewString()
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO response (id, survey_id, time, ip) VALUES (?, ?, ?, ?)`,
			responseID,
			survey.ID,
			time.Now(),
			ip,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO answer (response_id, question_id, value)
			VALUES (?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response.answers.prepare", err)
			return
		}
		defer stmt.Close()

		for _, a := range model.EncodeAnswers(logic.VisibleQuestions(survey.Questions, answers), answers) {
			_, err := stmt.ExecContext(r.Context(), responseID, a.QuestionID, a.Value)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_response.answers.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": responseID,
		})
	}
}

type evaluateRequest struct {
	Answers []model.SubmissionAnswer `json:"answers"`
}

// PublicEvaluateLogic recomputes the visible-question projection server
// side, so collaborators can double-check the client engine's outcome.
func PublicEvaluateLogic(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shareToken := chi.URLParam(r, "token")

		var req evaluateRequest
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

		answers := decodeSubmission(survey, req.Answers)

		visible := logic.VisibleQuestions(survey.Questions, answers)
		visibleIDs := make([]string, len(visible))
		for i, q := range visible {
			visibleIDs[i] = q.ID
		}

		render.JSON(w, r, map[string]any{
			"visibleQuestionIds": visibleIDs,
			"shouldEndSurvey":    logic.ShouldEndSurvey(survey.Questions, answers),
		})
	}
}

func decodeSubmission(survey *model.Survey, answers []model.SubmissionAnswer) model.AnswerMap {
	byID := make(map[string]model.Question, len(survey.Questions))
	for _, q := range survey.Questions {
		byID[q.ID] = q
	}

	decoded := model.AnswerMap{}
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		if v := model.DecodeAnswer(q, a.Value); v.IsAnswered() {
			decoded[q.ID] = v
		}
	}
	return decoded
}

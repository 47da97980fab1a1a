package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/formtide/survey-runtime/app"
	"github.com/formtide/survey-runtime/httpx"
	"github.com/formtide/survey-runtime/log"
	"github.com/formtide/survey-runtime/model"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey := model.Survey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		survey.ID = uuid.NewString()
		survey.ShareToken = uuid.NewString()
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO survey (id, share_token, title, description, welcome_message, thank_you_message)
			VALUES (?, ?, ?, ?, ?, ?)`,
			survey.ID,
			survey.ShareToken,
			survey.Title,
			survey.Description,
			survey.WelcomeMessage,
			survey.ThankYouMessage,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		err = insertQuestions(r.Context(), tx, &survey)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey.questions", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":         survey.ID,
			"shareToken": survey.ShareToken,
		})
	}
}

// insertQuestions writes a survey's questions and logic rules, assigning
// fresh ids and remapping rule targets that reference sibling questions by
// their submitted (client-side) ids.
func insertQuestions(ctx context.Context, tx *sql.Tx, survey *model.Survey) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO question (id, survey_id, ord, type, text, description, required, settings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	idMap := make(map[string]string, len(survey.Questions))
	for i := range survey.Questions {
		q := &survey.Questions[i]
		id := uuid.NewString()
		if q.ID != "" {
			idMap[q.ID] = id
		}
		q.ID = id
	}

	ruleStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO logic_rule (id, question_id, ord, operator, value, action, target_question_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ruleStmt.Close()

	for _, q := range survey.Questions {
		var settings []byte
		if q.Settings != nil {
			settings, err = json.Marshal(q.Settings)
			if err != nil {
				return err
			}
		}
		_, err = stmt.ExecContext(ctx, q.ID, survey.ID, q.Order, q.Type, q.Text, q.Description, q.IsRequired, string(settings))
		if err != nil {
			return err
		}

		for _, rule := range q.LogicRules {
			target := sql.NullString{}
			if rule.TargetQuestionID != "" {
				target.Valid = true
				target.String = rule.TargetQuestionID
				if mapped, ok := idMap[rule.TargetQuestionID]; ok {
					target.String = mapped
				}
			}
			_, err = ruleStmt.ExecContext(ctx, uuid.NewString(), q.ID, rule.Order, rule.Operator, rule.Value, rule.Action, target)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT s.id, s.version, s.share_token, s.title, s.description
			FROM survey s`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}
		defer rows.Close()

		surveys := []model.Survey{}
		for rows.Next() {
			s := model.Survey{}
			err = rows.Scan(&s.ID, &s.Version, &s.ShareToken, &s.Title, &s.Description)
			if err != nil {
				httpx.LogInternalError(w, "db.get_surveys.scan", err)
				return
			}

			surveys = append(surveys, s)
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyByID(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID := chi.URLParam(r, "id")

		survey, err := fetchSurveyByID(r.Context(), app, surveyID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		if survey == nil {
			httpx.LogNotFound(w, "get_survey", surveyID)
			return
		}

		render.JSON(w, r, survey)
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID := chi.URLParam(r, "id")

		survey := model.Survey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		survey.ID = surveyID

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		// recreate all questions and rules
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM question
			WHERE survey_id = ?`,
			surveyID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.delete_questions", err)
			return
		}

		err = insertQuestions(r.Context(), tx, &survey)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.questions", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			UPDATE survey
			SET
				title = ?,
				description = ?,
				welcome_message = ?,
				thank_you_message = ?,
				version = version+1
			WHERE	id = ?
				AND version = ?`,
			survey.Title,
			survey.Description,
			survey.WelcomeMessage,
			survey.ThankYouMessage,
			surveyID,
			survey.Version,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}
		// optimistic lock
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_survey.verify.conflict")
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID := chi.URLParam(r, "id")

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM survey WHERE id = ?`,
			surveyID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_survey", surveyID)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetSurveyResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID := chi.URLParam(r, "id")

		rows, err := app.QueryContext(r.Context(), `
			SELECT r.id, r.time, r.ip, a.question_id, a.value
			FROM response r
			INNER JOIN answer a ON (r.id = a.response_id)
			WHERE r.survey_id = ?
			ORDER BY r.time, r.id`,
			surveyID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}
		defer rows.Close()

		responses := []model.Response{}
		for rows.Next() {
			resp := model.Response{}
			var questionID, value string

			err = rows.Scan(&resp.ID, &resp.Time, &resp.IP, &questionID, &value)
			if err != nil {
				httpx.LogInternalError(w, "db.get_responses.scan", err)
				return
			}

			lastIdx := len(responses) - 1
			if lastIdx > -1 && responses[lastIdx].ID == resp.ID {
				responses[lastIdx].Answers[questionID] = value
			} else {
				resp.Answers = map[string]string{questionID: value}
				responses = append(responses, resp)
			}
		}
		if err := rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.get_responses.rows", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

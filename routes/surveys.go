package routes

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/formtide/survey-runtime/app"
	"github.com/formtide/survey-runtime/log"
	"github.com/formtide/survey-runtime/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func fetchSurveyByToken(ctx context.Context, app app.App, shareToken string) (*model.Survey, error) {
	return fetchSurvey(ctx, app.DB, "s.share_token = ?", shareToken)
}

func fetchSurveyByID(ctx context.Context, app app.App, id string) (*model.Survey, error) {
	return fetchSurvey(ctx, app.DB, "s.id = ?", id)
}

// fetchSurvey loads one survey with its questions and logic rules. Returns
// (nil, nil) when no survey matches.
func fetchSurvey(ctx context.Context, db querier, where string, arg any) (*model.Survey, error) {
	survey := model.Survey{}
	err := db.QueryRowContext(ctx, `
		SELECT s.id, s.version, s.share_token, s.title, s.description, s.welcome_message, s.thank_you_message
		FROM survey s
		WHERE `+where,
		arg,
	).Scan(
		&survey.ID, &survey.Version, &survey.ShareToken,
		&survey.Title, &survey.Description,
		&survey.WelcomeMessage, &survey.ThankYouMessage,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT q.id, q.ord, q.type, q.text, q.description, q.required, q.settings
		FROM question q
		WHERE q.survey_id = ?
		ORDER BY q.ord`,
		survey.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		q := model.Question{}
		var settings string
		err = rows.Scan(&q.ID, &q.Order, &q.Type, &q.Text, &q.Description, &q.IsRequired, &settings)
		if err != nil {
			return nil, err
		}

		if settings != "" {
			q.Settings = &model.QuestionSettings{}
			if err := json.Unmarshal([]byte(settings), q.Settings); err != nil {
				// a bad settings blob must not take the survey down
				log.Debugf("db.get_survey.parse_settings: %s (question %s)", err, q.ID)
				q.Settings = nil
			}
		}

		survey.Questions = append(survey.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := fetchLogicRules(ctx, db, &survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

func fetchLogicRules(ctx context.Context, db querier, survey *model.Survey) error {
	rows, err := db.QueryContext(ctx, `
		SELECT r.id, r.question_id, r.ord, r.operator, r.value, r.action, r.target_question_id
		FROM logic_rule r
		INNER JOIN question q ON (q.id = r.question_id)
		WHERE q.survey_id = ?
		ORDER BY r.question_id, r.ord`,
		survey.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	byQuestion := map[string][]model.LogicRule{}
	for rows.Next() {
		rule := model.LogicRule{}
		var target sql.NullString
		err = rows.Scan(&rule.ID, &rule.SourceQuestionID, &rule.Order, &rule.Operator, &rule.Value, &rule.Action, &target)
		if err != nil {
			return err
		}
		rule.TargetQuestionID = target.String
		byQuestion[rule.SourceQuestionID] = append(byQuestion[rule.SourceQuestionID], rule)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range survey.Questions {
		survey.Questions[i].LogicRules = byQuestion[survey.Questions[i].ID]
	}
	return nil
}

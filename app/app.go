package app

import (
	"database/sql"

	"github.com/formtide/survey-runtime/config"
	"github.com/formtide/survey-runtime/progress"
	"github.com/go-chi/oauth"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Progress progress.Store
}

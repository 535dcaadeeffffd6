package cmd

import (
	"database/sql"
	"fmt"

	"github.com/bmacd/skyscore/internal/batch"
	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/storage/sqlite"
	"github.com/bmacd/skyscore/pkg/logger"
)

// app holds everything a subcommand needs, built once per invocation
type app struct {
	cfg     *config.Config
	logger  *logger.Logger
	db      *sql.DB
	flights *sqlite.FlightStorage
	refs    *sqlite.ReferenceStorage
	scores  *sqlite.ScoreStorage
	runner  *batch.Runner
}

// newApp loads configuration, opens the database and wires the services
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := sqlite.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}

	flights := sqlite.NewFlightStorage(db, log)
	refs := sqlite.NewReferenceStorage(db, log)
	scores := sqlite.NewScoreStorage(db, log)
	runner := batch.NewRunner(flights, refs, scores, cfg, log)

	return &app{
		cfg:     cfg,
		logger:  log,
		db:      db,
		flights: flights,
		refs:    refs,
		scores:  scores,
		runner:  runner,
	}, nil
}

// close releases the database and flushes logs
func (a *app) close() {
	a.db.Close()
	_ = a.logger.Sync()
}

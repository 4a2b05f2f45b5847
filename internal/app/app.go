package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/brandwell/contentforge/internal/common"
	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/jobs/orchestrator"
	"github.com/brandwell/contentforge/internal/services/ai"
	"github.com/brandwell/contentforge/internal/services/generation"
	"github.com/brandwell/contentforge/internal/services/progress"
	"github.com/brandwell/contentforge/internal/services/recovery"
	"github.com/brandwell/contentforge/internal/services/scheduler"
	"github.com/brandwell/contentforge/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB           *badger.BadgerDB
	Assets       interfaces.AssetRepository
	Templates    interfaces.TemplateRepository
	Publications interfaces.PublicationStore

	Providers    *ai.ProviderFactory
	Images       *ai.ImageService
	Audit        ai.AuditLogger
	Tracker      interfaces.ProgressTracker
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *scheduler.Service
}

// New wires the full generation pipeline from configuration
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var audit ai.AuditLogger = ai.NewNullAuditLogger()
	if config.LLM.AuditEnabled {
		audit = ai.NewBadgerAuditLogger(db.Store(), logger)
	}

	providers := ai.NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, audit, logger)
	images := ai.NewImageService(&config.Images, &config.Gemini, config.Storage.Filesystem.Images, audit, logger)

	factory := generation.NewFactory(providers, images, generation.NewHeuristicAreaInferer(), logger)
	tracker := progress.NewTracker(logger)
	selector := recovery.NewSelector(config.LLM.FallbackProvider != "", logger)

	assets := badger.NewAssetStorage(db, logger)
	templates := badger.NewTemplateStorage(db, logger)
	publications := badger.NewPublicationStorage(db, logger)

	orch := orchestrator.New(
		factory,
		tracker,
		selector,
		assets,
		templates,
		publications,
		&config.Generation,
		config.Images.Quality,
		string(config.LLM.FallbackProvider),
		logger,
	)

	app := &App{
		Config:       config,
		Logger:       logger,
		DB:           db,
		Assets:       assets,
		Templates:    templates,
		Publications: publications,
		Providers:    providers,
		Images:       images,
		Audit:        audit,
		Tracker:      tracker,
		Orchestrator: orch,
		Scheduler:    scheduler.NewService(orch, &config.Scheduler, logger),
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("default_provider", string(config.LLM.DefaultProvider)).
		Bool("scheduler", config.Scheduler.Enabled).
		Msg("Application wired")
	return app, nil
}

// Close releases all application resources
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Providers != nil {
		if err := a.Providers.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close provider clients")
		}
	}
	if a.Audit != nil {
		if err := a.Audit.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close audit logger")
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

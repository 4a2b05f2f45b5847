package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/brandwell/contentforge/internal/app"
	"github.com/brandwell/contentforge/internal/common"
	"github.com/brandwell/contentforge/internal/models"
	"github.com/brandwell/contentforge/internal/planfile"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	planPath     = flag.String("plan", "", "Campaign plan file (YAML) to generate")
	watch        = flag.Bool("watch", false, "Register the plan with the scheduler instead of running immediately")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("ContentForge version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence: config, logger, banner, then wiring
	if len(configFiles) == 0 {
		if _, err := os.Stat("contentforge.toml"); err == nil {
			configFiles = append(configFiles, "contentforge.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetFullVersion())

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *planPath == "" {
		logger.Fatal().Msg("No plan file specified, use -plan <file>")
		os.Exit(1)
	}

	plan, err := planfile.Load(*planPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *planPath).Msg("Failed to load campaign plan")
		os.Exit(1)
	}

	if err := seedPlan(ctx, application, plan); err != nil {
		logger.Fatal().Err(err).Msg("Failed to store plan assets and templates")
		os.Exit(1)
	}

	if *watch || config.Scheduler.Enabled {
		runScheduled(ctx, application, plan, logger)
		return
	}

	runOnce(ctx, application, plan, logger)
}

// runOnce generates the whole campaign synchronously and exits
func runOnce(ctx context.Context, application *app.App, plan *planfile.Plan, logger arbor.ILogger) {
	progress, err := application.Orchestrator.RunCampaign(ctx, plan.CampaignID, plan.Items, plan.Brand)
	if err != nil {
		logger.Fatal().Err(err).Str("campaign_id", plan.CampaignID).Msg("Campaign run failed to start")
		os.Exit(1)
	}

	logger.Info().
		Str("campaign_id", progress.CampaignID).
		Str("status", string(progress.Status)).
		Int("completed", progress.CompletedItems).
		Int("total", progress.TotalItems).
		Int("errors", len(progress.Errors)).
		Msg("Campaign run finished")

	for _, genErr := range progress.Errors {
		logger.Warn().
			Str("item_id", genErr.ItemID).
			Str("kind", genErr.Kind).
			Str("message", genErr.Message).
			Msg("Item failed")
	}

	if progress.Status == models.RunStatusFailed {
		os.Exit(1)
	}
}

// runScheduled hands the plan to the cron scheduler and blocks until a signal
func runScheduled(ctx context.Context, application *app.App, plan *planfile.Plan, logger arbor.ILogger) {
	application.Scheduler.RegisterPlan(plan)
	if err := application.Scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
		os.Exit(1)
	}

	logger.Info().Str("campaign_id", plan.CampaignID).Msg("Waiting for scheduled generation, Ctrl+C to stop")
	<-ctx.Done()
	logger.Info().Msg("Shutting down")
}

// seedPlan stores the plan's bundled assets and templates so items can
// resolve them during generation.
func seedPlan(ctx context.Context, application *app.App, plan *planfile.Plan) error {
	for i := range plan.Assets {
		if err := application.Assets.SaveAsset(ctx, &plan.Assets[i]); err != nil {
			return err
		}
	}
	for i := range plan.Templates {
		if err := application.Templates.SaveTemplate(ctx, &plan.Templates[i]); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/compliancecore/certextract/internal/audit"
	"github.com/compliancecore/certextract/internal/common"
	"github.com/compliancecore/certextract/internal/extraction/breaker"
	"github.com/compliancecore/certextract/internal/extraction/format"
	"github.com/compliancecore/certextract/internal/extraction/orchestrator"
	"github.com/compliancecore/certextract/internal/extraction/providers"
	"github.com/compliancecore/certextract/internal/extraction/providers/anthropicprovider"
	"github.com/compliancecore/certextract/internal/extraction/providers/geminiprovider"
	"github.com/compliancecore/certextract/internal/extraction/providers/tesseractprovider"
	"github.com/compliancecore/certextract/internal/extraction/qrmeta"
	"github.com/compliancecore/certextract/internal/extraction/template"
	"github.com/compliancecore/certextract/internal/extraction/typedetect"
	"github.com/compliancecore/certextract/internal/kvstore"
	"github.com/compliancecore/certextract/internal/scheduler"
	"github.com/compliancecore/certextract/internal/settings"
	"github.com/compliancecore/certextract/pkg/pdfx"
)

// configPaths is a custom flag type allowing multiple -config flags.
type configPaths []string

func (c *configPaths) String() string { return fmt.Sprintf("%v", *c) }
func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	certPath    = flag.String("file", "", "Path to a certificate document to extract")
	forceAI     = flag.Bool("force-ai", false, "Force AI-backed tiers on regardless of the settings store")
	noAI        = flag.Bool("no-ai", false, "Force AI-backed tiers off regardless of the settings store")
	watchDir    = flag.String("watch-dir", "", "Directory to periodically sweep for new certificate files")
	watchCron   = flag.String("watch-cron", "*/1 * * * *", "Cron schedule for -watch-dir sweeps")
	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("certextract version %s\n", common.GetVersion())
		os.Exit(0)
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("certextract.toml"); err == nil {
			configFiles = append(configFiles, "certextract.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("failed to load configuration files")
		os.Exit(1)
	}

	logger := common.SetupLogger(config)
	defer common.Stop()

	common.PrintBanner(config, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("interrupt received, shutting down")
		cancel()
	}()

	orch, closeFn, err := buildOrchestrator(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize extraction pipeline")
	}
	defer closeFn()

	if *watchDir != "" {
		sweepService := scheduler.New(orch, *watchDir, logger)
		if err := sweepService.Start(*watchCron); err != nil {
			logger.Fatal().Err(err).Msg("failed to start directory sweep scheduler")
		}
		<-ctx.Done()
		sweepService.Stop()
		common.PrintShutdownBanner(logger)
		return
	}

	if *certPath == "" {
		logger.Info().Msg("no -file given, pipeline initialized and idle; pass -file to extract a document, or -watch-dir to sweep a directory")
		common.PrintShutdownBanner(logger)
		return
	}

	content, err := os.ReadFile(*certPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *certPath).Msg("failed to read certificate file")
	}

	var opts orchestrator.Options
	switch {
	case *forceAI:
		v := true
		opts.ForceAI = &v
	case *noAI:
		v := false
		opts.ForceAI = &v
	}

	result := orch.Extract(ctx, common.NewDocumentID(), content, "", *certPath, opts)

	logger.Info().
		Str("finalTier", string(result.FinalTier)).
		Bool("success", result.Success).
		Bool("requiresReview", result.RequiresReview).
		Float64("confidence", result.Confidence).
		Float64("totalCost", result.TotalCost).
		Int64("processingTimeMs", result.TotalProcessingTimeMs).
		Msg("extraction complete")

	for _, w := range result.Warnings {
		logger.Warn().Str("warning", w).Msg("extraction warning")
	}

	common.PrintShutdownBanner(logger)
}

// buildOrchestrator wires the settings store, audit sink, provider
// registry, and circuit breaker into a ready-to-use Orchestrator, the way
// app.New composes quaero's crawler/indexer/server dependency graph.
func buildOrchestrator(config *common.Config, logger arbor.ILogger) (*orchestrator.Orchestrator, func(), error) {
	settingsStore, err := kvstore.Open(config.Storage.Badger.SettingsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening settings store: %w", err)
	}

	auditSink, err := audit.OpenBadgerSink(config.Storage.Badger.AuditPath)
	if err != nil {
		settingsStore.Close()
		return nil, nil, fmt.Errorf("opening audit sink: %w", err)
	}

	closeFn := func() {
		auditSink.Close()
		settingsStore.Close()
	}

	brk := breaker.New(breaker.Config{
		FailureThreshold: config.Extraction.BreakerFailureThreshold,
		SuccessThreshold: config.Extraction.BreakerSuccessThreshold,
		Timeout:          config.Extraction.BreakerTimeout,
		ResetTimeout:     config.Extraction.BreakerResetTimeout,
	})

	registry := providers.NewRegistry(brk)

	// Higher priority is tried first; the configured default provider gets
	// the higher number so it's attempted before the fallback.
	geminiPriority, claudePriority := 20, 10
	if config.LLM.DefaultProvider == common.LLMProviderClaude {
		geminiPriority, claudePriority = 10, 20
	}

	if config.Gemini.APIKey != "" {
		gemini := geminiprovider.New(&config.Gemini, settingsStore, logger)
		registry.Register(providers.CapabilityTextExtraction, gemini, geminiPriority)
		registry.Register(providers.CapabilityVision, gemini, geminiPriority)
		registry.Register(providers.CapabilityDocumentIntelligence, gemini, geminiPriority)
	}
	if config.Claude.APIKey != "" {
		claude := anthropicprovider.New(&config.Claude, settingsStore, logger)
		registry.Register(providers.CapabilityTextExtraction, claude, claudePriority)
		registry.Register(providers.CapabilityVision, claude, claudePriority)
	}

	tesseract := tesseractprovider.New(config.Extraction.TesseractPath)
	registry.Register(providers.CapabilityOCR, tesseract, 30)

	pdfExtractor := pdfx.NewExtractor()
	detector := typedetect.NewDetector(settingsStore)
	analyser := format.NewAnalyser(pdfExtractor, detector)
	harvester := qrmeta.NewHarvester(pdfExtractor)
	templateExtractor := template.NewExtractor()
	loader := settings.NewLoader(settingsStore)

	orch := orchestrator.New(loader, analyser, harvester, templateExtractor, registry, auditSink, logger)
	return orch, closeFn, nil
}

// Package scheduler runs a periodic directory rescan on a cron schedule,
// generalising the quaero scheduler's single robfig/cron instance plus
// named job-entry bookkeeping down to the one recurring job this pipeline
// needs: sweep an inbox directory and extract anything new.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/compliancecore/certextract/internal/common"
	"github.com/compliancecore/certextract/internal/extraction/orchestrator"
)

// Service wraps a robfig/cron instance that, on each tick, scans a
// directory for files not yet seen and runs each through the orchestrator.
type Service struct {
	cron   *cron.Cron
	orch   *orchestrator.Orchestrator
	logger arbor.ILogger

	mu   sync.Mutex
	seen map[string]struct{}

	watchDir string
	entryID  cron.EntryID
	running  bool
}

// New builds a scheduler over watchDir, not yet started.
func New(orch *orchestrator.Orchestrator, watchDir string, logger arbor.ILogger) *Service {
	return &Service{
		cron:     cron.New(),
		orch:     orch,
		logger:   logger,
		seen:     make(map[string]struct{}),
		watchDir: watchDir,
	}
}

// Start registers the sweep job at the given cron expression and starts
// the underlying cron.Cron. An empty expression defaults to once a minute.
func (s *Service) Start(cronExpr string) error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		cronExpr = "*/1 * * * *"
	}
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cronExpr, err)
	}

	entryID, err := s.cron.AddFunc(cronExpr, s.sweep)
	if err != nil {
		return fmt.Errorf("registering sweep job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.running = true
	s.logger.Info().Str("watchDir", s.watchDir).Str("schedule", cronExpr).Msg("directory sweep scheduler started")
	return nil
}

// Stop halts the cron scheduler, waiting for an in-flight sweep to finish.
func (s *Service) Stop() {
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info().Msg("directory sweep scheduler stopped")
}

// sweep is the cron-invoked job: list watchDir, extract every file not
// already processed this process lifetime.
func (s *Service) sweep() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("panic recovered in directory sweep")
		}
	}()

	entries, err := os.ReadDir(s.watchDir)
	if err != nil {
		s.logger.Warn().Err(err).Str("watchDir", s.watchDir).Msg("failed to list watch directory")
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.watchDir, entry.Name())

		s.mu.Lock()
		_, already := s.seen[path]
		if !already {
			s.seen[path] = struct{}{}
		}
		s.mu.Unlock()
		if already {
			continue
		}

		s.processOne(path)
	}
}

func (s *Service) processOne(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("failed to read certificate file during sweep")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result := s.orch.Extract(ctx, common.NewDocumentID(), content, "", filepath.Base(path), orchestrator.Options{})
	s.logger.Info().
		Str("path", path).
		Str("finalTier", string(result.FinalTier)).
		Bool("success", result.Success).
		Bool("requiresReview", result.RequiresReview).
		Msg("swept certificate extracted")
}

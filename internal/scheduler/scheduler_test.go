package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/compliancecore/certextract/internal/audit"
	"github.com/compliancecore/certextract/internal/extraction/breaker"
	"github.com/compliancecore/certextract/internal/extraction/format"
	"github.com/compliancecore/certextract/internal/extraction/orchestrator"
	"github.com/compliancecore/certextract/internal/extraction/providers"
	"github.com/compliancecore/certextract/internal/extraction/qrmeta"
	"github.com/compliancecore/certextract/internal/extraction/template"
	"github.com/compliancecore/certextract/internal/extraction/typedetect"
	"github.com/compliancecore/certextract/internal/kvstore"
	"github.com/compliancecore/certextract/internal/settings"
	"github.com/compliancecore/certextract/pkg/pdfx"
)

func newTestService(t *testing.T, watchDir string) *Service {
	t.Helper()

	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "kv"))
	if err != nil {
		t.Fatalf("opening kv store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	pdfExtractor := pdfx.NewExtractor()
	detector := typedetect.NewDetector(kv)
	analyser := format.NewAnalyser(pdfExtractor, detector)
	harvester := qrmeta.NewHarvester(pdfExtractor)
	templateExtractor := template.NewExtractor()
	loader := settings.NewLoader(kv)
	registry := providers.NewRegistry(breaker.New(breaker.DefaultConfig()))

	orch := orchestrator.New(loader, analyser, harvester, templateExtractor, registry, audit.NewNullSink(), arbor.NewLogger())
	return New(orch, watchDir, arbor.NewLogger())
}

func TestStart_RejectsInvalidSchedule(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	if err := svc.Start("not a cron expression"); err == nil {
		t.Fatal("expected an error for an invalid cron expression, got nil")
	}
}

func TestStart_DefaultsEmptyScheduleToEveryMinute(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	if err := svc.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop()

	if !svc.running {
		t.Error("expected running to be true after Start")
	}
}

func TestStart_RejectsDoubleStart(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	if err := svc.Start("*/1 * * * *"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop()

	if err := svc.Start("*/1 * * * *"); err == nil {
		t.Fatal("expected an error starting an already-running scheduler, got nil")
	}
}

func TestSweep_ProcessesEachFileOnceAndSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cert1.txt"), []byte("Certificate Number: GSR-1"), 0o644); err != nil {
		t.Fatalf("writing fixture file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatalf("creating subdirectory: %v", err)
	}

	svc := newTestService(t, dir)

	svc.sweep()
	if len(svc.seen) != 1 {
		t.Fatalf("expected 1 file tracked as seen after first sweep, got %d", len(svc.seen))
	}

	svc.sweep()
	if len(svc.seen) != 1 {
		t.Errorf("expected sweep to be idempotent, seen count changed to %d", len(svc.seen))
	}
}

func TestSweep_ToleratesMissingDirectory(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "does-not-exist"))

	done := make(chan struct{})
	go func() {
		svc.sweep()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not return for a missing watch directory")
	}
}

package typedetect

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/compliancecore/certextract/internal/interfaces"
	"github.com/compliancecore/certextract/internal/model"
)

const cacheTTL = 60 * time.Second

// PatternKey is the settings-store key under which the active pattern list
// is stored, JSON-encoded as an array of Pattern.
const PatternKey = "CERT_TYPE_PATTERNS"

// Detector identifies a certificate type from a filename and/or its
// extracted text, preferring database-sourced patterns (cached 60s) and
// falling back to a built-in UK compliance keyword table (C3).
type Detector struct {
	store interfaces.KeyValueStorage

	mu         sync.Mutex
	cached     []Pattern
	cachedAt   time.Time
}

// NewDetector builds a Detector over the settings store that owns the
// pattern list.
func NewDetector(store interfaces.KeyValueStorage) *Detector {
	return &Detector{store: store}
}

// Detect matches filename and textContent against the active pattern set,
// falling back to built-in patterns on no match. textContent may be empty
// (e.g. before Tier 0 extracts it) and is simply skipped for TextContent
// patterns in that case.
func (d *Detector) Detect(ctx context.Context, filename, textContent string) Detection {
	patterns := d.activePatterns(ctx)

	if best, ok := bestMatch(patterns, filename, textContent); ok {
		return Detection{Type: best.CertType, Confidence: confidenceFor(best.Priority), Source: "database"}
	}

	if best, ok := bestMatch(builtinPatterns, filename, textContent); ok {
		return Detection{Type: best.CertType, Confidence: confidenceFor(best.Priority), Source: "fallback"}
	}

	return Detection{Type: model.UnknownCertType, Confidence: 0, Source: "fallback"}
}

func confidenceFor(priority int) float64 {
	c := float64(priority) / 100
	if c > 1 {
		return 1
	}
	return c
}

// bestMatch returns the highest-priority pattern (already sorted
// descending) that matches, or false if none do.
func bestMatch(patterns []Pattern, filename, textContent string) (Pattern, bool) {
	for _, p := range patterns {
		switch p.Source {
		case SourceFilename:
			if matches(p.Matcher, p.Pattern, filename) {
				return p, true
			}
		case SourceTextContent:
			if textContent != "" && matches(p.Matcher, p.Pattern, textContent) {
				return p, true
			}
		}
	}
	return Pattern{}, false
}

func matches(m Matcher, pattern, value string) bool {
	lowerValue := strings.ToLower(value)
	lowerPattern := strings.ToLower(pattern)
	switch m {
	case MatcherContains:
		return strings.Contains(lowerValue, lowerPattern)
	case MatcherStartsWith:
		return strings.HasPrefix(lowerValue, lowerPattern)
	case MatcherEndsWith:
		return strings.HasSuffix(lowerValue, lowerPattern)
	case MatcherExact:
		return lowerValue == lowerPattern
	case MatcherRegex:
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return false
		}
		return re.MatchString(value)
	default:
		return false
	}
}

// activePatterns returns the cached pattern list, refreshing it from the
// store if the cache has expired. Refresh is single-writer under mu,
// mirroring the per-key locking idiom used elsewhere in this codebase for
// shared mutable cache state.
func (d *Detector) activePatterns(ctx context.Context) []Pattern {
	d.mu.Lock()
	defer d.mu.Unlock()

	if time.Since(d.cachedAt) < cacheTTL && d.cached != nil {
		return d.cached
	}

	loaded, err := loadPatterns(ctx, d.store)
	if err != nil {
		// Keep serving the stale cache (if any) rather than falling through
		// to built-ins on a transient store error.
		if d.cached != nil {
			return d.cached
		}
		return nil
	}

	sort.SliceStable(loaded, func(i, j int) bool { return loaded[i].Priority > loaded[j].Priority })
	d.cached = loaded
	d.cachedAt = time.Now()
	return d.cached
}

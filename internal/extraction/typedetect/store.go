package typedetect

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/compliancecore/certextract/internal/interfaces"
	"github.com/compliancecore/certextract/internal/model"
)

// rawPattern mirrors the JSON shape stored under PatternKey.
type rawPattern struct {
	CertType string `json:"certType"`
	Source   string `json:"patternType"`
	Matcher  string `json:"matcher"`
	Pattern  string `json:"pattern"`
	Priority int    `json:"priority"`
}

func loadPatterns(ctx context.Context, store interfaces.KeyValueStorage) ([]Pattern, error) {
	raw, err := store.Get(ctx, PatternKey)
	if err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var parsed []rawPattern
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, err
	}

	patterns := make([]Pattern, 0, len(parsed))
	for _, p := range parsed {
		patterns = append(patterns, Pattern{
			CertType: model.ResolveCertType(p.CertType),
			Source:   FieldSource(p.Source),
			Matcher:  Matcher(p.Matcher),
			Pattern:  p.Pattern,
			Priority: p.Priority,
		})
	}
	return patterns, nil
}

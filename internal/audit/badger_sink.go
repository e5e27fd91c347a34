package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/compliancecore/certextract/internal/common"
	"github.com/compliancecore/certextract/internal/model"
)

// BadgerSink is the production Audit Sink: one badger/v4 database storing
// every Tier Audit Entry under a key ordered for per-certificate range
// scans (`audit/<certificateId>/<attemptedAtUnixNano>`). Same
// "append row, log on failure, never propagate" contract as a SQL audit
// log, backed by badger instead to keep this module's external-storage
// surface to a single engine (also used by internal/kvstore for settings).
type BadgerSink struct {
	db     *badger.DB
	logger arbor.ILogger
}

// OpenBadgerSink opens (creating if absent) a badger database at dir for
// audit rows.
func OpenBadgerSink(dir string) (*BadgerSink, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerSink{db: db, logger: common.GetLogger()}, nil
}

// Record writes entry fire-and-forget: failures are logged, never returned.
func (s *BadgerSink) Record(ctx context.Context, entry model.TierAuditEntry) {
	key := fmt.Sprintf("audit/%s/%d", entry.CertificateID, entry.AttemptedAt.UnixNano())
	encoded, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn().Err(err).Str("certificateId", entry.CertificateID).Msg("audit: failed to encode tier entry")
		return
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encoded)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("certificateId", entry.CertificateID).Str("tier", entry.Tier.String()).Msg("audit: failed to write tier entry")
	}
}

// Close releases the underlying badger database.
func (s *BadgerSink) Close() error {
	return s.db.Close()
}

// ForCertificate retrieves every recorded entry for one certificate, in
// attempt order — a read path the production audit sink needs even though
// it is otherwise write-mostly, since operators need to inspect the
// external log independent of any single in-process ExtractionResult.
func (s *BadgerSink) ForCertificate(ctx context.Context, certificateID string) ([]model.TierAuditEntry, error) {
	prefix := []byte(fmt.Sprintf("audit/%s/", certificateID))
	var out []model.TierAuditEntry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var entry model.TierAuditEntry
			if verr := item.Value(func(val []byte) error { return json.Unmarshal(val, &entry) }); verr != nil {
				s.logger.Warn().Err(verr).Msg("audit: skipping corrupt entry")
				continue
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}

package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/paribet/internal/domain"
	"github.com/alanyoungcy/paribet/internal/oracle"
)

// Archiver uploads oracle settlement records and audit history to cold
// storage as newline-delimited JSON, partitioned by month.
//
// Deletion of archived audit rows from the primary store is intentionally
// NOT performed here; that is a separate, explicit step to be executed after
// the archive has been verified.
type Archiver struct {
	writer domain.BlobWriter
	audit  domain.AuditStore
}

// NewArchiver creates an Archiver. audit may be nil when only settlement
// archiving is needed.
func NewArchiver(writer domain.BlobWriter, audit domain.AuditStore) *Archiver {
	return &Archiver{
		writer: writer,
		audit:  audit,
	}
}

// ArchiveSettlements appends one JSONL object per settlement record under
// settlements/YYYY-MM/. Each cycle's batch becomes its own object keyed by
// the first record's timestamp, so uploads never overwrite each other.
func (a *Archiver) ArchiveSettlements(ctx context.Context, records []oracle.SettlementRecord) error {
	if len(records) == 0 {
		return nil
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return fmt.Errorf("s3blob: archive settlements marshal: %w", err)
	}

	at := records[0].At
	path := fmt.Sprintf("settlements/%s/%d.jsonl", at.Format("2006-01"), at.UnixNano())
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return fmt.Errorf("s3blob: archive settlements upload: %w", err)
	}

	if a.audit != nil {
		if err := a.audit.Log(ctx, "archive.settlements", map[string]any{
			"path":  path,
			"count": len(records),
		}); err != nil {
			return fmt.Errorf("s3blob: archive settlements audit log: %w", err)
		}
	}
	return nil
}

// ArchiveAudit uploads all audit entries up to the cutoff as a monthly JSONL
// object at archive/audit/YYYY-MM.jsonl and returns the archived count.
func (a *Archiver) ArchiveAudit(ctx context.Context, before time.Time) (int64, error) {
	if a.audit == nil {
		return 0, nil
	}

	entries, err := a.audit.List(ctx, domain.ListOpts{Until: &before})
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive audit query: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(entries)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive audit marshal: %w", err)
	}

	path := fmt.Sprintf("archive/audit/%s.jsonl", before.Format("2006-01"))
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive audit upload: %w", err)
	}
	return int64(len(entries)), nil
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ oracle.RecordArchiver = (*Archiver)(nil)

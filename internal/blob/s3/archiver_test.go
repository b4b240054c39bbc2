package s3blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/paribet/internal/domain"
	"github.com/alanyoungcy/paribet/internal/oracle"
)

type fakeWriter struct {
	paths    []string
	payloads [][]byte
	types    []string
}

func (w *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.paths = append(w.paths, path)
	w.payloads = append(w.payloads, buf)
	w.types = append(w.types, contentType)
	return nil
}

func (w *fakeWriter) PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error {
	return w.Put(ctx, path, data, "application/octet-stream")
}

type fakeAuditStore struct {
	entries []domain.AuditEntry
	logged  []string
}

func (s *fakeAuditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	s.logged = append(s.logged, event)
	return nil
}

func (s *fakeAuditStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for _, e := range s.entries {
		if opts.Until != nil && !e.CreatedAt.Before(*opts.Until) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func TestArchiveSettlements(t *testing.T) {
	writer := &fakeWriter{}
	audit := &fakeAuditStore{}
	arch := NewArchiver(writer, audit)

	at := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	records := []oracle.SettlementRecord{
		{MarketID: 7, Action: "settled", Outcome: domain.SymbolicHome, Support: 2, At: at},
		{MarketID: 9, Action: "settled", Outcome: domain.SymbolicDraw, Support: 3, At: at},
	}
	if err := arch.ArchiveSettlements(context.Background(), records); err != nil {
		t.Fatalf("ArchiveSettlements: %v", err)
	}

	if len(writer.paths) != 1 {
		t.Fatalf("uploads = %d, want 1", len(writer.paths))
	}
	if !strings.HasPrefix(writer.paths[0], "settlements/2026-03/") {
		t.Errorf("path = %q, want settlements/2026-03/ prefix", writer.paths[0])
	}
	if writer.types[0] != "application/x-ndjson" {
		t.Errorf("content type = %q, want application/x-ndjson", writer.types[0])
	}
	if lines := bytes.Count(writer.payloads[0], []byte("\n")); lines != 2 {
		t.Errorf("jsonl lines = %d, want 2", lines)
	}
	if len(audit.logged) != 1 || audit.logged[0] != "archive.settlements" {
		t.Errorf("audit events = %v, want [archive.settlements]", audit.logged)
	}
}

func TestArchiveSettlementsEmpty(t *testing.T) {
	writer := &fakeWriter{}
	arch := NewArchiver(writer, nil)
	if err := arch.ArchiveSettlements(context.Background(), nil); err != nil {
		t.Fatalf("ArchiveSettlements: %v", err)
	}
	if len(writer.paths) != 0 {
		t.Errorf("uploads = %d, want none for an empty batch", len(writer.paths))
	}
}

func TestArchiveAuditSweepsBeforeCutoff(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	writer := &fakeWriter{}
	audit := &fakeAuditStore{entries: []domain.AuditEntry{
		{ID: 1, Event: "bet_claimed", CreatedAt: cutoff.Add(-48 * time.Hour)},
		{ID: 2, Event: "market_settled", CreatedAt: cutoff.Add(-time.Hour)},
		{ID: 3, Event: "withdrawal", CreatedAt: cutoff.Add(time.Hour)},
	}}
	arch := NewArchiver(writer, audit)

	archived, err := arch.ArchiveAudit(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ArchiveAudit: %v", err)
	}
	if archived != 2 {
		t.Errorf("archived = %d, want 2 entries older than the cutoff", archived)
	}
	if len(writer.paths) != 1 || writer.paths[0] != "archive/audit/2026-03.jsonl" {
		t.Errorf("paths = %v, want [archive/audit/2026-03.jsonl]", writer.paths)
	}
}

func TestArchiveAuditNothingToDo(t *testing.T) {
	writer := &fakeWriter{}
	arch := NewArchiver(writer, &fakeAuditStore{})

	archived, err := arch.ArchiveAudit(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("ArchiveAudit: %v", err)
	}
	if archived != 0 || len(writer.paths) != 0 {
		t.Errorf("archived = %d, uploads = %d, want no work", archived, len(writer.paths))
	}

	// A nil audit store is a no-op, not an error.
	arch = NewArchiver(writer, nil)
	if archived, err = arch.ArchiveAudit(context.Background(), time.Now().UTC()); err != nil || archived != 0 {
		t.Errorf("nil store: archived = %d, err = %v, want 0, nil", archived, err)
	}
}

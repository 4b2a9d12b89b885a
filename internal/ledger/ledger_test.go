package ledger

import (
	"context"
	"path/filepath"
	"testing"

	lwerrors "github.com/logward/logward/internal/errors"
	"github.com/logward/logward/pkg/types"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGetFile(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record, err := store.RecordFile(ctx, "trail.json", 1024, "json", types.CloudAWS)
	if err != nil {
		t.Fatalf("RecordFile failed: %v", err)
	}
	if record.UID == "" {
		t.Fatal("expected generated UID")
	}
	if record.Status != types.StatusUploaded {
		t.Errorf("expected uploaded status, got %q", record.Status)
	}

	got, err := store.GetFile(ctx, record.UID)
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if got.Filename != "trail.json" || got.Size != 1024 || got.CloudType != types.CloudAWS {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
}

func TestGetFileNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetFile(context.Background(), "no-such-uid")
	if err == nil {
		t.Fatal("expected error")
	}
	if lwerrors.GetCode(err) != lwerrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %q", lwerrors.GetCode(err))
	}
}

func TestUpdateFileStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record, err := store.RecordFile(ctx, "app.log", 64, "log", types.CloudOther)
	if err != nil {
		t.Fatalf("RecordFile failed: %v", err)
	}

	if err := store.UpdateFileStatus(ctx, record.UID, types.StatusProcessed, "", 42); err != nil {
		t.Fatalf("UpdateFileStatus failed: %v", err)
	}

	got, err := store.GetFile(ctx, record.UID)
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if got.Status != types.StatusProcessed || got.EventCount != 42 {
		t.Errorf("transition not applied: %+v", got)
	}

	if err := store.UpdateFileStatus(ctx, "missing", types.StatusError, "boom", 0); err == nil {
		t.Fatal("expected error for unknown uid")
	}
}

func TestAppendAndListEvents(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record, err := store.RecordFile(ctx, "svc.json", 256, "json", types.CloudGCP)
	if err != nil {
		t.Fatalf("RecordFile failed: %v", err)
	}

	events := []types.NormalizedEvent{
		{Timestamp: "2024-01-15T10:00:00Z", Level: types.LevelError, Service: "auth", Message: "login failed"},
		{Timestamp: "2024-01-15T10:01:00Z", Level: types.LevelInfo, Service: "auth", Message: "login ok"},
		{Timestamp: "2024-01-15T10:02:00Z", Level: types.LevelInfo, Service: "billing", Message: "invoice sent"},
	}
	if err := store.AppendEvents(ctx, record.UID, events); err != nil {
		t.Fatalf("AppendEvents failed: %v", err)
	}

	all, err := store.ListEvents(ctx, EventFilter{}, 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	// Newest first.
	if all[0].Message != "invoice sent" {
		t.Errorf("unexpected order: %q first", all[0].Message)
	}

	byLevel, err := store.ListEvents(ctx, EventFilter{Level: types.LevelError}, 10)
	if err != nil {
		t.Fatalf("ListEvents by level failed: %v", err)
	}
	if len(byLevel) != 1 || byLevel[0].Message != "login failed" {
		t.Errorf("level filter wrong: %+v", byLevel)
	}

	byService, err := store.ListEvents(ctx, EventFilter{Service: "auth"}, 10)
	if err != nil {
		t.Fatalf("ListEvents by service failed: %v", err)
	}
	if len(byService) != 2 {
		t.Errorf("expected 2 auth events, got %d", len(byService))
	}

	byFile, err := store.ListEvents(ctx, EventFilter{FileUID: record.UID, Service: "billing"}, 10)
	if err != nil {
		t.Fatalf("ListEvents by file failed: %v", err)
	}
	if len(byFile) != 1 {
		t.Errorf("expected 1 billing event for file, got %d", len(byFile))
	}
}

func TestListEventsTimestampRange(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record, err := store.RecordFile(ctx, "svc.json", 128, "json", types.CloudAWS)
	if err != nil {
		t.Fatalf("RecordFile failed: %v", err)
	}
	events := []types.NormalizedEvent{
		{Timestamp: "2024-01-15T09:00:00Z", Level: types.LevelInfo, Service: "auth", Message: "early"},
		{Timestamp: "2024-01-15T10:00:00Z", Level: types.LevelInfo, Service: "auth", Message: "on the hour"},
		{Timestamp: "2024-01-15T11:30:00Z", Level: types.LevelError, Service: "auth", Message: "late"},
	}
	if err := store.AppendEvents(ctx, record.UID, events); err != nil {
		t.Fatalf("AppendEvents failed: %v", err)
	}

	// Bounds are inclusive on both ends.
	window, err := store.ListEvents(ctx, EventFilter{
		From: "2024-01-15T10:00:00Z",
		To:   "2024-01-15T11:30:00Z",
	}, 10)
	if err != nil {
		t.Fatalf("ListEvents by range failed: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("expected 2 events in window, got %d: %+v", len(window), window)
	}
	if window[0].Message != "late" || window[1].Message != "on the hour" {
		t.Errorf("unexpected window contents: %+v", window)
	}

	after, err := store.ListEvents(ctx, EventFilter{From: "2024-01-15T10:00:01Z"}, 10)
	if err != nil {
		t.Fatalf("ListEvents open-ended failed: %v", err)
	}
	if len(after) != 1 || after[0].Message != "late" {
		t.Errorf("open-ended lower bound wrong: %+v", after)
	}

	combined, err := store.ListEvents(ctx, EventFilter{
		Level: types.LevelInfo,
		To:    "2024-01-15T09:59:59Z",
	}, 10)
	if err != nil {
		t.Fatalf("ListEvents combined failed: %v", err)
	}
	if len(combined) != 1 || combined[0].Message != "early" {
		t.Errorf("combined level and range wrong: %+v", combined)
	}
}

func TestAppendEventsUnknownFile(t *testing.T) {
	store := openTestStore(t)

	err := store.AppendEvents(context.Background(), "missing", []types.NormalizedEvent{
		{Timestamp: "2024-01-15T10:00:00Z", Level: types.LevelInfo, Message: "m"},
	})
	if err == nil {
		t.Fatal("expected error for unknown file")
	}
}

func TestIndexMetaLog(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	meta, err := store.LatestIndexMeta(ctx)
	if err != nil {
		t.Fatalf("LatestIndexMeta failed: %v", err)
	}
	if meta != nil {
		t.Fatalf("expected nil before first build, got %+v", meta)
	}

	if err := store.RecordIndexBuild(ctx, 100, 500, "aaa"); err != nil {
		t.Fatalf("RecordIndexBuild failed: %v", err)
	}
	if err := store.RecordIndexBuild(ctx, 150, 700, "bbb"); err != nil {
		t.Fatalf("RecordIndexBuild failed: %v", err)
	}

	meta, err = store.LatestIndexMeta(ctx)
	if err != nil {
		t.Fatalf("LatestIndexMeta failed: %v", err)
	}
	if meta == nil || meta.Fingerprint != "bbb" || meta.DocCount != 150 {
		t.Errorf("expected latest build, got %+v", meta)
	}
}

func TestStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a, _ := store.RecordFile(ctx, "a.json", 10, "json", types.CloudAWS)
	b, _ := store.RecordFile(ctx, "b.csv", 20, "csv", types.CloudAzure)

	store.AppendEvents(ctx, a.UID, []types.NormalizedEvent{
		{Timestamp: "2024-01-15T10:00:00Z", Level: types.LevelError, Message: "x"},
		{Timestamp: "2024-01-15T10:01:00Z", Level: types.LevelFatal, Message: "y"},
		{Timestamp: "2024-01-15T10:02:00Z", Level: types.LevelInfo, Message: "z"},
	})
	store.UpdateFileStatus(ctx, a.UID, types.StatusProcessed, "", 3)
	store.UpdateFileStatus(ctx, b.UID, types.StatusError, "bad csv", 0)

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalFiles != 2 || stats.TotalEvents != 3 {
		t.Errorf("wrong totals: %+v", stats)
	}
	if stats.ErrorEvents != 2 {
		t.Errorf("expected 2 error-class events, got %d", stats.ErrorEvents)
	}
	if stats.TotalBytes != 30 {
		t.Errorf("expected 30 total bytes, got %d", stats.TotalBytes)
	}
	if stats.FilesByStatus[types.StatusProcessed] != 1 || stats.FilesByStatus[types.StatusError] != 1 {
		t.Errorf("wrong status counts: %+v", stats.FilesByStatus)
	}
	if stats.FilesByCloud["aws"] != 1 || stats.FilesByCloud["azure"] != 1 {
		t.Errorf("wrong cloud counts: %+v", stats.FilesByCloud)
	}
}

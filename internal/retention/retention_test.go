package retention

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"snapfeed/pkg/config"
	"snapfeed/pkg/logger"
	"snapfeed/pkg/models"
	"snapfeed/pkg/state"
	"snapfeed/pkg/store"
)

func openTestStore(t *testing.T) {
	t.Helper()
	logger.Init()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
}

func TestRunImmediateSweepsAllPartitions(t *testing.T) {
	openTestStore(t)
	SetWindow(time.Hour)
	t.Cleanup(func() { SetWindow(config.DefaultRetentionMaxAge) })

	now := time.Now().UTC().UnixMilli()
	old := now - (2 * time.Hour).Milliseconds()

	for _, username := range []string{"alice", "bob"} {
		p, err := store.EnsurePartition(username)
		if err != nil {
			t.Fatalf("EnsurePartition(%s): %v", username, err)
		}
		if err := store.SaveContent(p, models.ContentItem{ImageID: username + "-old", Image: "d", Type: models.TypePost, Timestamp: old}); err != nil {
			t.Fatalf("SaveContent: %v", err)
		}
		if err := store.SaveContent(p, models.ContentItem{ImageID: username + "-new", Image: "d", Type: models.TypeStory, Timestamp: now}); err != nil {
			t.Fatalf("SaveContent: %v", err)
		}
	}

	if err := RunImmediate(); err != nil {
		t.Fatalf("RunImmediate: %v", err)
	}

	for _, username := range []string{"alice", "bob"} {
		items, err := store.ListContent(store.DerivePartitionName(username))
		if err != nil {
			t.Fatalf("ListContent(%s): %v", username, err)
		}
		if len(items) != 1 || items[0].ImageID != username+"-new" {
			t.Fatalf("partition %s: expected only the fresh item, got %+v", username, items)
		}
	}
}

func TestRunImmediateWritesSweepMarker(t *testing.T) {
	openTestStore(t)

	dir := t.TempDir()
	prev := state.PathsVar.Retention
	state.PathsVar.Retention = dir
	t.Cleanup(func() { state.PathsVar.Retention = prev })

	if err := RunImmediate(); err != nil {
		t.Fatalf("RunImmediate: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "last_sweep"))
	if err != nil {
		t.Fatalf("sweep marker not written: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("sweep marker is empty")
	}
}

func TestStartDisabled(t *testing.T) {
	logger.Init()
	disabled := false
	cfg := &config.Config{}
	cfg.Retention.Enabled = &disabled

	cancel, err := Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Start with retention disabled: %v", err)
	}
	cancel()
}

func TestStartRejectsInvalidCron(t *testing.T) {
	logger.Init()
	cfg := &config.Config{}
	cfg.Retention.Cron = "not a cron"

	if _, err := Start(context.Background(), cfg); err == nil {
		t.Fatal("expected invalid cron to be rejected")
	}
}

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestScoresCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	db.RecordScore(ScoreRow{Name: "Ann", Score: 4200, Wave: 3, Kills: 12})
	db.RecordScore(ScoreRow{Name: "Bob", Score: 900, Wave: 1, Kills: 2})
	db.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"scores", "--db", path, "--limit", "1"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("scores command: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Ann") || !strings.Contains(got, "4200") {
		t.Errorf("expected Ann's score in output:\n%s", got)
	}
	if strings.Contains(got, "Bob") {
		t.Errorf("--limit 1 should hide Bob:\n%s", got)
	}
}

func TestSetupLogger(t *testing.T) {
	if err := setupLogger("debug"); err != nil {
		t.Errorf("debug should be accepted: %v", err)
	}
	if err := setupLogger("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	setupLogger("info")
}

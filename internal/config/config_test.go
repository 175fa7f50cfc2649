package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if errWrite := os.WriteFile(path, []byte(content), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	return path
}

func TestLoadSweepConfig_OmittedSectionKeepsDefault(t *testing.T) {
	path := writeConfig(t, "database-dsn: app.db\n")
	cfg := LoadSweepConfig(path)
	if cfg.Hour != defaultSweepHour {
		t.Fatalf("expected default hour %d, got %d", defaultSweepHour, cfg.Hour)
	}
}

func TestLoadSweepConfig_ExplicitHour(t *testing.T) {
	path := writeConfig(t, "sweep:\n  hour: 5\n")
	cfg := LoadSweepConfig(path)
	if cfg.Hour != 5 {
		t.Fatalf("expected hour 5, got %d", cfg.Hour)
	}
}

func TestLoadSweepConfig_ExplicitMidnight(t *testing.T) {
	path := writeConfig(t, "sweep:\n  hour: 0\n")
	cfg := LoadSweepConfig(path)
	if cfg.Hour != 0 {
		t.Fatalf("expected explicit midnight kept, got %d", cfg.Hour)
	}
}

func TestLoadSweepConfig_OutOfRangeHourRejected(t *testing.T) {
	path := writeConfig(t, "sweep:\n  hour: 30\n")
	cfg := LoadSweepConfig(path)
	if cfg.Hour != defaultSweepHour {
		t.Fatalf("expected default hour %d for out-of-range value, got %d", defaultSweepHour, cfg.Hour)
	}
}

func TestLoadSweepConfig_MissingFileKeepsDefault(t *testing.T) {
	cfg := LoadSweepConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg.Hour != defaultSweepHour {
		t.Fatalf("expected default hour %d, got %d", defaultSweepHour, cfg.Hour)
	}
}

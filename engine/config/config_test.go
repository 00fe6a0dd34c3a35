package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-asset/engine/loader"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "oxyasset.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.ImportOptions() != loader.DefaultImportOptions() {
		t.Fatalf("expected default import options, got %+v", cfg.ImportOptions())
	}
	if cfg.Workers <= 0 {
		t.Fatalf("expected a positive worker count, got %d", cfg.Workers)
	}
}

func TestLoadOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
frame_rate: 30
texcoords: true
up_axis_conversion: false
texture_table: textures.txt
animation_info: /abs/anims.txt
catalog: assets.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.FrameRate != 30 || !cfg.TexCoords || cfg.UpAxisConversion {
		t.Fatalf("expected file values to apply, got %+v", cfg)
	}
	if cfg.ArmatureNode != "Armature" || cfg.WeightFloor != 0.9 || !cfg.Colors {
		t.Fatalf("expected unset keys to keep defaults, got %+v", cfg)
	}
	if cfg.TextureTable != filepath.Join(dir, "textures.txt") || cfg.Catalog != filepath.Join(dir, "assets.db") {
		t.Fatalf("expected relative paths resolved against the config dir, got %q %q", cfg.TextureTable, cfg.Catalog)
	}
	if cfg.AnimationInfo != "/abs/anims.txt" {
		t.Fatalf("expected absolute path kept, got %q", cfg.AnimationInfo)
	}

	opts := cfg.ImportOptions()
	if opts.Format.FloatsPerVertex() != 11 {
		t.Fatalf("expected 11 floats per vertex, got %d", opts.Format.FloatsPerVertex())
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil || !strings.HasPrefix(err.Error(), "config:") {
		t.Fatalf("expected a config read error, got %v", err)
	}
	if _, err := Load(writeConfig(t, dir, "frame_rate: [1\n")); err == nil {
		t.Fatalf("expected a parse error")
	}
	if _, err := Load(writeConfig(t, dir, "weight_floor: 1.5\n")); err == nil {
		t.Fatalf("expected a validation error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero frame rate", func(c *Config) { c.FrameRate = 0 }},
		{"negative weight floor", func(c *Config) { c.WeightFloor = -0.1 }},
		{"empty armature", func(c *Config) { c.ArmatureNode = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected a validation error")
			}
		})
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Workers = 0
	cfg.TextureTable = "from-file.txt"
	cfg.Resolve(Flags{Catalog: "cli.db", FrameRate: 24})

	if cfg.TextureTable != "from-file.txt" {
		t.Fatalf("expected empty flag to keep file value, got %q", cfg.TextureTable)
	}
	if cfg.Catalog != "cli.db" || cfg.FrameRate != 24 {
		t.Fatalf("expected flags to override, got %q %v", cfg.Catalog, cfg.FrameRate)
	}
	if cfg.Workers <= 0 {
		t.Fatalf("expected auto-detected workers, got %d", cfg.Workers)
	}

	cfg.Resolve(Flags{Workers: 3})
	if cfg.Workers != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.Workers)
	}
}

func TestLoaderOptions(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.TextureTable = filepath.Join(dir, "textures.txt")
	if err := os.WriteFile(cfg.TextureTable, []byte("Skin-material skin.png\n"), 0o644); err != nil {
		t.Fatalf("failed to write texture table: %v", err)
	}

	opts, err := cfg.LoaderOptions()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(opts) != 3 {
		t.Fatalf("expected import, workers and texture table options, got %d", len(opts))
	}

	cfg.AnimationInfo = filepath.Join(dir, "missing.txt")
	if _, err := cfg.LoaderOptions(); err == nil {
		t.Fatalf("expected an error for a missing animation info file")
	}
}

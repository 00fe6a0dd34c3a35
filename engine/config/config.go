package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/Carmen-Shannon/oxy-asset/engine/loader"
	"github.com/Carmen-Shannon/oxy-asset/engine/model"

	"gopkg.in/yaml.v3"
)

// Config holds the import settings and side-channel file paths.
type Config struct {
	// Import settings
	FrameRate        float32 `yaml:"frame_rate"`
	ArmatureNode     string  `yaml:"armature_node"`
	WeightFloor      float32 `yaml:"weight_floor"`
	UpAxisConversion bool    `yaml:"up_axis_conversion"`
	TexCoords        bool    `yaml:"texcoords"`
	Colors           bool    `yaml:"colors"`
	CompanionRigExt  string  `yaml:"companion_rig_ext"`

	// Side channels
	TextureTable  string `yaml:"texture_table"`
	AnimationInfo string `yaml:"animation_info"`

	// Batch settings
	Workers int    `yaml:"workers"`
	Catalog string `yaml:"catalog"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	TextureTable  string
	AnimationInfo string
	Catalog       string
	Workers       int
	FrameRate     float64
}

// Default returns the configuration used when no file is given.
func Default() Config {
	defaults := loader.DefaultImportOptions()
	return Config{
		FrameRate:        defaults.FrameRate,
		ArmatureNode:     defaults.ArmatureNode,
		WeightFloor:      defaults.WeightFloor,
		UpAxisConversion: defaults.ConvertUpAxis,
		TexCoords:        defaults.Format.TexCoords,
		Colors:           defaults.Format.Colors,
		CompanionRigExt:  defaults.CompanionRigExt,
		Workers:          runtime.NumCPU(),
	}
}

// Load reads a YAML config file over the defaults.
// Keys not set in the file keep their default values. Relative side-channel
// and catalog paths are resolved against the file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg.TextureTable = resolvePath(dir, cfg.TextureTable)
	cfg.AnimationInfo = resolvePath(dir, cfg.AnimationInfo)
	cfg.Catalog = resolvePath(dir, cfg.Catalog)

	return cfg, cfg.Validate()
}

// Resolve applies CLI flag overrides and fills in auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.TextureTable != "" {
		c.TextureTable = flags.TextureTable
	}
	if flags.AnimationInfo != "" {
		c.AnimationInfo = flags.AnimationInfo
	}
	if flags.Catalog != "" {
		c.Catalog = flags.Catalog
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.FrameRate > 0 {
		c.FrameRate = float32(flags.FrameRate)
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate reports settings the loader cannot work with.
func (c Config) Validate() error {
	if c.FrameRate <= 0 {
		return fmt.Errorf("config: frame_rate must be positive, got %v", c.FrameRate)
	}
	if c.WeightFloor < 0 || c.WeightFloor > 1 {
		return fmt.Errorf("config: weight_floor must be within 0..1, got %v", c.WeightFloor)
	}
	if c.ArmatureNode == "" {
		return fmt.Errorf("config: armature_node must not be empty")
	}
	return nil
}

// ImportOptions converts the import settings for the loader backends.
func (c Config) ImportOptions() loader.ImportOptions {
	return loader.ImportOptions{
		Format:          model.VertexFormat{TexCoords: c.TexCoords, Colors: c.Colors},
		FrameRate:       c.FrameRate,
		ArmatureNode:    c.ArmatureNode,
		WeightFloor:     c.WeightFloor,
		ConvertUpAxis:   c.UpAxisConversion,
		CompanionRigExt: c.CompanionRigExt,
	}
}

// LoaderOptions builds the loader options for this configuration, reading the
// texture table and animation info files when they are set.
func (c Config) LoaderOptions() ([]loader.LoaderBuilderOption, error) {
	options := []loader.LoaderBuilderOption{
		loader.WithImportOptions(c.ImportOptions()),
		loader.WithWorkers(c.Workers),
	}

	if c.TextureTable != "" {
		table, err := loader.LoadTextureTable(c.TextureTable)
		if err != nil {
			return nil, fmt.Errorf("config: texture table %s: %w", c.TextureTable, err)
		}
		options = append(options, loader.WithTextureTable(table))
	}
	if c.AnimationInfo != "" {
		infos, err := loader.LoadAnimationInfo(c.AnimationInfo)
		if err != nil {
			return nil, fmt.Errorf("config: animation info %s: %w", c.AnimationInfo, err)
		}
		options = append(options, loader.WithAnimationInfo(infos))
	}

	return options, nil
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

package config

import (
	"bytes"
	"io"
	"os"

	"github.com/achilleasa/shapeview/catalog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Model up axes. Wavefront models are Y-up and are converted to the Z-up
// world used by the capture camera; Z-up models are used as-is.
const (
	UpAxisY = "y"
	UpAxisZ = "z"
)

// Env vars that override the directory settings of the config file.
const (
	EnvSourceDir = "SHAPEVIEW_SOURCE_DIR"
	EnvTargetDir = "SHAPEVIEW_TARGET_DIR"
	EnvOutputDir = "SHAPEVIEW_OUTPUT_DIR"
)

// Extract command settings.
type Extract struct {
	// Directory with the <name>.zip archives and their catalogs.
	SourceDir string `yaml:"source_dir"`

	// Directory receiving one <id>/ directory per extracted model.
	TargetDir string `yaml:"target_dir"`

	// Catalog lemma keywords.
	Keywords  []string `yaml:"keywords"`
	MatchMode string   `yaml:"match_mode"`
	FoldCase  bool     `yaml:"fold_case"`

	// Archive members extracted for each model.
	Members []string `yaml:"members"`

	// Number of archives processed in parallel.
	Concurrency int `yaml:"concurrency"`
}

// Capture command settings.
type Capture struct {
	OutputDir string `yaml:"output_dir"`

	Views       int `yaml:"views"`
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
	Supersample int `yaml:"supersample"`

	// Render block workers per view and number of views rendered in parallel.
	Workers     int `yaml:"workers"`
	Concurrency int `yaml:"concurrency"`

	// Mesh processing.
	UpAxis          string  `yaml:"up_axis"`
	Center          bool    `yaml:"center"`
	RemoveDoubles   bool    `yaml:"remove_doubles"`
	DoubleThreshold float32 `yaml:"double_threshold"`
	EdgeSplit       bool    `yaml:"edge_split"`
	SplitAngle      float32 `yaml:"split_angle"`

	// Camera.
	FOV          float32    `yaml:"fov"`
	CameraOffset [3]float32 `yaml:"camera_offset"`

	SkipExisting bool `yaml:"skip_existing"`
}

type Config struct {
	Extract Extract `yaml:"extract"`
	Capture Capture `yaml:"capture"`
}

// Get the default configuration.
func Default() *Config {
	return &Config{
		Extract: Extract{
			Keywords:    []string{"car", "auto", "automobile", "motorcar", "suv", "truck", "cargo", "ambulance"},
			MatchMode:   catalog.MatchSubstring,
			Members:     []string{"model.obj", "model.mtl"},
			Concurrency: 2,
		},
		Capture: Capture{
			OutputDir:       os.TempDir(),
			Views:           36,
			Width:           600,
			Height:          600,
			Supersample:     2,
			Concurrency:     1,
			UpAxis:          UpAxisY,
			Center:          true,
			RemoveDoubles:   true,
			DoubleThreshold: 0.0001,
			EdgeSplit:       true,
			SplitAngle:      1.32645,
			FOV:             49.134,
			CameraOffset:    [3]float32{0, -1.5, 0.08},
		},
	}
}

// Load configuration from a yaml file. Values not present in the file keep
// their defaults. An empty path loads the default configuration. The
// directory env vars are applied on top of the loaded values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: could not read config file")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "config: could not parse %s", path)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	for envVar, target := range map[string]*string{
		EnvSourceDir: &c.Extract.SourceDir,
		EnvTargetDir: &c.Extract.TargetDir,
		EnvOutputDir: &c.Capture.OutputDir,
	} {
		if value := os.Getenv(envVar); value != "" {
			*target = value
		}
	}
}

// Validate extract settings.
func (e *Extract) Validate() error {
	if len(e.Keywords) == 0 {
		return errors.New("config: at least one extract keyword is required")
	}
	if len(e.Members) == 0 {
		return errors.New("config: at least one archive member is required")
	}
	if e.MatchMode != catalog.MatchSubstring && e.MatchMode != catalog.MatchWord {
		return errors.Errorf("config: unknown match mode %q; expected %q or %q", e.MatchMode, catalog.MatchSubstring, catalog.MatchWord)
	}
	if e.Concurrency <= 0 {
		return errors.Errorf("config: extract concurrency must be positive; got %d", e.Concurrency)
	}
	return nil
}

// Validate capture settings.
func (c *Capture) Validate() error {
	if c.Views <= 0 {
		return errors.Errorf("config: number of views must be positive; got %d", c.Views)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("config: frame size must be positive; got %dx%d", c.Width, c.Height)
	}
	if c.Supersample <= 0 {
		return errors.Errorf("config: supersample factor must be positive; got %d", c.Supersample)
	}
	if c.Concurrency <= 0 {
		return errors.Errorf("config: capture concurrency must be positive; got %d", c.Concurrency)
	}
	if c.UpAxis != UpAxisY && c.UpAxis != UpAxisZ {
		return errors.Errorf("config: unknown up axis %q; expected %q or %q", c.UpAxis, UpAxisY, UpAxisZ)
	}
	if c.FOV <= 0 || c.FOV >= 180 {
		return errors.Errorf("config: camera fov must be in (0, 180); got %f", c.FOV)
	}
	if c.RemoveDoubles && c.DoubleThreshold <= 0 {
		return errors.Errorf("config: remove doubles threshold must be positive; got %f", c.DoubleThreshold)
	}
	return nil
}

// Validate all settings.
func (c *Config) Validate() error {
	if err := c.Extract.Validate(); err != nil {
		return err
	}
	return c.Capture.Validate()
}

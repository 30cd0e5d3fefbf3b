// Package config loads the simulation file (JSON, YAML or TOML), validates
// it against the embedded JSON schema and decodes it.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/logging"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/flock"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed flock.schema.json
var schemaJSON string

const schemaURL = "https://github.com/lao-tseu-is-alive/go-flock-engine/flock.schema.json"

var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Overrun policies of the tick driver, applied when a frame delta exceeds
// Driver.MaxDeltaSeconds.
const (
	OverrunDrift = "drift" // move along the current velocities only
	OverrunSkip  = "skip"  // drop the frame
)

// File is the whole simulation file.
type File struct {
	Population int             `json:"population"`
	Seed       uint64          `json:"seed"`
	Settings   *flock.Settings `json:"settings"`
	Driver     Driver          `json:"driver"`
	Scene      Scene           `json:"scene"`
	Telemetry  Telemetry       `json:"telemetry"`
	Logging    logging.Config  `json:"logging"`
}

// Driver tunes the actor driving the ticks.
type Driver struct {
	TickRate        float64 `json:"tickRate"` // ticks per second
	MaxDeltaSeconds float64 `json:"maxDeltaSeconds"`
	OverrunPolicy   string  `json:"overrunPolicy"`
	Workers         int     `json:"workers"` // 0 uses GOMAXPROCS
}

type Vec3 [3]float64

type SphereSpec struct {
	Center Vec3    `json:"center"`
	Radius float64 `json:"radius"`
	Layer  uint8   `json:"layer"`
}

type BoxSpec struct {
	Min   Vec3  `json:"min"`
	Max   Vec3  `json:"max"`
	Layer uint8 `json:"layer"`
}

// Scene describes where agents spawn, what they seek and what they avoid.
type Scene struct {
	SpawnCenter Vec3         `json:"spawnCenter"`
	SpawnRadius float64      `json:"spawnRadius"`
	Targets     []Vec3       `json:"targets"`
	Bounds      *BoxSpec     `json:"bounds"`
	Spheres     []SphereSpec `json:"spheres"`
	Boxes       []BoxSpec    `json:"boxes"`
}

type Telemetry struct {
	OutputDir    string `json:"outputDir"` // empty disables the CSV output
	SummaryEvery int    `json:"summaryEvery"`
}

// Default returns the configuration used for anything a file leaves out.
func Default() *File {
	return &File{
		Population: 300,
		Seed:       1,
		Settings:   flock.DefaultSettings(),
		Driver: Driver{
			TickRate:        60,
			MaxDeltaSeconds: 0.1,
			OverrunPolicy:   OverrunDrift,
		},
		Scene: Scene{
			SpawnRadius: 10,
			Bounds:      &BoxSpec{Min: Vec3{-30, -30, -30}, Max: Vec3{30, 30, 30}},
		},
		Telemetry: Telemetry{SummaryEvery: 300},
		Logging:   logging.Config{Level: "info", Format: "console"},
	}
}

var (
	fileSchema     = sync.OnceValues(func() (*jsonschema.Schema, error) { return compile("") })
	settingsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) { return compile("#/$defs/settings") })
)

func compile(pointer string) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema: %w", err)
	}
	sch, err := c.Compile(schemaURL + pointer)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return sch, nil
}

// Load reads, validates and decodes a configuration file. The format is
// picked from the extension. Values missing from the file keep their
// Default.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	doc, err := normalize(filepath.Ext(path), b)
	if err != nil {
		return nil, err
	}
	return Parse(doc)
}

// Parse validates and decodes a JSON document.
func Parse(doc []byte) (*File, error) {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	sch, err := fileSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(doc, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize turns a YAML or TOML document into JSON so that a single schema
// validates all formats.
func normalize(ext string, b []byte) ([]byte, error) {
	var v any
	switch strings.ToLower(ext) {
	case ".json":
		return b, nil
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("failed to decode config yaml: %w", err)
		}
	case ".toml":
		var m map[string]any
		if _, err := toml.Decode(string(b), &m); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
		v = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to convert config to json: %w", err)
	}
	return out, nil
}

// ApplyPatch merges a partial settings document into base and returns the
// result as a new snapshot. base is left untouched. The merged document is
// validated against the settings schema and then by flock.Settings itself.
func ApplyPatch(base *flock.Settings, patch map[string]any) (*flock.Settings, error) {
	b, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	var merged map[string]any
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	mergeInto(merged, patch)

	// round trip so the validator sees plain JSON values only
	b, err = json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patched settings: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode patched settings: %w", err)
	}
	sch, err := settingsSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("settings patch validation failed: %w", err)
	}

	var next flock.Settings
	if err := json.Unmarshal(b, &next); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patched settings: %w", err)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return &next, nil
}

// mergeInto copies src over dst, recursing into nested objects.
func mergeInto(dst, src map[string]any) {
	for k, sv := range src {
		if sm, ok := sv.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				mergeInto(dm, sm)
				continue
			}
		}
		dst[k] = sv
	}
}

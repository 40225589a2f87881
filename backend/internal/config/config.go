// vim: sw=8

// Package `config` loads the configuration of `cdds-archive`.
//
// The configuration is YAML.  Files with the extension `.hcl` are parsed as
// HCL, where lists of objects are declared as repeated blocks:
//
//     datasets {
//         mipTable = "Amon"
//         variable = "tas"
//         ...
//     }
//
package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"time"

	"github.com/cddsproject/cdds/backend/internal/chunker"
	"github.com/cddsproject/cdds/backend/internal/daterange"
	"github.com/cddsproject/cdds/backend/internal/dataset"
	"github.com/cddsproject/cdds/backend/internal/extractrun"
	"github.com/cddsproject/cdds/backend/internal/metadata"
	"github.com/cddsproject/cdds/backend/internal/pubstate"
	"github.com/cddsproject/cdds/backend/internal/storerun"
	"github.com/hashicorp/hcl"
	"go.uber.org/multierr"
	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	Request  RequestConfig   `yaml:"request" hcl:"request"`
	Archive  ArchiveConfig   `yaml:"archive" hcl:"archive"`
	Grids    GridsConfig     `yaml:"grids" hcl:"grids"`
	Datasets []DatasetConfig `yaml:"datasets" hcl:"datasets"`
	Gateway  GatewayConfig   `yaml:"gateway" hcl:"gateway"`
	Extract  ExtractConfig   `yaml:"extract" hcl:"extract"`
}

type RequestConfig struct {
	MipEra      string `yaml:"mipEra" hcl:"mipEra"`
	Mip         string `yaml:"mip" hcl:"mip"`
	Institution string `yaml:"institution" hcl:"institution"`
	Model       string `yaml:"model" hcl:"model"`
	Experiment  string `yaml:"experiment" hcl:"experiment"`
	Variant     string `yaml:"variant" hcl:"variant"`
	SuiteID     string `yaml:"suiteId" hcl:"suiteId"`
}

type ArchiveConfig struct {
	Root string `yaml:"root" hcl:"root"`
	// `DataVersion` is the datestamp to publish under, like `v20210101`.
	// Empty means today.
	DataVersion string `yaml:"dataVersion" hcl:"dataVersion"`
	TmpDir      string `yaml:"tmpDir" hcl:"tmpDir"`
	// `DiagnoseFiles` is the number of leading and trailing file names
	// shown for datasets in an unknown state.
	DiagnoseFiles int `yaml:"diagnoseFiles" hcl:"diagnoseFiles"`
}

type GridsConfig struct {
	Default string `yaml:"default" hcl:"default"`
	// `Overrides` are keyed `<mipTable>/<variable>`.
	Overrides map[string]string `yaml:"overrides" hcl:"overrides"`
}

type DatasetConfig struct {
	MipTable  string `yaml:"mipTable" hcl:"mipTable"`
	Variable  string `yaml:"variable" hcl:"variable"`
	Frequency string `yaml:"frequency" hcl:"frequency"`
	Stream    string `yaml:"stream" hcl:"stream"`
	Dir       string `yaml:"dir" hcl:"dir"`
}

type GatewayConfig struct {
	// `Moo` is the name or path of the `moo` client.
	Moo string `yaml:"moo" hcl:"moo"`
	// `Rate` and `MaxRate` limit `moo` commands per second.
	Rate    float64 `yaml:"rate" hcl:"rate"`
	MaxRate float64 `yaml:"maxRate" hcl:"maxRate"`
	// `LocalMaxFiles` and `LocalBytesPerSec` configure the local gateway.
	LocalMaxFiles    int     `yaml:"localMaxFiles" hcl:"localMaxFiles"`
	LocalBytesPerSec float64 `yaml:"localBytesPerSec" hcl:"localBytesPerSec"`
}

type ExtractConfig struct {
	ProcDir  string         `yaml:"procDir" hcl:"procDir"`
	DataDir  string         `yaml:"dataDir" hcl:"dataDir"`
	MaxCalls int            `yaml:"maxCalls" hcl:"maxCalls"`
	MaxTapes int            `yaml:"maxTapes" hcl:"maxTapes"`
	MaxFiles int            `yaml:"maxFiles" hcl:"maxFiles"`
	Streams  []StreamConfig `yaml:"streams" hcl:"streams"`
}

type StreamConfig struct {
	Name   string `yaml:"name" hcl:"name"`
	Type   string `yaml:"type" hcl:"type"`
	Source string `yaml:"source" hcl:"source"`
	// `Start` and `End` are `YYYYMMDD` in the 360-day calendar.  `End` is
	// exclusive.
	Start         string              `yaml:"start" hcl:"start"`
	End           string              `yaml:"end" hcl:"end"`
	FileFrequency string              `yaml:"fileFrequency" hcl:"fileFrequency"`
	StashFilter   string              `yaml:"stashFilter" hcl:"stashFilter"`
	Substreams    map[string][]string `yaml:"substreams" hcl:"substreams"`
}

// Defaults.
const (
	DefaultMoo      = "moo"
	DefaultRate     = 1.0
	DefaultMaxRate  = 10.0
	DefaultMaxTapes = 50
	DefaultMaxFiles = 5000
)

func Load(path string) (*Config, error) {
	dat, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if filepath.Ext(path) == ".hcl" {
		err = hcl.Unmarshal(dat, &cfg)
	} else {
		err = yaml.UnmarshalStrict(dat, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse `%s`: %w", path, err)
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Gateway.Moo == "" {
		cfg.Gateway.Moo = DefaultMoo
	}
	if cfg.Gateway.Rate <= 0 {
		cfg.Gateway.Rate = DefaultRate
	}
	if cfg.Gateway.MaxRate <= 0 {
		cfg.Gateway.MaxRate = DefaultMaxRate
	}
	if cfg.Extract.MaxCalls <= 0 {
		cfg.Extract.MaxCalls = chunker.DefaultMaxCalls
	}
	if cfg.Extract.MaxTapes <= 0 {
		cfg.Extract.MaxTapes = DefaultMaxTapes
	}
	if cfg.Extract.MaxFiles <= 0 {
		cfg.Extract.MaxFiles = DefaultMaxFiles
	}
}

func missing(field string) error {
	return fmt.Errorf("missing `%s`", field)
}

// `ValidateStore()` checks the sections that a store run uses.  It reports
// all problems at once.
func (cfg *Config) ValidateStore() error {
	var err error
	r := cfg.Request
	for _, f := range []struct {
		name, val string
	}{
		{"request.mipEra", r.MipEra},
		{"request.mip", r.Mip},
		{"request.institution", r.Institution},
		{"request.model", r.Model},
		{"request.experiment", r.Experiment},
		{"request.variant", r.Variant},
		{"archive.root", cfg.Archive.Root},
	} {
		if f.val == "" {
			err = multierr.Append(err, missing(f.name))
		}
	}
	if cfg.Archive.DataVersion != "" {
		if _, perr := pubstate.ParseDatestamp(cfg.Archive.DataVersion); perr != nil {
			err = multierr.Append(err, perr)
		}
	}
	if len(cfg.Datasets) == 0 {
		err = multierr.Append(err, errors.New("no datasets"))
	}
	for i, d := range cfg.Datasets {
		if d.MipTable == "" || d.Variable == "" {
			err = multierr.Append(err, fmt.Errorf(
				"dataset %d: missing mipTable or variable", i,
			))
		}
		if d.Dir == "" {
			err = multierr.Append(err, fmt.Errorf(
				"dataset %s/%s: missing dir", d.MipTable, d.Variable,
			))
		}
		if _, ferr := metadata.LookupFrequency(d.Frequency); ferr != nil {
			err = multierr.Append(err, fmt.Errorf(
				"dataset %s/%s: %w", d.MipTable, d.Variable, ferr,
			))
		}
	}
	return err
}

// `ValidateExtract()` checks the sections that an extract run uses.
func (cfg *Config) ValidateExtract() error {
	var err error
	if cfg.Request.SuiteID == "" {
		err = multierr.Append(err, missing("request.suiteId"))
	}
	if cfg.Extract.ProcDir == "" {
		err = multierr.Append(err, missing("extract.procDir"))
	}
	if cfg.Extract.DataDir == "" {
		err = multierr.Append(err, missing("extract.dataDir"))
	}
	if len(cfg.Extract.Streams) == 0 {
		err = multierr.Append(err, errors.New("no extract streams"))
	}
	for _, s := range cfg.Extract.Streams {
		if _, serr := s.Stream(); serr != nil {
			err = multierr.Append(err, serr)
		}
	}
	return err
}

func (cfg *Config) DatasetRequest() *dataset.Request {
	r := cfg.Request
	return &dataset.Request{
		MipEra:      r.MipEra,
		Mip:         r.Mip,
		Institution: r.Institution,
		Model:       r.Model,
		Experiment:  r.Experiment,
		Variant:     r.Variant,
	}
}

func (cfg *Config) Metadata() *metadata.Static {
	return &metadata.Static{
		Model:         cfg.Request.Model,
		DefaultGrid:   cfg.Grids.Default,
		GridOverrides: cfg.Grids.Overrides,
	}
}

// `Datestamp()` returns the configured data version, or the datestamp of
// `now`.
func (cfg *Config) Datestamp(now time.Time) (pubstate.Datestamp, error) {
	if cfg.Archive.DataVersion == "" {
		return pubstate.DatestampFromTime(now), nil
	}
	return pubstate.ParseDatestamp(cfg.Archive.DataVersion)
}

func (cfg *Config) StoreInputs() []storerun.Input {
	ins := make([]storerun.Input, 0, len(cfg.Datasets))
	for _, d := range cfg.Datasets {
		ins = append(ins, storerun.Input{
			Identity: dataset.Identity{
				MipTable:  d.MipTable,
				Variable:  d.Variable,
				Frequency: d.Frequency,
				Stream:    d.Stream,
			},
			Dir: d.Dir,
		})
	}
	return ins
}

func (cfg *Config) ExtractRunConfig() extractrun.Config {
	return extractrun.Config{
		SuiteID:  cfg.Request.SuiteID,
		ProcDir:  cfg.Extract.ProcDir,
		DataDir:  cfg.Extract.DataDir,
		MaxCalls: cfg.Extract.MaxCalls,
		MaxTapes: cfg.Extract.MaxTapes,
		MaxFiles: cfg.Extract.MaxFiles,
	}
}

// `Stream()` converts the stream config.
func (s *StreamConfig) Stream() (*extractrun.Stream, error) {
	if s.Name == "" || s.Source == "" {
		return nil, fmt.Errorf("stream %s: missing name or source", s.Name)
	}
	typ, err := extractrun.ParseStreamType(s.Type)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", s.Name, err)
	}
	start, err := daterange.ParseStamp(s.Start, 8)
	if err != nil {
		return nil, fmt.Errorf("stream %s: start: %w", s.Name, err)
	}
	end, err := daterange.ParseStamp(s.End, 8)
	if err != nil {
		return nil, fmt.Errorf("stream %s: end: %w", s.Name, err)
	}
	if end <= start {
		return nil, fmt.Errorf("stream %s: empty date range", s.Name)
	}
	if typ == extractrun.StreamPP && s.FileFrequency == "" {
		return nil, fmt.Errorf("stream %s: missing fileFrequency", s.Name)
	}
	return &extractrun.Stream{
		Name:          s.Name,
		Type:          typ,
		Source:        s.Source,
		Start:         start,
		End:           end,
		FileFrequency: s.FileFrequency,
		StashFilter:   s.StashFilter,
		Substreams:    s.Substreams,
	}, nil
}

// `ExtractStreams()` returns the streams, optionally only those named in
// `only`.
func (cfg *Config) ExtractStreams(only []string) ([]*extractrun.Stream, error) {
	want := make(map[string]bool)
	for _, n := range only {
		want[n] = true
	}
	var ss []*extractrun.Stream
	for i := range cfg.Extract.Streams {
		sc := &cfg.Extract.Streams[i]
		if len(want) > 0 && !want[sc.Name] {
			continue
		}
		s, err := sc.Stream()
		if err != nil {
			return nil, err
		}
		ss = append(ss, s)
	}
	if len(ss) == 0 {
		return nil, errors.New("no matching extract streams")
	}
	return ss, nil
}

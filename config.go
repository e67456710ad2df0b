package itemqueue

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration read from config files as "500ms" or "2s".
// A bare integer is taken as milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = 0
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// fileOptions is the on-disk shape of Options.
type fileOptions struct {
	Concurrency int      `yaml:"concurrency" toml:"concurrency"`
	StopOnError bool     `yaml:"stop_on_error" toml:"stop_on_error"`
	WatchPeriod Duration `yaml:"watch_period" toml:"watch_period"`
	WatchTime   Duration `yaml:"watch_time" toml:"watch_time"`
	Timeout     Duration `yaml:"timeout" toml:"timeout"`
}

func (f fileOptions) options() Options {
	return Options{
		Concurrency: f.Concurrency,
		StopOnError: f.StopOnError,
		WatchPeriod: time.Duration(f.WatchPeriod),
		WatchTime:   time.Duration(f.WatchTime),
		Timeout:     time.Duration(f.Timeout),
	}
}

// LoadOptions reads Options from a YAML (.yaml, .yml) or TOML (.toml) file.
// Unknown keys are rejected. The result is validated and has defaults filled.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read options: %w", err)
	}
	return ParseOptions(data, filepath.Ext(path))
}

// ParseOptions decodes Options from data. format is a file extension or
// format name: "yaml", "yml" or "toml".
func ParseOptions(data []byte, format string) (Options, error) {
	var f fileOptions
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return Options{}, fmt.Errorf("parse yaml options: %w", err)
		}
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return Options{}, fmt.Errorf("parse toml options: %w", err)
		}
	default:
		return Options{}, errInvalidConfig(fmt.Sprintf("unsupported options format %q", format))
	}

	opts := f.options()
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	opts.FillDefaults()
	return opts, nil
}

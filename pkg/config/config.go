// Package config reads render settings from a TOML or YAML file.
//
// The keys mirror the CLI flags:
//
//	input      = "runs/output.csv"
//	output     = "positions.gif"
//	fps        = 2
//	resolution = 150
//	color      = "gold"
//	size       = 6
//	workers    = 4
//
// The format is chosen by extension (.toml, .yaml, .yml). Unknown keys are
// rejected so a typo does not silently fall back to a default. Values left
// out stay zero and are filled in by pipeline.Options.SetDefaults.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/swarmreplay/pkg/errors"
	"github.com/matzehuels/swarmreplay/pkg/pipeline"
)

// Names searched by Find, in order.
var Names = []string{"swarmreplay.toml", "swarmreplay.yaml", "swarmreplay.yml"}

// Load decodes the config file at path.
func Load(path string) (pipeline.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Options{}, errs.Wrap(errs.ErrCodeIO, err, "read config %s", path)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return decodeTOML(path, data)
	case ".yaml", ".yml":
		return decodeYAML(path, data)
	default:
		return pipeline.Options{}, errs.New(errs.ErrCodeInvalidConfig,
			"config %s: unsupported format %q (use .toml, .yaml or .yml)", path, ext)
	}
}

func decodeTOML(path string, data []byte) (pipeline.Options, error) {
	var opts pipeline.Options
	md, err := toml.Decode(string(data), &opts)
	if err != nil {
		return pipeline.Options{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return pipeline.Options{}, errs.New(errs.ErrCodeInvalidConfig,
			"config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return opts, nil
}

func decodeYAML(path string, data []byte) (pipeline.Options, error) {
	var opts pipeline.Options
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return pipeline.Options{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return opts, nil
}

// Find returns the first config file from Names present in dir, or "" if
// there is none.
func Find(dir string) string {
	for _, name := range Names {
		path := filepath.Join(dir, name)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path
		}
	}
	return ""
}

// Package dataext is the top-level facade: table and stream conversions with
// defaults taken from config.
package dataext

import (
	"errors"
	"fmt"

	"github.com/tuannm99/dataext/internal"
	"github.com/tuannm99/dataext/internal/logging"
	"github.com/tuannm99/dataext/pkg/streamx"
	"github.com/tuannm99/dataext/pkg/table"
)

type (
	Config = internal.DataExtConfig
	Table  = table.Table
	Schema = table.Schema
	Column = table.Column
	Row    = table.Row
	Codec  = streamx.Codec
)

var ErrNilKit = errors.New("dataext: nil kit")

// Kit carries the configured stream codec and record mapping options.
type Kit struct {
	Codec   Codec
	Mapping table.Options
}

// LoadConfig reads config from path (may be empty) plus DATAEXT_* env.
func LoadConfig(path string) (*Config, error) {
	return internal.LoadConfig(path)
}

// New builds a Kit from cfg.
func New(cfg *Config) (*Kit, error) {
	if cfg == nil {
		return nil, fmt.Errorf("dataext: nil config")
	}
	codec, err := streamx.NewCodec(cfg.Text.Encoding, cfg.Gzip.Level)
	if err != nil {
		return nil, fmt.Errorf("dataext: codec: %w", err)
	}
	return &Kit{
		Codec: codec,
		Mapping: table.Options{
			MatchCase: cfg.Table.MatchCase,
			TagName:   cfg.Table.TagName,
		},
	}, nil
}

// Open loads config from path, installs the configured logger and returns a Kit.
func Open(path string) (*Kit, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return New(cfg)
}

// ToList maps rows of t onto R using the kit's mapping options.
func ToList[R any](k *Kit, t *Table) ([]R, error) {
	if k == nil {
		return nil, ErrNilKit
	}
	return table.ToListWith[R](t, k.Mapping)
}

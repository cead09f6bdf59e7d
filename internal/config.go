package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type DataExtConfig struct {
	AppName string `mapstructure:"app_name"`

	Text struct {
		Encoding string `mapstructure:"encoding"`
	} `mapstructure:"text"`

	Gzip struct {
		Level int `mapstructure:"level"`
	} `mapstructure:"gzip"`

	Table struct {
		MatchCase bool   `mapstructure:"match_case"`
		TagName   string `mapstructure:"tag_name"`
	} `mapstructure:"table"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "dataext")
	v.SetDefault("text.encoding", "utf-8")
	v.SetDefault("gzip.level", -1)
	v.SetDefault("table.match_case", false)
	v.SetDefault("table.tag_name", "col")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads a yaml file at path (skipped when path is empty) on top of
// the defaults. DATAEXT_* environment variables override both, e.g.
// DATAEXT_GZIP_LEVEL=9.
func LoadConfig(path string) (*DataExtConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("dataext")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg DataExtConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

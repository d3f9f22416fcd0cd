package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type LettyConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		Workdir string `mapstructure:"workdir"`
		File    string `mapstructure:"file"`
	} `mapstructure:"storage"`

	Debug bool `mapstructure:"debug"`
}

func LoadConfig(path string) (*LettyConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("storage.file", "letty.db")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg LettyConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("table not found")

type TableConfig struct {
	Name    string       `yaml:"name"`
	Type    string       `yaml:"type"`
	Path    string       `yaml:"path"`
	Options TableOptions `yaml:"options"`
}

type TableOptions struct {
	Separator         string `yaml:"separator"`
	BatchSize         int    `yaml:"batchSize"`
	TypeInferenceRows int    `yaml:"typeInferenceRows"`
	MinPartitionBytes int64  `yaml:"minPartitionBytes"`
}

type Config struct {
	Tables []TableConfig `yaml:"tables"`
}

func (config *Config) GetTableConfig(name string) (*TableConfig, error) {
	for i := range config.Tables {
		if config.Tables[i].Name == name {
			return &config.Tables[i], nil
		}
	}

	return nil, ErrNotFound
}

func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	var config Config

	err = yaml.NewDecoder(f).Decode(&config)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml configuration")
	}

	return &config, nil
}

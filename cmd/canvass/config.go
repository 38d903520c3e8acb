package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hustings/canvass/ai"
)

// fileConfig is the optional YAML configuration file. Every field can also
// be set by a flag; flags win.
type fileConfig struct {
	DB             string `yaml:"db"`
	AnalysisHost   string `yaml:"analysis_host"`
	AnalysisModel  string `yaml:"analysis_model"`
	EmbeddingHost  string `yaml:"embedding_host"`
	EmbeddingModel string `yaml:"embedding_model"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	if path == "" {
		return &fileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// resolve merges the config file with flag values. A non-empty flag value
// always wins over the file.
func (fc *fileConfig) resolve(flagDB, flagHost, flagAnalysisModel, flagEmbeddingModel string) (string, *ai.Config) {
	dbPath := flagDB
	if dbPath == "" {
		dbPath = fc.DB
	}

	aiCfg := ai.DefaultConfig()
	if fc.AnalysisHost != "" {
		aiCfg.AnalysisHost = fc.AnalysisHost
	}
	if fc.EmbeddingHost != "" {
		aiCfg.EmbeddingHost = fc.EmbeddingHost
	}
	if fc.AnalysisModel != "" {
		aiCfg.AnalysisModel = fc.AnalysisModel
	}
	if fc.EmbeddingModel != "" {
		aiCfg.EmbeddingModel = fc.EmbeddingModel
	}
	if flagHost != "" {
		aiCfg.AnalysisHost = flagHost
		aiCfg.EmbeddingHost = flagHost
	}
	if flagAnalysisModel != "" {
		aiCfg.AnalysisModel = flagAnalysisModel
	}
	if flagEmbeddingModel != "" {
		aiCfg.EmbeddingModel = flagEmbeddingModel
	}
	aiCfg.Normalize()

	return dbPath, aiCfg
}

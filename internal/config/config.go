// Package config loads classmap settings from .classmap.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is looked up in the input directory.
	DefaultConfigFile = ".classmap.yaml"
	// DefaultIndexPath is relative to the workspace root.
	DefaultIndexPath = ".classmap/index.db"
)

// Config holds the settings shared by every command. CLI flags override it.
type Config struct {
	Diagram  DiagramConfig  `yaml:"diagram,omitempty"`
	Scan     ScanConfig     `yaml:"scan,omitempty"`
	Index    IndexConfig    `yaml:"index,omitempty"`
	PlantUML PlantUMLConfig `yaml:"plantuml,omitempty"`
}

// DiagramConfig controls diagram contents.
type DiagramConfig struct {
	// Ignore lists accessibilities whose members are hidden, e.g. private.
	Ignore            []string `yaml:"ignore,omitempty"`
	CreateAssociation bool     `yaml:"create_association,omitempty"`
	AllInOne          bool     `yaml:"all_in_one,omitempty"`
}

// ScanConfig controls which files are read.
type ScanConfig struct {
	Exclude     []string `yaml:"exclude,omitempty"`
	MaxFileSize int64    `yaml:"max_file_size,omitempty"`
	Concurrency int      `yaml:"concurrency,omitempty"`
}

// IndexConfig locates the relationship index used by serve.
type IndexConfig struct {
	Path string `yaml:"path,omitempty"`
}

// PlantUMLConfig controls image rendering.
type PlantUMLConfig struct {
	// JarPath skips the download when set.
	JarPath string `yaml:"jar_path,omitempty"`
	// Version pins a release such as v1.2024.7; empty means latest.
	Version string `yaml:"version,omitempty"`
	SHA256  string `yaml:"sha256,omitempty"`
	Java    string `yaml:"java,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			MaxFileSize: 10 * 1024 * 1024,
		},
		Index: IndexConfig{
			Path: DefaultIndexPath,
		},
		PlantUML: PlantUMLConfig{
			Java: "java",
		},
	}
}

// Load reads .classmap.yaml from dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, DefaultConfigFile))
	if os.IsNotExist(err) {
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if jar := os.Getenv("CLASSMAP_PLANTUML_JAR"); jar != "" {
		c.PlantUML.JarPath = jar
	}
	if java := os.Getenv("CLASSMAP_JAVA"); java != "" {
		c.PlantUML.Java = java
	}
}

// Save writes c to dir/.classmap.yaml.
func (c *Config) Save(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

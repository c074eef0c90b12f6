package config

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const DefaultMigrationsPath = "./migrations"
const DefaultTemplatesPath = "./templates"

const EnvPrefix = "SNAPSHOT_"

type runtimeConfig struct {
	MigrationsPath string
	TemplatesPath  string
}

var Runtime = &runtimeConfig{}
var Path = "snapshot-repo.yaml"

var instance *MainRepoConfig
var singletonLock = &sync.Once{}

func reloadConfig() (*MainRepoConfig, error) {
	c := NewDefaultMainConfig()

	// Write a default config if the one given doesn't exist
	_, err := os.Stat(Path)
	exists := err == nil || !os.IsNotExist(err)
	if !exists {
		fmt.Println("Generating new configuration...")
		configBytes, err := yaml.Marshal(c)
		if err != nil {
			return nil, err
		}
		if err = os.WriteFile(Path, configBytes, 0644); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(Path)
	if err != nil {
		return nil, err
	}

	pathsOrdered := make([]string, 0)
	if info.IsDir() {
		logrus.Info("Config is a directory - loading all files over top of each other")

		files, err := os.ReadDir(Path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			pathsOrdered = append(pathsOrdered, path.Join(Path, f.Name()))
		}
		sort.Strings(pathsOrdered)
	} else {
		pathsOrdered = append(pathsOrdered, Path)
	}

	for _, p := range pathsOrdered {
		logrus.Info("Loading config file: ", p)
		if err = loadFile(p, &c); err != nil {
			return nil, fmt.Errorf("error loading %s: %w", p, err)
		}
	}

	if err = ApplyEnvironment(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

func loadFile(p string, c *MainRepoConfig) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	buffer, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(buffer, c)
}

// ApplyEnvironment overlays SNAPSHOT_* environment variables onto the config.
func ApplyEnvironment(c *MainRepoConfig) error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if c.Redis.Address != "" {
		c.Redis.Enabled = true
		c.Redis.Shards = append(c.Redis.Shards, RedisShardConfig{Name: "env", Address: c.Redis.Address})
	}
	return nil
}

func Get() *MainRepoConfig {
	if instance == nil {
		singletonLock.Do(func() {
			c, err := reloadConfig()
			if err != nil {
				logrus.Fatal(err)
			}
			instance = c
		})
	}
	return instance
}

// SetForTesting replaces the loaded configuration. Only tests should call this.
func SetForTesting(c MainRepoConfig) {
	singletonLock.Do(func() {})
	instance = &c
}

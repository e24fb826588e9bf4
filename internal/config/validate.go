package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validatePipelines(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTools() error {
	if c.Tower.CLI == "" {
		return errors.New("tower.cli must be set")
	}
	if c.Synapse.CLI == "" {
		return errors.New("synapse.cli must be set")
	}
	return nil
}

func (c *Config) validatePipelines() error {
	p := c.Pipelines
	pairs := []struct {
		key, pipeline, revision string
	}{
		{"stage", p.StagePipeline, p.StageRevision},
		{"spatialvi", p.SpatialVIPipeline, p.SpatialVIRevision},
		{"synindex", p.SynindexPipeline, p.SynindexRevision},
	}
	for _, pair := range pairs {
		if pair.pipeline == "" {
			return fmt.Errorf("pipelines.%s_pipeline must be set", pair.key)
		}
		if pair.revision == "" {
			return fmt.Errorf("pipelines.%s_revision must be set", pair.key)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollIntervalSeconds <= 0 {
		return errors.New("workflow.poll_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

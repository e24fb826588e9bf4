package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizePipelines()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockDir) == "" {
		c.Paths.LockDir = defaultLockDir
	}
	if c.Paths.LockDir, err = expandPath(c.Paths.LockDir); err != nil {
		return fmt.Errorf("paths.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tower.CLI) == "" {
		c.Tower.CLI = defaultTowerCLI
	}
	if strings.TrimSpace(c.Synapse.CLI) == "" {
		c.Synapse.CLI = defaultSynapseCLI
	}
	c.Tower.Workspace = strings.TrimSpace(c.Tower.Workspace)
	c.Tower.ComputeEnv = strings.TrimSpace(c.Tower.ComputeEnv)
}

func (c *Config) normalizePipelines() {
	p := &c.Pipelines
	if strings.TrimSpace(p.StagePipeline) == "" {
		p.StagePipeline = defaultStagePipeline
	}
	if strings.TrimSpace(p.StageRevision) == "" {
		p.StageRevision = defaultStageRevision
	}
	if strings.TrimSpace(p.SpatialVIPipeline) == "" {
		p.SpatialVIPipeline = defaultSpatialVIPipeline
	}
	if strings.TrimSpace(p.SpatialVIRevision) == "" {
		p.SpatialVIRevision = defaultSpatialVIRevision
	}
	if strings.TrimSpace(p.SynindexPipeline) == "" {
		p.SynindexPipeline = defaultSynindexPipeline
	}
	if strings.TrimSpace(p.SynindexRevision) == "" {
		p.SynindexRevision = defaultSynindexRevision
	}
	p.SpacerangerRef = strings.TrimSpace(p.SpacerangerRef)
	p.SpacerangerProbeset = strings.TrimSpace(p.SpacerangerProbeset)
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollIntervalSeconds <= 0 {
		c.Workflow.PollIntervalSeconds = defaultPollIntervalSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

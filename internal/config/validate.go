package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTransfer(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.SourceDir == "" {
		return errors.New("paths.source_dir must be set")
	}
	if c.Paths.ArchiveDir == "" {
		return errors.New("paths.archive_dir must be set")
	}
	if c.Paths.SourceDir == c.Paths.ArchiveDir {
		return errors.New("paths.source_dir and paths.archive_dir must differ")
	}
	if c.Paths.CategoryMap == "" {
		return errors.New("paths.category_map must be set")
	}
	if c.Paths.ActivityMap == "" {
		return errors.New("paths.activity_map must be set")
	}
	return nil
}

func (c *Config) validateTransfer() error {
	if c.Transfer.MaxAttempts < 1 {
		return errors.New("transfer.max_attempts must be positive")
	}
	if c.Transfer.StabilityIntervalSecs < 1 {
		return errors.New("transfer.stability_interval_seconds must be positive")
	}
	if c.Transfer.MaxObservationSecs <= c.Transfer.StabilityIntervalSecs {
		return fmt.Errorf("transfer.max_observation_seconds must be greater than transfer.stability_interval_seconds (%d)", c.Transfer.StabilityIntervalSecs)
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count < 1 {
		return errors.New("workers.count must be positive")
	}
	return nil
}

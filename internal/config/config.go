package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/anas-shakeel/planar-bmp/internal/pipeline"
	"gopkg.in/yaml.v2"
)

// Job describes one conversion: where to read, what to run, where to write
type Job struct {
	Input  string          `yaml:"input"`
	Output string          `yaml:"output"`
	Steps  []pipeline.Step `yaml:"steps"`
}

// LoadJob reads and validates a YAML job file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file '%s': %w", path, err)
	}
	return ParseJob(data)
}

// ParseJob decodes a YAML job definition.
func ParseJob(data []byte) (*Job, error) {
	var job Job
	if err := yaml.UnmarshalStrict(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate reports the first problem with the job, if any.
func (j *Job) Validate() error {
	if j.Input == "" {
		return errors.New("job: input is required")
	}
	if j.Output == "" {
		return errors.New("job: output is required")
	}
	if err := pipeline.Validate(j.Steps); err != nil {
		return fmt.Errorf("job: %w", err)
	}
	return nil
}

// SaveJob writes the job back out as YAML.
func SaveJob(path string, job *Job) error {
	data, err := yaml.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write job file '%s': %w", path, err)
	}
	return nil
}

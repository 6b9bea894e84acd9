package config

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/anas-shakeel/planar-bmp/internal/pipeline"
)

const sampleJob = `
input: in.bmp
output: out.bmp
steps:
  - name: blur
    args:
      passes: 3
  - name: brightness
    args:
      factor: 1.5
      method: multiply
  - name: invert
`

func TestParseJob(t *testing.T) {
	job, err := ParseJob([]byte(sampleJob))
	if err != nil {
		t.Fatalf("ParseJob: %v", err)
	}
	if job.Input != "in.bmp" || job.Output != "out.bmp" {
		t.Fatalf("paths = %q -> %q", job.Input, job.Output)
	}
	if len(job.Steps) != 3 {
		t.Fatalf("got %d steps, expected 3", len(job.Steps))
	}
	if passes, ok := job.Steps[0].Args["passes"].(int); !ok || passes != 3 {
		t.Fatalf("blur passes = %#v, expected int 3", job.Steps[0].Args["passes"])
	}
	if factor, ok := job.Steps[1].Args["factor"].(float64); !ok || factor != 1.5 {
		t.Fatalf("brightness factor = %#v, expected 1.5", job.Steps[1].Args["factor"])
	}
}

func TestParseJob_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"missing_input":  "output: out.bmp\n",
		"missing_output": "input: in.bmp\n",
		"unknown_step":   "input: a.bmp\noutput: b.bmp\nsteps:\n  - name: sharpen\n",
		"unknown_field":  "input: a.bmp\noutput: b.bmp\nfilters: []\n",
		"not_yaml":       "input: [unterminated\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseJob([]byte(doc)); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestSaveJobLoadJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yml")
	job := &Job{
		Input:  "a.bmp",
		Output: "b.bmp",
		Steps: []pipeline.Step{
			{Name: "grayscale"},
			{Name: "resize", Args: map[string]interface{}{"width": 32}},
		},
	}

	if err := SaveJob(path, job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}
	loaded, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if !reflect.DeepEqual(job, loaded) {
		t.Fatalf("jobs do not match.\nOriginal: %+v\nLoaded:   %+v", job, loaded)
	}
}

func TestLoadJob_Missing(t *testing.T) {
	if _, err := LoadJob(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

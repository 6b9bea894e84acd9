// Pipeline runs named filters and adjustments over planar images
package pipeline

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/anas-shakeel/planar-bmp/internal/adjustments"
	"github.com/anas-shakeel/planar-bmp/internal/bmp"
	"github.com/anas-shakeel/planar-bmp/internal/filters"
)

// Step is one named operation and its arguments
type Step struct {
	Name string                 `yaml:"name" json:"name"`
	Args map[string]interface{} `yaml:"args,omitempty" json:"args,omitempty"`
}

type operation func(p *bmp.Planes, a args) (*bmp.Planes, error)

// In-place filters hand back the same planes they were given
var operations = map[string]operation{
	"invert": func(p *bmp.Planes, _ args) (*bmp.Planes, error) {
		filters.Invert(p)
		return p, nil
	},
	"grayscale": func(p *bmp.Planes, _ args) (*bmp.Planes, error) {
		filters.Grayscale(p)
		return p, nil
	},
	"grayscale-luma": func(p *bmp.Planes, _ args) (*bmp.Planes, error) {
		filters.GrayscaleLuma(p)
		return p, nil
	},
	"isolate": func(p *bmp.Planes, a args) (*bmp.Planes, error) {
		channel, err := a.String("channel", "")
		if err != nil {
			return nil, err
		}
		return p, filters.Isolate(p, channel)
	},
	"brightness": func(p *bmp.Planes, a args) (*bmp.Planes, error) {
		factor, err := a.Float("factor", 0)
		if err != nil {
			return nil, err
		}
		method, err := a.String("method", "add")
		if err != nil {
			return nil, err
		}
		return p, filters.Brightness(p, factor, method)
	},
	"contrast": func(p *bmp.Planes, a args) (*bmp.Planes, error) {
		factor, err := a.Float("factor", 1)
		if err != nil {
			return nil, err
		}
		filters.Contrast(p, factor)
		return p, nil
	},
	"hue": func(p *bmp.Planes, a args) (*bmp.Planes, error) {
		degrees, err := a.Float("degrees", 0)
		if err != nil {
			return nil, err
		}
		return p, filters.HueShift(p, degrees)
	},
	"expression": func(p *bmp.Planes, a args) (*bmp.Planes, error) {
		expr, err := a.String("expr", "")
		if err != nil {
			return nil, err
		}
		target, err := a.String("target", "all")
		if err != nil {
			return nil, err
		}
		return p, filters.Expression(p, expr, target)
	},
	"blur": func(p *bmp.Planes, a args) (*bmp.Planes, error) {
		passes, err := a.Int("passes", 1)
		if err != nil {
			return nil, err
		}
		return p, filters.KawaseBlur(p, passes)
	},
	"crop": func(p *bmp.Planes, a args) (*bmp.Planes, error) {
		x, err := a.Int("x", 0)
		if err != nil {
			return nil, err
		}
		y, err := a.Int("y", 0)
		if err != nil {
			return nil, err
		}
		w, err := a.Int("width", p.Width-x)
		if err != nil {
			return nil, err
		}
		h, err := a.Int("height", p.Height-y)
		if err != nil {
			return nil, err
		}
		return adjustments.Crop(p, x, y, w, h)
	},
	"flip-horizontal": func(p *bmp.Planes, _ args) (*bmp.Planes, error) {
		adjustments.FlipHorizontal(p)
		return p, nil
	},
	"flip-vertical": func(p *bmp.Planes, _ args) (*bmp.Planes, error) {
		adjustments.FlipVertical(p)
		return p, nil
	},
	"resize": func(p *bmp.Planes, a args) (*bmp.Planes, error) {
		w, err := a.Int("width", 0)
		if err != nil {
			return nil, err
		}
		h, err := a.Int("height", 0)
		if err != nil {
			return nil, err
		}
		return adjustments.Resize(p, w, h)
	},
}

// Returns the sorted names of every known operation
func Names() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Checks that every step names a known operation
func Validate(steps []Step) error {
	for i, s := range steps {
		if _, ok := operations[s.Name]; !ok {
			return fmt.Errorf("step %d: unknown operation %q", i+1, s.Name)
		}
	}
	return nil
}

// Runs the steps in order. Steps that resize or crop return new planes, so
// callers must use the returned planes rather than p.
func Apply(p *bmp.Planes, steps []Step) (*bmp.Planes, error) {
	if err := Validate(steps); err != nil {
		return nil, err
	}
	for i, s := range steps {
		out, err := operations[s.Name](p, args(s.Args))
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, s.Name, err)
		}
		p = out
	}
	return p, nil
}

// args reads loosely typed values: YAML hands us ints and floats, query
// strings hand us text.
type args map[string]interface{}

func (a args) Float(key string, def float64) (float64, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	switch v := v.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %s: %w", key, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("argument %s: expected a number, got %T", key, v)
}

func (a args) Int(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	switch v := v.(type) {
	case int:
		return v, nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("argument %s: expected an integer, got %v", key, v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("argument %s: %w", key, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("argument %s: expected an integer, got %T", key, v)
}

func (a args) String(key, def string) (string, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %s: expected a string, got %T", key, v)
	}
	return s, nil
}

package filters

import (
	"fmt"
	"math"

	"github.com/anas-shakeel/planar-bmp/internal/bmp"
	"github.com/anas-shakeel/planar-bmp/internal/utils"
	"github.com/Knetic/govaluate"
)

// Functions usable inside pixel expressions
func expressionFunctions() map[string]govaluate.ExpressionFunction {
	number := func(name string, args []interface{}, n int) ([]float64, error) {
		if len(args) != n {
			return nil, fmt.Errorf("%s expects %d arguments", name, n)
		}
		out := make([]float64, n)
		for i, a := range args {
			v, ok := a.(float64)
			if !ok {
				return nil, fmt.Errorf("arg %d of %s must be numeric", i+1, name)
			}
			out[i] = v
		}
		return out, nil
	}

	return map[string]govaluate.ExpressionFunction{
		"min": func(args ...interface{}) (interface{}, error) {
			v, err := number("min", args, 2)
			if err != nil {
				return nil, err
			}
			return math.Min(v[0], v[1]), nil
		},
		"max": func(args ...interface{}) (interface{}, error) {
			v, err := number("max", args, 2)
			if err != nil {
				return nil, err
			}
			return math.Max(v[0], v[1]), nil
		},
		"abs": func(args ...interface{}) (interface{}, error) {
			v, err := number("abs", args, 1)
			if err != nil {
				return nil, err
			}
			return math.Abs(v[0]), nil
		},
		"sqrt": func(args ...interface{}) (interface{}, error) {
			v, err := number("sqrt", args, 1)
			if err != nil {
				return nil, err
			}
			return math.Sqrt(v[0]), nil
		},
	}
}

// Evaluates expr for every pixel and stores the clipped result.
//
// The expression sees r, g, b (0-255), x, y, width and height. target is a
// channel name (`red`, `green`, `blue`) or "all" to write every channel.
// Boolean results are stored as 255 (true) or 0 (false).
func Expression(p *bmp.Planes, expr, target string) error {
	expression, err := govaluate.NewEvaluableExpressionWithFunctions(expr, expressionFunctions())
	if err != nil {
		return fmt.Errorf("invalid expression %q: %w", expr, err)
	}

	var dst [][]byte
	if target == "" || target == "all" {
		dst = [][]byte{p.R, p.G, p.B}
	} else {
		plane, err := p.Channel(target)
		if err != nil {
			return err
		}
		dst = [][]byte{plane}
	}

	// Evaluate against the source, not the planes being written
	src := p.Copy()
	params := map[string]interface{}{
		"width":  float64(p.Width),
		"height": float64(p.Height),
	}

	for y := range p.Height {
		for x := range p.Width {
			i := y*p.Width + x
			params["x"] = float64(x)
			params["y"] = float64(y)
			params["r"] = float64(src.R[i])
			params["g"] = float64(src.G[i])
			params["b"] = float64(src.B[i])

			result, err := expression.Evaluate(params)
			if err != nil {
				return fmt.Errorf("evaluating %q at (%d, %d): %w", expr, x, y, err)
			}

			var v byte
			switch res := result.(type) {
			case float64:
				v = utils.ClampByte(math.Round(res))
			case bool:
				if res {
					v = 255
				}
			default:
				return fmt.Errorf("expression %q returned %T, expected a number", expr, result)
			}

			for _, plane := range dst {
				plane[i] = v
			}
		}
	}
	return nil
}

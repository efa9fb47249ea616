package optim

import (
	"context"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/netevo/internal/experiment"
)

// GridSearch simulates an experiment at every point of a parameter grid and
// keeps the point with the lowest value of a metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Point is one evaluated grid point. Err is set when the experiment could
// not be built or simulated, in which case Value is +Inf.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Search evaluates the grid in row-major order. Failed points are recorded
// and skipped; only cancellation or an unknown metric aborts the search.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var points []Point

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &best, &bestParams, &points)
	return bestParams, best, points, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		p := Point{Params: maps.Clone(current), Value: math.Inf(1)}
		defer func() { *points = append(*points, p) }()

		exp, err := buildExperiment(current)
		if err != nil {
			p.Err = err
			return nil
		}
		result, err := exp.Simulate(ctx, nil, nil)
		if err != nil {
			p.Err = err
			return ctx.Err()
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("optim: unknown metric %s", metricName)
		}
		p.Value = val
		if val < *best {
			*best = val
			*bestParams = maps.Clone(current)
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := maps.Clone(current)
		newParams[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, best, bestParams, points); err != nil {
			return err
		}
	}
	return nil
}

// ParseRange reads "min:max:step" or a comma separated list of values.
func ParseRange(s string) ([]float64, error) {
	if parts := strings.Split(s, ":"); len(parts) == 3 {
		var bounds [3]float64
		for i, part := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("optim: range %q: %w", s, err)
			}
			bounds[i] = v
		}
		lo, hi, step := bounds[0], bounds[1], bounds[2]
		if step <= 0 || hi < lo {
			return nil, fmt.Errorf("optim: range %q needs min <= max and a positive step", s)
		}
		n := int(math.Floor((hi-lo)/step+1e-9)) + 1
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = lo + float64(i)*step
		}
		return vals, nil
	}

	var vals []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("optim: value %q: %w", part, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

package optim

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/experiment"
)

// Axis is one searched parameter and the values it takes.
type Axis struct {
	Param  string
	Values []float64
}

// ParseAxis reads "name=min:max:steps", e.g. "laser.modulation=0.5:2:4".
func ParseAxis(s string) (Axis, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return Axis{}, fmt.Errorf("%w: axis %q is not name=min:max:steps", dynamo.ErrDomain, s)
	}
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return Axis{}, fmt.Errorf("%w: axis %q is not name=min:max:steps", dynamo.ErrDomain, s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Axis{}, fmt.Errorf("axis %s min: %w", name, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Axis{}, fmt.Errorf("axis %s max: %w", name, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return Axis{}, fmt.Errorf("axis %s steps: %w", name, err)
	}
	return NewAxis(name, lo, hi, n)
}

// NewAxis spaces n values evenly over [lo, hi]. A single step takes lo.
func NewAxis(param string, lo, hi float64, n int) (Axis, error) {
	if n < 1 {
		return Axis{}, fmt.Errorf("%w: axis %s needs at least one step, got %d", dynamo.ErrDomain, param, n)
	}
	if n == 1 {
		return Axis{Param: param, Values: []float64{lo}}, nil
	}
	return Axis{Param: param, Values: floats.Span(make([]float64, n), lo, hi)}, nil
}

// GridSearch runs every combination of its axes and ranks the runs by one
// trajectory metric.
type GridSearch struct {
	Axes     []Axis
	Metric   string
	Maximize bool
	Workers  int
	Logger   *zap.Logger
}

func NewGridSearch(metric string, maximize bool, axes ...Axis) *GridSearch {
	return &GridSearch{
		Axes:     axes,
		Metric:   metric,
		Maximize: maximize,
		Workers:  dynamo.DefaultWorkers,
		Logger:   zap.NewNop(),
	}
}

// Point is one evaluated grid node.
type Point struct {
	Params map[string]float64
	Value  float64
}

// Points is the cartesian product of the axes, the last axis varying
// fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.collect(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.Axes) {
		*out = append(*out, current)
		return
	}
	axis := g.Axes[depth]
	for _, v := range axis.Values {
		next := make(map[string]float64, len(current)+1)
		for k, cv := range current {
			next[k] = cv
		}
		next[axis.Param] = v
		g.collect(depth+1, next, out)
	}
}

// Search runs every grid point from base and returns the best point and
// all points in grid order. Runs whose metric is NaN never win; ties keep
// the earlier point. The first failing run cancels the rest.
func (g *GridSearch) Search(ctx context.Context, reg *experiment.Registry, base *config.Config) (Point, []Point, error) {
	if len(g.Axes) == 0 {
		return Point{}, nil, fmt.Errorf("%w: grid search needs at least one axis", dynamo.ErrDomain)
	}
	probe := base.Clone()
	for _, a := range g.Axes {
		if len(a.Values) == 0 {
			return Point{}, nil, fmt.Errorf("%w: axis %s has no values", dynamo.ErrDomain, a.Param)
		}
		if err := probe.SetParam(a.Param, a.Values[0]); err != nil {
			return Point{}, nil, err
		}
	}

	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := g.Workers
	if workers <= 0 {
		workers = dynamo.DefaultWorkers
	}

	grid := g.Points()
	points := make([]Point, len(grid))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, params := range grid {
		eg.Go(func() error {
			cfg := base.Clone()
			for name, v := range params {
				if err := cfg.SetParam(name, v); err != nil {
					return err
				}
			}
			exp, err := experiment.New(cfg, reg)
			if err != nil {
				return fmt.Errorf("grid point %v: %w", params, err)
			}
			res, err := exp.Run(egctx)
			if err != nil {
				return fmt.Errorf("grid point %v: %w", params, err)
			}
			val, ok := res.Trajectory.Metrics[g.Metric]
			if !ok {
				return fmt.Errorf("%w: unknown metric %q", dynamo.ErrDomain, g.Metric)
			}
			points[i] = Point{Params: params, Value: val}
			logger.Debug("Grid point complete", zap.Any("params", params), zap.Float64(g.Metric, val))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Point{}, nil, err
	}

	best := -1
	for i, p := range points {
		if math.IsNaN(p.Value) {
			continue
		}
		if best < 0 || g.better(p.Value, points[best].Value) {
			best = i
		}
	}
	if best < 0 {
		return Point{}, points, fmt.Errorf("%w: %s is NaN at every grid point", dynamo.ErrNumericAnomaly, g.Metric)
	}

	logger.Info("Grid search complete",
		zap.String("metric", g.Metric),
		zap.Int("points", len(points)),
		zap.Any("best", points[best].Params),
		zap.Float64("value", points[best].Value))
	return points[best], points, nil
}

func (g *GridSearch) better(a, b float64) bool {
	if g.Maximize {
		return a > b
	}
	return a < b
}

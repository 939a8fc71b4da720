package aggregate

import (
	"context"
	"fmt"
	"sort"

	"loopback-bench/internal/logging"
	"loopback-bench/internal/stages"
	"loopback-bench/internal/stats"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Key identifies one stage group.
type Key struct {
	Size  int
	Stage stages.Stage
}

func (k Key) String() string {
	return fmt.Sprintf("%s @ %d B", k.Stage, k.Size)
}

// Groups collects stage durations per (size, stage). Insertion order of
// keys, sizes and stages is remembered.
type Groups struct {
	values map[Key][]float64
	keys   []Key
	sizes  []int
	stages []stages.Stage

	seenSize  map[int]bool
	seenStage map[stages.Stage]bool
}

func NewGroups() *Groups {
	return &Groups{
		values:    make(map[Key][]float64),
		seenSize:  make(map[int]bool),
		seenStage: make(map[stages.Stage]bool),
	}
}

func (g *Groups) Add(size int, d stages.Duration) {
	key := Key{Size: size, Stage: d.Stage}
	if _, ok := g.values[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.values[key] = append(g.values[key], d.Micros)

	if !g.seenSize[size] {
		g.seenSize[size] = true
		g.sizes = append(g.sizes, size)
	}
	if !g.seenStage[d.Stage] {
		g.seenStage[d.Stage] = true
		g.stages = append(g.stages, d.Stage)
	}
}

func (g *Groups) AddAll(size int, durations []stages.Duration) {
	for _, d := range durations {
		g.Add(size, d)
	}
}

// Values returns a copy of the group's samples in insertion order.
func (g *Groups) Values(key Key) []float64 {
	v := g.values[key]
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func (g *Groups) Len(key Key) int {
	return len(g.values[key])
}

func (g *Groups) Keys() []Key {
	out := make([]Key, len(g.keys))
	copy(out, g.keys)
	return out
}

// Sizes in order of first encounter.
func (g *Groups) Sizes() []int {
	out := make([]int, len(g.sizes))
	copy(out, g.sizes)
	return out
}

// Stages in order of first encounter.
func (g *Groups) Stages() []stages.Stage {
	out := make([]stages.Stage, len(g.stages))
	copy(out, g.stages)
	return out
}

// Estimates holds one EstimatePoint per group plus the encounter orders
// of the groups they were computed from.
type Estimates struct {
	Points map[Key]stats.EstimatePoint
	Keys   []Key
	Sizes  []int
	Stages []stages.Stage
}

func (e *Estimates) Get(size int, stage stages.Stage) (stats.EstimatePoint, bool) {
	p, ok := e.Points[Key{Size: size, Stage: stage}]
	return p, ok
}

// Entry is one estimated group, flattened for export.
type Entry struct {
	Size  int                 `json:"size"`
	Stage stages.Stage        `json:"stage"`
	Point stats.EstimatePoint `json:"estimate"`
}

// Entries lists every estimate in group insertion order.
func (e *Estimates) Entries() []Entry {
	out := make([]Entry, 0, len(e.Keys))
	for _, k := range e.Keys {
		out = append(out, Entry{Size: k.Size, Stage: k.Stage, Point: e.Points[k]})
	}
	return out
}

// SortedSizes returns the sizes in ascending order.
func (e *Estimates) SortedSizes() []int {
	out := make([]int, len(e.Sizes))
	copy(out, e.Sizes)
	sort.Ints(out)
	return out
}

// EstimateAll reduces every group to an EstimatePoint. Each group draws from
// its own random stream keyed by insertion index, so the result is the same
// for any worker count.
func EstimateAll(ctx context.Context, groups *Groups, est *stats.Estimator, workers int) (*Estimates, error) {
	logger := logging.GetLogger()
	if workers < 1 {
		workers = 1
	}

	keys := groups.Keys()
	points := make([]stats.EstimatePoint, len(keys))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, key := range keys {
		i, key := i, key
		values := groups.Values(key)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"group":   key.String(),
				"samples": len(values),
			}).Trace("Estimating stage group")

			p, err := est.WithStream(uint64(i)).Estimate(values, key.String())
			if err != nil {
				return fmt.Errorf("group %s: %w", key, err)
			}
			points[i] = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := &Estimates{
		Points: make(map[Key]stats.EstimatePoint, len(keys)),
		Keys:   keys,
		Sizes:  groups.Sizes(),
		Stages: groups.Stages(),
	}
	for i, key := range keys {
		out.Points[key] = points[i]
	}

	logger.WithFields(logrus.Fields{
		"groups":  len(keys),
		"workers": workers,
	}).Debug("Stage groups estimated")
	return out, nil
}

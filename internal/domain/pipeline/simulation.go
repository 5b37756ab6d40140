package pipeline

import (
	"math/rand/v2"
	"time"

	"github.com/mediaflow/backend/internal/infrastructure/config"
)

// Step names one simulated processing stage
type Step string

// Simulated pipeline stages, in execution order
const (
	StepOptimize  Step = "optimize"
	StepThumbnail Step = "thumbnail"
)

// Level is a simulated optimization level, surfaced only through
// observability; it is never stored on the job.
type Level string

// Optimization levels
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

var levels = []Level{LevelLow, LevelMedium, LevelHigh}

// Simulation supplies the randomized timing and outcomes of a pipeline run.
// It is an injection point: production uses the config-driven random source,
// tests substitute fixed values.
type Simulation interface {
	// StepDelay returns how long the given stage should suspend.
	StepDelay(step Step) time.Duration
	// OptimizationLevel returns the simulated optimization level.
	OptimizationLevel() Level
	// SizeSavedRatio returns the fraction of the file size saved, in [0, 1].
	SizeSavedRatio() float64
	// ThumbnailCreated reports whether the thumbnail step succeeded.
	ThumbnailCreated() bool
}

// RandomSimulation draws uniformly from the configured ranges
type RandomSimulation struct {
	cfg config.PipelineConfig
}

// NewSimulation creates a config-driven random simulation
func NewSimulation(cfg config.PipelineConfig) *RandomSimulation {
	return &RandomSimulation{cfg: cfg}
}

// StepDelay draws a uniform duration from the step's configured range
func (s *RandomSimulation) StepDelay(step Step) time.Duration {
	switch step {
	case StepOptimize:
		return uniformDuration(s.cfg.OptimizeMinDelay, s.cfg.OptimizeMaxDelay)
	case StepThumbnail:
		return uniformDuration(s.cfg.ThumbnailMinDelay, s.cfg.ThumbnailMaxDelay)
	}
	return 0
}

// OptimizationLevel picks uniformly from {low, medium, high}
func (s *RandomSimulation) OptimizationLevel() Level {
	return levels[rand.IntN(len(levels))]
}

// SizeSavedRatio draws uniformly from the configured [min, max] range
func (s *RandomSimulation) SizeSavedRatio() float64 {
	return s.cfg.SizeSavedMin + rand.Float64()*(s.cfg.SizeSavedMax-s.cfg.SizeSavedMin)
}

// ThumbnailCreated succeeds with the configured probability
func (s *RandomSimulation) ThumbnailCreated() bool {
	return rand.Float64() < s.cfg.ThumbnailSuccessRate
}

func uniformDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)+1))
}

package peginsertion

import (
	"math"

	"github.com/unixpickle/anyrl"
)

// An rlEnv exposes an Env through the anyrl.Env
// interface.
//
// Observations are flattened with the object pose first,
// and actions are clamped to [-1, 1] before being
// applied.
type rlEnv struct {
	env *Env
}

// RL wraps an Env for use with anyrl-based training
// loops.
//
// The wrapper shares the Env's simulator and episode
// state; do not mix calls on the wrapper with direct
// calls on the Env mid-episode.
func RL(e *Env) anyrl.Env {
	return &rlEnv{env: e}
}

func (r *rlEnv) Reset() ([]float64, error) {
	ob, err := r.env.Reset()
	if err != nil {
		return nil, err
	}
	return ob.Flatten(), nil
}

func (r *rlEnv) Step(action []float64) ([]float64, float64, bool, error) {
	clamped := make([]float64, len(action))
	for i, x := range action {
		clamped[i] = math.Max(math.Min(x, 1), -1)
	}
	ob, reward, done, _, err := r.env.Step(clamped)
	if err != nil {
		return nil, 0, false, err
	}
	return ob.Flatten(), reward, done, nil
}

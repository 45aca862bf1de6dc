package peginsertion

import (
	"math/rand"
	"testing"

	"github.com/unixpickle/approb"
)

func TestActionNoiseDistribution(t *testing.T) {
	cfg := removeConfig()
	cfg.MaxEpisodeSteps = 1 << 30
	cfg.ActionNoise = 0.5
	env, err := New(cfg, removeSim(100, 0))
	if err != nil {
		t.Fatal(err)
	}
	env.Seed(7)
	if _, err := env.Reset(); err != nil {
		t.Fatal(err)
	}

	sim := env.sim.(*scriptedSim)
	action := make([]float64, Dof)
	corr := approb.Correlation(20000, 0.1, func() float64 {
		return rand.Float64() - 0.5
	}, func() float64 {
		if _, _, _, _, err := env.Step(action); err != nil {
			t.Fatal(err)
		}
		return sim.lastCtrl[0]
	})
	if corr < 0.999 {
		t.Error("correlation should be near 1, but got", corr)
	}
}

func TestZeroNoiseLeavesActions(t *testing.T) {
	cfg := removeConfig()
	env, err := New(cfg, removeSim(1, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Reset(); err != nil {
		t.Fatal(err)
	}

	action := make([]float64, Dof)
	for i := range action {
		action[i] = float64(i) / 10
	}
	if _, _, _, _, err := env.Step(action); err != nil {
		t.Fatal(err)
	}
	sim := env.sim.(*scriptedSim)
	for i, x := range sim.lastCtrl {
		if x != action[i] {
			t.Errorf("component %d: should be %v, but got %v", i,
				action[i], x)
		}
	}
}

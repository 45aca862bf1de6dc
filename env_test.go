package peginsertion

import (
	"fmt"
	"math"
	"testing"
)

// scriptedSim is a kinematic stand-in for the physics
// simulator.
// Every step moves the scene bodies along a fixed
// straight-line script, ignoring the control vector
// except for a size check.
type scriptedSim struct {
	qpos []float64
	qvel []float64

	start  map[string][]float64
	bodies map[string][]float64
	motion map[string][]float64

	lastCtrl []float64
	steps    int
}

func newScriptedSim(start, motion map[string][]float64) *scriptedSim {
	s := &scriptedSim{
		start:  start,
		motion: motion,
		qpos:   make([]float64, Dof),
		qvel:   make([]float64, Dof),
	}
	s.restoreBodies()
	return s
}

func (s *scriptedSim) restoreBodies() {
	s.bodies = map[string][]float64{}
	for name, pos := range s.start {
		s.bodies[name] = append([]float64{}, pos...)
	}
	if _, ok := s.bodies[BodyBall]; !ok {
		s.bodies[BodyBall] = []float64{0, 0, 0}
	}
}

func (s *scriptedSim) StepSimulation(ctrl []float64, frames int) error {
	if len(ctrl) != Dof {
		return fmt.Errorf("control size %d, want %d", len(ctrl), Dof)
	}
	s.lastCtrl = append([]float64{}, ctrl...)
	s.steps++
	for name, delta := range s.motion {
		pos := s.bodies[name]
		for i, d := range delta {
			pos[i] += d
		}
	}
	return nil
}

func (s *scriptedSim) BodyPos(name string) ([]float64, error) {
	pos, ok := s.bodies[name]
	if !ok {
		return nil, fmt.Errorf("no body named %q", name)
	}
	return append([]float64{}, pos...), nil
}

func (s *scriptedSim) BodyQuat(name string) ([]float64, error) {
	if _, ok := s.bodies[name]; !ok {
		return nil, fmt.Errorf("no body named %q", name)
	}
	return []float64{1, 0, 0, 0}, nil
}

func (s *scriptedSim) QPos() []float64 {
	return append([]float64{}, s.qpos...)
}

func (s *scriptedSim) QVel() []float64 {
	return append([]float64{}, s.qvel...)
}

func (s *scriptedSim) SetState(qpos, qvel []float64) error {
	s.qpos = append([]float64{}, qpos...)
	s.qvel = append([]float64{}, qvel...)
	s.restoreBodies()
	return nil
}

func (s *scriptedSim) Render(mode string, camera int) ([]byte, error) {
	return nil, nil
}

func (s *scriptedSim) Close() error {
	return nil
}

// removeSim builds a scripted scene for the remove task
// where the peg starts at distance dist from the start
// pose and moves closer by step along x every frame.
func removeSim(dist, step float64) *scriptedSim {
	start := map[string][]float64{
		BodyLegBottom: {
			removeStartPose[0] + dist,
			removeStartPose[1],
			removeStartPose[2],
		},
		BodyLegTop: {
			removeStartPose[3],
			removeStartPose[4],
			removeStartPose[5],
		},
	}
	motion := map[string][]float64{
		BodyLegBottom: {-step, 0, 0},
	}
	return newScriptedSim(start, motion)
}

func removeConfig() *TaskConfig {
	cfg := DefaultConfig()
	cfg.Task = TaskRemove
	cfg.PegToPointCoeff = 1
	cfg.ControlPenaltyCoeff = 0
	cfg.SuccessReward = 10
	cfg.GoalPosThreshold = 0.05
	return cfg
}

func TestRewardExample(t *testing.T) {
	// task=remove, sparse=false, threshold=0.05,
	// shaping_coeff=1, control_coeff=0, success_reward=10.
	// d0 = 0.3, one zero-action step brings d1 = 0.2.
	cfg := removeConfig()
	env, err := New(cfg, removeSim(0.3, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Reset(); err != nil {
		t.Fatal(err)
	}
	_, reward, done, info, err := env.Step(make([]float64, Dof))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(reward-0.1) > 1e-9 {
		t.Errorf("reward should be 0.1, but got %v", reward)
	}
	if done {
		t.Error("episode should not be done")
	}
	if math.Abs(info["dist_to_start"]-0.2) > 1e-9 {
		t.Errorf("dist_to_start should be 0.2, but got %v",
			info["dist_to_start"])
	}
	if info["success_rew"] != 0 {
		t.Errorf("success_rew should be 0, but got %v", info["success_rew"])
	}
}

func TestStepDeterminism(t *testing.T) {
	cfg := removeConfig()
	cfg.MaxEpisodeSteps = 50
	env, err := New(cfg, removeSim(1, 0.01))
	if err != nil {
		t.Fatal(err)
	}

	rollout := func() []float64 {
		if _, err := env.Reset(); err != nil {
			t.Fatal(err)
		}
		var rewards []float64
		for i := 0; i < 10; i++ {
			_, reward, _, _, err := env.Step(make([]float64, Dof))
			if err != nil {
				t.Fatal(err)
			}
			rewards = append(rewards, reward)
		}
		return rewards
	}

	first := rollout()
	second := rollout()
	for i, r := range first {
		if second[i] != r {
			t.Errorf("step %d: reward %v then %v", i, r, second[i])
		}
	}
}

func TestEpisodeRewardTotal(t *testing.T) {
	cfg := removeConfig()
	cfg.MaxEpisodeSteps = 7
	// Far away and barely moving: no success, so the
	// episode ends on the step budget.
	env, err := New(cfg, removeSim(5, 0.01))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Reset(); err != nil {
		t.Fatal(err)
	}

	var total float64
	for i := 0; i < cfg.MaxEpisodeSteps; i++ {
		_, _, done, info, err := env.Step(make([]float64, Dof))
		if err != nil {
			t.Fatal(err)
		}
		total += info["reward"]
		if done != (i == cfg.MaxEpisodeSteps-1) {
			t.Fatalf("step %d: done=%v", i, done)
		}
		if done {
			if math.Abs(info["episode_reward"]-total) > 1e-12 {
				t.Errorf("episode_reward should be %v, but got %v",
					total, info["episode_reward"])
			}
			if info["episode_success"] != 0 {
				t.Error("episode should not be successful")
			}
		}
	}
}

func TestDoneOnSuccess(t *testing.T) {
	cfg := removeConfig()
	cfg.MaxEpisodeSteps = 100
	// Distances: 0.07 after step 1, 0.02 after step 2.
	env, err := New(cfg, removeSim(0.12, 0.05))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Reset(); err != nil {
		t.Fatal(err)
	}

	_, _, done, _, err := env.Step(make([]float64, Dof))
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("done too early")
	}
	_, reward, done, info, err := env.Step(make([]float64, Dof))
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("episode should be done on success")
	}
	if !env.Success() {
		t.Error("success flag should be set")
	}
	if info["episode_success"] != 1 {
		t.Error("episode_success should be 1")
	}
	// Shaping delta 0.05 plus the success bonus.
	if math.Abs(reward-10.05) > 1e-9 {
		t.Errorf("reward should be 10.05, but got %v", reward)
	}
}

func TestSparseReward(t *testing.T) {
	cfg := removeConfig()
	cfg.SparseReward = true
	cfg.ControlPenaltyCoeff = 0.1
	env, err := New(cfg, removeSim(1, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Reset(); err != nil {
		t.Fatal(err)
	}

	action := make([]float64, Dof)
	for i := range action {
		action[i] = 0.5
	}
	_, reward, _, info, err := env.Step(action)
	if err != nil {
		t.Fatal(err)
	}

	control := -0.1 * (0.5 * 0.5 * Dof)
	if reward != info["control_rew"]+info["success_rew"] {
		t.Errorf("sparse reward should be %v, but got %v",
			info["control_rew"]+info["success_rew"], reward)
	}
	if math.Abs(reward-control) > 1e-9 {
		t.Errorf("reward should be %v, but got %v", control, reward)
	}
	// The shaping term is still reported for logging.
	if math.Abs(info["peg_to_start_rew"]-0.1) > 1e-9 {
		t.Errorf("peg_to_start_rew should be 0.1, but got %v",
			info["peg_to_start_rew"])
	}
}

func TestInsertDepthGate(t *testing.T) {
	// The peg descends straight above the hole; after the
	// first step leg_bottom sits at z=-0.44, after the
	// second at z=-0.46.
	start := map[string][]float64{
		BodyLegBottom: {insertGoalPose[0], insertGoalPose[1], -0.42},
		BodyLegTop:    {insertGoalPose[3], insertGoalPose[4], -0.12},
	}
	motion := map[string][]float64{
		BodyLegBottom: {0, 0, -0.02},
		BodyLegTop:    {0, 0, -0.02},
	}
	cfg := DefaultConfig()
	cfg.Task = TaskInsert
	cfg.GoalPosThreshold = 0.1
	cfg.ControlPenaltyCoeff = 0
	env, err := New(cfg, newScriptedSim(start, motion))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Reset(); err != nil {
		t.Fatal(err)
	}

	_, _, done, info, err := env.Step(make([]float64, Dof))
	if err != nil {
		t.Fatal(err)
	}
	if info["dist_to_goal"] >= cfg.GoalPosThreshold {
		t.Fatalf("test scene broken: dist %v should be below threshold",
			info["dist_to_goal"])
	}
	if done || env.Success() {
		t.Error("success above the depth threshold")
	}

	_, _, done, _, err = env.Step(make([]float64, Dof))
	if err != nil {
		t.Fatal(err)
	}
	if !done || !env.Success() {
		t.Error("no success below the depth threshold")
	}
}

func TestObservationShape(t *testing.T) {
	cfg := removeConfig()
	env, err := New(cfg, removeSim(1, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	ob, err := env.Reset()
	if err != nil {
		t.Fatal(err)
	}
	if len(ob.ObjectPose) != 7 {
		t.Errorf("object pose should have length 7, but got %d",
			len(ob.ObjectPose))
	}
	if ob.Robot != nil {
		t.Error("robot state should be absent")
	}
	if len(ob.Flatten()) != 7 {
		t.Errorf("flat observation should have length 7, but got %d",
			len(ob.Flatten()))
	}

	cfg = removeConfig()
	cfg.RobotOb = true
	env, err = New(cfg, removeSim(1, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	ob, err = env.Reset()
	if err != nil {
		t.Fatal(err)
	}
	if len(ob.Robot) != 14 {
		t.Errorf("robot state should have length 14, but got %d",
			len(ob.Robot))
	}
	if len(ob.Flatten()) != 21 {
		t.Errorf("flat observation should have length 21, but got %d",
			len(ob.Flatten()))
	}
}

func TestStepNamed(t *testing.T) {
	cfg := removeConfig()
	env, err := New(cfg, removeSim(0.3, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Reset(); err != nil {
		t.Fatal(err)
	}
	_, reward, _, _, err := env.StepNamed(map[string][]float64{
		"default": make([]float64, Dof),
	})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(reward-0.1) > 1e-9 {
		t.Errorf("reward should be 0.1, but got %v", reward)
	}

	_, _, _, _, err = env.StepNamed(map[string][]float64{})
	if err == nil {
		t.Error("missing sub-space should fail")
	}
}

func TestBadActionSize(t *testing.T) {
	cfg := removeConfig()
	env, err := New(cfg, removeSim(1, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Reset(); err != nil {
		t.Fatal(err)
	}
	if _, _, _, _, err := env.Step(make([]float64, Dof-1)); err == nil {
		t.Error("undersized action should fail")
	}
}

func TestResetShapingBaseline(t *testing.T) {
	// After a reset, the first shaping delta must be
	// measured against the freshly reset pose, not
	// against where the previous episode ended.
	cfg := removeConfig()
	cfg.MaxEpisodeSteps = 3
	env, err := New(cfg, removeSim(1, 0.1))
	if err != nil {
		t.Fatal(err)
	}

	for episode := 0; episode < 2; episode++ {
		if _, err := env.Reset(); err != nil {
			t.Fatal(err)
		}
		_, reward, _, _, err := env.Step(make([]float64, Dof))
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(reward-0.1) > 1e-9 {
			t.Errorf("episode %d: first reward should be 0.1, but got %v",
				episode, reward)
		}
	}
}

func TestRLWrapper(t *testing.T) {
	cfg := removeConfig()
	cfg.RobotOb = true
	env, err := New(cfg, removeSim(0.3, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	rl := RL(env)

	obs, err := rl.Reset()
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 21 {
		t.Errorf("flat observation should have length 21, but got %d",
			len(obs))
	}

	// Out-of-range components are clamped before being
	// applied.
	action := make([]float64, Dof)
	action[0] = 3
	action[1] = -7
	_, _, _, err = rl.Step(action)
	if err != nil {
		t.Fatal(err)
	}
	sim := env.sim.(*scriptedSim)
	if sim.lastCtrl[0] != 1 || sim.lastCtrl[1] != -1 {
		t.Errorf("control should be clamped to [-1, 1], but got %v",
			sim.lastCtrl[:2])
	}
}

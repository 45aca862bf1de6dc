// Package peginsertion implements a peg insertion and
// removal task environment for a simulated 7-DoF arm.
//
// The forward task pulls the peg out of the hole and the
// reset task puts it back in.
// Physics is delegated to an external Simulator; this
// package maps simulator state to observations, computes
// task rewards, and tracks episode bookkeeping.
package peginsertion

import (
	"errors"
	"math/rand"
	"time"

	"github.com/unixpickle/essentials"
)

// An Observation is the per-step view of the simulator
// state.
//
// Observations are recomputed fresh at every step and
// reset and are never mutated in place.
type Observation struct {
	// ObjectPose is the 7D pose of the peg: a 3D position
	// followed by a 4D orientation quaternion.
	ObjectPose []float64 `json:"object_ob"`

	// Robot is the 14D proprioceptive state of the arm,
	// its joint positions followed by its joint
	// velocities.
	// It is non-nil exactly when TaskConfig.RobotOb is
	// set.
	Robot []float64 `json:"robot_ob,omitempty"`
}

// Flatten concatenates the observation's fields into a
// single vector, object pose first.
func (o *Observation) Flatten() []float64 {
	return hstack(o.ObjectPose, o.Robot)
}

// An Env is a peg insertion or removal environment.
//
// An Env owns its Simulator exclusively and is not safe
// for concurrent use; concurrent rollouts need one Env
// and one Simulator each.
type Env struct {
	cfg  *TaskConfig
	sim  Simulator
	spec *ActionSpec
	rng  *rand.Rand

	// refPose is the goal pose for insertion and the
	// start pose for removal.
	refPose []float64

	demo DemoRecorder

	stepCount     int
	episodeReward float64
	success       bool
	prevDist      float64
}

// New creates an Env for the configured task on top of
// the given simulator.
//
// If cfg.RecordDemo is set, a SQLite demo recorder is
// created under cfg.DemoDir.
func New(cfg *TaskConfig, sim Simulator) (*Env, error) {
	var rec DemoRecorder
	if cfg.RecordDemo {
		var err error
		rec, err = NewSQLiteRecorder(cfg.DemoDir)
		if err != nil {
			return nil, essentials.AddCtx("create env", err)
		}
	}
	return NewWithRecorder(cfg, sim, rec)
}

// NewWithRecorder is like New, but uses the supplied demo
// recorder instead of creating one.
//
// The recorder may be nil, in which case nothing is
// recorded regardless of cfg.RecordDemo.
func NewWithRecorder(cfg *TaskConfig, sim Simulator, rec DemoRecorder) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, essentials.AddCtx("create env", err)
	}
	env := &Env{
		cfg:  cfg,
		sim:  sim,
		spec: armActionSpec(),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		demo: rec,
	}
	switch cfg.Task {
	case TaskInsert:
		env.refPose = insertGoalPose
	case TaskRemove:
		env.refPose = removeStartPose
	}
	if err := env.resetEpisodicVars(); err != nil {
		return nil, essentials.AddCtx("create env", err)
	}
	return env, nil
}

// Seed replaces the noise source, making subsequent
// action noise reproducible.
func (e *Env) Seed(seed int64) {
	e.rng = rand.New(rand.NewSource(seed))
}

// Config returns the environment's configuration.
func (e *Env) Config() *TaskConfig {
	return e.cfg
}

// ActionSpec returns the environment's action space.
func (e *Env) ActionSpec() *ActionSpec {
	return e.spec
}

// ObservationSizes reports the lengths of the observation
// entries: 7 for the peg pose and 14 for the robot state.
func (e *Env) ObservationSizes() map[string]int {
	return map[string]int{"object_ob": 7, "robot_ob": 14}
}

// GoalSpace reports the dimensionality of the configured
// goal space.
func (e *Env) GoalSpace() int {
	if e.cfg.GoalType == GoalStateObjRobot {
		// Peg pose plus robot joint positions and
		// velocities.
		return 21
	}
	return 7
}

// Success reports whether the task was solved at the most
// recent step.
func (e *Env) Success() bool {
	return e.success
}

// EpisodeReward returns the reward accumulated since the
// last reset.
func (e *Env) EpisodeReward() float64 {
	return e.episodeReward
}

// Reset starts a new episode.
//
// The arm is moved to the task's fixed starting pose with
// zero joint velocities, and the episode bookkeeping is
// reinitialized.
func (e *Env) Reset() (*Observation, error) {
	qpos := insertResetQPos
	if e.cfg.Task == TaskRemove {
		qpos = removeResetQPos
	}
	err := e.sim.SetState(append([]float64{}, qpos...), make([]float64, Dof))
	if err != nil {
		return nil, essentials.AddCtx("reset env", err)
	}
	ob, err := e.observe()
	if err != nil {
		return nil, essentials.AddCtx("reset env", err)
	}
	if err := e.resetEpisodicVars(); err != nil {
		return nil, essentials.AddCtx("reset env", err)
	}
	if e.demo != nil {
		e.demo.Reset()
		e.demo.AddInitial(ob)
	}
	return ob, nil
}

// Step applies one action to the environment.
//
// It returns the next observation, the step reward,
// whether the episode is over, and a set of diagnostic
// scalars.
// On termination, the diagnostics additionally carry
// "episode_reward" and "episode_success".
//
// The action must cover every degree of freedom; a wrong
// size is surfaced by the simulator.
// Behavior after the episode has terminated is undefined
// until the next Reset.
func (e *Env) Step(action []float64) (*Observation, float64, bool, Info, error) {
	ctrl := action
	if e.cfg.ActionNoise > 0 {
		ctrl = e.noised(action)
	}
	if err := e.sim.StepSimulation(ctrl, e.cfg.frameSkip()); err != nil {
		return nil, 0, false, nil, essentials.AddCtx("step env", err)
	}
	ob, err := e.observe()
	if err != nil {
		return nil, 0, false, nil, essentials.AddCtx("step env", err)
	}
	e.stepCount++

	var reward float64
	var info Info
	switch e.cfg.Task {
	case TaskInsert:
		reward, info, err = e.insertReward(ctrl)
	case TaskRemove:
		reward, info, err = e.removeReward(ctrl)
	}
	if err != nil {
		return nil, 0, false, nil, essentials.AddCtx("step env", err)
	}
	e.episodeReward += reward

	done := false
	if e.success || e.stepCount == e.cfg.MaxEpisodeSteps {
		done = true
		info["episode_reward"] = e.episodeReward
		if e.success {
			info["episode_success"] = 1
		} else {
			info["episode_success"] = 0
		}
	}
	info["reward"] = reward

	if e.demo != nil {
		e.demo.Add(ob, ctrl, reward)
	}
	return ob, reward, done, info, nil
}

// StepNamed is like Step, but takes an action as a
// mapping from sub-space names to vectors.
// The mapping is flattened in the action space's
// canonical key order.
func (e *Env) StepNamed(action map[string][]float64) (*Observation, float64, bool, Info, error) {
	flat, err := e.spec.Flatten(action)
	if err != nil {
		return nil, 0, false, nil, essentials.AddCtx("step env", err)
	}
	return e.Step(flat)
}

// Render is a pass-through to the simulator's rendering
// subsystem.
func (e *Env) Render(mode string, camera int) ([]byte, error) {
	return e.sim.Render(mode, camera)
}

// SaveDemo persists the recorded episode under the task's
// environment name.
func (e *Env) SaveDemo() error {
	if e.demo == nil {
		return errors.New("save demo: recording not enabled")
	}
	return e.demo.Save(e.cfg.Task.EnvName())
}

// Close releases the underlying simulator.
func (e *Env) Close() error {
	return e.sim.Close()
}

// resetEpisodicVars reinitializes the per-episode
// bookkeeping from the current simulator state.
//
// prevDist must end up holding the distance from the
// reference pose so that the first step's shaping term is
// a true delta.
func (e *Env) resetEpisodicVars() error {
	e.stepCount = 0
	e.episodeReward = 0
	e.success = false
	peg, err := e.pegPose()
	if err != nil {
		return err
	}
	e.prevDist = poseDistance(e.refPose, peg)
	return nil
}

// noised perturbs each action component by an independent
// uniform sample in [-ActionNoise, +ActionNoise].
func (e *Env) noised(action []float64) []float64 {
	r := e.cfg.ActionNoise
	res := make([]float64, len(action))
	for i, x := range action {
		res[i] = x + e.rng.Float64()*2*r - r
	}
	return res
}

// observe reads a fresh observation from the simulator.
func (e *Env) observe() (*Observation, error) {
	pos, err := e.sim.BodyPos(BodyBall)
	if err != nil {
		return nil, err
	}
	quat, err := e.sim.BodyQuat(BodyBall)
	if err != nil {
		return nil, err
	}
	ob := &Observation{ObjectPose: hstack(pos, quat)}
	if e.cfg.RobotOb {
		ob.Robot = hstack(e.sim.QPos(), e.sim.QVel())
	}
	return ob, nil
}

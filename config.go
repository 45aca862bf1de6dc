package peginsertion

import (
	"errors"
	"flag"
	"fmt"
)

// A Task selects which peg manipulation problem the
// environment poses.
//
// The forward task is pulling the peg out of the hole;
// the reset task is putting the peg back into it.
type Task int

const (
	// TaskUnset is the zero Task.
	// It is rejected by TaskConfig.Validate.
	TaskUnset Task = iota

	// TaskInsert is the task of putting the peg into
	// the hole.
	TaskInsert

	// TaskRemove is the task of pulling the peg out of
	// the hole.
	TaskRemove
)

// String returns the string representation of the task.
func (t Task) String() string {
	switch t {
	case TaskInsert:
		return "insert"
	case TaskRemove:
		return "remove"
	default:
		return ""
	}
}

// EnvName returns the environment name used when saving
// demos, e.g. "PegInsert".
func (t Task) EnvName() string {
	switch t {
	case TaskInsert:
		return "PegInsert"
	case TaskRemove:
		return "PegRemove"
	default:
		return ""
	}
}

// A GoalType selects the layout of the goal space.
type GoalType int

const (
	// GoalStateObj is a goal over the peg pose alone.
	GoalStateObj GoalType = iota

	// GoalStateObjRobot is a goal over the peg pose and
	// the robot's joint positions and velocities.
	GoalStateObjRobot
)

// A TaskConfig controls the behavior of an Env.
//
// A TaskConfig is read-only for the lifetime of the Env
// it configures.
type TaskConfig struct {
	// Task selects insertion or removal.
	Task Task

	// SparseReward omits the shaping term from the
	// returned reward scalar.
	// Diagnostic info still reports the shaping value.
	SparseReward bool

	// MaxEpisodeSteps bounds the episode length.
	MaxEpisodeSteps int

	// RobotOb includes the robot's joint positions and
	// velocities in observations.
	RobotOb bool

	// GoalPosThreshold is the distance from the reference
	// pose below which the task counts as solved.
	GoalPosThreshold float64

	// RecordDemo enables demo recording.
	RecordDemo bool

	// GoalType selects the goal space layout.
	GoalType GoalType

	// ActionNoise is the magnitude of the uniform noise
	// added to each action component before it is applied.
	// Zero disables noise.
	ActionNoise float64

	// PegToPointCoeff scales the distance-delta shaping
	// term.
	PegToPointCoeff float64

	// SuccessReward is the bonus paid while the task is
	// solved.
	SuccessReward float64

	// ControlPenaltyCoeff scales the squared-action
	// control penalty.
	ControlPenaltyCoeff float64

	// DemoDir is the directory where recorded demos are
	// stored.
	DemoDir string

	// ModelPath is the scene description consumed by the
	// simulator.
	ModelPath string

	// FrameSkip is the number of simulator frames run per
	// environment step.
	// If 0, DefaultFrameSkip is used.
	FrameSkip int
}

// DefaultConfig returns a TaskConfig with the standard
// reward coefficients and episode limits.
//
// The task is left unset and must be filled in by the
// caller.
func DefaultConfig() *TaskConfig {
	return &TaskConfig{
		MaxEpisodeSteps:     200,
		GoalPosThreshold:    0.05,
		PegToPointCoeff:     1,
		SuccessReward:       10,
		ControlPenaltyCoeff: 1e-4,
		DemoDir:             "demos",
		ModelPath:           "models/assets/peg_insertion.xml",
		FrameSkip:           DefaultFrameSkip,
	}
}

// Validate checks that the configuration describes a
// runnable task.
func (t *TaskConfig) Validate() error {
	switch t.Task {
	case TaskInsert, TaskRemove:
	default:
		return fmt.Errorf("unknown task: %d", t.Task)
	}
	switch t.GoalType {
	case GoalStateObj, GoalStateObjRobot:
	default:
		return fmt.Errorf("unknown goal type: %d", t.GoalType)
	}
	if t.MaxEpisodeSteps <= 0 {
		return errors.New("max episode steps must be positive")
	}
	if t.GoalPosThreshold <= 0 {
		return errors.New("goal position threshold must be positive")
	}
	if t.ActionNoise < 0 {
		return errors.New("action noise must be non-negative")
	}
	if t.FrameSkip < 0 {
		return errors.New("frame skip must be non-negative")
	}
	return nil
}

// frameSkip returns the effective frame skip.
func (t *TaskConfig) frameSkip() int {
	if t.FrameSkip == 0 {
		return DefaultFrameSkip
	}
	return t.FrameSkip
}

// TaskFlag is a flag.Value for a Task.
type TaskFlag struct {
	Task Task
}

// String returns the string representation of the task.
func (t *TaskFlag) String() string {
	return t.Task.String()
}

// Set sets the task from a string representation.
func (t *TaskFlag) Set(s string) error {
	switch s {
	case "insert":
		t.Task = TaskInsert
	case "remove":
		t.Task = TaskRemove
	default:
		return errors.New("unknown task: " + s)
	}
	return nil
}

// AddFlag adds the flag to the flag package's global set
// of flags.
func (t *TaskFlag) AddFlag() {
	flag.Var(t, "task", "peg task (insert or remove)")
}

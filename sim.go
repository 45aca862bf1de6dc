package peginsertion

import "io"

// DefaultFrameSkip is the number of simulator frames run
// per environment step when none is configured.
const DefaultFrameSkip = 5

// Names of the bodies in the peg insertion scene
// description.
const (
	BodyBall      = "ball"
	BodyLegBottom = "leg_bottom"
	BodyLegTop    = "leg_top"
)

// Render modes accepted by Simulator.Render.
const (
	RenderHuman      = "human"
	RenderRGBArray   = "rgb_array"
	RenderDepthArray = "depth_array"
)

// A Simulator is a handle to an externally implemented
// physics simulation of a kinematic scene.
//
// The environment depends on the simulator's coordinate
// frame and on the body names declared in the scene
// description.
//
// A Simulator is mutated in place by every step and reset
// and must not be shared between environments.
type Simulator interface {
	io.Closer

	// StepSimulation applies the control vector and
	// integrates the simulation for the given number of
	// internal frames.
	StepSimulation(ctrl []float64, frames int) error

	// BodyPos returns the 3D position of a named body.
	BodyPos(name string) ([]float64, error)

	// BodyQuat returns the orientation quaternion of a
	// named body.
	BodyQuat(name string) ([]float64, error)

	// QPos returns the joint positions.
	QPos() []float64

	// QVel returns the joint velocities.
	QVel() []float64

	// SetState overwrites the joint positions and
	// velocities.
	SetState(qpos, qvel []float64) error

	// Render renders the scene in the given mode from the
	// given camera.
	// The returned bytes are mode-specific and may be nil
	// for on-screen modes.
	Render(mode string, camera int) ([]byte, error)
}

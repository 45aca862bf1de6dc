package peginsertion

import "gonum.org/v1/gonum/floats"

// Fixed reference poses in the simulator's coordinate
// frame.
// A peg pose is the stacked positions of the leg_bottom
// and leg_top bodies.
var (
	// removeStartPose is where the peg rests once it has
	// been pulled out of the hole.
	removeStartPose = []float64{
		0.10600084, 0.15715909, 0.1496843,
		0.24442536, -0.09417238, 0.23726938,
	}

	// insertGoalPose is where the peg rests once it has
	// been pushed into the hole.
	insertGoalPose = []float64{0.0, 0.3, -0.5, 0.0, 0.3, -0.2}
)

// Joint positions the arm is reset to at the start of an
// episode.
var (
	// insertResetQPos holds the peg above the hole.
	insertResetQPos = []float64{
		0.44542705, 0.64189252, -0.39544481, -2.32144865,
		-0.17935136, -0.60320289, 1.57110214,
	}

	// removeResetQPos holds the peg in the hole.
	removeResetQPos = []float64{
		0.52601062, 0.57254126, -2.0747581, -1.55342248,
		0.15375072, -0.5747922, 0.70163815,
	}
)

// insertDepthThreshold is the vertical coordinate the
// leg_bottom body must fall below for an insertion to
// count as successful.
const insertDepthThreshold = -0.45

// hstack concatenates vectors into a new slice.
func hstack(vecs ...[]float64) []float64 {
	var res []float64
	for _, v := range vecs {
		res = append(res, v...)
	}
	return res
}

// poseDistance returns the Euclidean distance between two
// poses of equal length.
func poseDistance(a, b []float64) float64 {
	diff := make([]float64, len(a))
	floats.SubTo(diff, a, b)
	return floats.Norm(diff, 2)
}

// pegPose reads the current peg pose from the simulator.
func (e *Env) pegPose() ([]float64, error) {
	bottom, err := e.sim.BodyPos(BodyLegBottom)
	if err != nil {
		return nil, err
	}
	top, err := e.sim.BodyPos(BodyLegTop)
	if err != nil {
		return nil, err
	}
	return hstack(bottom, top), nil
}

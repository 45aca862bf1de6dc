package peginsertion

import "gonum.org/v1/gonum/floats"

// Info carries named scalar diagnostics produced
// alongside a reward.
// It is for logging only and carries no state.
type Info map[string]float64

// removeReward computes the peg removal reward.
//
// The reward is assumed to be computed on-policy: the
// distance tracked across steps was produced by this same
// step sequence.
func (e *Env) removeReward(action []float64) (float64, Info, error) {
	peg, err := e.pegPose()
	if err != nil {
		return 0, nil, err
	}
	distToStart := poseDistance(e.refPose, peg)
	// The current distance should be smaller than the
	// previous step's distance.
	distDiff := e.prevDist - distToStart
	e.prevDist = distToStart
	pegToStartReward := distDiff * e.cfg.PegToPointCoeff

	controlReward := -e.cfg.ControlPenaltyCoeff * floats.Dot(action, action)

	e.success = distToStart < e.cfg.GoalPosThreshold
	var successReward float64
	if e.success {
		successReward = e.cfg.SuccessReward
	}

	reward := pegToStartReward + controlReward + successReward
	if e.cfg.SparseReward {
		reward = controlReward + successReward
	}

	info := Info{
		"dist_to_start":    distToStart,
		"control_rew":      controlReward,
		"peg_to_start_rew": pegToStartReward,
		"success_rew":      successReward,
	}
	return reward, info, nil
}

// insertReward computes the insertion reward.
//
// Success requires both proximity to the goal pose and
// the peg's lower body sitting below the hole's depth
// threshold.
func (e *Env) insertReward(action []float64) (float64, Info, error) {
	peg, err := e.pegPose()
	if err != nil {
		return 0, nil, err
	}
	distToGoal := poseDistance(e.refPose, peg)
	distDiff := e.prevDist - distToGoal
	e.prevDist = distToGoal
	pegToGoalReward := distDiff * e.cfg.PegToPointCoeff

	controlReward := -e.cfg.ControlPenaltyCoeff * floats.Dot(action, action)

	bottom, err := e.sim.BodyPos(BodyLegBottom)
	if err != nil {
		return 0, nil, err
	}
	e.success = distToGoal < e.cfg.GoalPosThreshold &&
		bottom[2] < insertDepthThreshold
	var successReward float64
	if e.success {
		successReward = e.cfg.SuccessReward
	}

	reward := pegToGoalReward + controlReward + successReward
	if e.cfg.SparseReward {
		reward = controlReward + successReward
	}

	info := Info{
		"dist_to_goal":    distToGoal,
		"control_rew":     controlReward,
		"peg_to_goal_rew": pegToGoalReward,
		"success_rew":     successReward,
	}
	return reward, info, nil
}

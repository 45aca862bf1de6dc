package peginsertion

import "fmt"

// Dof is the number of independent joint controls on the
// simulated arm.
const Dof = 7

// A Subspace is a named block of action dimensions.
type Subspace struct {
	Name string
	Size int
}

// An ActionSpec describes an action space as an ordered
// list of named sub-spaces.
//
// Actions may be supplied either as a flat vector
// covering every sub-space, or as a mapping from
// sub-space names to vectors.
// Mappings are flattened in the canonical order given by
// Keys before use.
type ActionSpec struct {
	subs []Subspace
}

// NewActionSpec creates an ActionSpec with the given
// sub-spaces in canonical order.
func NewActionSpec(subs ...Subspace) *ActionSpec {
	return &ActionSpec{subs: append([]Subspace{}, subs...)}
}

// armActionSpec returns the action spec of the 7-DoF arm.
func armActionSpec() *ActionSpec {
	return NewActionSpec(Subspace{Name: "default", Size: Dof})
}

// NumDims returns the total number of action dimensions.
func (a *ActionSpec) NumDims() int {
	var res int
	for _, s := range a.subs {
		res += s.Size
	}
	return res
}

// Keys returns the sub-space names in canonical order.
func (a *ActionSpec) Keys() []string {
	res := make([]string, len(a.subs))
	for i, s := range a.subs {
		res[i] = s.Name
	}
	return res
}

// Flatten concatenates a named action in canonical key
// order.
func (a *ActionSpec) Flatten(action map[string][]float64) ([]float64, error) {
	res := make([]float64, 0, a.NumDims())
	for _, s := range a.subs {
		vec, ok := action[s.Name]
		if !ok {
			return nil, fmt.Errorf("flatten action: missing sub-space %q", s.Name)
		}
		res = append(res, vec...)
	}
	return res, nil
}

// Zeros returns a zero action covering every sub-space.
func (a *ActionSpec) Zeros() []float64 {
	return make([]float64, a.NumDims())
}

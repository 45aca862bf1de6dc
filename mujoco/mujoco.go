// Package mujoco implements the peginsertion.Simulator
// interface on top of the MuJoCo physics simulator.
//
// The include and library paths for MuJoCo are expected
// in CGO_CFLAGS and CGO_LDFLAGS.
// The binding is headless: rendering is not supported.
package mujoco

// #cgo CFLAGS: -O2
// #cgo LDFLAGS: -lmujoco
//
// #include "mujoco/mujoco.h"
// #include <stdlib.h>
//
// // copyDoubles copies n doubles from src into dst.
// static void copyDoubles(double* dst, const double* src, int n)
// {
// 	for (int i = 0; i < n; i++)
// 	{
// 		dst[i] = src[i];
// 	}
// }
import "C"

import (
	"errors"
	"fmt"
	"os"
	"unsafe"
)

// ErrRenderUnsupported is returned by Render: the binding
// is built without a rendering context.
var ErrRenderUnsupported = errors.New("mujoco: rendering not supported")

// A Sim is a handle to one MuJoCo model instance.
//
// A Sim is mutated in place by every call and must not be
// shared between environments.
type Sim struct {
	model *C.mjModel
	data  *C.mjData

	nq int // position dimensions
	nv int // velocity dimensions
	nu int // control dimensions
}

// New loads the scene description at modelPath and
// allocates simulation state for it.
func New(modelPath string) (*Sim, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	cPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cPath))

	var errBuf [1000]C.char
	model := C.mj_loadXML(cPath, nil, &errBuf[0], C.int(len(errBuf)))
	if model == nil {
		return nil, fmt.Errorf("load model: %s", C.GoString(&errBuf[0]))
	}
	data := C.mj_makeData(model)
	if data == nil {
		C.mj_deleteModel(model)
		return nil, errors.New("load model: could not allocate mjData")
	}

	return &Sim{
		model: model,
		data:  data,
		nq:    int(model.nq),
		nv:    int(model.nv),
		nu:    int(model.nu),
	}, nil
}

// StepSimulation applies the control vector and advances
// the simulation by the given number of frames.
func (s *Sim) StepSimulation(ctrl []float64, frames int) error {
	if len(ctrl) != s.nu {
		return fmt.Errorf("step simulation: control size %d, want %d",
			len(ctrl), s.nu)
	}
	C.copyDoubles((*C.double)(unsafe.Pointer(s.data.ctrl)),
		(*C.double)(unsafe.Pointer(&ctrl[0])), C.int(len(ctrl)))
	for i := 0; i < frames; i++ {
		C.mj_step(s.model, s.data)
	}
	return nil
}

// BodyPos returns the global position of a named body.
func (s *Sim) BodyPos(name string) ([]float64, error) {
	id, err := s.bodyID(name)
	if err != nil {
		return nil, err
	}
	return s.readDoubles(s.data.xpos, id*3, 3), nil
}

// BodyQuat returns the global orientation quaternion of a
// named body.
func (s *Sim) BodyQuat(name string) ([]float64, error) {
	id, err := s.bodyID(name)
	if err != nil {
		return nil, err
	}
	return s.readDoubles(s.data.xquat, id*4, 4), nil
}

// QPos returns a copy of the joint positions.
func (s *Sim) QPos() []float64 {
	return s.readDoubles(s.data.qpos, 0, s.nq)
}

// QVel returns a copy of the joint velocities.
func (s *Sim) QVel() []float64 {
	return s.readDoubles(s.data.qvel, 0, s.nv)
}

// SetState overwrites the joint positions and velocities
// and recomputes the forward kinematics.
func (s *Sim) SetState(qpos, qvel []float64) error {
	if len(qpos) != s.nq {
		return fmt.Errorf("set state: qpos size %d, want %d", len(qpos), s.nq)
	}
	if len(qvel) != s.nv {
		return fmt.Errorf("set state: qvel size %d, want %d", len(qvel), s.nv)
	}
	C.copyDoubles((*C.double)(unsafe.Pointer(s.data.qpos)),
		(*C.double)(unsafe.Pointer(&qpos[0])), C.int(len(qpos)))
	C.copyDoubles((*C.double)(unsafe.Pointer(s.data.qvel)),
		(*C.double)(unsafe.Pointer(&qvel[0])), C.int(len(qvel)))
	C.mj_forward(s.model, s.data)
	return nil
}

// Dt returns the simulated time covered by one
// environment step at the given frame skip.
func (s *Sim) Dt(frameSkip int) float64 {
	return float64(s.model.opt.timestep) * float64(frameSkip)
}

// Render always fails with ErrRenderUnsupported.
func (s *Sim) Render(mode string, camera int) ([]byte, error) {
	return nil, ErrRenderUnsupported
}

// Close frees the model and its simulation state.
func (s *Sim) Close() error {
	C.mj_deleteData(s.data)
	C.mj_deleteModel(s.model)
	return nil
}

// bodyID resolves a body name to its model index.
func (s *Sim) bodyID(name string) (int, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	id := int(C.mj_name2id(s.model, C.int(C.mjOBJ_BODY), cName))
	if id < 0 {
		return -1, fmt.Errorf("no body named %q", name)
	}
	return id, nil
}

// readDoubles copies n doubles starting at off out of a
// C array.
func (s *Sim) readDoubles(ptr *C.mjtNum, off, n int) []float64 {
	src := (*[1 << 28]C.mjtNum)(unsafe.Pointer(ptr))[off : off+n : off+n]
	res := make([]float64, n)
	for i, x := range src {
		res[i] = float64(x)
	}
	return res
}

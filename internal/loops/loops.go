// Package loops provides ready-made closed-loop diagrams for the CLI
// and tests.
package loops

import (
	"fmt"
	"sort"

	"github.com/avench/looplab/internal/blocks"
	"github.com/avench/looplab/internal/config"
	"github.com/avench/looplab/internal/model"
)

// Loop is a built diagram plus the analysis points it carries.
type Loop struct {
	System *model.System
	Points []string
}

type BuilderFunc func(cfg *config.Config) (*Loop, error)

type Registry struct {
	builders map[string]BuilderFunc
}

func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]BuilderFunc)}

	r.builders["first_order_p"] = firstOrderP
	r.builders["first_order_pid"] = firstOrderPID
	r.builders["integrator_p"] = integratorP
	r.builders["double_loop"] = doubleLoop

	return r
}

func (r *Registry) Get(name string, cfg *config.Config) (*Loop, error) {
	fn, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown loop: %s", name)
	}
	return fn(cfg)
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for n := range r.builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// firstOrderP is a first-order plant under proportional negative
// feedback. The feedback sign lives in the controller gain, so the
// loop transfer at either point is -gain*P(s).
func firstOrderP(cfg *config.Config) (*Loop, error) {
	plant := blocks.FirstOrder("plant", cfg.Plant.Gain, cfg.Plant.TimeConstant)
	ctrl := blocks.Gain("ctrl", -cfg.Controller.Gain)

	sys := model.NewSystem("loop", plant.System, ctrl.System)
	sys.ConnectAt(ctrl.Output, "plant_input", plant.Input)
	sys.ConnectAt(plant.Output, "plant_output", ctrl.Input)

	return &Loop{System: sys, Points: []string{"plant_input", "plant_output"}}, nil
}

// firstOrderPID closes the loop through an error junction and a PID
// controller tracking a zero reference.
func firstOrderPID(cfg *config.Config) (*Loop, error) {
	ref := blocks.Constant("ref", 0)
	errJ := blocks.Sum("err", 1, -1)
	pid, err := blocks.PID("pid", cfg.Controller.Kp, cfg.Controller.Ki, cfg.Controller.Kd, cfg.Controller.Tf)
	if err != nil {
		return nil, err
	}
	plant := blocks.FirstOrder("plant", cfg.Plant.Gain, cfg.Plant.TimeConstant)

	sys := model.NewSystem("loop", ref.System, errJ.System, pid.System, plant.System)
	sys.Connect(ref.Output, errJ.Input1)
	sys.ConnectAt(plant.Output, "plant_output", errJ.Input2)
	sys.Connect(errJ.Output, pid.Input)
	sys.ConnectAt(pid.Output, "plant_input", plant.Input)

	return &Loop{System: sys, Points: []string{"plant_input", "plant_output"}}, nil
}

// integratorP is the classic -g/s loop.
func integratorP(cfg *config.Config) (*Loop, error) {
	plant := blocks.Integrator("plant", cfg.Plant.Gain)
	ctrl := blocks.Gain("ctrl", -cfg.Controller.Gain)

	sys := model.NewSystem("loop", plant.System, ctrl.System)
	sys.ConnectAt(ctrl.Output, "plant_input", plant.Input)
	sys.ConnectAt(plant.Output, "plant_output", ctrl.Input)

	return &Loop{System: sys, Points: []string{"plant_input", "plant_output"}}, nil
}

// doubleLoop instantiates two structurally identical inner loops, each
// with a local point named "ap", to exercise namespace qualification.
func doubleLoop(cfg *config.Config) (*Loop, error) {
	inner := func(name string) *model.System {
		plant := blocks.FirstOrder("plant", cfg.Plant.Gain, cfg.Plant.TimeConstant)
		ctrl := blocks.Gain("ctrl", -cfg.Controller.Gain)
		s := model.NewSystem(name, plant.System, ctrl.System)
		s.ConnectAt(ctrl.Output, "ap", plant.Input)
		s.Connect(plant.Output, ctrl.Input)
		return s
	}

	sys := model.NewSystem("loop", inner("inner1"), inner("inner2"))
	return &Loop{System: sys, Points: []string{"inner1.ap", "inner2.ap"}}, nil
}

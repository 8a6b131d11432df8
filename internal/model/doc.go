// Package model provides the symbolic equation container for linear
// signal-flow systems.
//
// A [System] is a hierarchical bundle of unknowns, default values and
// equations; equations are linear in the unknowns and their first
// derivatives ([Expr], [Term]). Blocks expose [Connector] ports whose
// scalar signal variable is "<connector>.u". Connections between ports
// are plain equality ties, or carry an [AnalysisPoint] marker recorded
// as a dedicated [Equation] variant and resolved later by the analysis
// expansion pass.
//
// # Example
//
//	loop := model.NewSystem("loop", plant.System, ctrl.System)
//	loop.Connect(plant.Output, ctrl.Input)
//	loop.ConnectAt(ctrl.Output, "plant_input", plant.Input)
//
// Systems are not safe for concurrent mutation.
package model

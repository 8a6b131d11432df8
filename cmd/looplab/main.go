package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/avench/looplab/internal/analysis"
	"github.com/avench/looplab/internal/config"
	"github.com/avench/looplab/internal/integrators"
	"github.com/avench/looplab/internal/linearize"
	"github.com/avench/looplab/internal/loops"
	"github.com/avench/looplab/internal/model"
	"github.com/avench/looplab/internal/sim"
	"github.com/avench/looplab/internal/statespace"
	"github.com/avench/looplab/internal/storage"
	"github.com/avench/looplab/internal/tui"
	"github.com/avench/looplab/internal/viz"
)

var (
	dataDir    string
	configFile string
	verbose    bool
	saveRun    bool
	showPlot   bool

	plantGain  float64
	plantTC    float64
	plantOmega float64
	plantZeta  float64
	ctrlGain   float64
	kp         float64
	ki         float64
	kd         float64
	tf         float64

	freqMin    float64
	freqMax    float64
	freqPoints int

	dt       float64
	duration float64
	stateVar string
	x0Var    string
	x0Val    float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "looplab",
		Short: "control loop analysis lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				model.Warnf = log.Printf
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".looplab", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log construction warnings")

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity [loop] [point]",
		Short: "sensitivity function at an analysis point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, "sensitivity", args[0], args[1])
		},
	}

	compSensitivityCmd := &cobra.Command{
		Use:   "compsensitivity [loop] [point]",
		Short: "complementary sensitivity function at an analysis point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, "compsensitivity", args[0], args[1])
		},
	}

	loopTransferCmd := &cobra.Command{
		Use:   "looptransfer [loop] [point]",
		Short: "loop transfer with the loop broken at an analysis point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, "looptransfer", args[0], args[1])
		},
	}

	openLoopCmd := &cobra.Command{
		Use:   "openloop [loop] [point]",
		Short: "materialize the broken-loop system",
		Args:  cobra.ExactArgs(2),
		RunE:  runOpenLoop,
	}

	linearizeCmd := &cobra.Command{
		Use:   "linearize [loop] [input_point] [output_point]",
		Short: "transfer between two analysis points",
		Args:  cobra.ExactArgs(3),
		RunE:  runLinearize,
	}

	bodeCmd := &cobra.Command{
		Use:   "bode [loop] [point]",
		Short: "bode plot of the loop transfer at an analysis point",
		Args:  cobra.ExactArgs(2),
		RunE:  runBode,
	}

	stepCmd := &cobra.Command{
		Use:   "step [loop]",
		Short: "simulate the closed loop from a perturbed initial state",
		Args:  cobra.ExactArgs(1),
		RunE:  runStep,
	}

	liveCmd := &cobra.Command{
		Use:   "live [loop]",
		Short: "live view of the closed-loop response",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available loops",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := loops.NewRegistry()
			cfg := config.DefaultConfig()
			for _, name := range registry.List() {
				loop, err := registry.Get(name, cfg)
				if err != nil {
					return err
				}
				fmt.Printf("%-18s points: %s\n", name, strings.Join(loop.Points, ", "))
			}
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [id] [path]",
		Short: "export a saved run as a single JSON document",
		Long:  "Export a saved run, metadata and frequency response together, to the given path or to stdout.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			return storage.New(dataDir).Export(args[0], path)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			runs, err := st.List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLOOP\tANALYSIS\tPOINT\tSTATES")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", r.ID, r.Loop, r.Analysis, r.Point, len(r.States))
			}
			return w.Flush()
		},
	}

	for _, cmd := range []*cobra.Command{sensitivityCmd, compSensitivityCmd, loopTransferCmd, openLoopCmd, linearizeCmd, bodeCmd, stepCmd, liveCmd} {
		addLoopFlags(cmd)
	}
	for _, cmd := range []*cobra.Command{sensitivityCmd, compSensitivityCmd, loopTransferCmd, linearizeCmd} {
		cmd.Flags().BoolVar(&saveRun, "save", false, "persist the result under the data directory")
		cmd.Flags().BoolVar(&showPlot, "plot", false, "plot the frequency response")
	}
	addFreqFlags(bodeCmd)
	for _, cmd := range []*cobra.Command{stepCmd, liveCmd} {
		cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
		cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
		cmd.Flags().StringVar(&stateVar, "var", "plant.x", "state variable to plot")
		cmd.Flags().StringVar(&x0Var, "x0-var", "plant.x", "state variable to perturb")
		cmd.Flags().Float64Var(&x0Val, "x0", 1.0, "initial value of the perturbed state")
	}

	rootCmd.AddCommand(sensitivityCmd, compSensitivityCmd, loopTransferCmd, openLoopCmd,
		linearizeCmd, bodeCmd, stepCmd, liveCmd, presetsCmd, listCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addLoopFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&plantGain, "plant-gain", config.DefaultPlantGain, "plant gain")
	cmd.Flags().Float64Var(&plantTC, "plant-tc", config.DefaultTimeConstant, "plant time constant")
	cmd.Flags().Float64Var(&plantOmega, "plant-omega", 1.0, "plant natural frequency")
	cmd.Flags().Float64Var(&plantZeta, "plant-zeta", 0.7, "plant damping ratio")
	cmd.Flags().Float64Var(&ctrlGain, "gain", config.DefaultCtrlGain, "proportional controller gain")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "pid kd")
	cmd.Flags().Float64Var(&tf, "tf", config.DefaultTf, "pid derivative filter time constant")
}

func addFreqFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&freqMin, "wmin", 0.01, "lowest frequency [rad/s]")
	cmd.Flags().Float64Var(&freqMax, "wmax", 100.0, "highest frequency [rad/s]")
	cmd.Flags().IntVar(&freqPoints, "points", 200, "number of frequency samples")
}

// loadConfig merges defaults, the optional config file, and explicit
// flags, with flags taking precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	flagOverrides := map[string]*float64{
		"plant-gain":  &cfg.Plant.Gain,
		"plant-tc":    &cfg.Plant.TimeConstant,
		"plant-omega": &cfg.Plant.Omega,
		"plant-zeta":  &cfg.Plant.Zeta,
		"gain":        &cfg.Controller.Gain,
		"kp":          &cfg.Controller.Kp,
		"ki":          &cfg.Controller.Ki,
		"kd":          &cfg.Controller.Kd,
		"tf":          &cfg.Controller.Tf,
		"wmin":        &cfg.Freq.Min,
		"wmax":        &cfg.Freq.Max,
		"dt":          &cfg.Sim.Dt,
		"time":        &cfg.Sim.Duration,
	}
	for name, dst := range flagOverrides {
		if f := cmd.Flags().Lookup(name); f != nil && cmd.Flags().Changed(name) {
			v, err := cmd.Flags().GetFloat64(name)
			if err != nil {
				return nil, err
			}
			*dst = v
		}
	}
	if cmd.Flags().Lookup("points") != nil && cmd.Flags().Changed("points") {
		v, err := cmd.Flags().GetInt("points")
		if err != nil {
			return nil, err
		}
		cfg.Freq.Points = v
	}
	if cfg.Freq.Min <= 0 || cfg.Freq.Max <= cfg.Freq.Min {
		return nil, fmt.Errorf("invalid frequency range: %g .. %g rad/s", cfg.Freq.Min, cfg.Freq.Max)
	}
	return cfg, nil
}

func buildLoop(cmd *cobra.Command, name string) (*loops.Loop, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	loop, err := loops.NewRegistry().Get(name, cfg)
	if err != nil {
		return nil, nil, err
	}
	return loop, cfg, nil
}

func runAnalysis(cmd *cobra.Command, kind, loopName, point string) error {
	loop, cfg, err := buildLoop(cmd, loopName)
	if err != nil {
		return err
	}

	var ss *statespace.StateSpace
	switch kind {
	case "sensitivity":
		ss, _, err = analysis.GetSensitivity(loop.System, point)
	case "compsensitivity":
		ss, _, err = analysis.GetCompSensitivity(loop.System, point)
	case "looptransfer":
		ss, _, err = analysis.GetLoopTransfer(loop.System, point)
	default:
		return fmt.Errorf("unknown analysis: %s", kind)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s of %s at %q\n\n", kind, loopName, point)
	printStateSpace(ss)

	if kind == "looptransfer" {
		// Margins use the classical negative-feedback convention,
		// hence the negation of the loop as written.
		pts, err := ss.Negate().Bode(statespace.LogSpace(cfg.Freq.Min, cfg.Freq.Max, cfg.Freq.Points))
		if err != nil {
			return err
		}
		m := statespace.ComputeMargins(pts)
		fmt.Printf("\ngain margin: %.2f dB (at %.3g rad/s)\n", m.GainMarginDB, m.PhaseCrossover)
		fmt.Printf("phase margin: %.2f deg (at %.3g rad/s)\n", m.PhaseMarginDeg, m.GainCrossover)
	}

	return finishAnalysis(cfg, loopName, kind, point, ss)
}

func finishAnalysis(cfg *config.Config, loopName, kind, point string, ss *statespace.StateSpace) error {
	var pts []statespace.Point
	if showPlot || saveRun {
		var err error
		pts, err = ss.Bode(statespace.LogSpace(cfg.Freq.Min, cfg.Freq.Max, cfg.Freq.Points))
		if err != nil {
			return err
		}
	}
	if showPlot {
		fmt.Println()
		fmt.Println(viz.BodeMagnitude(pts))
		fmt.Println()
		fmt.Println(viz.BodePhase(pts))
	}
	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(loopName, kind, point, ss, pts)
		if err != nil {
			return err
		}
		fmt.Printf("\nsaved run %s\n", id)
	}
	return nil
}

func runOpenLoop(cmd *cobra.Command, args []string) error {
	loop, _, err := buildLoop(cmd, args[0])
	if err != nil {
		return err
	}
	flat, in, out, err := analysis.OpenLoop(loop.System, args[1])
	if err != nil {
		return err
	}
	fmt.Printf("open loop of %s at %q\n", args[0], args[1])
	fmt.Printf("input: %s\noutput: %s\n\nequations:\n", in, out)
	for _, eq := range flat.Equations {
		fmt.Printf("  %s\n", eq)
	}
	return nil
}

func runLinearize(cmd *cobra.Command, args []string) error {
	loop, cfg, err := buildLoop(cmd, args[0])
	if err != nil {
		return err
	}
	ss, _, err := analysis.Linearize(loop.System, args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Printf("transfer of %s from %q to %q\n\n", args[0], args[1], args[2])
	printStateSpace(ss)
	return finishAnalysis(cfg, args[0], "linearize", args[1]+"->"+args[2], ss)
}

func runBode(cmd *cobra.Command, args []string) error {
	loop, cfg, err := buildLoop(cmd, args[0])
	if err != nil {
		return err
	}
	ss, _, err := analysis.GetLoopTransfer(loop.System, args[1])
	if err != nil {
		return err
	}
	pts, err := ss.Bode(statespace.LogSpace(cfg.Freq.Min, cfg.Freq.Max, cfg.Freq.Points))
	if err != nil {
		return err
	}
	fmt.Printf("loop transfer of %s at %q\n\n", args[0], args[1])
	fmt.Println(viz.BodeMagnitude(pts))
	fmt.Println()
	fmt.Println(viz.BodePhase(pts))
	return nil
}

func closedLoopDynamics(cmd *cobra.Command, loopName string) (*linearize.Affine, sim.State, *config.Config, error) {
	loop, cfg, err := buildLoop(cmd, loopName)
	if err != nil {
		return nil, nil, nil, err
	}
	flat, err := analysis.Flatten(loop.System)
	if err != nil {
		return nil, nil, nil, err
	}
	dyn, x0, err := linearize.ODE(flat, linearize.WithOperatingPoint(map[string]float64{x0Var: x0Val}))
	if err != nil {
		return nil, nil, nil, err
	}
	return dyn, x0, cfg, nil
}

func stateIndex(dyn *linearize.Affine, name string) (int, error) {
	for i, s := range dyn.States {
		if s == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q (have: %s)", name, strings.Join(dyn.States, ", "))
}

func runStep(cmd *cobra.Command, args []string) error {
	dyn, x0, cfg, err := closedLoopDynamics(cmd, args[0])
	if err != nil {
		return err
	}
	idx, err := stateIndex(dyn, stateVar)
	if err != nil {
		return err
	}

	simulator := sim.New(dyn, integrators.NewRK4(), nil)
	result, err := simulator.Run(context.Background(), x0, sim.Config{
		Dt:            cfg.Sim.Dt,
		Duration:      cfg.Sim.Duration,
		ValidateState: true,
	})
	if err != nil {
		return err
	}

	values := make([]float64, len(result.States))
	for i, x := range result.States {
		values[i] = x[idx]
	}
	fmt.Printf("%s response of %s\n\n", stateVar, args[0])
	fmt.Println(viz.Step(values, cfg.Sim.Dt, stateVar))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	dyn, x0, cfg, err := closedLoopDynamics(cmd, args[0])
	if err != nil {
		return err
	}
	idx, err := stateIndex(dyn, stateVar)
	if err != nil {
		return err
	}

	m := tui.NewModel(
		fmt.Sprintf("looplab live: %s", args[0]),
		stateVar,
		dyn,
		integrators.NewRK4(),
		x0,
		cfg.Sim.Dt,
		func(x sim.State) float64 { return x[idx] },
	)
	return tui.Run(m)
}

func printStateSpace(ss *statespace.StateSpace) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "input:\t%s\n", ss.Input)
	fmt.Fprintf(w, "output:\t%s\n", ss.Output)
	fmt.Fprintf(w, "states:\t%s\n", strings.Join(ss.States, ", "))
	w.Flush()

	n := ss.Order()
	fmt.Println()
	for i := 0; i < n; i++ {
		fmt.Print("A: [")
		for j := 0; j < n; j++ {
			fmt.Printf(" %9.4f", ss.A.At(i, j))
		}
		fmt.Printf(" ]   B: [ %9.4f ]\n", ss.B.At(i, 0))
	}
	if n > 0 {
		fmt.Print("C: [")
		for j := 0; j < n; j++ {
			fmt.Printf(" %9.4f", ss.C.At(0, j))
		}
		fmt.Print(" ]   ")
	}
	fmt.Printf("D: [ %9.4f ]\n", ss.Feedthrough())

	if poles, err := ss.Poles(); err == nil && len(poles) > 0 {
		parts := make([]string, len(poles))
		for i, p := range poles {
			parts[i] = fmt.Sprintf("%.4g%+.4gi", real(p), imag(p))
		}
		fmt.Printf("\npoles: %s\n", strings.Join(parts, ", "))
	}
}

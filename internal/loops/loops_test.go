package loops

import (
	"math"
	"strings"
	"testing"

	"github.com/avench/looplab/internal/analysis"
	"github.com/avench/looplab/internal/config"
)

func TestRegistryList(t *testing.T) {
	names := NewRegistry().List()
	if len(names) == 0 {
		t.Fatal("empty registry")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestRegistryUnknownLoop(t *testing.T) {
	_, err := NewRegistry().Get("nope", config.DefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("err = %v, want unknown loop naming the request", err)
	}
}

func TestAllPresetsLinearize(t *testing.T) {
	r := NewRegistry()
	cfg := config.DefaultConfig()

	for _, name := range r.List() {
		t.Run(name, func(t *testing.T) {
			loop, err := r.Get(name, cfg)
			if err != nil {
				t.Fatal(err)
			}
			if len(loop.Points) == 0 {
				t.Fatal("loop carries no analysis points")
			}
			for _, point := range loop.Points {
				ss, _, err := analysis.GetSensitivity(loop.System, point)
				if err != nil {
					t.Fatalf("sensitivity at %q: %v", point, err)
				}
				g, err := ss.Eval(complex(0, 1))
				if err != nil {
					t.Fatalf("eval at %q: %v", point, err)
				}
				if math.IsNaN(real(g)) || math.IsNaN(imag(g)) {
					t.Errorf("NaN response at %q", point)
				}
			}
		})
	}
}

func TestFirstOrderPStable(t *testing.T) {
	loop, err := NewRegistry().Get("first_order_p", config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	ss, _, err := analysis.GetCompSensitivity(loop.System, "plant_output")
	if err != nil {
		t.Fatal(err)
	}
	poles, err := ss.Poles()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range poles {
		if real(p) >= 0 {
			t.Errorf("closed-loop pole %v not in the left half plane", p)
		}
	}
}

func TestDoubleLoopPointsQualified(t *testing.T) {
	loop, err := NewRegistry().Get("double_loop", config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range loop.Points {
		if !strings.Contains(p, ".") {
			t.Errorf("point %q is not namespace qualified", p)
		}
	}
}

func TestFirstOrderPIDUsesConfigGains(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Controller.Kd = 0.2
	cfg.Controller.Tf = 0 // invalid pair: derivative gain with no filter

	if _, err := NewRegistry().Get("first_order_pid", cfg); err == nil {
		t.Fatal("expected the pid construction error to propagate")
	}
}

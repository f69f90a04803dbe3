package config

import "testing"

func TestNewDefaults(t *testing.T) {
	o := New()
	if o.DefaultMix != 0.2 {
		t.Errorf("DefaultMix: got %v, want 0.2", o.DefaultMix)
	}
	if o.PhysicsStep != float32(1.0/60.0) {
		t.Errorf("PhysicsStep: got %v, want 1/60", o.PhysicsStep)
	}
	if o.BezierSteps != 10 {
		t.Errorf("BezierSteps: got %v, want 10", o.BezierSteps)
	}
	if o.Scale != 1 {
		t.Errorf("Scale: got %v, want 1", o.Scale)
	}
}

func TestOptionOverrides(t *testing.T) {
	o := New(DefaultMixDuration(0.5), Scale(0.01), BezierSteps(20), PhysicsStep(1.0/30.0))
	if o.DefaultMix != 0.5 {
		t.Errorf("DefaultMix: got %v", o.DefaultMix)
	}
	if o.Scale != 0.01 {
		t.Errorf("Scale: got %v", o.Scale)
	}
	if o.BezierSteps != 20 {
		t.Errorf("BezierSteps: got %v", o.BezierSteps)
	}
	if o.PhysicsStep != float32(1.0/30.0) {
		t.Errorf("PhysicsStep: got %v", o.PhysicsStep)
	}
}

func TestOptionsRejectInvalid(t *testing.T) {
	o := New(Scale(-1), BezierSteps(0), PhysicsStep(-0.5))
	if o.Scale != 1 {
		t.Errorf("negative scale should be rejected, got %v", o.Scale)
	}
	if o.BezierSteps != 10 {
		t.Errorf("zero bezier steps should be rejected, got %v", o.BezierSteps)
	}
	if o.PhysicsStep != float32(1.0/60.0) {
		t.Errorf("negative physics step should be rejected, got %v", o.PhysicsStep)
	}
}

func TestLoadTuningYAML(t *testing.T) {
	data := []byte("default_mix: 0.3\nscale: 0.5\n")
	opts, err := LoadTuningYAML(data)
	if err != nil {
		t.Fatalf("LoadTuningYAML: %v", err)
	}
	o := New(opts...)
	if o.DefaultMix != 0.3 {
		t.Errorf("DefaultMix: got %v, want 0.3", o.DefaultMix)
	}
	if o.Scale != 0.5 {
		t.Errorf("Scale: got %v, want 0.5", o.Scale)
	}
	if o.BezierSteps != 10 {
		t.Errorf("BezierSteps should keep default, got %v", o.BezierSteps)
	}
}

func TestLoadTuningYAMLEmpty(t *testing.T) {
	opts, err := LoadTuningYAML([]byte(""))
	if err != nil {
		t.Fatalf("LoadTuningYAML: %v", err)
	}
	o := New(opts...)
	if o.Scale != 1 {
		t.Errorf("empty YAML should leave defaults, got scale %v", o.Scale)
	}
}

// Package config holds the tunable knobs a host application sets once at
// startup, kept separate from the per-frame Pose state (spec §1).
package config

import "gopkg.in/yaml.v3"

// RuntimeOptions reduces the setup API footprint using functional options.
// See: http://dave.cheney.net/2014/10/17/functional-options-for-friendly-apis
type RuntimeOptions struct {
	DefaultMix  float32 // seconds, fallback cross-fade duration (spec §4.6)
	PhysicsStep float32 // seconds, fixed physics substep (spec §4.5.4)
	BezierSteps int     // subdivision resolution for curve inversion (spec §4.6)
	Scale       float32 // applied to every decoded vertex/length (spec §4.2)
}

// optionDefaults provides reasonable defaults so a host runs even if no
// options are set.
var optionDefaults = RuntimeOptions{
	DefaultMix:  0.2,
	PhysicsStep: 1.0 / 60.0,
	BezierSteps: 10,
	Scale:       1.0,
}

// Option overrides one RuntimeOptions attribute.
//
//	opts := config.New(
//	    config.DefaultMixDuration(0.3),
//	    config.Scale(0.01),
//	)
type Option func(*RuntimeOptions)

// New builds a RuntimeOptions from defaults plus any overrides.
func New(opts ...Option) *RuntimeOptions {
	o := optionDefaults
	for _, apply := range opts {
		apply(&o)
	}
	return &o
}

// DefaultMixDuration sets the cross-fade duration used when a transition
// has no explicit mix-duration entry (spec §4.6).
func DefaultMixDuration(seconds float32) Option {
	return func(o *RuntimeOptions) {
		if seconds >= 0 {
			o.DefaultMix = seconds
		}
	}
}

// PhysicsStep sets the fixed substep used by damped-spring physics
// constraints (spec §4.5.4).
func PhysicsStep(seconds float32) Option {
	return func(o *RuntimeOptions) {
		if seconds > 0 {
			o.PhysicsStep = seconds
		}
	}
}

// BezierSteps sets the subdivision resolution used to invert keyframe
// bezier curves (spec §4.6).
func BezierSteps(n int) Option {
	return func(o *RuntimeOptions) {
		if n > 0 {
			o.BezierSteps = n
		}
	}
}

// Scale sets the factor applied to every decoded vertex and length
// (spec §4.2), e.g. to import a rig authored in pixels into a meter-scale
// world.
func Scale(factor float32) Option {
	return func(o *RuntimeOptions) {
		if factor > 0 {
			o.Scale = factor
		}
	}
}

// tuningFile mirrors the subset of RuntimeOptions a deployment typically
// wants to override from a checked-in YAML file rather than call-site Go.
type tuningFile struct {
	DefaultMix  *float32 `yaml:"default_mix"`
	PhysicsStep *float32 `yaml:"physics_step"`
	BezierSteps *int     `yaml:"bezier_steps"`
	Scale       *float32 `yaml:"scale"`
}

// LoadTuningYAML parses a YAML tuning overlay and returns the Options
// needed to apply it on top of New()'s defaults. Fields absent from data
// are left at their default value.
func LoadTuningYAML(data []byte) ([]Option, error) {
	var f tuningFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	var opts []Option
	if f.DefaultMix != nil {
		opts = append(opts, DefaultMixDuration(*f.DefaultMix))
	}
	if f.PhysicsStep != nil {
		opts = append(opts, PhysicsStep(*f.PhysicsStep))
	}
	if f.BezierSteps != nil {
		opts = append(opts, BezierSteps(*f.BezierSteps))
	}
	if f.Scale != nil {
		opts = append(opts, Scale(*f.Scale))
	}
	return opts, nil
}

// Package config defines the typed configuration the core is driven by.
//
// spec.md places config *file* parsing out of scope ("external collaborator
// with a defined interface"); this package is that interface plus a
// concrete YAML-backed implementation, generalizing the teacher's
// wm.Config/manager.Config (BorderWidth, TitleBarHeight, BorderColor,
// OuterGap, InnerGap) with the fields spec.md's operations actually read:
// floating size clamps, workspace/output assignments, and window
// assignment rules (§4.4, §4.5).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Size is a width/height pair. A value of -1 means "unlimited" for
// FloatingMaximumSize, and "unset" for FloatingMinimumSize.
type Size struct {
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// MatchSpec is the predicate half of a window assignment rule (§4.5). All
// non-empty/non-nil fields except Floating must match for the rule to
// apply. Floating is not tested against the window: a matching rule whose
// Floating is true makes the window floating, and false has no effect.
type MatchSpec struct {
	TitleRegexp  string `yaml:"title,omitempty"`
	Class        string `yaml:"class,omitempty"`
	Instance     string `yaml:"instance,omitempty"`
	Mark         string `yaml:"mark,omitempty"`
	WindowID     uint32 `yaml:"window_id,omitempty"`
	TransientFor uint32 `yaml:"transient_for,omitempty"`
	Floating     *bool  `yaml:"floating,omitempty"`
	Dock         *bool  `yaml:"dock,omitempty"`
}

// Action is the effect half of an assignment rule.
type Action struct {
	ToWorkspace string `yaml:"to_workspace,omitempty"`
	ToOutput    string `yaml:"to_output,omitempty"`
	RunCommand  string `yaml:"run_command,omitempty"`
}

// Assignment is one Match -> Action(s) rule, applied in declared order
// during window adoption (§4.5).
type Assignment struct {
	Match   MatchSpec `yaml:"match"`
	Actions []Action  `yaml:"actions"`
}

// Keybinding associates a symbolic key combo with a command string. C4's
// create_on_output consults the "workspace …" targets of these bindings
// when synthesizing a fresh workspace name (§4.4).
type Keybinding struct {
	Modifiers string `yaml:"modifiers"`
	Key       string `yaml:"key"`
	Command   string `yaml:"command"`
}

// Config is the full set of tunables the core's components read.
type Config struct {
	BorderWidth         int               `yaml:"border_width"`
	TitleBarHeight      int               `yaml:"titlebar_height"`
	BorderColor         uint32            `yaml:"border_color"`
	OuterGap            int               `yaml:"outer_gap"`
	InnerGap            int               `yaml:"inner_gap"`
	FloatingMinimumSize Size              `yaml:"floating_minimum_size"`
	FloatingMaximumSize Size              `yaml:"floating_maximum_size"`
	FocusFollowsMouse   bool              `yaml:"focus_follows_mouse"`
	SystemTrayOutput    string            `yaml:"tray_output,omitempty"`
	WorkspaceOutputs    map[string]string `yaml:"workspace_outputs,omitempty"`
	Assignments         []Assignment      `yaml:"assignments,omitempty"`
	Keybindings         []Keybinding      `yaml:"keybindings,omitempty"`
}

// Default returns the configuration used when no file is supplied, or as a
// base that keeps its values for every field a loaded file leaves out.
func Default() *Config {
	return &Config{
		BorderWidth:         1,
		TitleBarHeight:      0,
		BorderColor:         0x4c7899,
		OuterGap:            0,
		InnerGap:            0,
		FloatingMinimumSize: Size{W: -1, H: -1},
		FloatingMaximumSize: Size{W: -1, H: -1},
		FocusFollowsMouse:   true,
	}
}

// Loader loads a Config from a path. The core depends only on this
// interface; spec.md's config-file grammar itself is out of scope.
type Loader interface {
	Load(path string) (*Config, error)
}

// YAMLLoader decodes a structured YAML document into a Config.
type YAMLLoader struct{}

// Load reads path and decodes it, starting from Default() so a partial file
// only overrides the fields it sets explicitly for scalar fields it
// supplies; slice/map fields are replaced wholesale when present.
func (YAMLLoader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

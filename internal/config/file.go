package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// File is a parsed comparison file.
type File struct {
	// Timeout is the default for targets and steps that set none.
	Timeout time.Duration

	// ProtocolVersion is declared in initialize.
	ProtocolVersion string

	Targets []Launch
	Calls   []Call
	Steps   []Step
}

// Call is a tools/call appended to the standard sequence.
type Call struct {
	Name      string
	Arguments json.RawMessage
}

// Step is one explicit script entry.
type Step struct {
	Name         string
	Method       string
	Params       json.RawMessage
	Notification bool
	Timeout      time.Duration
}

type fileConfig struct {
	Timeout         string         `toml:"timeout"          yaml:"timeout"`
	ProtocolVersion string         `toml:"protocol_version" yaml:"protocol_version"`
	Targets         []targetConfig `toml:"target"           yaml:"target"`
	Calls           []callConfig   `toml:"call"             yaml:"call"`
	Steps           []stepConfig   `toml:"step"             yaml:"step"`
}

type targetConfig struct {
	Name       string            `toml:"name"       yaml:"name"`
	Executable string            `toml:"executable" yaml:"executable"`
	Args       []string          `toml:"args"       yaml:"args"`
	Env        map[string]string `toml:"env"        yaml:"env"`
	Timeout    string            `toml:"timeout"    yaml:"timeout"`
}

type callConfig struct {
	Name      string         `toml:"name"      yaml:"name"`
	Arguments map[string]any `toml:"arguments" yaml:"arguments"`
}

type stepConfig struct {
	Name         string `toml:"name"         yaml:"name"`
	Method       string `toml:"method"       yaml:"method"`
	Params       any    `toml:"params"       yaml:"params"`
	Notification bool   `toml:"notification" yaml:"notification"`
	Timeout      string `toml:"timeout"      yaml:"timeout"`
}

// Load reads a comparison file. The format is chosen by extension: .toml,
// or .yaml/.yml.
func Load(path string) (*File, error) {
	var (
		raw fileConfig
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = decodeTOML(path, &raw)
	case ".yaml", ".yml":
		err = decodeYAML(path, &raw)
	default:
		return nil, fmt.Errorf("load config %s: unsupported extension %q (want .toml, .yaml or .yml)", path, ext)
	}

	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	file, err := raw.build()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	return file, nil
}

func decodeTOML(path string, raw *fileConfig) error {
	meta, err := toml.DecodeFile(path, raw)
	if err != nil {
		return err
	}

	if meta.IsDefined("timeout") && strings.TrimSpace(raw.Timeout) == "" {
		return fmt.Errorf("timeout is empty")
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}

	return nil
}

func decodeYAML(path string, raw *fileConfig) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(raw); err != nil {
		return err
	}

	return nil
}

func (raw *fileConfig) build() (*File, error) {
	file := &File{ProtocolVersion: strings.TrimSpace(raw.ProtocolVersion)}

	timeout, err := parseDuration("timeout", raw.Timeout)
	if err != nil {
		return nil, err
	}

	file.Timeout = timeout

	for i, t := range raw.Targets {
		launch, err := t.build(i, file.Timeout)
		if err != nil {
			return nil, err
		}

		file.Targets = append(file.Targets, launch)
	}

	for i, c := range raw.Calls {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("call %d: name is required", i+1)
		}

		args := c.Arguments
		if args == nil {
			args = map[string]any{}
		}

		encoded, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("call %s: encode arguments: %w", name, err)
		}

		file.Calls = append(file.Calls, Call{Name: name, Arguments: encoded})
	}

	for i, s := range raw.Steps {
		step, err := s.build(i, file.Timeout)
		if err != nil {
			return nil, err
		}

		file.Steps = append(file.Steps, step)
	}

	return file, nil
}

func (t targetConfig) build(i int, timeout time.Duration) (Launch, error) {
	launch := Launch{
		Name:       strings.TrimSpace(t.Name),
		Executable: strings.TrimSpace(t.Executable),
		Args:       t.Args,
		Env:        t.Env,
		Timeout:    timeout,
	}

	if launch.Name == "" {
		launch.Name = fmt.Sprintf("target-%d", i+1)
	}

	if launch.Executable == "" {
		return Launch{}, fmt.Errorf("target %s: executable is required", launch.Name)
	}

	if t.Timeout != "" {
		d, err := parseDuration("target "+launch.Name+" timeout", t.Timeout)
		if err != nil {
			return Launch{}, err
		}

		launch.Timeout = d
	}

	return launch, nil
}

func (s stepConfig) build(i int, timeout time.Duration) (Step, error) {
	step := Step{
		Name:         strings.TrimSpace(s.Name),
		Method:       strings.TrimSpace(s.Method),
		Notification: s.Notification,
		Timeout:      timeout,
	}

	if step.Method == "" {
		return Step{}, fmt.Errorf("step %d: method is required", i+1)
	}

	if step.Name == "" {
		step.Name = step.Method
	}

	if s.Params != nil {
		encoded, err := json.Marshal(s.Params)
		if err != nil {
			return Step{}, fmt.Errorf("step %s: encode params: %w", step.Name, err)
		}

		step.Params = encoded
	}

	if s.Timeout != "" {
		d, err := parseDuration("step "+step.Name+" timeout", s.Timeout)
		if err != nil {
			return Step{}, err
		}

		step.Timeout = d
	}

	return step, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}

	if d < 0 {
		return 0, fmt.Errorf("parse %s: negative duration %s", field, value)
	}

	return d, nil
}

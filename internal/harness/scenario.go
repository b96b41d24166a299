package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a boot scenario: what to load, what to do after boot,
// and what must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Wiki is an optional wiki folder loaded before Tiddlers.
	Wiki string `yaml:"wiki,omitempty"`

	// Library holds plugins/, themes/ and languages/ the wiki names.
	Library string `yaml:"library,omitempty"`

	// SafeMode registers only the core plugin.
	SafeMode bool `yaml:"safe_mode,omitempty"`

	// PluginTypes overrides the plugin types registered during boot.
	PluginTypes []string `yaml:"plugin_types,omitempty"`

	// Tiddlers are raw entries loaded in order.
	Tiddlers []RawTiddler `yaml:"tiddlers,omitempty"`

	// Steps run after boot, in order.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final store.
	Assertions []Assertion `yaml:"assertions"`
}

// RawTiddler is an entry for the deserializers. Without a type, Fields is
// a complete tiddler.
type RawTiddler struct {
	Type   string         `yaml:"type,omitempty"`
	Text   string         `yaml:"text,omitempty"`
	Fields map[string]any `yaml:"fields,omitempty"`
}

// Step is one post-boot action. Exactly one field is set.
type Step struct {
	// Add stores a tiddler in the real layer.
	Add map[string]any `yaml:"add,omitempty"`

	// Delete removes a real tiddler.
	Delete string `yaml:"delete,omitempty"`

	// Execute runs a module and records its exports.
	Execute string `yaml:"execute,omitempty"`

	// Recompose re-reads plugin info and rebuilds the shadow layer.
	Recompose bool `yaml:"recompose,omitempty"`
}

func (s Step) count() int {
	n := 0
	if s.Add != nil {
		n++
	}
	if s.Delete != "" {
		n++
	}
	if s.Execute != "" {
		n++
	}
	if s.Recompose {
		n++
	}
	return n
}

// Assertion validates the final store, trace or exports.
type Assertion struct {
	// Type specifies the assertion type; see the Assert constants.
	Type string `yaml:"type"`

	// Title is the tiddler (tiddler, absent, shadow_source, change).
	Title string `yaml:"title,omitempty"`

	// Layer restricts a tiddler assertion to "real" or "shadow".
	Layer string `yaml:"layer,omitempty"`

	// Expect contains expected values (tiddler, exports). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Source is the expected owning plugin (shadow_source).
	Source string `yaml:"source,omitempty"`

	// Module is the executed module (exports, exec_error).
	Module string `yaml:"module,omitempty"`

	// Contains is a substring of the expected error (exec_error, failures).
	Contains string `yaml:"contains,omitempty"`

	// Modules is the expected relative order of startup modules.
	Modules []string `yaml:"modules,omitempty"`

	// Plugins is the exact expected list of registered plugins.
	Plugins []string `yaml:"plugins,omitempty"`

	// Count is the expected number of contained failures (failures).
	Count *int `yaml:"count,omitempty"`

	// Deleted is the expected kind of change (change).
	Deleted bool `yaml:"deleted,omitempty"`
}

// Assertion type constants.
const (
	AssertTiddler      = "tiddler"
	AssertAbsent       = "absent"
	AssertShadowSource = "shadow_source"
	AssertExports      = "exports"
	AssertExecError    = "exec_error"
	AssertStartupOrder = "startup_order"
	AssertPlugins      = "plugins"
	AssertFailures     = "failures"
	AssertChange       = "change"
)

// Layer names for tiddler assertions.
const (
	LayerReal   = "real"
	LayerShadow = "shadow"
)

// LoadScenario reads and parses a scenario YAML file. Wiki and library
// paths are resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving wiki and library paths relative to basePath.
// Unknown fields are rejected to catch typos.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath != "" {
		if scenario.Wiki != "" && !filepath.IsAbs(scenario.Wiki) {
			scenario.Wiki = filepath.Join(basePath, scenario.Wiki)
		}
		if scenario.Library != "" && !filepath.IsAbs(scenario.Library) {
			scenario.Library = filepath.Join(basePath, scenario.Library)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Wiki == "" && len(s.Tiddlers) == 0 {
		return fmt.Errorf("wiki or tiddlers is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Wiki != "" {
		if _, err := os.Stat(s.Wiki); os.IsNotExist(err) {
			return fmt.Errorf("wiki folder not found: %s", s.Wiki)
		}
	}

	for i, raw := range s.Tiddlers {
		if raw.Type == "" && raw.Fields == nil {
			return fmt.Errorf("tiddlers[%d]: fields is required when type is empty", i)
		}
	}

	for i, step := range s.Steps {
		if step.count() != 1 {
			return fmt.Errorf("steps[%d]: exactly one of add, delete, execute, recompose is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTiddler:
		if a.Title == "" {
			return fmt.Errorf("assertions[%d]: title is required for tiddler", index)
		}
		if a.Layer != "" && a.Layer != LayerReal && a.Layer != LayerShadow {
			return fmt.Errorf("assertions[%d]: layer must be %q or %q", index, LayerReal, LayerShadow)
		}
	case AssertAbsent, AssertChange:
		if a.Title == "" {
			return fmt.Errorf("assertions[%d]: title is required for %s", index, a.Type)
		}
	case AssertShadowSource:
		if a.Title == "" || a.Source == "" {
			return fmt.Errorf("assertions[%d]: title and source are required for shadow_source", index)
		}
	case AssertExports:
		if a.Module == "" || len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: module and expect are required for exports", index)
		}
	case AssertExecError:
		if a.Module == "" {
			return fmt.Errorf("assertions[%d]: module is required for exec_error", index)
		}
	case AssertStartupOrder:
		if len(a.Modules) == 0 {
			return fmt.Errorf("assertions[%d]: modules list is required for startup_order", index)
		}
	case AssertPlugins:
		if a.Plugins == nil {
			return fmt.Errorf("assertions[%d]: plugins list is required for plugins", index)
		}
	case AssertFailures:
		if a.Count == nil && a.Contains == "" {
			return fmt.Errorf("assertions[%d]: count or contains is required for failures", index)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for failures", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

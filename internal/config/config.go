package config

import "time"

type Config struct {
	ConfigVersion int           `yaml:"configVersion"`
	Grammar       GrammarConfig `yaml:"grammar"`
	Rules         []Rule        `yaml:"rules"`
	Limits        Limits        `yaml:"limits"`
	Output        OutputConfig  `yaml:"output"`
	Logging       LoggingConfig `yaml:"logging"`
	Metrics       MetricsConfig `yaml:"metrics"`
	Watch         WatchConfig   `yaml:"watch"`

	baseDir string `yaml:"-"`
}

type GrammarConfig struct {
	Name      string `yaml:"name"`
	Structure string `yaml:"structure"`
	// Builtin seeds the rule set with a grammar shipped with the tool.
	// Rules listed in the file are added to it.
	Builtin string `yaml:"builtin"`
}

type Rule struct {
	Header  string   `yaml:"header"`
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Values  []string `yaml:"values"`
	Prefix  string   `yaml:"prefix"`
	Param   string   `yaml:"param"`
	Capture bool     `yaml:"capture"`
}

type Limits struct {
	MaxStates    int `yaml:"maxStates"`
	MaxDFAStates int `yaml:"maxDFAStates"`
	MaxCapture   int `yaml:"maxCapture"`
}

type OutputConfig struct {
	Dir            string `yaml:"dir"`
	Package        string `yaml:"package"`
	Interface      string `yaml:"interface"`
	Implementation string `yaml:"implementation"`
	Layout         string `yaml:"layout"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	BuildLog string `yaml:"buildLog"`
}

type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Listen   string `yaml:"listen"`
	Textfile string `yaml:"textfile"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

const (
	LayoutRanges  = "ranges"
	LayoutClasses = "classes"

	FormatText = "text"
	FormatJSON = "json"
)

const (
	DefaultPackage        = "httpparser"
	DefaultInterface      = "http_req_automaton.go"
	DefaultImplementation = "http_req_automaton_impl.go"
	DefaultDebounce       = 300 * time.Millisecond
)

func (c *Config) BaseDir() string {
	return c.baseDir
}

func (c *Config) ResolvePath(path string) string {
	return c.resolvePath(path)
}

// ApplyDefaults fills unset output and logging fields. It runs after Load so
// Validate sees the effective values.
func (c *Config) ApplyDefaults() {
	if c.Grammar.Structure == "" {
		c.Grammar.Structure = "request"
	}
	if c.Output.Package == "" {
		c.Output.Package = DefaultPackage
	}
	if c.Output.Interface == "" {
		c.Output.Interface = DefaultInterface
	}
	if c.Output.Implementation == "" {
		c.Output.Implementation = DefaultImplementation
	}
	if c.Output.Layout == "" {
		c.Output.Layout = LayoutRanges
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = FormatText
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = DefaultDebounce
	}
}

// InterfacePath and ImplementationPath are the artifact destinations,
// resolved against the config file's directory.
func (c *Config) InterfacePath() string {
	return c.resolvePath(joinDir(c.Output.Dir, c.Output.Interface))
}

func (c *Config) ImplementationPath() string {
	return c.resolvePath(joinDir(c.Output.Dir, c.Output.Implementation))
}

package models

// App holds the general settings of the command line tool.
type App struct {
	Help     bool   `yaml:"-"`
	Version  bool   `yaml:"-"`
	Verbose  bool   `yaml:"verbose,omitempty"`
	LogLevel string `yaml:"log-level,omitempty"`
	LogJSON  bool   `yaml:"log-json,omitempty"`
	Config   string `yaml:"-"`
}

package flags

import (
	"andy.dev/hedge/cmd/internal/models"
	"github.com/spf13/pflag"
)

type App struct {
	models.App
}

func NewApp() *App {
	return &App{}
}

func (f *App) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.BoolVarP(&f.Help, "help", "Z", false, "Display help information.")
	flagSet.BoolVarP(&f.Version, "version", "V",
		false,
		"Display version information.")
	flagSet.BoolVarP(&f.Verbose, "verbose", "v",
		false,
		"Enable more detailed logging.")
	flagSet.StringVar(&f.LogLevel, "log-level",
		"debug",
		"Determine log level for --verbose output. Log levels are: debug, info, warn, error.")
	flagSet.BoolVar(&f.LogJSON, "log-json",
		false,
		"Set output in JSON format for parsing by external tools.")
	flagSet.StringVar(&f.Config, "config",
		"",
		"Path to YAML configuration file.")

	return flagSet
}

func (f *App) GetApp() *models.App {
	return &f.App
}

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/TFMV/salesreport/config"
	"github.com/TFMV/salesreport/logger"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"db":          "store.path",
	"driver":      "store.driver",
	"driver-path": "store.driver_path",
	"age-min":     "report.age_min",
	"age-max":     "report.age_max",
	"out-dir":     "output.dir",
	"format":      "output.format",
	"port":        "server.port",
	"log-level":   "log.level",
	"log-file":    "log.file",
}

// app carries state shared by every command of one invocation.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New()}
	run := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "salesreport",
		Short: "Report item quantities bought by customers in an age range",
		Long: `salesreport aggregates, per customer aged within a range (18-35 by default),
the total quantity purchased of each item, and writes the result as a
semicolon-delimited CSV file.

The report is computed twice, once by the store's SQL engine and once by
in-memory table transforms, and the two results are compared.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(cmd, run)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default ./"+config.DefaultFile+" when present)")
	pf.String("db", "", "Path to the sales database")
	pf.String("driver", "", "Store backend (sqlite3, duckdb, adbc)")
	pf.String("driver-path", "", "DuckDB ADBC driver library (adbc backend only)")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-file", "", "JSON log file; empty disables file logging")

	addRunFlags(rootCmd.Flags(), run)

	rootCmd.AddCommand(
		newRunCommand(a),
		newSeedCommand(a),
		newServeCommand(a),
		newDiffCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

// load binds the flags present on fs, reads the configuration and sets up logging.
func (a *app) load(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger.ResetLogger()
	logger.SetLogPath(cfg.Log.File)
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	return nil
}

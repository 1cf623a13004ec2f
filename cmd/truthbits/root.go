package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hupe1980/truthbits"
)

// envPrefix prefixes environment overrides of flags: --log-level is read
// from TRUTHBITS_LOG_LEVEL.
const envPrefix = "TRUTHBITS"

// NewRootCommand builds the command tree writing to the given streams.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	rc := &cobra.Command{
		Use:   "truthbits",
		Short: "truthbits enumerates truth tables of Boolean functions as bitset columns.",
		Long: `truthbits enumerates truth tables of Boolean functions as bitset columns.

Large tables are produced in batches of 2^use-bits rows and can be stored
in a local directory, MinIO or Amazon S3 for later evaluation. Every flag
can also be set from the environment (TRUTHBITS_<FLAG>, dashes replaced by
underscores) or from a TOML file given with --config.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setAllConfig(viper.New(), cmd.Flags())
		},
	}
	rc.PersistentFlags().StringP("config", "c", "", "Configuration file to read from.")
	rc.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error.")
	rc.PersistentFlags().String("log-format", "text", "Log format: text or json.")

	rc.AddCommand(newTableCommand(stdout))
	rc.AddCommand(newEnumerateCommand(stdout, stderr))
	rc.AddCommand(newVerifyCommand(stdout, stderr))
	rc.AddCommand(newShowCommand(stdout, stderr))
	rc.AddCommand(newInfoCommand(stdout))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// setAllConfig fills every flag the user did not set on the command line
// from the environment or the config file, in that order.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}

		valid := make(map[string]bool)
		flags.VisitAll(func(f *pflag.Flag) { valid[f.Name] = true })
		for _, key := range v.AllKeys() {
			if !valid[key] {
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		var value string
		if strings.HasSuffix(f.Value.Type(), "Slice") {
			// GetString is empty for list values read from a config file.
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		} else {
			value = v.GetString(f.Name)
		}
		if err := flags.Set(f.Name, value); err != nil {
			flagErr = fmt.Errorf("invalid value %q for %s: %w", value, f.Name, err)
		}
	})
	return flagErr
}

// newLogger builds the run logger from the persistent log flags.
func newLogger(flags *pflag.FlagSet, w io.Writer) (*truthbits.Logger, error) {
	levelName, _ := flags.GetString("log-level")
	format, _ := flags.GetString("log-format")

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", levelName)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "text":
		return truthbits.NewLogger(slog.NewTextHandler(w, opts)), nil
	case "json":
		return truthbits.NewLogger(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", format)
	}
}

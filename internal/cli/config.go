package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/clipcap/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Settings are stored as TOML in ~/.config/clipcap/config.toml
($XDG_CONFIG_HOME/clipcap/config.toml when set). Each key can be
overridden by an environment variable named CLIPCAP_<KEY>, and flags
override both.

Supported settings:
` + keyHelp(),
		Example: `  clipcap config set output_dir ~/clips
  clipcap config set language fr
  clipcap config get duration
  clipcap config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Values are validated before they are saved.

For output_dir, the directory is created if it doesn't exist.`,
		Example: `  clipcap config set output_dir ~/clips
  clipcap config set duration 10s
  clipcap config set provider whisper-cpp`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the effective value to stdout (environment over file), or nothing
if not set.`,
		Example: `  clipcap config get output_dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows values from the config file and environment variable overrides.`,
		Example: `  clipcap config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if key == config.KeyOutputDir && value != "" {
		expanded, err := config.EnsureOutputDir(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		value = expanded
	}
	if key == config.KeyWhisperCppModel {
		value = config.ExpandPath(value)
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if envVal := env.Getenv(config.EnvName(key)); envVal != "" {
		value = envVal
	}
	if value != "" {
		_, _ = fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	shown := 0
	for _, key := range config.Keys() {
		if envVal := env.Getenv(config.EnvName(key)); envVal != "" {
			_, _ = fmt.Fprintf(env.Stdout, "%s=%s (from env)\n", key, envVal)
			shown++
			continue
		}
		if value, ok := data[key]; ok {
			_, _ = fmt.Fprintf(env.Stdout, "%s=%s\n", key, value)
			shown++
		}
	}

	if shown == 0 {
		_, _ = fmt.Fprintln(env.Stdout, "No configuration set.")
		_, _ = fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		_, _ = fmt.Fprint(env.Stdout, keyHelp())
	}
	return nil
}

// keyHelp lists the supported keys with their environment overrides.
func keyHelp() string {
	var b strings.Builder
	for _, key := range config.Keys() {
		fmt.Fprintf(&b, "  %-18s (env: %s)\n", key, config.EnvName(key))
	}
	return b.String()
}

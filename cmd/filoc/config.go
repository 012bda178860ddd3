package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"filoc/internal/config"
	"filoc/internal/errors"
)

var (
	configFormat   string
	configShowDiff bool
	configForce    bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage filoc configuration",
	Long:  "View and manage filoc configuration stored in .filoc/config.toml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Create .filoc/config.toml in the current directory with the default settings.

An existing file is kept unless --force is given.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, the config file and FILOC_*
environment overrides are applied.

Examples:
  filoc config show              # TOML
  filoc config show --format json
  filoc config show --diff       # Only non-default values`,
	RunE: runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing config file")
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format (toml, json)")
	configShowCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.New(errors.InternalError, "failed to get current directory", err)
	}

	path := config.Path(cwd)
	if _, statErr := os.Stat(path); statErr == nil && !configForce {
		// Already initialized is success.
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "Run 'filoc config init --force' to overwrite it.")
		return nil
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return errors.New(errors.InternalError, "failed to write config file", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.New(errors.ConfigInvalid, "failed to load configuration", err)
	}

	out := cmd.OutOrStdout()
	if !configShowDiff {
		if configFormat == "json" {
			s, err := formatJSON(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s)
			return nil
		}
		return cfg.WriteTOML(out)
	}

	diff, err := configDiff(cfg, config.DefaultConfig())
	if err != nil {
		return err
	}
	if configFormat == "json" {
		s, err := formatJSON(diff)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
		return nil
	}

	lines := flattenDiff(diff, "")
	if len(lines) == 0 {
		fmt.Fprintln(out, "(no modifications - using all defaults)")
		return nil
	}
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	return nil
}

// configDiff returns the values of cfg that differ from defaults, as a
// nested map keyed like the JSON form.
func configDiff(cfg, defaults *config.Config) (map[string]interface{}, error) {
	current, err := toMap(cfg)
	if err != nil {
		return nil, err
	}
	base, err := toMap(defaults)
	if err != nil {
		return nil, err
	}
	return computeDiff(current, base), nil
}

func toMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

func computeDiff(current, defaults map[string]interface{}) map[string]interface{} {
	diff := make(map[string]interface{})
	for key, currentVal := range current {
		defaultVal, exists := defaults[key]
		if !exists {
			diff[key] = currentVal
			continue
		}

		currentMap, currentIsMap := currentVal.(map[string]interface{})
		defaultMap, defaultIsMap := defaultVal.(map[string]interface{})
		if currentIsMap && defaultIsMap {
			if nested := computeDiff(currentMap, defaultMap); len(nested) > 0 {
				diff[key] = nested
			}
		} else if !isEqual(currentVal, defaultVal) {
			diff[key] = currentVal
		}
	}
	return diff
}

// flattenDiff renders a diff map as sorted "a.b = value" lines, noting
// values that come from the environment.
func flattenDiff(diff map[string]interface{}, prefix string) []string {
	var lines []string
	for key, val := range diff {
		if nested, ok := val.(map[string]interface{}); ok {
			lines = append(lines, flattenDiff(nested, prefix+key+".")...)
			continue
		}
		line := fmt.Sprintf("%s%s = %v", prefix, key, val)
		if env := envVarName(prefix + key); os.Getenv(env) != "" {
			line += "  (from " + env + ")"
		}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return lines
}

func isEqual(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// envVarName maps a config key such as "ranking.topN" to its override
// variable, FILOC_RANKING_TOPN.
func envVarName(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

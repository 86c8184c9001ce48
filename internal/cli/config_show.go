package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/ctxutil"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/logging"
	"github.com/mrz1836/taskflow/internal/tui"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	// SourceDefault indicates the value is a built-in default.
	SourceDefault ConfigSource = "default"
	// SourceGlobal indicates the value came from global config.
	SourceGlobal ConfigSource = "global"
	// SourceProject indicates the value came from project config.
	SourceProject ConfigSource = "project"
	// SourceEnv indicates the value came from an environment variable.
	SourceEnv ConfigSource = "env"
	// SourceFlag indicates the value came from a command line flag.
	SourceFlag ConfigSource = "flag"
)

// ConfigValueWithSource represents a configuration value with its source.
type ConfigValueWithSource struct {
	Key    string       `json:"key"`
	Value  string       `json:"value"`
	Source ConfigSource `json:"source"`
}

// configLayers holds the flattened keys set by each config file.
type configLayers struct {
	global  map[string]any
	project map[string]any
	getenv  func(string) string
	flags   map[string]bool
}

// AddConfigCommand adds the config command group to the root command.
func AddConfigCommand(root *cobra.Command, env *Env) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display the effective taskflow configuration with source annotations.

Each value shows where it comes from:
  - default: Built-in default value
  - global: From ~/.taskflow/config.yaml
  - project: From .taskflow/config.yaml
  - env: From a TASKFLOW_* environment variable
  - flag: From --backend or --user

Passwords and connection strings are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := ctxutil.Canceled(ctx); err != nil {
				return err
			}
			cfg, err := env.config(ctx)
			if err != nil {
				return err
			}

			layers := loadConfigLayers()
			layers.flags = map[string]bool{
				"remote.backend":   env.Flags.Backend != "",
				"identity.user_id": env.Flags.User != "",
			}
			values, err := annotateConfig(cfg, layers)
			if err != nil {
				return err
			}

			if env.isJSON() {
				return env.output(cmd).JSON(values)
			}
			printAnnotatedConfig(cmd.OutOrStdout(), values)
			return nil
		},
	}

	cmd.AddCommand(show)
	root.AddCommand(cmd)
}

// loadConfigLayers reads the global and project config files. A missing or
// unreadable file contributes no keys.
func loadConfigLayers() configLayers {
	layers := configLayers{
		project: loadConfigFile(config.ProjectConfigPath()),
		getenv:  os.Getenv,
	}
	if path, err := config.GlobalConfigPath(); err == nil {
		layers.global = loadConfigFile(path)
	}
	return layers
}

// loadConfigFile flattens a YAML config file into dotted keys.
func loadConfigFile(path string) map[string]any {
	data, err := os.ReadFile(path) //nolint:gosec // Config file path
	if err != nil {
		return nil
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make(map[string]any)
	flatten("", raw, out)
	return out
}

// annotateConfig flattens cfg into sorted dotted keys with their source.
func annotateConfig(cfg *config.Config, layers configLayers) ([]ConfigValueWithSource, error) {
	var tree map[string]any
	if err := mapstructure.Decode(cfg, &tree); err != nil {
		return nil, tferrors.Wrap(err, "failed to read configuration")
	}
	flat := make(map[string]any)
	flatten("", tree, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]ConfigValueWithSource, 0, len(keys))
	for _, k := range keys {
		values = append(values, ConfigValueWithSource{
			Key:    k,
			Value:  maskConfigValue(k, fmt.Sprint(flat[k])),
			Source: layers.sourceOf(k),
		})
	}
	return values, nil
}

// flatten copies nested maps into out under dotted keys.
func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// sourceOf reports the highest-precedence layer that sets key.
func (l configLayers) sourceOf(key string) ConfigSource {
	if l.flags[key] {
		return SourceFlag
	}
	envKey := config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if l.getenv != nil && l.getenv(envKey) != "" {
		return SourceEnv
	}
	if _, ok := l.project[key]; ok {
		return SourceProject
	}
	if _, ok := l.global[key]; ok {
		return SourceGlobal
	}
	return SourceDefault
}

// maskConfigValue hides secrets and the password part of connection strings.
// Names of environment variables are shown as is.
func maskConfigValue(key, value string) string {
	if value == "" {
		return value
	}
	if strings.HasSuffix(key, ".dsn") {
		return logging.RedactDSN(value)
	}
	if strings.HasSuffix(key, "_env_var") {
		return value
	}
	return logging.SafeValue(key, value)
}

// printAnnotatedConfig writes values grouped by top-level section with a
// colored source per line.
func printAnnotatedConfig(w io.Writer, values []ConfigValueWithSource) {
	header := lipgloss.NewStyle().Bold(true).Foreground(tui.ColorPrimary)
	key := lipgloss.NewStyle().Foreground(tui.ColorPrimary)

	_, _ = fmt.Fprintln(w, header.Render("Effective taskflow configuration"))
	_, _ = fmt.Fprintln(w, tui.StyleDim.Render("Sources: ")+
		sourceStyle(SourceFlag).Render("flag")+" > "+
		sourceStyle(SourceEnv).Render("env")+" > "+
		sourceStyle(SourceProject).Render("project")+" > "+
		sourceStyle(SourceGlobal).Render("global")+" > "+
		sourceStyle(SourceDefault).Render("default"))

	section := ""
	for _, v := range values {
		top, rest, _ := strings.Cut(v.Key, ".")
		if top != section {
			section = top
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, tui.StyleBold.Render(section+":"))
		}
		_, _ = fmt.Fprintf(w, "  %s: %s  %s\n",
			key.Render(rest),
			v.Value,
			sourceStyle(v.Source).Render("("+string(v.Source)+")"))
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, tui.StyleDim.Render("Configuration files:"))
	if globalPath, err := config.GlobalConfigPath(); err == nil {
		_, _ = fmt.Fprintln(w, tui.StyleDim.Render("  Global:  "+describePath(globalPath)))
	}
	projectPath := config.ProjectConfigPath()
	if abs, err := filepath.Abs(projectPath); err == nil {
		projectPath = abs
	}
	_, _ = fmt.Fprintln(w, tui.StyleDim.Render("  Project: "+describePath(projectPath)))
}

func describePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path + " (not found)"
	}
	return path
}

func sourceStyle(s ConfigSource) lipgloss.Style {
	switch s {
	case SourceFlag, SourceEnv:
		return lipgloss.NewStyle().Foreground(tui.ColorError)
	case SourceProject:
		return lipgloss.NewStyle().Foreground(tui.ColorWarning)
	case SourceGlobal:
		return lipgloss.NewStyle().Foreground(tui.ColorSuccess)
	default:
		return tui.StyleDim
	}
}

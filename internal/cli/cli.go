// Package cli implements the uvlkit command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/uvlkit/uvlkit/pkg/buildinfo"
	"github.com/uvlkit/uvlkit/pkg/cache"
	"github.com/uvlkit/uvlkit/pkg/catalog"
)

// appName is the application name used for directories and display.
const appName = "uvlkit"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "uvlkit analyzes UVL feature models",
		Long:         `uvlkit is an analysis engine for feature models in the Universal Variability Language: it parses UVL text, encodes the model as a propositional formula, and answers structural and solver-backed questions about the configuration space.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.mcpCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a catalog runner for CLI use, backed by the file cache
// unless caching is disabled.
func (c *CLI) newRunner(noCache bool) *catalog.Runner {
	return catalog.NewRunner(newCache(noCache), c.Logger)
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// cacheDir returns the cache directory using the XDG standard
// (~/.cache/uvlkit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// readModel reads UVL text from a file path, or from stdin when the path
// is "-".
func readModel(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// splitSelection parses a comma-separated feature-name list.
func splitSelection(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

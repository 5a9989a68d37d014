package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/wayout/internal/config"
	"github.com/bnema/wayout/internal/display"
	"github.com/bnema/wayout/internal/gpu"
	"github.com/bnema/wayout/internal/logger"
)

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "wayout",
		Short: "wayout - damage-tracked output rendering and screen casting",
		Long: `wayout models the output side of a Wayland compositor: it maps monitors to
crtcs, keeps one view per crtc, repaints only what changed using buffer age
and a per-view damage history, and records monitors as screen cast streams
that follow layout changes.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: search /etc/wayout, ~/.config/wayout, .)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func initConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	if err := config.Init(); err != nil {
		return err
	}

	level := config.Get().Logging.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if level != "" {
		logger.SetLevel(level)
	}
	return nil
}

// newMonitorManager builds a monitor manager from the [monitors] section and
// loads the current outputs
func newMonitorManager(cfg *config.Config) (*display.MonitorManager, error) {
	backend, err := display.NewBackend(cfg.Monitors.Backend, cfg.StaticOutputs())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize monitor backend: %w", err)
	}

	mm := display.NewMonitorManager(backend, gpu.NewGPU("wayout", gpu.KindVirtual))
	if err := mm.Reload(); err != nil {
		mm.Close()
		return nil, fmt.Errorf("failed to read monitors: %w", err)
	}
	return mm, nil
}

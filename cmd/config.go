package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bnema/wayout/internal/config"
	"github.com/bnema/wayout/internal/logger"
	"github.com/bnema/wayout/internal/setup"
	"github.com/bnema/wayout/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage wayout configuration",
	Long:  `Inspect and initialize the wayout configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, ui.FormatHeader(ui.IconConfig, "Current configuration"))
		fmt.Fprintln(out, ui.FormatKeyValue("Config file", config.GetConfigPath()))

		fmt.Fprintln(out, ui.SubheaderStyle.Render("\n[renderer]"))
		fmt.Fprintln(out, ui.FormatKeyValue("Full repaint", cfg.Renderer.ForceFullRepaint))
		fmt.Fprintln(out, ui.FormatKeyValue("No history", cfg.Renderer.DisableDamageHistory))
		fmt.Fprintln(out, ui.FormatKeyValue("Swap chain", cfg.Renderer.SwapChainLength))

		fmt.Fprintln(out, ui.SubheaderStyle.Render("\n[screencast]"))
		fmt.Fprintln(out, ui.FormatKeyValue("Cursor mode", cfg.Screencast.CursorMode))

		fmt.Fprintln(out, ui.SubheaderStyle.Render("\n[monitors]"))
		fmt.Fprintln(out, ui.FormatKeyValue("Backend", cfg.Monitors.Backend))
		fmt.Fprintln(out, ui.FormatKeyValue("Poll", fmt.Sprintf("%d ms", cfg.Monitors.PollIntervalMs)))
		if len(cfg.Monitors.Outputs) > 0 {
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			if _, err := fmt.Fprintln(w, "  Name\tPosition\tMode\tScale\tTransform\tEnabled"); err != nil {
				logger.Errorf("Failed to write header: %v", err)
			}
			for _, o := range cfg.Monitors.Outputs {
				if _, err := fmt.Fprintf(w, "  %s\t%d,%d\t%dx%d@%.2f\t%.2f\t%s\t%v\n",
					o.Name, o.X, o.Y, o.Width, o.Height, o.Refresh, o.Scale, o.Transform, o.IsEnabled()); err != nil {
					logger.Errorf("Failed to write output info: %v", err)
				}
			}
			if err := w.Flush(); err != nil {
				logger.Errorf("Failed to flush writer: %v", err)
			}
		}

		fmt.Fprintln(out, ui.SubheaderStyle.Render("\n[logging]"))
		level := cfg.Logging.LogLevel
		if level == "" {
			level = "(LOG_LEVEL)"
		}
		fmt.Fprintln(out, ui.FormatKeyValue("Log level", level))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
	},
}

var configInteractive bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file with defaults",
	Long: `Write the configuration file. With --interactive the main settings are
asked first; otherwise the current values are written as they are.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		configPath := config.GetConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				fmt.Fprintln(out, ui.WarningStyle.Render(fmt.Sprintf("Configuration file already exists at: %s", configPath)))
				fmt.Fprintln(out, ui.SubtleStyle.Render("Use --force to overwrite"))
				return nil
			}
		}

		if configInteractive {
			if err := setup.RunConfigSetup(config.Get()); err != nil {
				return err
			}
		}

		if err := config.Save(); err != nil {
			return err
		}

		fmt.Fprintln(out, ui.FormatResult(true, fmt.Sprintf("Configuration initialized at: %s", configPath)))
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	configInitCmd.Flags().BoolVarP(&configInteractive, "interactive", "i", false, "Ask for the main settings before writing")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// Package setup walks the user through writing a configuration file
package setup

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/viper"

	"github.com/bnema/wayout/internal/config"
	"github.com/bnema/wayout/internal/logger"
)

// ConfigAnswers holds the values asked by the interactive setup
type ConfigAnswers struct {
	Backend          string
	PollIntervalMs   string
	CursorMode       string
	SwapChainLength  string
	ForceFullRepaint bool
}

// AnswersFrom prefills the answers with an existing configuration
func AnswersFrom(c *config.Config) ConfigAnswers {
	backend := c.Monitors.Backend
	if backend == "" {
		backend = "auto"
	}
	return ConfigAnswers{
		Backend:          backend,
		PollIntervalMs:   strconv.Itoa(c.Monitors.PollIntervalMs),
		CursorMode:       c.Screencast.CursorMode,
		SwapChainLength:  strconv.Itoa(c.Renderer.SwapChainLength),
		ForceFullRepaint: c.Renderer.ForceFullRepaint,
	}
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}

// NewConfigForm builds the setup form bound to a
func NewConfigForm(a *ConfigAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Monitor Backend").
				Description("Where the output list comes from").
				Options(huh.NewOptions("auto", "wlr-randr", "hyprland", "sway", "static")...).
				Value(&a.Backend),
			huh.NewInput().
				Title("Poll Interval (ms)").
				Description("How often the monitor layout is reloaded while casting").
				Validate(positiveInt).
				Value(&a.PollIntervalMs),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Cursor Mode").
				Options(huh.NewOptions("hidden", "embedded", "metadata")...).
				Value(&a.CursorMode),
			huh.NewInput().
				Title("Swap Chain Length").
				Description("Number of framebuffers per view").
				Validate(positiveInt).
				Value(&a.SwapChainLength),
			huh.NewConfirm().
				Title("Force Full Repaints?").
				Description("Disables damage tracking, mostly for debugging").
				Value(&a.ForceFullRepaint),
		),
	)
}

// Apply validates the answers on top of base and stores them in viper so the
// next config.Save writes them
func (a ConfigAnswers) Apply(base config.Config) error {
	poll, err := strconv.Atoi(a.PollIntervalMs)
	if err != nil {
		return fmt.Errorf("poll interval: %w", err)
	}
	swapChain, err := strconv.Atoi(a.SwapChainLength)
	if err != nil {
		return fmt.Errorf("swap chain length: %w", err)
	}

	c := base
	c.Monitors.Backend = a.Backend
	c.Monitors.PollIntervalMs = poll
	c.Screencast.CursorMode = a.CursorMode
	c.Renderer.SwapChainLength = swapChain
	c.Renderer.ForceFullRepaint = a.ForceFullRepaint
	if err := c.Validate(); err != nil {
		return err
	}

	viper.Set("monitors.backend", c.Monitors.Backend)
	viper.Set("monitors.poll_interval_ms", c.Monitors.PollIntervalMs)
	viper.Set("screencast.cursor_mode", c.Screencast.CursorMode)
	viper.Set("renderer.swap_chain_length", c.Renderer.SwapChainLength)
	viper.Set("renderer.force_full_repaint", c.Renderer.ForceFullRepaint)
	return nil
}

// RunConfigSetup asks for the main settings, starting from cfg
func RunConfigSetup(cfg *config.Config) error {
	answers := AnswersFrom(cfg)
	if err := NewConfigForm(&answers).Run(); err != nil {
		return fmt.Errorf("config setup cancelled: %w", err)
	}
	if err := answers.Apply(*cfg); err != nil {
		return err
	}
	logger.Debugf("Setup answers: %+v", answers)
	return nil
}

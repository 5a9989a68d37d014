package setup

import (
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wayout/internal/config"
)

func TestAnswersFrom(t *testing.T) {
	cfg := config.DefaultConfig
	cfg.Monitors.Backend = ""

	a := AnswersFrom(&cfg)
	assert.Equal(t, ConfigAnswers{
		Backend:         "auto",
		PollIntervalMs:  "1000",
		CursorMode:      "embedded",
		SwapChainLength: "3",
	}, a)
}

func TestConfigAnswersApply(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(a *ConfigAnswers)
		wantErr string
	}{
		{name: "defaults", modify: func(a *ConfigAnswers) {}},
		{
			name: "custom values",
			modify: func(a *ConfigAnswers) {
				a.Backend = "sway"
				a.PollIntervalMs = "250"
				a.CursorMode = "metadata"
				a.SwapChainLength = "2"
				a.ForceFullRepaint = true
			},
		},
		{name: "poll interval not a number", modify: func(a *ConfigAnswers) { a.PollIntervalMs = "soon" }, wantErr: "poll interval"},
		{name: "zero swap chain", modify: func(a *ConfigAnswers) { a.SwapChainLength = "0" }, wantErr: "swap_chain_length"},
		{name: "unknown cursor mode", modify: func(a *ConfigAnswers) { a.CursorMode = "sparkly" }, wantErr: "cursor_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)

			base := config.DefaultConfig
			a := AnswersFrom(&base)
			tt.modify(&a)

			err := a.Apply(base)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.False(t, viper.IsSet("monitors.backend"), "nothing is stored on error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, a.Backend, viper.GetString("monitors.backend"))
			assert.Equal(t, a.CursorMode, viper.GetString("screencast.cursor_mode"))
			assert.Equal(t, a.PollIntervalMs, viper.GetString("monitors.poll_interval_ms"))
			assert.Equal(t, a.SwapChainLength, viper.GetString("renderer.swap_chain_length"))
			assert.Equal(t, a.ForceFullRepaint, viper.GetBool("renderer.force_full_repaint"))
		})
	}
}

func TestPositiveInt(t *testing.T) {
	assert.NoError(t, positiveInt("16"))
	assert.Error(t, positiveInt("0"))
	assert.Error(t, positiveInt("-3"))
	assert.Error(t, positiveInt("x"))
}

func TestNewConfigForm(t *testing.T) {
	a := AnswersFrom(&config.DefaultConfig)
	form := NewConfigForm(&a)
	require.NotNil(t, form)
	assert.Equal(t, huh.StateNormal, form.State)
	// building the form keeps the prefilled values
	assert.Equal(t, "auto", a.Backend)
	assert.Equal(t, "3", a.SwapChainLength)
}

package ui

import (
	"strings"
	"testing"
)

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name   string
		active bool
		status string
	}{
		{
			name:   "active monitor",
			active: true,
			status: "DP-1 2560x1440@144.000",
		},
		{
			name:   "disabled monitor",
			active: false,
			status: "HDMI-A-1 disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatStatus(tt.active, tt.status)

			if !strings.Contains(got, tt.status) {
				t.Errorf("FormatStatus() missing status text %q", tt.status)
			}
			if tt.active && !strings.Contains(got, "●") {
				t.Errorf("FormatStatus() active=true should contain filled circle")
			}
			if !tt.active && !strings.Contains(got, "○") {
				t.Errorf("FormatStatus() active=false should contain empty circle")
			}
		})
	}
}

func TestFormatListItem(t *testing.T) {
	tests := []struct {
		name   string
		item   string
		active bool
	}{
		{name: "inactive item", item: "crtc 1", active: false},
		{name: "active item", item: "crtc 2", active: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatListItem(tt.item, tt.active)

			if !strings.Contains(got, "•") {
				t.Errorf("FormatListItem() missing bullet point")
			}
			if !strings.Contains(got, tt.item) {
				t.Errorf("FormatListItem() missing item text %q", tt.item)
			}
		})
	}
}

func TestFormatKeyValue(t *testing.T) {
	got := FormatKeyValue("Scale", 1.5)
	if !strings.Contains(got, "Scale") || !strings.Contains(got, "1.5") {
		t.Errorf("FormatKeyValue() = %q", got)
	}
}

func TestFormatResult(t *testing.T) {
	if got := FormatResult(true, "done"); !strings.Contains(got, IconSuccess) {
		t.Errorf("FormatResult(true) missing success icon: %q", got)
	}
	if got := FormatResult(false, "failed"); !strings.Contains(got, IconError) {
		t.Errorf("FormatResult(false) missing error icon: %q", got)
	}
}

func TestCreateSeparator(t *testing.T) {
	tests := []struct {
		name  string
		width int
		char  string
		want  int
	}{
		{name: "explicit", width: 10, char: "=", want: 10},
		{name: "default width", width: 0, char: "-", want: 50},
		{name: "default char", width: 5, char: "", want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateSeparator(tt.width, tt.char)
			char := tt.char
			if char == "" {
				char = "─"
			}
			if n := strings.Count(got, char); n != tt.want {
				t.Errorf("CreateSeparator() has %d %q, want %d", n, char, tt.want)
			}
		})
	}
}

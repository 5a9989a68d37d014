package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeDriver struct {
	stats    CastStats
	frameErr error
	closeOn  int
	frames   int
	polls    int
}

func (d *fakeDriver) Frame() (CastStats, error) {
	d.frames++
	if d.frameErr != nil {
		return d.stats, d.frameErr
	}
	d.stats.Frames++
	d.stats.Partial++
	return d.stats, nil
}

func (d *fakeDriver) Poll() (CastStats, error) {
	d.polls++
	if d.closeOn > 0 && d.polls >= d.closeOn {
		d.stats.Closed = true
	}
	return d.stats, nil
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestCastModel(t *testing.T) {
	t.Run("paints a frame per tick until the budget is spent", func(t *testing.T) {
		driver := &fakeDriver{}
		model := NewCastModel(driver, "Recording DP-1", time.Millisecond, time.Second, 3)

		for i := 0; i < 2; i++ {
			_, cmd := model.Update(FrameTickMsg{})
			if cmd == nil {
				t.Fatalf("frame %d: expected the next tick to be scheduled", i)
			}
		}
		_, cmd := model.Update(FrameTickMsg{})
		if !isQuit(cmd) {
			t.Error("Should quit once the frame budget is spent")
		}
		if driver.frames != 3 {
			t.Errorf("Expected 3 frames, got %d", driver.frames)
		}
		if got := model.Stats().Frames; got != 3 {
			t.Errorf("Expected stats to report 3 frames, got %d", got)
		}

		// late ticks are ignored
		model.Update(FrameTickMsg{})
		if driver.frames != 3 {
			t.Errorf("Should not paint after quitting, got %d frames", driver.frames)
		}
	})

	t.Run("quits when the stream closes on a poll", func(t *testing.T) {
		driver := &fakeDriver{closeOn: 2}
		model := NewCastModel(driver, "Recording DP-1", time.Millisecond, time.Millisecond, 0)

		_, cmd := model.Update(PollTickMsg{})
		if cmd == nil || isQuit(cmd) {
			t.Fatal("First poll should schedule the next one")
		}
		_, cmd = model.Update(PollTickMsg{})
		if !isQuit(cmd) {
			t.Error("Should quit after the stream closed")
		}
		if !strings.Contains(model.View(), "stream closed") {
			t.Error("View should report the closed stream")
		}
	})

	t.Run("stops on frame errors", func(t *testing.T) {
		boom := errors.New("capture failed")
		model := NewCastModel(&fakeDriver{frameErr: boom}, "Recording DP-1", time.Millisecond, time.Second, 0)

		_, cmd := model.Update(FrameTickMsg{})
		if !isQuit(cmd) {
			t.Error("Should quit on a frame error")
		}
		if !errors.Is(model.Err(), boom) {
			t.Errorf("Expected %v, got %v", boom, model.Err())
		}
		if !strings.Contains(model.View(), "capture failed") {
			t.Error("View should show the error")
		}
	})

	t.Run("quits with q", func(t *testing.T) {
		model := NewCastModel(&fakeDriver{}, "Recording DP-1", time.Millisecond, time.Second, 0)

		_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		if !isQuit(cmd) {
			t.Error("Should quit on q")
		}
		if strings.Contains(model.View(), "q to stop") {
			t.Error("Should not show the quit hint after quitting")
		}
	})

	t.Run("renders counters and progress", func(t *testing.T) {
		driver := &fakeDriver{}
		model := NewCastModel(driver, "Recording DP-1", time.Millisecond, time.Second, 4)
		model.Update(FrameTickMsg{})

		view := model.View()
		for _, want := range []string{"Recording DP-1", "Frames", "Partial", "25%", "q to stop"} {
			if !strings.Contains(view, want) {
				t.Errorf("View should contain %q, got:\n%s", want, view)
			}
		}
	})
}

// Package tui provides the Bubble Tea keystroke recorder.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TanGentleman/keymaster/internal/codec"
	"github.com/TanGentleman/keymaster/internal/model"
)

// StopReason records why recording ended.
type StopReason int

const (
	// Running means the recorder has not stopped yet.
	Running StopReason = iota
	StoppedMaxWords
	StoppedSentinel
	StoppedEscape
	StoppedTimeout
)

func (r StopReason) String() string {
	switch r {
	case StoppedMaxWords:
		return "max words"
	case StoppedSentinel:
		return "stop key"
	case StoppedEscape:
		return "escape"
	case StoppedTimeout:
		return "timeout"
	default:
		return "running"
	}
}

// Options configures a Recorder.
type Options struct {
	// Prompt is the text shown for the user to type. Empty means free typing.
	Prompt string
	// MaxDelay compresses longer delays with model.CompressDelay. Zero disables.
	MaxDelay float64
	// MaxWords stops recording once that many spaces are typed. Zero disables.
	MaxWords int
	// Timeout stops recording after a wall-clock duration. Zero disables.
	Timeout time.Duration
	// Now is the clock used to time keystrokes. Defaults to time.Now.
	Now func() time.Time
}

// Recorder captures a keystroke sequence typed in the terminal.
type Recorder struct {
	codec *codec.Codec
	opts  Options
	now   func() time.Time

	width  int
	height int

	keystrokes model.KeystrokeList
	lastAt     time.Time
	words      int

	timer  timer.Model
	reason StopReason
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewRecorder constructs a recorder that renders with c.
func NewRecorder(c *codec.Codec, opts Options) *Recorder {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	r := &Recorder{
		codec: c,
		opts:  opts,
		now:   now,
	}
	if opts.Timeout > 0 {
		r.timer = timer.NewWithInterval(opts.Timeout, time.Second)
	}
	return r
}

// Init implements tea.Model.
func (r *Recorder) Init() tea.Cmd {
	if r.opts.Timeout > 0 {
		return r.timer.Init()
	}
	return nil
}

// Update implements tea.Model.
func (r *Recorder) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if r.Done() {
		return r, nil
	}
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
		return r, nil
	case timer.TickMsg, timer.StartStopMsg:
		if r.opts.Timeout <= 0 {
			return r, nil
		}
		var cmd tea.Cmd
		r.timer, cmd = r.timer.Update(msg)
		return r, cmd
	case timer.TimeoutMsg:
		if r.opts.Timeout <= 0 || msg.ID != r.timer.ID() {
			return r, nil
		}
		return r.stop(StoppedTimeout)
	case tea.KeyMsg:
		return r.handleKey(msg)
	default:
		return r, nil
	}
}

func (r *Recorder) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return r.stop(StoppedEscape)
	case tea.KeySpace:
		return r.press(model.KeySpace)
	case tea.KeyEnter:
		return r.press(model.KeyEnter)
	case tea.KeyTab:
		return r.press(model.KeyTab)
	case tea.KeyBackspace, tea.KeyDelete:
		return r.press(model.KeyBackspace)
	case tea.KeyRunes:
		for _, ch := range msg.Runes {
			var key string
			switch {
			case string(ch) == model.StopKey:
				key = model.StopKey
			case ch == ' ':
				key = model.KeySpace
			default:
				key = model.Wrap(ch)
			}
			if _, cmd := r.press(key); r.Done() {
				return r, cmd
			}
		}
		return r, nil
	default:
		return r, nil
	}
}

// press records one key and applies the stop conditions.
func (r *Recorder) press(key string) (tea.Model, tea.Cmd) {
	if key == model.KeySpace && r.opts.MaxWords > 0 && r.words+1 >= r.opts.MaxWords {
		r.words++
		return r.stop(StoppedMaxWords)
	}
	at := r.now()
	delay := 0.0
	if !r.lastAt.IsZero() {
		delay = model.CompressDelay(at.Sub(r.lastAt).Seconds(), r.opts.MaxDelay)
	}
	r.lastAt = at
	r.keystrokes.Append(key, delay)
	switch key {
	case model.KeySpace:
		r.words++
	case model.StopKey:
		return r.stop(StoppedSentinel)
	}
	return r, nil
}

func (r *Recorder) stop(reason StopReason) (tea.Model, tea.Cmd) {
	r.reason = reason
	if r.opts.Timeout > 0 && r.timer.Running() {
		return r, tea.Batch(r.timer.Stop(), tea.Quit)
	}
	return r, tea.Quit
}

// Done reports whether recording has stopped.
func (r *Recorder) Done() bool {
	return r.reason != Running
}

// Reason reports why recording stopped.
func (r *Recorder) Reason() StopReason {
	return r.reason
}

// Keystrokes returns the recorded sequence.
func (r *Recorder) Keystrokes() model.KeystrokeList {
	return append(model.KeystrokeList(nil), r.keystrokes...)
}

// Result returns the recorded Log. It reports false when nothing was typed.
func (r *Recorder) Result() (model.Log, bool) {
	if r.keystrokes.Empty() {
		return model.Log{}, false
	}
	ks := r.Keystrokes()
	return model.NewLog(r.codec.Render(ks), ks), true
}

// View implements tea.Model.
func (r *Recorder) View() string {
	typed := []rune(r.codec.Render(r.keystrokes))
	target := []rune(r.opts.Prompt)
	if len(target) == 0 {
		target = typed
	}
	styled := buildStyledRunes(target, typed)
	if r.width == 0 || r.height == 0 {
		return renderStyledRunes(styled) + "\n" + r.renderFooter()
	}
	contentWidth := int(float64(r.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styled, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	if r.height < 3 {
		return lipgloss.Place(r.width, r.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(r.width, r.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(r.width, 1, lipgloss.Center, lipgloss.Center, r.renderFooter())
	return body + "\n" + footerLine
}

func (r *Recorder) renderFooter() string {
	segments := []string{fmt.Sprintf("Keys %d", len(r.keystrokes))}
	if r.opts.MaxWords > 0 {
		segments = append(segments, fmt.Sprintf("Words %d/%d", r.words, r.opts.MaxWords))
	} else {
		segments = append(segments, fmt.Sprintf("Words %d", r.words))
	}
	if r.opts.Timeout > 0 {
		segments = append(segments, "Left "+r.timer.View())
	}
	segments = append(segments, fmt.Sprintf("%s or Esc to stop", model.StopKey))
	return footerStyle.Render(strings.Join(segments, "  "))
}

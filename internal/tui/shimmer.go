package tui

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ShimmerConfig controls the highlight sweep drawn over the running task.
type ShimmerConfig struct {
	Tick         time.Duration // animation step
	Cycle        time.Duration // one full sweep
	Pause        time.Duration // rest between sweeps
	WidthRatio   float64       // highlight width relative to the text
	Enabled      bool
	ReduceMotion bool // static highlight instead of a sweep
}

// DefaultShimmerConfig returns the default sweep. CHUMO_REDUCE_MOTION=1
// turns it into a static highlight.
func DefaultShimmerConfig() ShimmerConfig {
	return ShimmerConfig{
		Tick:         100 * time.Millisecond,
		Cycle:        1800 * time.Millisecond,
		Pause:        500 * time.Millisecond,
		WidthRatio:   0.25,
		Enabled:      true,
		ReduceMotion: os.Getenv("CHUMO_REDUCE_MOTION") == "1",
	}
}

// Shimmer is the sweep state. The position advances on Step so the
// animation is driven by tick messages rather than wall time.
type Shimmer struct {
	pausedAt  time.Time
	config    ShimmerConfig
	center    float64
	trueColor bool
	paused    bool
}

// NewShimmer creates a sweep starting before the first glyph.
func NewShimmer(config ShimmerConfig) *Shimmer {
	return &Shimmer{
		config:    config,
		trueColor: os.Getenv("COLORTERM") == "truecolor",
	}
}

// Animated reports whether Step needs to be called on a tick.
func (s *Shimmer) Animated() bool {
	return s.config.Enabled && !s.config.ReduceMotion
}

// Interval is the tick period.
func (s *Shimmer) Interval() time.Duration {
	return s.config.Tick
}

// Reset restarts the sweep, e.g. after the highlighted row changes.
func (s *Shimmer) Reset() {
	s.center = 0
	s.paused = false
	s.pausedAt = time.Time{}
}

// Step advances the sweep for text of n glyphs at time now.
func (s *Shimmer) Step(n int, now time.Time) {
	if !s.Animated() || n <= 0 {
		return
	}
	span := float64(n) * s.config.WidthRatio
	if s.paused {
		if now.Sub(s.pausedAt) >= s.config.Pause {
			s.paused = false
			s.center = -span
		}
		return
	}

	steps := float64(s.config.Cycle) / float64(s.config.Tick)
	s.center += (float64(n) + 2*span) / steps
	if end := float64(n) + span; s.center >= end {
		s.center = end
		s.paused = true
		s.pausedAt = now
	}
}

// Render draws text with the highlight at the current position.
func (s *Shimmer) Render(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	if !s.Animated() {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Bold(true).Render(text)
	}

	sigma := math.Max(1, s.config.WidthRatio*float64(len(runes))/2)
	var b strings.Builder
	for i, r := range runes {
		dx := float64(i) - s.center
		w := math.Exp(-(dx * dx) / (2 * sigma * sigma))
		b.WriteString(lipgloss.NewStyle().Foreground(s.color(w)).Render(string(r)))
	}
	return b.String()
}

// color blends the secondary text color toward the highlight by weight w.
func (s *Shimmer) color(w float64) lipgloss.TerminalColor {
	if !s.trueColor {
		if w > 0.5 {
			return lipgloss.Color("147")
		}
		return lipgloss.Color("250")
	}
	blend := func(base, hi int) int {
		return int(float64(base)*(1-w) + float64(hi)*w)
	}
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X",
		blend(0xB1, 0xEA), blend(0xB8, 0xE6), blend(0xC7, 0xFF)))
}

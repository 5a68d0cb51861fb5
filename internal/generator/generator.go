// Package generator builds synthetic keystroke sequences from text.
package generator

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
	"unicode"

	"github.com/TanGentleman/keymaster/internal/codec"
	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/logging"
	"github.com/TanGentleman/keymaster/internal/model"
)

// ErrBadSpeed is returned for a speed multiplier that is not positive.
var ErrBadSpeed = errors.New("speed multiplier must be > 0")

// Params controls timing and character handling.
type Params struct {
	// Mean and StdDev describe the per-key delay distribution in seconds.
	Mean   float64
	StdDev float64
	// MinDelay is the soft floor for sampled delays.
	MinDelay float64
	// MaxWords stops generation at this many words. Zero means no limit.
	MaxWords      int
	AllowNewlines bool
	AllowUnicode  bool
}

// DefaultParams returns typical human typing timing.
func DefaultParams() Params {
	return Params{
		Mean:          0.12,
		StdDev:        0.05,
		MinDelay:      0.03,
		AllowNewlines: true,
	}
}

// Validate checks params for contract violations.
func (p Params) Validate() error {
	if p.Mean < 0 || p.StdDev < 0 || p.MinDelay < 0 {
		return fmt.Errorf("timing params must be >= 0 (mean=%v stddev=%v min=%v)", p.Mean, p.StdDev, p.MinDelay)
	}
	if p.MaxWords < 0 {
		return fmt.Errorf("max words must be >= 0, got %d", p.MaxWords)
	}
	return nil
}

// Generator produces synthetic keystrokes. It is not safe for concurrent use.
type Generator struct {
	rnd    *rand.Rand
	table  keys.Table
	params Params
	codec  *codec.Codec
	logger logging.Logger
}

// New returns a Generator seeded with the current time.
func New(table keys.Table, params Params, logger logging.Logger) (*Generator, error) {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()), table, params, logger)
}

// NewWithSource returns a Generator drawing from src.
func NewWithSource(src rand.Source, table keys.Table, params Params, logger logging.Logger) (*Generator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger)
	return &Generator{
		rnd:    rand.New(src),
		table:  table,
		params: params,
		codec:  codec.New(table, logger),
		logger: logger,
	}, nil
}

// Generate turns input into keystrokes typed at speed times the configured pace.
//
// A shift press is inserted before a character that needs shift unless the
// previous character also needed it, so a run of capitals shares one press.
// Generation ends after the stop sentinel or when MaxWords is reached.
func (g *Generator) Generate(input string, speed float64) (model.KeystrokeList, error) {
	if !(speed > 0) || math.IsInf(speed, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrBadSpeed, speed)
	}
	var out model.KeystrokeList
	prevShifted := false
	words := 0
	for _, r := range input {
		if string(r) == model.StopKey {
			out.Append(model.StopKey, g.delay(speed))
			break
		}
		key, ok := g.keyFor(r)
		if !ok {
			continue
		}
		if key == model.KeySpace {
			words++
			if g.params.MaxWords > 0 && words >= g.params.MaxWords {
				break
			}
		}
		ch, isChar := model.Unwrap(key)
		shifted := isChar && g.table.NeedsShift(ch)
		if shifted && !prevShifted {
			out.Append(model.KeyShift, g.delay(speed))
		}
		prevShifted = shifted
		out.Append(key, g.delay(speed))
	}
	if len(out) > 0 {
		out[0].Time = nil
	}
	return out, nil
}

// GenerateLog wraps Generate into a Log whose string is the rendered text.
func (g *Generator) GenerateLog(input string, speed float64) (model.Log, error) {
	keystrokes, err := g.Generate(input, speed)
	if err != nil {
		return model.Log{}, err
	}
	return model.NewLog(g.codec.Render(keystrokes), keystrokes), nil
}

// delay samples one inter-key delay. Samples under MinDelay are rescaled to
// MinDelay plus a tenth of the sample rather than clamped.
func (g *Generator) delay(speed float64) float64 {
	mean := g.params.Mean / speed
	std := g.params.StdDev / speed
	sample := g.rnd.NormFloat64()*std + mean
	if sample < g.params.MinDelay {
		sample = g.params.MinDelay + sample/10
	}
	return math.Max(sample, 0)
}

func (g *Generator) keyFor(r rune) (string, bool) {
	if r == '\n' && !g.params.AllowNewlines {
		r = ' '
	}
	if key, ok := model.WhitespaceKey(r); ok {
		return key, true
	}
	switch {
	case !unicode.IsPrint(r):
		g.logger.Debug("msg", "Dropping unprintable character", "rune", fmt.Sprintf("%U", r))
		return "", false
	case !keys.Typeable(r) && !g.params.AllowUnicode:
		g.logger.Warn("msg", "Dropping character outside keyboard set", "char", string(r))
		return "", false
	case g.table.Banned(r):
		g.logger.Debug("msg", "Dropping banned character", "char", string(r))
		return "", false
	}
	return model.Wrap(r), true
}

// Package stats contains statistics calculations and reporting.
//
// Every statistic that can be undefined returns (value, ok); ok is false when
// there are no samples (or fewer than two for the standard deviation). A zero
// value is never used to stand in for missing data.
package stats

import (
	"math"
	"unicode/utf8"

	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/model"
)

// DefaultCutoff is the delay in seconds above which a sample is an outlier.
const DefaultCutoff = 0.8

// Options controls sample selection.
type Options struct {
	ExcludeOutliers bool
	// Cutoff overrides DefaultCutoff when positive. Delays strictly greater
	// than the cutoff are outliers.
	Cutoff float64
}

// DefaultOptions excludes outliers at DefaultCutoff.
func DefaultOptions() Options {
	return Options{ExcludeOutliers: true, Cutoff: DefaultCutoff}
}

func (o Options) cutoff() float64 {
	if o.Cutoff > 0 {
		return o.Cutoff
	}
	return DefaultCutoff
}

func (o Options) keep(t *float64) bool {
	if t == nil {
		return false
	}
	return !o.ExcludeOutliers || *t <= o.cutoff()
}

// OnlyTimes returns the delays of keystrokes in order, without the leading
// nil time and, when excluding outliers, without delays above the cutoff.
func OnlyTimes(keystrokes model.KeystrokeList, opts Options) []float64 {
	out := make([]float64, 0, len(keystrokes))
	for _, k := range keystrokes {
		if opts.keep(k.Time) {
			out = append(out, *k.Time)
		}
	}
	return out
}

// WPM computes words per minute with five characters per word.
func WPM(charCount int, seconds float64) (float64, bool) {
	if charCount <= 0 || seconds <= 0 {
		return 0, false
	}
	return (float64(charCount) / seconds * 60) / 5, true
}

// LogWPM computes the typing speed of one log.
func LogWPM(log model.Log, opts Options) (float64, bool) {
	return WPM(utf8.RuneCountInString(log.String), sum(OnlyTimes(log.Keystrokes, opts)))
}

// LogsWPM computes the typing speed over all logs together.
func LogsWPM(logs []model.Log, opts Options) (float64, bool) {
	chars := 0
	seconds := 0.0
	for _, log := range logs {
		chars += utf8.RuneCountInString(log.String)
		seconds += sum(OnlyTimes(log.Keystrokes, opts))
	}
	return WPM(chars, seconds)
}

// HighestTime returns the longest delay.
func HighestTime(keystrokes model.KeystrokeList, opts Options) (float64, bool) {
	return Highest(OnlyTimes(keystrokes, opts))
}

// AverageDelay returns the arithmetic mean delay.
func AverageDelay(keystrokes model.KeystrokeList, opts Options) (float64, bool) {
	return Mean(OnlyTimes(keystrokes, opts))
}

// StdDeviation returns the sample standard deviation of the delays.
func StdDeviation(keystrokes model.KeystrokeList, opts Options) (float64, bool) {
	return SampleStdDev(OnlyTimes(keystrokes, opts))
}

// Highest returns the largest value.
func Highest(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best, true
}

// Mean returns the arithmetic mean.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return sum(values) / float64(len(values)), true
}

// SampleStdDev returns the sample (n-1) standard deviation. It needs at least
// two values.
func SampleStdDev(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	mean, _ := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1)), true
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

type latency struct {
	sum   float64
	count int
}

// CharTimes accumulates per-key delays keyed by LegalKey label.
type CharTimes struct {
	oracle *keys.Oracle
	opts   Options
	data   map[string]*latency
}

// NewCharTimes returns an empty accumulator.
func NewCharTimes(oracle *keys.Oracle, opts Options) *CharTimes {
	return &CharTimes{oracle: oracle, opts: opts, data: map[string]*latency{}}
}

// Add attributes each kept delay to the key typed after it. Keys without a
// LegalKey projection are skipped.
func (c *CharTimes) Add(keystrokes model.KeystrokeList) {
	for _, k := range keystrokes {
		if !c.opts.keep(k.Time) {
			continue
		}
		legal, err := c.oracle.Legal(k)
		if err != nil {
			continue
		}
		label := legal.Label()
		entry, ok := c.data[label]
		if !ok {
			entry = &latency{}
			c.data[label] = entry
		}
		entry.sum += *k.Time
		entry.count++
	}
}

// Means returns the mean delay per key label.
func (c *CharTimes) Means() map[string]float64 {
	out := make(map[string]float64, len(c.data))
	for label, entry := range c.data {
		out[label] = entry.sum / float64(entry.count)
	}
	return out
}

// MapCharsToTimes maps each key label in keystrokes to its mean delay.
func MapCharsToTimes(oracle *keys.Oracle, keystrokes model.KeystrokeList, opts Options) map[string]float64 {
	acc := NewCharTimes(oracle, opts)
	acc.Add(keystrokes)
	return acc.Means()
}

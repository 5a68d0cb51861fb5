package keys

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/TanGentleman/keymaster/internal/logging"
	"github.com/TanGentleman/keymaster/internal/model"
)

// ErrNotLegal is returned when a keystroke has no LegalKey projection.
var ErrNotLegal = errors.New("keystroke is not a legal key")

// Oracle decides whether key strings are valid.
type Oracle struct {
	table  Table
	logger logging.Logger
}

// NewOracle returns an Oracle using the banned keys of table.
func NewOracle(table Table, logger logging.Logger) *Oracle {
	return &Oracle{table: table, logger: logging.OrNop(logger)}
}

// Valid reports whether key is a special token, the stop sentinel, or a
// wrapped printable character that is not banned.
func (o *Oracle) Valid(key string) bool {
	if key == model.StopKey || model.IsSpecial(key) {
		return true
	}
	r, ok := model.Unwrap(key)
	if !ok {
		o.logger.Debug("msg", "Unrecognized key", "key", key)
		return false
	}
	if !unicode.IsPrint(r) {
		o.logger.Debug("msg", "Unprintable key", "key", key)
		return false
	}
	if o.table.Banned(r) {
		o.logger.Debug("msg", "Banned key", "key", key)
		return false
	}
	return true
}

// Unicode reports whether key wraps a character outside the ASCII keyboard.
func (o *Oracle) Unicode(key string) bool {
	r, ok := model.Unwrap(key)
	return ok && !Typeable(r)
}

// Legal projects a keystroke onto its LegalKey.
func (o *Oracle) Legal(k model.Keystroke) (model.LegalKey, error) {
	if !o.Valid(k.Key) {
		return model.LegalKey{}, fmt.Errorf("%w: invalid key %q", ErrNotLegal, k.Key)
	}
	if o.Unicode(k.Key) {
		return model.LegalKey{}, fmt.Errorf("%w: unicode key %q", ErrNotLegal, k.Key)
	}
	if r, ok := model.Unwrap(k.Key); ok {
		return model.LegalKey{Char: string(r)}, nil
	}
	return model.LegalKey{Char: k.Key, IsSpecial: true}, nil
}

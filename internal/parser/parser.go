// Package parser decodes pasted raw text keylogs into structured logs.
//
// A raw log is free text with control codes such as "[bksp]" and shift
// regions such as "[shift]ab[/shift]". Noise codes are pruned, the text is
// split into blank-line separated chunks, and each chunk becomes one Log whose
// string is the rendering of its decoded keystrokes.
package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/TanGentleman/keymaster/internal/codec"
	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/logging"
	"github.com/TanGentleman/keymaster/internal/model"
)

type codeKind int

const (
	kindShiftOpen codeKind = iota
	kindShiftClose
	kindSpecial
)

type codeEntry struct {
	code string
	kind codeKind
	// key is the special key token for kindSpecial entries.
	key string
	// pair is the opening marker a close belongs to, or the closing marker
	// an open expects.
	pair string
}

// Parser decodes raw text logs. It holds no state between calls.
type Parser struct {
	table  keys.Table
	codec  *codec.Codec
	logger logging.Logger
	// groups are matched in order; within a group the longest code wins.
	groups [][]codeEntry
}

// New builds a Parser for table. It fails only when the table is malformed.
func New(table keys.Table, logger logging.Logger) (*Parser, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid code table: %w", err)
	}
	logger = logging.OrNop(logger)
	shift := make([]codeEntry, 0, 2*len(table.ShiftMarkers))
	for _, m := range table.ShiftMarkers {
		shift = append(shift,
			codeEntry{code: m.Open, kind: kindShiftOpen, pair: m.Close},
			codeEntry{code: m.Close, kind: kindShiftClose, pair: m.Open})
	}
	special := make([]codeEntry, 0, len(table.SpecialCodes))
	for _, c := range table.SpecialCodes {
		special = append(special, codeEntry{code: c.Code, kind: kindSpecial, key: c.Key})
	}
	return &Parser{
		table:  table,
		codec:  codec.New(table, logger),
		logger: logger,
		groups: [][]codeEntry{shift, special},
	}, nil
}

// Decode turns a raw text log into Logs, one per non-empty chunk.
func (p *Parser) Decode(raw string) []model.Log {
	var logs []model.Log
	for _, chunk := range p.Chunks(p.Prune(raw)) {
		keystrokes := p.ConvertChunk(chunk)
		if keystrokes.Empty() {
			p.logger.Debug("msg", "Discarding chunk without keystrokes", "chunk", chunk)
			continue
		}
		logs = append(logs, model.NewLog(p.codec.Render(keystrokes), keystrokes))
	}
	return logs
}

// Prune removes every banned code from raw.
func (p *Parser) Prune(raw string) string {
	for _, code := range p.table.BannedCodes {
		raw = strings.ReplaceAll(raw, code, "")
	}
	return raw
}

// Chunks splits text on the chunk delimiter and drops header chunks and
// chunks that are empty after trimming line breaks.
func (p *Parser) Chunks(text string) []string {
	parts := strings.Split(text, p.table.ChunkDelimiter)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(part, "\r\n")
		if part == "" {
			continue
		}
		if p.table.HeaderPrefix != "" && strings.HasPrefix(part, p.table.HeaderPrefix) {
			p.logger.Debug("msg", "Skipping header chunk", "chunk", part)
			continue
		}
		out = append(out, part)
	}
	return out
}

// stepResult is what a single decoding step produced.
type stepResult struct {
	keys     []string
	consumed int
	// open is set when the step entered a shift region.
	open *codeEntry
	// close is set when the step left a shift region.
	close *codeEntry
}

// ConvertChunk decodes one chunk into keystrokes. Steps are applied
// left to right; each consumes at least one byte. Open shift regions are
// tracked on a stack so nested regions close in order. A region left open at
// the end of the chunk closes implicitly.
func (p *Parser) ConvertChunk(chunk string) model.KeystrokeList {
	var out model.KeystrokeList
	var regions []string
	for i := 0; i < len(chunk); {
		res := p.step(chunk[i:], len(regions) > 0)
		switch {
		case res.open != nil:
			regions = append(regions, res.open.pair)
		case res.close != nil:
			regions = p.closeRegion(regions, res.close)
		}
		for _, key := range res.keys {
			out.Append(key, p.table.PlaceholderDelay)
		}
		i += res.consumed
	}
	if len(regions) > 0 {
		p.logger.Debug("msg", "Unclosed shift region at end of chunk", "open", len(regions))
	}
	return out
}

func (p *Parser) closeRegion(regions []string, marker *codeEntry) []string {
	for j := len(regions) - 1; j >= 0; j-- {
		if regions[j] == marker.code {
			return regions[:j]
		}
	}
	p.logger.Debug("msg", "Ignoring shift close outside its region", "code", marker.code)
	return regions
}

// step decodes the code or character at the start of text.
func (p *Parser) step(text string, shifted bool) stepResult {
	r, size := utf8.DecodeRuneInString(text)
	if r == p.table.BeginMarker {
		if entry, ok := p.match(text); ok {
			return p.codeStep(entry)
		}
		p.logger.Debug("msg", "Unrecognized control code, using literal", "text", truncate(text, 16))
	}
	return p.charStep(r, size, shifted)
}

func (p *Parser) codeStep(entry codeEntry) stepResult {
	res := stepResult{consumed: len(entry.code)}
	switch entry.kind {
	case kindShiftOpen:
		res.open = &entry
		res.keys = []string{model.KeyShift}
	case kindShiftClose:
		res.close = &entry
	case kindSpecial:
		res.keys = []string{entry.key}
	}
	return res
}

func (p *Parser) charStep(r rune, size int, shifted bool) stepResult {
	res := stepResult{consumed: size}
	if key, ok := model.WhitespaceKey(r); ok {
		res.keys = []string{key}
		return res
	}
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		p.logger.Debug("msg", "Dropping unprintable character", "rune", fmt.Sprintf("%U", r))
		return res
	}
	if shifted {
		r = p.table.Shift(r)
	}
	res.keys = []string{model.Wrap(r)}
	return res
}

// match finds the registered code at the start of text. Groups are tried in
// priority order and the first group with a match wins; inside a group the
// longest matching code is chosen.
func (p *Parser) match(text string) (codeEntry, bool) {
	for _, group := range p.groups {
		best := -1
		for j, entry := range group {
			if !strings.HasPrefix(text, entry.code) {
				continue
			}
			if best < 0 || len(entry.code) > len(group[best].code) {
				best = j
			}
		}
		if best >= 0 {
			return group[best], true
		}
	}
	return codeEntry{}, false
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

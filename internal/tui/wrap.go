package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes colors target against the text rendered so far. Typed
// runes past the end of target are shown as mistakes.
func buildStyledRunes(target, typed []rune) []styledRune {
	cursor := len(typed)
	word := currentWord(target, cursor)

	out := make([]styledRune, 0, len(target))
	for i, want := range target {
		shown := want
		style := pendingStyle
		switch {
		case i < len(typed) && typed[i] == want:
			style = correctStyle
		case i < len(typed):
			style = incorrectStyle
			if want == ' ' {
				shown = '•'
			}
		case i == cursor:
			style = cursorStyle
		case i >= word.start && i < word.end:
			style = currentWordStyle
		}
		out = append(out, newStyledRune(shown, style.Render(displayRune(shown)), want == ' '))
	}
	for _, extra := range typed[min(len(typed), len(target)):] {
		out = append(out, newStyledRune(extra, incorrectStyle.Render(displayRune(extra)), extra == ' '))
	}
	return out
}

func newStyledRune(r rune, s string, isSpace bool) styledRune {
	return styledRune{s: s, width: runewidth.RuneWidth(r), isSpace: isSpace}
}

// displayRune keeps control whitespace from breaking the layout.
func displayRune(r rune) string {
	switch r {
	case '\n':
		return "⏎"
	case '\t':
		return "→"
	}
	return string(r)
}

type wordRange struct {
	start int
	end   int
}

// currentWord returns the word of target holding the cursor, or the next word
// when the cursor sits on a space.
func currentWord(target []rune, cursor int) wordRange {
	start := min(cursor, len(target))
	for start < len(target) && target[start] == ' ' {
		start++
	}
	for start > 0 && target[start-1] != ' ' {
		start--
	}
	end := start
	for end < len(target) && target[end] != ' ' {
		end++
	}
	return wordRange{start: start, end: end}
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpace := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpace]))
				line = append([]styledRune{}, line[lastSpace+1:]...)
			} else {
				out.WriteString(renderStyledRunes(line))
				line = line[:0]
			}
			out.WriteRune('\n')
			lineWidth, lastSpace = measure(line)
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

// measure returns the width of line and the index of its last space, or -1.
func measure(line []styledRune) (int, int) {
	width, lastSpace := 0, -1
	for i, item := range line {
		width += item.width
		if item.isSpace {
			lastSpace = i
		}
	}
	return width, lastSpace
}

package siege

import "strings"

// Dialogue configuration packs several scripts into one string:
// scripts are separated by '|', lines within a script by ';'.
// Lines may carry {LEADER}, {CITY} and {CITYNAME} placeholders.

// SplitScripts parses a multi-script string. Empty scripts and empty
// lines are dropped.
func SplitScripts(raw string) [][]string {
	var scripts [][]string
	for _, chunk := range strings.Split(raw, "|") {
		lines := SplitLines(chunk)
		if len(lines) > 0 {
			scripts = append(scripts, lines)
		}
	}
	return scripts
}

// SplitLines parses a ';'-separated line pool, dropping empties.
func SplitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, ";") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ExpandPlaceholders substitutes {NAME} markers from vars. Markers
// without a binding stay literal so a config typo is visible in game
// instead of silently vanishing.
func ExpandPlaceholders(line string, vars map[string]string) string {
	for name, value := range vars {
		line = strings.ReplaceAll(line, "{"+name+"}", value)
	}
	return line
}

// Script is a sequence of narrative lines played front to back.
type Script struct {
	lines  []string
	cursor int
}

// NewScript builds a script from already-expanded lines.
func NewScript(lines []string) *Script {
	return &Script{lines: lines}
}

// Next returns the next unplayed line. ok is false once the script is
// exhausted.
func (s *Script) Next() (line string, ok bool) {
	if s == nil || s.cursor >= len(s.lines) {
		return "", false
	}
	line = s.lines[s.cursor]
	s.cursor++
	return line, true
}

// Remaining returns how many lines are still unplayed.
func (s *Script) Remaining() int {
	if s == nil {
		return 0
	}
	return len(s.lines) - s.cursor
}

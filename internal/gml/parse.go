package gml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/netevo/internal/dynamo"
)

type kind int

const (
	kindInt kind = iota
	kindFloat
	kindString
	kindList
)

type value struct {
	kind kind
	i    int64
	f    float64
	s    string
	list []pair
}

type pair struct {
	key string
	val value
}

// number returns the numeric value of v and whether it is numeric.
func (v value) number() (float64, bool) {
	switch v.kind {
	case kindInt:
		return float64(v.i), true
	case kindFloat:
		return v.f, true
	}
	return 0, false
}

// lookup returns the first value stored under key.
func lookup(list []pair, key string) (value, bool) {
	for _, p := range list {
		if p.key == key {
			return p.val, true
		}
	}
	return value{}, false
}

type scanner struct {
	src  string
	pos  int
	line int
}

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", dynamo.ErrInvalidFile, s.line, fmt.Sprintf(format, args...))
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\n':
			s.line++
			s.pos++
		case c == ' ' || c == '\t' || c == '\r':
			s.pos++
		case c == '#':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
		default:
			return
		}
	}
}

func (s *scanner) word() string {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '[' || c == ']' || c == '"' {
			break
		}
		s.pos++
	}
	return s.src[start:s.pos]
}

func isKey(w string) bool {
	if w == "" {
		return false
	}
	for i, c := range w {
		letter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !letter && (i == 0 || c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// parseList reads key/value pairs until EOF (nested == false) or a closing
// bracket (nested == true).
func (s *scanner) parseList(nested bool) ([]pair, error) {
	var out []pair
	for {
		s.skipSpace()
		if s.pos >= len(s.src) {
			if nested {
				return nil, s.errorf("unterminated list")
			}
			return out, nil
		}
		if s.src[s.pos] == ']' {
			if !nested {
				return nil, s.errorf("unexpected ']'")
			}
			s.pos++
			return out, nil
		}
		key := s.word()
		if !isKey(key) {
			return nil, s.errorf("invalid key %q", key)
		}
		val, err := s.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, pair{key: key, val: val})
	}
}

func (s *scanner) parseValue() (value, error) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return value{}, s.errorf("missing value")
	}
	switch s.src[s.pos] {
	case '[':
		s.pos++
		list, err := s.parseList(true)
		if err != nil {
			return value{}, err
		}
		return value{kind: kindList, list: list}, nil
	case '"':
		end := strings.IndexByte(s.src[s.pos+1:], '"')
		if end < 0 {
			return value{}, s.errorf("unterminated string")
		}
		raw := s.src[s.pos+1 : s.pos+1+end]
		s.line += strings.Count(raw, "\n")
		s.pos += end + 2
		return value{kind: kindString, s: unescape(raw)}, nil
	case ']':
		return value{}, s.errorf("missing value before ']'")
	}
	w := s.word()
	if i, err := strconv.ParseInt(w, 10, 64); err == nil {
		return value{kind: kindInt, i: i}, nil
	}
	if f, err := strconv.ParseFloat(w, 64); err == nil {
		return value{kind: kindFloat, f: f}, nil
	}
	return value{}, s.errorf("invalid value %q", w)
}

func parse(src string) ([]pair, error) {
	s := &scanner{src: src, line: 1}
	return s.parseList(false)
}

var (
	escaper   = strings.NewReplacer("&", "&amp;", `"`, "&quot;")
	unescaper = strings.NewReplacer("&quot;", `"`, "&amp;", "&")
)

func escape(s string) string   { return escaper.Replace(s) }
func unescape(s string) string { return unescaper.Replace(s) }

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ",")
}

func splitFloats(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

package ingest

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
)

// ParseSQL extracts rows from INSERT statements of a SQL dump. Column names come from the first
// INSERT that lists them; every VALUES tuple becomes a row.
func ParseSQL(r io.Reader) (dataset.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return dataset.Table{}, err
	}

	var t dataset.Table
	for _, stmt := range splitStatements(string(data)) {
		cols, tuples, ok, err := parseInsert(stmt)
		if err != nil {
			return dataset.Table{}, err
		}
		if !ok {
			continue
		}
		if t.Columns == nil && len(cols) > 0 {
			t.Columns = cols
		}
		t.Rows = append(t.Rows, tuples...)
	}

	if len(t.Rows) == 0 {
		return dataset.Table{}, errors.New("no valid INSERT statements found in SQL file")
	}
	if len(t.Columns) == 0 {
		return dataset.Table{}, errors.New("could not extract column names from SQL file")
	}
	return t, nil
}

// splitStatements splits on semicolons outside quotes and drops -- and /* */ comments.
func splitStatements(src string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if quote != 0 {
			cur.WriteRune(c)
			if c == quote {
				if i+1 < len(runes) && runes[i+1] == quote {
					cur.WriteRune(runes[i+1])
					i++
					continue
				}
				quote = 0
			} else if c == '\\' && i+1 < len(runes) {
				cur.WriteRune(runes[i+1])
				i++
			}
			continue
		}

		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			cur.WriteRune(c)
		case c == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			cur.WriteRune('\n')
		case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i++
			cur.WriteRune(' ')
		case c == ';':
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

type sqlLexer struct {
	src []rune
	pos int
}

func (l *sqlLexer) skipSpace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		l.pos++
	}
}

func (l *sqlLexer) peek() rune {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *sqlLexer) expect(c rune) error {
	if l.peek() != c {
		return fmt.Errorf("expected %q at offset %d", c, l.pos)
	}
	l.pos++
	return nil
}

// keyword consumes word if it is next, case-insensitively.
func (l *sqlLexer) keyword(word string) bool {
	l.skipSpace()
	end := l.pos + len(word)
	if end > len(l.src) || !strings.EqualFold(string(l.src[l.pos:end]), word) {
		return false
	}
	if end < len(l.src) && isIdentRune(l.src[end]) {
		return false
	}
	l.pos = end
	return true
}

// identifier reads a bare, quoted or dotted name and returns its last part.
func (l *sqlLexer) identifier() (string, error) {
	var name string
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			return "", errors.New("unexpected end of statement")
		}
		switch c := l.src[l.pos]; c {
		case '"', '`', '[':
			closer := c
			if c == '[' {
				closer = ']'
			}
			l.pos++
			start := l.pos
			for l.pos < len(l.src) && l.src[l.pos] != closer {
				l.pos++
			}
			name = string(l.src[start:l.pos])
			l.pos++
		default:
			start := l.pos
			for l.pos < len(l.src) && isIdentRune(l.src[l.pos]) {
				l.pos++
			}
			if start == l.pos {
				return "", fmt.Errorf("expected identifier at offset %d", start)
			}
			name = string(l.src[start:l.pos])
		}
		if l.pos < len(l.src) && l.src[l.pos] == '.' {
			l.pos++
			continue
		}
		return name, nil
	}
}

// literal reads a quoted string, number, NULL or bare word.
func (l *sqlLexer) literal() (string, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return "", errors.New("unexpected end of VALUES")
	}
	c := l.src[l.pos]
	if c == '\'' || c == '"' {
		l.pos++
		var b strings.Builder
		for l.pos < len(l.src) {
			r := l.src[l.pos]
			if r == '\\' && l.pos+1 < len(l.src) {
				b.WriteRune(l.src[l.pos+1])
				l.pos += 2
				continue
			}
			if r == c {
				if l.pos+1 < len(l.src) && l.src[l.pos+1] == c {
					b.WriteRune(c)
					l.pos += 2
					continue
				}
				l.pos++
				return b.String(), nil
			}
			b.WriteRune(r)
			l.pos++
		}
		return "", errors.New("unterminated string literal")
	}

	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != ',' && l.src[l.pos] != ')' {
		l.pos++
	}
	v := strings.TrimSpace(string(l.src[start:l.pos]))
	if strings.EqualFold(v, "null") {
		return "", nil
	}
	return v, nil
}

// parseInsert returns ok=false for statements that are not INSERTs.
func parseInsert(stmt string) (cols []string, rows [][]string, ok bool, err error) {
	l := &sqlLexer{src: []rune(stmt)}
	if !l.keyword("INSERT") {
		return nil, nil, false, nil
	}
	l.keyword("INTO")
	if _, err := l.identifier(); err != nil {
		return nil, nil, true, fmt.Errorf("INSERT table name: %w", err)
	}

	if l.peek() == '(' {
		l.pos++
		for {
			name, err := l.identifier()
			if err != nil {
				return nil, nil, true, fmt.Errorf("INSERT column list: %w", err)
			}
			cols = append(cols, name)
			if l.peek() == ',' {
				l.pos++
				continue
			}
			if err := l.expect(')'); err != nil {
				return nil, nil, true, err
			}
			break
		}
	}

	if !l.keyword("VALUES") {
		return nil, nil, true, errors.New("INSERT without VALUES is not supported")
	}

	for {
		if err := l.expect('('); err != nil {
			return nil, nil, true, err
		}
		var row []string
		for {
			v, err := l.literal()
			if err != nil {
				return nil, nil, true, err
			}
			row = append(row, v)
			if l.peek() == ',' {
				l.pos++
				continue
			}
			if err := l.expect(')'); err != nil {
				return nil, nil, true, err
			}
			break
		}
		rows = append(rows, row)
		if l.peek() != ',' {
			break
		}
		l.pos++
	}

	return cols, rows, true, nil
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

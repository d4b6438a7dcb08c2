// Package scanner turns UTF-8 source text into a token stream plus a
// parallel per-line source snapshot used for diagnostics.
package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lone-wolf-akela/foxlox/internal/token"
)

// Scanner consumes a source string and produces tokens one at a time.
type Scanner struct {
	input        string
	position     int
	readPosition int
	ch           rune
	line         int

	lineStart int      // byte offset where the current line began
	lines     []string // completed line snapshots, 1-indexed (lines[0] unused)
}

// New creates a Scanner over input.
func New(input string) *Scanner {
	s := &Scanner{input: input, line: 1, lines: []string{""}}
	s.readChar()
	return s
}

func (s *Scanner) readChar() {
	if s.readPosition >= len(s.input) {
		s.ch = 0
		s.position = s.readPosition
		s.readPosition++
		return
	}
	r, w := utf8.DecodeRuneInString(s.input[s.readPosition:])
	s.ch = r
	s.position = s.readPosition
	s.readPosition += w
}

func (s *Scanner) peekChar() rune {
	if s.readPosition >= len(s.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.input[s.readPosition:])
	return r
}

// snapshotLine records the text since lineStart as the completed line
// and advances the line counter. Called whenever a '\n' is consumed.
func (s *Scanner) snapshotLine(uptoExclusive int) {
	s.lines = append(s.lines, s.input[s.lineStart:uptoExclusive])
	s.line++
	s.lineStart = uptoExclusive + 1
}

// Lines returns the per-line source snapshot gathered so far, flushing
// a final partial line (one without a trailing newline) if present.
// §9 resolves the scanner's trailing-newline ambiguity this way: every
// complete line gets one record, and a file lacking a final newline
// still gets its last line recorded once, here.
func (s *Scanner) Lines() []string {
	if s.lineStart < len(s.input) {
		rest := s.input[s.lineStart:]
		out := make([]string, len(s.lines)+1)
		copy(out, s.lines)
		out[len(s.lines)] = rest
		return out
	}
	return s.lines
}

func (s *Scanner) skipWhitespace() {
	for {
		switch s.ch {
		case ' ', '\t', '\r':
			s.readChar()
		case '#':
			for s.ch != '\n' && s.ch != 0 {
				s.readChar()
			}
		default:
			return
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Next scans and returns the next token. After EOF is returned once,
// further calls keep returning EOF.
func (s *Scanner) Next() token.Token {
	s.skipWhitespace()
	line := s.line

	switch {
	case s.ch == 0:
		return token.New(token.EOF, "", line)
	case s.ch == '\n':
		s.readChar()
		s.snapshotLine(s.position - 1)
		return s.Next()
	case isIdentStart(s.ch):
		return s.scanIdent(line)
	case unicode.IsDigit(s.ch):
		return s.scanNumber(line)
	case s.ch == '"':
		return s.scanString(line)
	default:
		return s.scanPunct(line)
	}
}

func (s *Scanner) scanIdent(line int) token.Token {
	start := s.position
	for isIdentPart(s.ch) {
		s.readChar()
	}
	lexeme := s.input[start:s.position]
	if kind, ok := token.Keywords[lexeme]; ok {
		return token.New(kind, lexeme, line)
	}
	return token.New(token.IDENT, lexeme, line)
}

func (s *Scanner) scanNumber(line int) token.Token {
	start := s.position
	for unicode.IsDigit(s.ch) {
		s.readChar()
	}
	isFloat := false
	if s.ch == '.' {
		if !unicode.IsDigit(s.peekChar()) {
			lexeme := s.input[start:s.position]
			return s.errorTok(line, fmt.Sprintf("malformed number literal %q: trailing '.'", lexeme))
		}
		isFloat = true
		s.readChar() // consume '.'
		for unicode.IsDigit(s.ch) {
			s.readChar()
		}
	}
	lexeme := s.input[start:s.position]
	tok := token.New(token.INT, lexeme, line)
	if isFloat {
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return s.errorTok(line, fmt.Sprintf("malformed number literal %q", lexeme))
		}
		tok.Kind = token.FLOAT
		tok.Literal.Float = f
		return tok
	}
	n, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return s.errorTok(line, fmt.Sprintf("malformed number literal %q", lexeme))
	}
	tok.Literal.Int = n
	return tok
}

func (s *Scanner) scanString(line int) token.Token {
	s.readChar() // consume opening quote
	var b strings.Builder
	for s.ch != '"' {
		if s.ch == 0 {
			return s.errorTok(line, "unterminated string")
		}
		if s.ch == '\\' {
			s.readChar()
			r, ok := s.scanEscape()
			if !ok {
				return s.errorTok(line, "invalid escape sequence")
			}
			b.WriteRune(r)
			continue
		}
		if s.ch == '\n' {
			s.snapshotLine(s.position)
		}
		b.WriteRune(s.ch)
		s.readChar()
	}
	s.readChar() // consume closing quote
	tok := token.New(token.STRING, b.String(), line)
	tok.Literal.String = b.String()
	return tok
}

func (s *Scanner) scanEscape() (rune, bool) {
	switch s.ch {
	case '\'':
		s.readChar()
		return '\'', true
	case '"':
		s.readChar()
		return '"', true
	case '?':
		s.readChar()
		return '?', true
	case '\\':
		s.readChar()
		return '\\', true
	case 'a':
		s.readChar()
		return '\a', true
	case 'b':
		s.readChar()
		return '\b', true
	case 'f':
		s.readChar()
		return '\f', true
	case 'r':
		s.readChar()
		return '\r', true
	case 'n':
		s.readChar()
		return '\n', true
	case 't':
		s.readChar()
		return '\t', true
	case 'v':
		s.readChar()
		return '\v', true
	case '0', '1', '2', '3', '4', '5', '6', '7':
		return s.scanOctalEscape()
	case 'x':
		s.readChar()
		return s.scanHexEscape(1, 2)
	case 'u':
		s.readChar()
		return s.scanHexEscape(4, 4)
	case 'U':
		s.readChar()
		return s.scanHexEscape(8, 8)
	default:
		return 0, false
	}
}

func (s *Scanner) scanOctalEscape() (rune, bool) {
	val := 0
	for i := 0; i < 3 && s.ch >= '0' && s.ch <= '7'; i++ {
		val = val*8 + int(s.ch-'0')
		s.readChar()
	}
	return rune(val), true
}

func (s *Scanner) scanHexEscape(minDigits, maxDigits int) (rune, bool) {
	val := 0
	n := 0
	for n < maxDigits && isHexDigit(s.ch) {
		val = val*16 + hexVal(s.ch)
		s.readChar()
		n++
	}
	if n < minDigits {
		return 0, false
	}
	return rune(val), true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func hexVal(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	default:
		return int(r-'A') + 10
	}
}

func (s *Scanner) errorTok(line int, msg string) token.Token {
	return token.New(token.ERROR, msg, line)
}

func (s *Scanner) two(first rune, second byte, kindOne, kindTwo token.Kind, line int) token.Token {
	if s.peekChar() == rune(second) {
		lex := string(first) + string(second)
		s.readChar()
		s.readChar()
		return token.New(kindTwo, lex, line)
	}
	s.readChar()
	return token.New(kindOne, string(first), line)
}

func (s *Scanner) scanPunct(line int) token.Token {
	ch := s.ch
	switch ch {
	case '(':
		s.readChar()
		return token.New(token.LPAREN, "(", line)
	case ')':
		s.readChar()
		return token.New(token.RPAREN, ")", line)
	case '{':
		s.readChar()
		return token.New(token.LBRACE, "{", line)
	case '}':
		s.readChar()
		return token.New(token.RBRACE, "}", line)
	case ',':
		s.readChar()
		return token.New(token.COMMA, ",", line)
	case '.':
		s.readChar()
		return token.New(token.DOT, ".", line)
	case ';':
		s.readChar()
		return token.New(token.SEMICOLON, ";", line)
	case ':':
		s.readChar()
		return token.New(token.COLON, ":", line)
	case '!':
		return s.two('!', '=', token.BANG, token.BANG_EQUAL, line)
	case '=':
		return s.two('=', '=', token.EQUAL, token.EQUAL_EQUAL, line)
	case '>':
		return s.two('>', '=', token.GREATER, token.GREATER_EQUAL, line)
	case '<':
		return s.two('<', '=', token.LESS, token.LESS_EQUAL, line)
	case '*':
		return s.two('*', '=', token.STAR, token.STAR_EQUAL, line)
	case '+':
		if s.peekChar() == '+' {
			s.readChar()
			s.readChar()
			return token.New(token.PLUS_PLUS, "++", line)
		}
		return s.two('+', '=', token.PLUS, token.PLUS_EQUAL, line)
	case '-':
		if s.peekChar() == '-' {
			s.readChar()
			s.readChar()
			return token.New(token.MINUS_MINUS, "--", line)
		}
		return s.two('-', '=', token.MINUS, token.MINUS_EQUAL, line)
	case '%':
		s.readChar()
		return token.New(token.PERCENT, "%", line)
	case '/':
		s.readChar()
		if s.ch == '/' {
			s.readChar()
			if s.ch == '=' {
				s.readChar()
				return token.New(token.SLASH_SLASH_EQUAL, "//=", line)
			}
			return token.New(token.SLASH_SLASH, "//", line)
		}
		if s.ch == '=' {
			s.readChar()
			return token.New(token.SLASH_EQUAL, "/=", line)
		}
		return token.New(token.SLASH, "/", line)
	default:
		s.readChar()
		return s.errorTok(line, fmt.Sprintf("unexpected character %q", ch))
	}
}

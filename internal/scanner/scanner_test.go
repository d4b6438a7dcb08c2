package scanner

import (
	"testing"

	"github.com/lone-wolf-akela/foxlox/internal/token"
)

func collect(src string) []token.Token {
	s := New(src)
	var toks []token.Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func TestKeywordsAndIdents(t *testing.T) {
	toks := collect("var x = fun_name;")
	kinds := []token.Kind{token.VAR, token.IDENT, token.EQUAL, token.IDENT, token.SEMICOLON, token.EOF}
	if len(toks) != len(kinds) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(kinds), toks)
	}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v want %v", i, toks[i].Kind, k)
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	toks := collect("123 4.5 0")
	if toks[0].Kind != token.INT || toks[0].Literal.Int != 123 {
		t.Errorf("want int 123, got %+v", toks[0])
	}
	if toks[1].Kind != token.FLOAT || toks[1].Literal.Float != 4.5 {
		t.Errorf("want float 4.5, got %+v", toks[1])
	}
}

func TestTrailingDotIsError(t *testing.T) {
	toks := collect("1.")
	if toks[0].Kind != token.ERROR {
		t.Errorf("want ERROR for trailing dot, got %+v", toks[0])
	}
}

func TestStringEscapes(t *testing.T) {
	toks := collect(`"a\nb\tc\x41B"`)
	if toks[0].Kind != token.STRING {
		t.Fatalf("want STRING, got %+v", toks[0])
	}
	want := "a\nb\tcAB"
	if toks[0].Literal.String != want {
		t.Errorf("got %q want %q", toks[0].Literal.String, want)
	}
}

func TestUnterminatedString(t *testing.T) {
	toks := collect(`"abc`)
	if toks[0].Kind != token.ERROR {
		t.Errorf("want ERROR for unterminated string, got %+v", toks[0])
	}
}

func TestCommentOnlyFile(t *testing.T) {
	toks := collect("# just a comment")
	if toks[0].Kind != token.EOF {
		t.Errorf("want EOF, got %+v", toks[0])
	}
}

func TestCompoundOperators(t *testing.T) {
	toks := collect("++ -- += -= *= /= // //=")
	want := []token.Kind{
		token.PLUS_PLUS, token.MINUS_MINUS, token.PLUS_EQUAL, token.MINUS_EQUAL,
		token.STAR_EQUAL, token.SLASH_EQUAL, token.SLASH_SLASH, token.SLASH_SLASH_EQUAL,
		token.EOF,
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v want %v", i, toks[i].Kind, k)
		}
	}
}

func TestLineTrackingAndSnapshot(t *testing.T) {
	s := New("var a;\nvar b;\n")
	for {
		tok := s.Next()
		if tok.Kind == token.EOF {
			break
		}
	}
	lines := s.Lines()
	if len(lines) != 3 {
		t.Fatalf("want 3 line records (index 0 unused), got %d: %+v", len(lines), lines)
	}
	if lines[1] != "var a;" || lines[2] != "var b;" {
		t.Errorf("unexpected line snapshots: %+v", lines)
	}
}

func TestNoTrailingNewlineStillRecordsLastLine(t *testing.T) {
	s := New("var a;")
	for {
		tok := s.Next()
		if tok.Kind == token.EOF {
			break
		}
	}
	lines := s.Lines()
	if len(lines) != 2 || lines[1] != "var a;" {
		t.Errorf("unexpected line snapshots: %+v", lines)
	}
}

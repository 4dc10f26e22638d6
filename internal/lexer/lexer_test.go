package lexer

import "testing"

func collectTypes(t *testing.T, src string) []TokenType {
	t.Helper()
	l := New(src, "test.py")
	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == EOF {
			break
		}
	}
	return types
}

func TestSimpleAssignmentAndPrint(t *testing.T) {
	src := "x = 2 + 3\nprint(x)\n"
	got := collectTypes(t, src)
	want := []TokenType{
		IDENT, ASSIGN, INT, PLUS, INT, NEWLINE,
		IDENT, LPAREN, IDENT, RPAREN, NEWLINE,
		EOF,
	}
	assertTypes(t, got, want)
}

func TestIndentDedent(t *testing.T) {
	src := "if x:\n    y = 1\n    z = 2\nw = 3\n"
	got := collectTypes(t, src)
	want := []TokenType{
		IF, IDENT, COLON, NEWLINE,
		INDENT,
		IDENT, ASSIGN, INT, NEWLINE,
		IDENT, ASSIGN, INT, NEWLINE,
		DEDENT,
		IDENT, ASSIGN, INT, NEWLINE,
		EOF,
	}
	assertTypes(t, got, want)
}

func TestStringLiteralEscapes(t *testing.T) {
	l := New(`s = "a\nb"`+"\n", "test.py")
	tok := l.NextToken() // IDENT
	if tok.Type != IDENT {
		t.Fatalf("expected IDENT, got %s", tok.Type)
	}
	l.NextToken() // ASSIGN
	str := l.NextToken()
	if str.Type != STRING || str.Literal != "a\nb" {
		t.Fatalf("expected STRING %q, got %s %q", "a\nb", str.Type, str.Literal)
	}
}

func TestKeywords(t *testing.T) {
	src := "def class if elif else while for in return try except import and or not True False None pass\n"
	got := collectTypes(t, src)
	want := []TokenType{
		DEF, CLASS, IF, ELIF, ELSE, WHILE, FOR, IN, RETURN, TRY, EXCEPT, IMPORT,
		AND, OR, NOT, TRUE, FALSE, NONE, PASS, NEWLINE, EOF,
	}
	assertTypes(t, got, want)
}

func TestParensSuppressNewline(t *testing.T) {
	src := "x = (1 +\n     2)\n"
	got := collectTypes(t, src)
	want := []TokenType{
		IDENT, ASSIGN, LPAREN, INT, PLUS, INT, RPAREN, NEWLINE, EOF,
	}
	assertTypes(t, got, want)
}

func assertTypes(t *testing.T, got, want []TokenType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s (full: %v)", i, got[i], want[i], got)
		}
	}
}

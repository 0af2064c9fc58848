package gridtick

import "testing"

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestTokenizeBasic(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"number", "=42", []TokenType{TokenEquals, TokenNumber, TokenEOF}},
		{"decimal", "=3.14", []TokenType{TokenEquals, TokenNumber, TokenEOF}},
		{"scientific", "=1e10", []TokenType{TokenEquals, TokenNumber, TokenEOF}},
		{"string", `="hello"`, []TokenType{TokenEquals, TokenString, TokenEOF}},
		{"boolean", "=TRUE", []TokenType{TokenEquals, TokenBoolean, TokenEOF}},
		{"cell", "=A0", []TokenType{TokenEquals, TokenCell, TokenEOF}},
		{"cell lowercase", "=b12", []TokenType{TokenEquals, TokenCell, TokenEOF}},
		{"range", "=A0:B4", []TokenType{TokenEquals, TokenRange, TokenEOF}},
		{"addition", "=A0+1", []TokenType{TokenEquals, TokenCell, TokenBinaryOp, TokenNumber, TokenEOF}},
		{"spaced", "= A0 + 1", []TokenType{TokenEquals, TokenCell, TokenBinaryOp, TokenNumber, TokenEOF}},
		{"unary minus", "=-A0", []TokenType{TokenEquals, TokenUnaryPrefixOp, TokenCell, TokenEOF}},
		{"function", "=SUM(A0:B4)", []TokenType{TokenEquals, TokenFunction, TokenLeftParen, TokenRange, TokenRightParen, TokenEOF}},
		{"empty args", "=PI()", []TokenType{TokenEquals, TokenFunction, TokenLeftParen, TokenRightParen, TokenEOF}},
		{"comparison", "=A0<=5", []TokenType{TokenEquals, TokenCell, TokenBinaryOp, TokenNumber, TokenEOF}},
		{"double equals", "=A0==5", []TokenType{TokenEquals, TokenCell, TokenBinaryOp, TokenNumber, TokenEOF}},
		{"concat", `="a"&"b"`, []TokenType{TokenEquals, TokenString, TokenBinaryOp, TokenString, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.input, err)
			}
			got := tokenTypes(tokens)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Tokenize(%q) token %d = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenizePercent(t *testing.T) {
	// '%' is binary modulo when a value follows, postfix percent otherwise
	tests := []struct {
		name  string
		input string
		want  TokenType
	}{
		{"modulo before number", "=A0 % 2", TokenBinaryOp},
		{"modulo before paren", "=A0 % (B0)", TokenBinaryOp},
		{"modulo before cell", "=A0 % B0", TokenBinaryOp},
		{"postfix at end", "=50%", TokenUnaryPostfixOp},
		{"postfix before multiply", "=50% * 2", TokenUnaryPostfixOp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.input, err)
			}
			var got TokenType = TokenEOF
			for _, tok := range tokens {
				if tok.Value == "%" {
					got = tok.Type
					break
				}
			}
			if got != tt.want {
				t.Errorf("Tokenize(%q) '%%' token = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	tokens, err := NewLexer(`="say ""hi"""`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	if tokens[1].Type != TokenString || tokens[1].Value != `say "hi"` {
		t.Errorf("got %q, want %q", tokens[1].Value, `say "hi"`)
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no equals prefix", "A0+1"},
		{"empty", ""},
		{"unclosed string", `="abc`},
		{"unclosed paren", "=(A0+1"},
		{"extra close paren", "=A0+1)"},
		{"consecutive values", "=1 2"},
		{"bare exclaim", "=A0 ! 2"},
		{"trailing operator handled by parser", "=@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLexer(tt.input).Tokenize(); err == nil {
				t.Errorf("Tokenize(%q) expected error, got none", tt.input)
			}
		})
	}
}

func TestTokenizeRangeFallback(t *testing.T) {
	// "A0:" with no valid end cell falls back to a bare cell token; the
	// stray colon is then a lex error
	if _, err := NewLexer("=A0:").Tokenize(); err == nil {
		t.Error("expected error for dangling colon")
	}
}

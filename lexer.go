package gridtick

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenEquals
	TokenNumber
	TokenString
	TokenBoolean
	TokenCell
	TokenRange
	TokenFunction
	TokenUnaryPrefixOp
	TokenUnaryPostfixOp
	TokenBinaryOp
	TokenComma
	TokenLeftParen
	TokenRightParen
	TokenIdentifier
	TokenWhitespace
	TokenError
)

// BinaryOp represents binary operators in AST nodes
type BinaryOp int

const (
	BinOpAdd BinaryOp = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
	BinOpModulo
	BinOpPower
	BinOpConcat
	BinOpEqual
	BinOpNotEqual
	BinOpLess
	BinOpLessEqual
	BinOpGreater
	BinOpGreaterEqual
)

// UnaryOp represents unary operators in AST nodes
type UnaryOp int

const (
	UnaryOpPlus UnaryOp = iota
	UnaryOpMinus
	UnaryOpPercent
)

// character classification constants. slightly easier to read.
const (
	charNull     = 0
	charTab      = '\t'
	charNewline  = '\n'
	charReturn   = '\r'
	charSpace    = ' '
	charQuote    = '"'
	charPercent  = '%'
	charAmp      = '&'
	charLParen   = '('
	charRParen   = ')'
	charAsterisk = '*'
	charPlus     = '+'
	charComma    = ','
	charMinus    = '-'
	charPeriod   = '.'
	charSlash    = '/'
	charColon    = ':'
	charLess     = '<'
	charEqual    = '='
	charGreater  = '>'
	charCaret    = '^'
	charUnder    = '_'
	charExclaim  = '!'
)

// TokenState represents the lexer state for validation
type TokenState int

const (
	StateStart TokenState = iota
	StateAfterEquals
	StateAfterValue
	StateAfterOperator
	StateAfterLeftParen
	StateAfterRightParen
	StateAfterComma
	StateAfterIdentifier
)

// tokenTransitions maps the current state to valid next token types
var tokenTransitions = map[TokenState]map[TokenType]bool{
	StateStart: {
		TokenEquals: true, // formula prefix
	},
	StateAfterEquals: {
		TokenNumber:        true,
		TokenString:        true,
		TokenBoolean:       true,
		TokenCell:          true,
		TokenRange:         true,
		TokenFunction:      true,
		TokenIdentifier:    true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true, // unary +/-
	},
	StateAfterValue: { // after number, string, boolean, cell, range
		TokenBinaryOp:       true,
		TokenUnaryPostfixOp: true, // for %
		TokenRightParen:     true,
		TokenComma:          true, // only if in function
		TokenEOF:            true,
		// whitespace is significant - no consecutive values
	},
	StateAfterOperator: {
		TokenNumber:        true,
		TokenString:        true,
		TokenBoolean:       true,
		TokenCell:          true,
		TokenRange:         true,
		TokenFunction:      true,
		TokenIdentifier:    true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true, // only unary after binary
	},
	StateAfterLeftParen: {
		TokenNumber:        true,
		TokenString:        true,
		TokenBoolean:       true,
		TokenCell:          true,
		TokenRange:         true,
		TokenFunction:      true,
		TokenIdentifier:    true,
		TokenLeftParen:     true, // nested
		TokenUnaryPrefixOp: true,
		TokenRightParen:    true, // empty parens for arg-less functions like PI()
	},
	StateAfterRightParen: {
		TokenBinaryOp:       true,
		TokenUnaryPostfixOp: true, // for %
		TokenRightParen:     true, // if nested
		TokenComma:          true, // if in function
		TokenEOF:            true,
	},
	StateAfterComma: { // only valid in function context
		TokenNumber:        true,
		TokenString:        true,
		TokenBoolean:       true,
		TokenCell:          true,
		TokenRange:         true,
		TokenFunction:      true,
		TokenIdentifier:    true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true,
	},
	StateAfterIdentifier: {
		TokenLeftParen:      true, // function call
		TokenBinaryOp:       true,
		TokenUnaryPostfixOp: true,
		TokenRightParen:     true,
		TokenComma:          true,
		TokenEOF:            true,
	},
}

// Token represents a lexical token with position information
type Token struct {
	Type  TokenType
	Value string
	Pos   int // rune position in input
}

// Lexer tokenizes formula source, including the leading '=' prefix.
type Lexer struct {
	input      string
	runes      []rune // UTF-8 aware representation
	pos        int
	state      TokenState
	parenDepth int
	tokens     []Token
	error      string
}

// NewLexer creates a new lexer for the given formula input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		runes:  []rune(input), // runes for UTF-8 support. could do without but a real pain
		state:  StateStart,
		tokens: []Token{},
	}
}

// Tokenize tokenizes the entire input and returns tokens and any error
func (l *Lexer) Tokenize() ([]Token, error) {
	if len(l.runes) == 0 || l.runes[0] != '=' {
		return nil, NewCellError(ErrorCodeParse, "formula must start with '='")
	}

	for l.pos < len(l.runes) {
		tok := l.nextToken()
		if tok.Type == TokenError {
			l.error = tok.Value
			return nil, NewCellError(ErrorCodeParse, l.error)
		}
		if tok.Type == TokenWhitespace {
			continue
		}
		if !l.validTransition(tok.Type) {
			l.error = "unexpected token: " + tok.Value
			return nil, NewCellError(ErrorCodeParse, l.error)
		}
		l.tokens = append(l.tokens, tok)
		l.updateState(tok.Type)
	}

	if l.parenDepth > 0 {
		return nil, NewCellError(ErrorCodeParse, "unbalanced parentheses: missing closing parenthesis")
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.pos})
	return l.tokens, nil
}

// validTransition checks if the token type is valid in the current state
func (l *Lexer) validTransition(tokenType TokenType) bool {
	validTokens, exists := tokenTransitions[l.state]
	if !exists {
		return false
	}
	if tokenType == TokenEOF {
		return true
	}
	return validTokens[tokenType]
}

// updateState updates the lexer state based on the token type
func (l *Lexer) updateState(tokenType TokenType) {
	switch tokenType {
	case TokenEquals:
		l.state = StateAfterEquals
	case TokenNumber, TokenString, TokenBoolean, TokenCell, TokenRange:
		l.state = StateAfterValue
	case TokenUnaryPrefixOp, TokenBinaryOp:
		l.state = StateAfterOperator
	case TokenUnaryPostfixOp:
		// postfix operators don't change state
	case TokenLeftParen:
		l.state = StateAfterLeftParen
	case TokenRightParen:
		l.state = StateAfterRightParen
	case TokenComma:
		l.state = StateAfterComma
	case TokenIdentifier, TokenFunction:
		l.state = StateAfterIdentifier
	}
}

// nextToken returns the next token from the input
func (l *Lexer) nextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.runes) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	startPos := l.pos
	ch := l.current()

	if ch == charQuote {
		return l.scanString()
	}

	if isDigit(ch) || (ch == charPeriod && isDigit(l.peek(1))) {
		return l.scanNumber()
	}

	switch ch {
	case charLParen:
		l.pos++
		l.parenDepth++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}
	case charRParen:
		l.pos++
		l.parenDepth--
		if l.parenDepth < 0 {
			return Token{Type: TokenError, Value: "unexpected closing parenthesis", Pos: startPos}
		}
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}
	case charComma:
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: startPos}
	case charPlus, charMinus:
		return l.scanUnaryPrefixOrBinaryOp()
	case charAsterisk, charSlash, charCaret, charAmp:
		return l.scanBinaryOp()
	case charPercent:
		return l.scanPercent()
	case charEqual:
		// distinguish the formula prefix = from the comparison operator
		if l.pos == 0 {
			l.pos++
			return Token{Type: TokenEquals, Value: "=", Pos: startPos}
		}
		l.pos++
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "==", Pos: startPos}
		}
		return Token{Type: TokenBinaryOp, Value: "=", Pos: startPos}
	case charLess, charGreater, charExclaim:
		return l.scanBinaryOp()
	}

	if isAlpha(ch) || ch == charUnder {
		return l.scanIdentifierOrCell()
	}

	l.pos++
	return Token{Type: TokenError, Value: "unexpected character: " + string(ch), Pos: startPos}
}

// helper methods for character navigation and classification

// substring returns a substring of the original input based on rune positions
func (l *Lexer) substring(start, end int) string {
	if start < 0 || end > len(l.runes) || start > end {
		return ""
	}
	return string(l.runes[start:end])
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.runes) {
		return charNull
	}
	return l.runes[l.pos]
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos >= len(l.runes) || pos < 0 {
		return charNull
	}
	return l.runes[pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) {
		ch := l.current()
		if ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn {
			l.pos++
		} else {
			break
		}
	}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isAlphaNumeric(ch rune) bool {
	return isAlpha(ch) || isDigit(ch)
}

// scanNumber scans a number token including decimals and scientific notation
func (l *Lexer) scanNumber() Token {
	startPos := l.pos

	for l.pos < len(l.runes) && isDigit(l.current()) {
		l.pos++
	}

	// decimal part
	if l.current() == charPeriod && isDigit(l.peek(1)) {
		l.pos++ // consume '.'
		for l.pos < len(l.runes) && isDigit(l.current()) {
			l.pos++
		}
	}

	// scientific notation (e or E)
	if l.current() == 'e' || l.current() == 'E' {
		savedPos := l.pos
		l.pos++

		if l.current() == charPlus || l.current() == charMinus {
			l.pos++
		}

		if !isDigit(l.current()) {
			// not scientific notation, restore position
			l.pos = savedPos
		} else {
			for l.pos < len(l.runes) && isDigit(l.current()) {
				l.pos++
			}
		}
	}

	return Token{Type: TokenNumber, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// scanString scans a string literal with support for double-quote escapes
func (l *Lexer) scanString() Token {
	startPos := l.pos
	l.pos++ // consume opening quote

	var result []rune

	for l.pos < len(l.runes) {
		ch := l.current()

		if ch == charQuote {
			if l.peek(1) == charQuote {
				// escaped quote
				result = append(result, charQuote)
				l.pos += 2
			} else {
				l.pos++ // consume closing quote
				return Token{Type: TokenString, Value: string(result), Pos: startPos}
			}
		} else {
			result = append(result, ch)
			l.pos++
		}
	}

	return Token{Type: TokenError, Value: "unclosed string literal", Pos: startPos}
}

// scanIdentifierOrCell scans identifiers, functions, cells, ranges, and booleans
func (l *Lexer) scanIdentifierOrCell() Token {
	startPos := l.pos

	for l.pos < len(l.runes) && (isAlphaNumeric(l.current()) || l.current() == charUnder) {
		l.pos++
	}

	value := l.substring(startPos, l.pos)
	upperValue := toUpperASCII(value)

	if upperValue == "TRUE" || upperValue == "FALSE" {
		return Token{Type: TokenBoolean, Value: upperValue, Pos: startPos}
	}

	if IsCellName(value) {
		// check for a range (A0:B4)
		if l.current() == charColon {
			savedPos := l.pos
			l.pos++ // consume ':'

			cellStart := l.pos
			for l.pos < len(l.runes) && isAlphaNumeric(l.current()) {
				l.pos++
			}

			if IsCellName(l.substring(cellStart, l.pos)) {
				return Token{Type: TokenRange, Value: l.substring(startPos, l.pos), Pos: startPos}
			}
			// not a valid range, restore position and return just the cell
			l.pos = savedPos
		}
		return Token{Type: TokenCell, Value: value, Pos: startPos}
	}

	// function if followed by an open paren
	if l.current() == charLParen {
		return Token{Type: TokenFunction, Value: upperValue, Pos: startPos}
	}

	// identifier; the parser rejects these with #NAME?
	return Token{Type: TokenIdentifier, Value: value, Pos: startPos}
}

func toUpperASCII(s string) string {
	result := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch >= 'a' && ch <= 'z' {
			ch -= 32
		}
		result = append(result, ch)
	}
	return string(result)
}

// scanUnaryPrefixOrBinaryOp scans + and - which can be either unary
// prefix or binary
func (l *Lexer) scanUnaryPrefixOrBinaryOp() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	if l.isUnaryContext() {
		return Token{Type: TokenUnaryPrefixOp, Value: string(ch), Pos: startPos}
	}
	return Token{Type: TokenBinaryOp, Value: string(ch), Pos: startPos}
}

// scanPercent disambiguates the two meanings of '%': binary modulo when a
// value follows ("A0 % 2"), postfix percent otherwise ("50%").
func (l *Lexer) scanPercent() Token {
	startPos := l.pos
	l.pos++

	if l.valueFollows() {
		return Token{Type: TokenBinaryOp, Value: "%", Pos: startPos}
	}
	return Token{Type: TokenUnaryPostfixOp, Value: "%", Pos: startPos}
}

// valueFollows reports whether the next non-whitespace rune can begin a value
func (l *Lexer) valueFollows() bool {
	i := l.pos
	for i < len(l.runes) {
		ch := l.runes[i]
		if ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn {
			i++
			continue
		}
		return isDigit(ch) || isAlpha(ch) || ch == charLParen || ch == charQuote ||
			ch == charPeriod || ch == charPlus || ch == charMinus || ch == charUnder
	}
	return false
}

// scanBinaryOp scans binary operators
func (l *Lexer) scanBinaryOp() Token {
	startPos := l.pos
	ch := l.current()

	// two-character operators first
	if ch == charLess {
		l.pos++
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "<=", Pos: startPos}
		} else if l.current() == charGreater {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "<>", Pos: startPos}
		}
		return Token{Type: TokenBinaryOp, Value: "<", Pos: startPos}
	}

	if ch == charGreater {
		l.pos++
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: ">=", Pos: startPos}
		}
		return Token{Type: TokenBinaryOp, Value: ">", Pos: startPos}
	}

	// != as not equal
	if ch == charExclaim {
		l.pos++
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "!=", Pos: startPos}
		}
		l.pos = startPos
		return Token{Type: TokenError, Value: "unexpected '!'", Pos: startPos}
	}

	switch ch {
	case charAsterisk:
		l.pos++
		return Token{Type: TokenBinaryOp, Value: "*", Pos: startPos}
	case charSlash:
		l.pos++
		return Token{Type: TokenBinaryOp, Value: "/", Pos: startPos}
	case charCaret:
		l.pos++
		return Token{Type: TokenBinaryOp, Value: "^", Pos: startPos}
	case charAmp:
		l.pos++
		return Token{Type: TokenBinaryOp, Value: "&", Pos: startPos}
	}

	return Token{Type: TokenError, Value: "unknown operator", Pos: startPos}
}

// isUnaryContext checks if the current context allows for unary operators
func (l *Lexer) isUnaryContext() bool {
	// unary operators are allowed after:
	// - the = prefix
	// - another operator
	// - a left paren
	// - a comma
	switch l.state {
	case StateStart, StateAfterEquals, StateAfterOperator, StateAfterLeftParen, StateAfterComma:
		return true
	default:
		return false
	}
}

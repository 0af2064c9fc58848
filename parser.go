package gridtick

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type NodePosition struct {
	Start int
	End   int
}

// ASTNode is an evaluable formula expression. Evaluation only ever reads the
// tick snapshot in the EvalContext, never the live grid, which is what makes
// a pass order-independent. ToString produces a normalized form used as the
// formula cache key.
type ASTNode interface {
	Eval(ctx *EvalContext) (Value, error)
	GetPosition() NodePosition
	ToString() string
}

// Parser parses tokens into an AST
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a new parser for the given tokens
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseFormula tokenizes and parses a complete formula (including the '='
// prefix) into an AST.
func ParseFormula(src string) (ASTNode, error) {
	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// StringNode represents a string literal
type StringNode struct {
	Value    string
	Position NodePosition
}

func (n *StringNode) Eval(ctx *EvalContext) (Value, error) {
	return n.Value, nil
}

func (n *StringNode) GetPosition() NodePosition {
	return n.Position
}

func (n *StringNode) ToString() string {
	escaped := strings.ReplaceAll(n.Value, "\"", "\"\"")
	return fmt.Sprintf("\"%s\"", escaped)
}

// NumberNode represents a numeric literal. Integer literals stay int64 so
// that integer arithmetic is exact.
type NumberNode struct {
	Value    Value // int64 or float64
	Position NodePosition
}

func (n *NumberNode) Eval(ctx *EvalContext) (Value, error) {
	return n.Value, nil
}

func (n *NumberNode) GetPosition() NodePosition {
	return n.Position
}

func (n *NumberNode) ToString() string {
	return FormatNumber(n.Value)
}

// FormatNumber renders a numeric value without unnecessary decimals.
func FormatNumber(v Value) string {
	switch val := v.(type) {
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(v)
	}
}

// BooleanNode represents a boolean literal
type BooleanNode struct {
	Value    bool
	Position NodePosition
}

func (n *BooleanNode) Eval(ctx *EvalContext) (Value, error) {
	return n.Value, nil
}

func (n *BooleanNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BooleanNode) ToString() string {
	if n.Value {
		return "TRUE"
	}
	return "FALSE"
}

// CellRefNode represents an absolute cell reference like A0 or AA12
type CellRefNode struct {
	Coord    Coord
	Position NodePosition
}

func (n *CellRefNode) Eval(ctx *EvalContext) (Value, error) {
	// cells absent from the snapshot read as integer zero
	return ctx.Lookup(n.Coord), nil
}

func (n *CellRefNode) GetPosition() NodePosition {
	return n.Position
}

func (n *CellRefNode) ToString() string {
	return CoordToName(n.Coord.Col, n.Coord.Row)
}

// RangeNode represents a rectangular range of cells like A0:B4
type RangeNode struct {
	Start    Coord
	End      Coord
	Position NodePosition
}

func (n *RangeNode) Eval(ctx *EvalContext) (Value, error) {
	// normalize so start is always <= end on both axes
	startCol := min(n.Start.Col, n.End.Col)
	endCol := max(n.Start.Col, n.End.Col)
	startRow := min(n.Start.Row, n.End.Row)
	endRow := max(n.Start.Row, n.End.Row)

	rv := &RangeValue{}
	for row := startRow; row <= endRow; row++ {
		for col := startCol; col <= endCol; col++ {
			if v, ok := ctx.LookupPresent(Coord{Col: col, Row: row}); ok {
				rv.values = append(rv.values, v)
			}
		}
	}
	return rv, nil
}

func (n *RangeNode) GetPosition() NodePosition {
	return n.Position
}

func (n *RangeNode) ToString() string {
	return CoordToName(n.Start.Col, n.Start.Row) + ":" + CoordToName(n.End.Col, n.End.Row)
}

// BinaryOpNode represents a binary operation
type BinaryOpNode struct {
	Op       BinaryOp
	Left     ASTNode
	Right    ASTNode
	Position NodePosition
}

func (n *BinaryOpNode) Eval(ctx *EvalContext) (Value, error) {
	leftVal, err := n.Left.Eval(ctx)
	if err != nil {
		return nil, err
	}
	rightVal, err := n.Right.Eval(ctx)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case BinOpAdd:
		return evalArith(leftVal, rightVal, n.Op)
	case BinOpSubtract:
		return evalArith(leftVal, rightVal, n.Op)
	case BinOpMultiply:
		return evalArith(leftVal, rightVal, n.Op)
	case BinOpDivide:
		return evalArith(leftVal, rightVal, n.Op)
	case BinOpModulo:
		return evalArith(leftVal, rightVal, n.Op)

	case BinOpPower:
		leftNum, leftOk := toNumber(leftVal)
		rightNum, rightOk := toNumber(rightVal)
		if !leftOk || !rightOk {
			return nil, NewCellError(ErrorCodeValue, "power requires numeric values")
		}
		return math.Pow(leftNum, rightNum), nil

	case BinOpConcat:
		return toString(leftVal) + toString(rightVal), nil

	case BinOpEqual:
		return compareValues(leftVal, rightVal) == 0, nil

	case BinOpNotEqual:
		return compareValues(leftVal, rightVal) != 0, nil

	case BinOpLess, BinOpLessEqual, BinOpGreater, BinOpGreaterEqual:
		cmp := compareValues(leftVal, rightVal)
		if cmp == incomparable {
			return nil, NewCellError(ErrorCodeValue, "cannot compare these values")
		}
		switch n.Op {
		case BinOpLess:
			return cmp < 0, nil
		case BinOpLessEqual:
			return cmp <= 0, nil
		case BinOpGreater:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}

	default:
		return nil, NewCellError(ErrorCodeValue, "unknown operator")
	}
}

// evalArith implements + - * / % with integer-preserving semantics: two
// int64 operands produce an int64 ('/' is integer division), anything else
// promotes to float64. Zero divisors are an error in both representations.
func evalArith(left, right Value, op BinaryOp) (Value, error) {
	if li, lok := left.(int64); lok {
		if ri, rok := right.(int64); rok {
			switch op {
			case BinOpAdd:
				return li + ri, nil
			case BinOpSubtract:
				return li - ri, nil
			case BinOpMultiply:
				return li * ri, nil
			case BinOpDivide:
				if ri == 0 {
					return nil, NewCellError(ErrorCodeDiv0, "division by zero")
				}
				return li / ri, nil
			case BinOpModulo:
				if ri == 0 {
					return nil, NewCellError(ErrorCodeDiv0, "modulo by zero")
				}
				return li % ri, nil
			}
		}
	}

	leftNum, leftOk := toNumber(left)
	rightNum, rightOk := toNumber(right)
	if !leftOk || !rightOk {
		return nil, NewCellError(ErrorCodeValue, "arithmetic requires numeric values")
	}

	switch op {
	case BinOpAdd:
		return leftNum + rightNum, nil
	case BinOpSubtract:
		return leftNum - rightNum, nil
	case BinOpMultiply:
		return leftNum * rightNum, nil
	case BinOpDivide:
		if rightNum == 0 {
			return nil, NewCellError(ErrorCodeDiv0, "division by zero")
		}
		return leftNum / rightNum, nil
	case BinOpModulo:
		if rightNum == 0 {
			return nil, NewCellError(ErrorCodeDiv0, "modulo by zero")
		}
		return math.Mod(leftNum, rightNum), nil
	}
	return nil, NewCellError(ErrorCodeValue, "unknown arithmetic operator")
}

func (n *BinaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BinaryOpNode) ToString() string {
	opStr := ""
	switch n.Op {
	case BinOpAdd:
		opStr = "+"
	case BinOpSubtract:
		opStr = "-"
	case BinOpMultiply:
		opStr = "*"
	case BinOpDivide:
		opStr = "/"
	case BinOpModulo:
		opStr = "%"
	case BinOpPower:
		opStr = "^"
	case BinOpConcat:
		opStr = "&"
	case BinOpEqual:
		opStr = "="
	case BinOpNotEqual:
		opStr = "<>"
	case BinOpLess:
		opStr = "<"
	case BinOpLessEqual:
		opStr = "<="
	case BinOpGreater:
		opStr = ">"
	case BinOpGreaterEqual:
		opStr = ">="
	}
	return fmt.Sprintf("(%s%s%s)", n.Left.ToString(), opStr, n.Right.ToString())
}

// UnaryOpNode represents a unary operation
type UnaryOpNode struct {
	Op       UnaryOp
	Operand  ASTNode
	Position NodePosition
}

func (n *UnaryOpNode) Eval(ctx *EvalContext) (Value, error) {
	val, err := n.Operand.Eval(ctx)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case UnaryOpPlus:
		if i, ok := val.(int64); ok {
			return i, nil
		}
		num, ok := toNumber(val)
		if !ok {
			return nil, NewCellError(ErrorCodeValue, "unary plus requires a numeric value")
		}
		return num, nil

	case UnaryOpMinus:
		if i, ok := val.(int64); ok {
			return -i, nil
		}
		num, ok := toNumber(val)
		if !ok {
			return nil, NewCellError(ErrorCodeValue, "negation requires a numeric value")
		}
		return -num, nil

	case UnaryOpPercent:
		num, ok := toNumber(val)
		if !ok {
			return nil, NewCellError(ErrorCodeValue, "percent requires a numeric value")
		}
		return num / 100.0, nil

	default:
		return nil, NewCellError(ErrorCodeValue, "unknown unary operator")
	}
}

func (n *UnaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *UnaryOpNode) ToString() string {
	switch n.Op {
	case UnaryOpPlus:
		return "+" + n.Operand.ToString()
	case UnaryOpMinus:
		return "-" + n.Operand.ToString()
	case UnaryOpPercent:
		return fmt.Sprintf("(%s%%)", n.Operand.ToString())
	}
	return n.Operand.ToString()
}

// FunctionCallNode represents a function call
type FunctionCallNode struct {
	Name     string
	Args     []ASTNode
	Position NodePosition
}

func (n *FunctionCallNode) Eval(ctx *EvalContext) (Value, error) {
	args := make([]any, len(n.Args))
	for i, argNode := range n.Args {
		argVal, err := argNode.Eval(ctx)
		if err != nil {
			return nil, err
		}
		args[i] = argVal
	}
	return ctx.funcs.Call(n.Name, args...)
}

func (n *FunctionCallNode) GetPosition() NodePosition {
	return n.Position
}

func (n *FunctionCallNode) ToString() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.ToString()
	}
	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ","))
}

// Parse parses the tokens into an AST
func (p *Parser) Parse() (ASTNode, error) {
	if len(p.tokens) == 0 {
		return nil, NewCellError(ErrorCodeParse, "no tokens to parse")
	}

	// expect and skip the equals prefix
	if p.tokens[p.pos].Type != TokenEquals {
		return nil, NewCellError(ErrorCodeParse, "formula must start with '='")
	}
	p.pos++

	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	// ensure we've consumed all tokens except EOF
	if p.pos < len(p.tokens) && p.tokens[p.pos].Type != TokenEOF {
		return nil, NewCellError(ErrorCodeParse, fmt.Sprintf("unexpected token after expression: %s", p.tokens[p.pos].Value))
	}

	return node, nil
}

// parseComparison handles comparison operators (lowest precedence)
func (p *Parser) parseComparison() (ASTNode, error) {
	left, err := p.parseConcatenation()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "=", "==":
			op = BinOpEqual
		case "<>", "!=":
			op = BinOpNotEqual
		case "<":
			op = BinOpLess
		case "<=":
			op = BinOpLessEqual
		case ">":
			op = BinOpGreater
		case ">=":
			op = BinOpGreaterEqual
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseConcatenation()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseConcatenation handles the string concatenation operator
func (p *Parser) parseConcatenation() (ASTNode, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp || tok.Value != "&" {
			break
		}

		p.pos++
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       BinOpConcat,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseAddition handles addition and subtraction
func (p *Parser) parseAddition() (ASTNode, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "+":
			op = BinOpAdd
		case "-":
			op = BinOpSubtract
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseMultiplication handles multiplication, division, and modulo
func (p *Parser) parseMultiplication() (ASTNode, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "*":
			op = BinOpMultiply
		case "/":
			op = BinOpDivide
		case "%":
			op = BinOpModulo
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parsePower handles exponentiation
func (p *Parser) parsePower() (ASTNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	// right-associative
	if p.pos < len(p.tokens) && p.tokens[p.pos].Type == TokenBinaryOp && p.tokens[p.pos].Value == "^" {
		p.pos++
		right, err := p.parsePower() // recursive for right-associativity
		if err != nil {
			return nil, err
		}

		return &BinaryOpNode{
			Op:       BinOpPower,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}, nil
	}

	return left, nil
}

// parseUnary handles unary prefix operators
func (p *Parser) parseUnary() (ASTNode, error) {
	if p.pos >= len(p.tokens) {
		return nil, NewCellError(ErrorCodeParse, "unexpected end of expression")
	}

	tok := p.tokens[p.pos]

	if tok.Type == TokenUnaryPrefixOp {
		var op UnaryOp
		switch tok.Value {
		case "+":
			op = UnaryOpPlus
		case "-":
			op = UnaryOpMinus
		default:
			return p.parsePostfix()
		}

		startPos := tok.Pos
		p.pos++
		operand, err := p.parseUnary() // recurse for chained unary operators
		if err != nil {
			return nil, err
		}

		return &UnaryOpNode{
			Op:       op,
			Operand:  operand,
			Position: NodePosition{Start: startPos, End: operand.GetPosition().End},
		}, nil
	}

	return p.parsePostfix()
}

// parsePostfix handles postfix percent
func (p *Parser) parsePostfix() (ASTNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if p.pos < len(p.tokens) && p.tokens[p.pos].Type == TokenUnaryPostfixOp && p.tokens[p.pos].Value == "%" {
		endPos := p.tokens[p.pos].Pos + 1
		p.pos++

		return &UnaryOpNode{
			Op:       UnaryOpPercent,
			Operand:  node,
			Position: NodePosition{Start: node.GetPosition().Start, End: endPos},
		}, nil
	}

	return node, nil
}

// parsePrimary handles primary expressions (literals, references,
// functions, parentheses)
func (p *Parser) parsePrimary() (ASTNode, error) {
	if p.pos >= len(p.tokens) {
		return nil, NewCellError(ErrorCodeParse, "unexpected end of expression")
	}

	tok := p.tokens[p.pos]

	switch tok.Type {
	case TokenNumber:
		p.pos++
		return parseNumberToken(tok)

	case TokenString:
		p.pos++
		return &StringNode{
			Value:    tok.Value,
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value) + 2}, // +2 for quotes
		}, nil

	case TokenBoolean:
		p.pos++
		return &BooleanNode{
			Value:    tok.Value == "TRUE",
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenCell:
		p.pos++
		col, row, err := NameToCoord(tok.Value)
		if err != nil {
			return nil, NewCellError(ErrorCodeRef, err.Error())
		}
		return &CellRefNode{
			Coord:    Coord{Col: col, Row: row},
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenRange:
		p.pos++
		return parseRangeToken(tok)

	case TokenIdentifier:
		return nil, NewCellError(ErrorCodeName, fmt.Sprintf("unknown name: %s", tok.Value))

	case TokenFunction:
		return p.parseFunctionCall()

	case TokenLeftParen:
		p.pos++
		node, err := p.parseComparison()
		if err != nil {
			return nil, err
		}

		if p.pos >= len(p.tokens) || p.tokens[p.pos].Type != TokenRightParen {
			return nil, NewCellError(ErrorCodeParse, "expected closing parenthesis")
		}
		p.pos++

		return node, nil

	default:
		return nil, NewCellError(ErrorCodeParse, fmt.Sprintf("unexpected token: %s", tok.Value))
	}
}

// parseNumberToken converts a number token, keeping integers exact
func parseNumberToken(tok Token) (ASTNode, error) {
	pos := NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)}

	if i, err := strconv.ParseInt(tok.Value, 10, 64); err == nil {
		return &NumberNode{Value: i, Position: pos}, nil
	}
	f, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		return nil, NewCellError(ErrorCodeParse, fmt.Sprintf("invalid number: %s", tok.Value))
	}
	return &NumberNode{Value: f, Position: pos}, nil
}

// parseRangeToken converts a range token like "A0:B4" into a RangeNode
func parseRangeToken(tok Token) (ASTNode, error) {
	parts := strings.Split(tok.Value, ":")
	if len(parts) != 2 {
		return nil, NewCellError(ErrorCodeRef, fmt.Sprintf("invalid range format: %s", tok.Value))
	}

	startCol, startRow, err := NameToCoord(parts[0])
	if err != nil {
		return nil, NewCellError(ErrorCodeRef, fmt.Sprintf("invalid start cell in range: %s", parts[0]))
	}
	endCol, endRow, err := NameToCoord(parts[1])
	if err != nil {
		return nil, NewCellError(ErrorCodeRef, fmt.Sprintf("invalid end cell in range: %s", parts[1]))
	}

	return &RangeNode{
		Start:    Coord{Col: startCol, Row: startRow},
		End:      Coord{Col: endCol, Row: endRow},
		Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
	}, nil
}

// parseFunctionCall parses a function call
func (p *Parser) parseFunctionCall() (ASTNode, error) {
	if p.pos >= len(p.tokens) || p.tokens[p.pos].Type != TokenFunction {
		return nil, NewCellError(ErrorCodeName, "expected function name")
	}

	funcTok := p.tokens[p.pos]
	funcName := funcTok.Value
	startPos := funcTok.Pos
	p.pos++

	if p.pos >= len(p.tokens) || p.tokens[p.pos].Type != TokenLeftParen {
		return nil, NewCellError(ErrorCodeParse, "expected '(' after function name")
	}
	p.pos++

	args := []ASTNode{}

	// empty argument list
	if p.pos < len(p.tokens) && p.tokens[p.pos].Type == TokenRightParen {
		p.pos++
		return &FunctionCallNode{
			Name:     funcName,
			Args:     args,
			Position: NodePosition{Start: startPos, End: p.tokens[p.pos-1].Pos + 1},
		}, nil
	}

	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.pos >= len(p.tokens) {
			return nil, NewCellError(ErrorCodeParse, "unexpected end in function arguments")
		}

		if p.tokens[p.pos].Type == TokenRightParen {
			p.pos++
			break
		}

		if p.tokens[p.pos].Type != TokenComma {
			return nil, NewCellError(ErrorCodeParse, "expected ',' or ')' in function arguments")
		}
		p.pos++
	}

	return &FunctionCallNode{
		Name:     funcName,
		Args:     args,
		Position: NodePosition{Start: startPos, End: p.tokens[p.pos-1].Pos + 1},
	}, nil
}

package ir

import "github.com/sarchlab/tcamsim/bitvec"

// Parser parses the expression grammar into IntExp trees. The grammar is
// small enough for hand-rolled recursive descent; precedence is encoded in
// the call ladder: shifts bind loosest, then additive operators, then casts.
// All binary operators are left-associative.
type Parser struct{}

// NewParser returns a ready-to-use expression parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseIntExp parses s as an integer expression.
func (p *Parser) ParseIntExp(s string) (IntExp, error) {
	toks, err := lexAll(s)
	if err != nil {
		return nil, err
	}
	run := &parseRun{toks: toks}
	e, err := run.parseExp()
	if err != nil {
		return nil, err
	}
	if t := run.peek(); t.kind != tokEOF {
		return nil, parseErrorf("unable to parse %q", t.text)
	}
	return e, nil
}

// ParseLocExp parses s and requires the result to be a location expression.
func (p *Parser) ParseLocExp(s string) (LocationExp, error) {
	e, err := p.ParseIntExp(s)
	if err != nil {
		return LocationExp{}, err
	}
	loc, ok := e.(LocationExp)
	if !ok {
		return LocationExp{}, parseErrorf(
			"unable to parse %q as a location expression", s)
	}
	return loc, nil
}

type parseRun struct {
	toks []token
	pos  int
}

func (r *parseRun) peek() token {
	return r.toks[r.pos]
}

func (r *parseRun) advance() token {
	t := r.toks[r.pos]
	if t.kind != tokEOF {
		r.pos++
	}
	return t
}

func (r *parseRun) expect(kind tokenKind, what string) (token, error) {
	t := r.peek()
	if t.kind != kind {
		return token{}, parseErrorf("expected %s, found %q", what, t.text)
	}
	return r.advance(), nil
}

func (r *parseRun) parseExp() (IntExp, error) {
	return r.parseShift()
}

func (r *parseRun) parseShift() (IntExp, error) {
	left, err := r.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op ArithOp
		switch r.peek().kind {
		case tokLShift:
			op = OpLShift
		case tokRShift:
			op = OpRShift
		default:
			return left, nil
		}
		r.advance()
		right, err := r.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ArithExp{Op: op, Left: left, Right: right}
	}
}

func (r *parseRun) parseAdditive() (IntExp, error) {
	left, err := r.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ArithOp
		switch r.peek().kind {
		case tokPlus:
			op = OpPlus
		case tokMinus:
			op = OpMinus
		default:
			return left, nil
		}
		r.advance()
		right, err := r.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ArithExp{Op: op, Left: left, Right: right}
	}
}

// parseUnary handles casts, which bind tighter than any binary operator.
// The cast width rides in the AST as a 32-bit constant on the left.
func (r *parseRun) parseUnary() (IntExp, error) {
	if t := r.peek(); t.kind == tokCast {
		r.advance()
		operand, err := r.parseUnary()
		if err != nil {
			return nil, err
		}
		return ArithExp{
			Op:    OpCast,
			Left:  ConstExp{Val: bitvec.NewSizedInt(uint64(t.width), 32)},
			Right: operand,
		}, nil
	}
	return r.parsePrimary()
}

func (r *parseRun) parsePrimary() (IntExp, error) {
	switch t := r.peek(); t.kind {
	case tokNumber:
		r.advance()
		return ConstExp{Val: t.val}, nil
	case tokID:
		r.advance()
		if _, err := r.expect(tokLBracket, "'['"); err != nil {
			return nil, err
		}
		start, err := r.parseExp()
		if err != nil {
			return nil, err
		}
		if _, err := r.expect(tokColon, "':'"); err != nil {
			return nil, err
		}
		end, err := r.parseExp()
		if err != nil {
			return nil, err
		}
		if _, err := r.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
		return LocationExp{Name: t.text, Start: start, End: end}, nil
	case tokLParen:
		r.advance()
		e, err := r.parseExp()
		if err != nil {
			return nil, err
		}
		if _, err := r.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, parseErrorf("unable to parse %q", t.text)
	}
}

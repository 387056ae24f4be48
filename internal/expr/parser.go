package expr

// parser is a recursive-descent parser for the sandbox grammar:
//
//	expression  = additive { cmpop additive } ;
//	additive    = multiplicative { ("+" | "-") multiplicative } ;
//	multiplicative = unary { ("*" | "/" | "//" | "%") unary } ;
//	unary       = ("+" | "-") unary | power ;
//	power       = primary [ "**" unary ] ;
//	primary     = NUMBER | IDENT | IDENT "(" [ expression { "," expression } ] ")"
//	            | "(" expression ")" ;
//	cmpop       = "==" | "!=" | "<" | "<=" | ">" | ">=" ;
//
// Exactly one top-level expression is accepted; trailing tokens are a
// syntax error. "**" is right-associative and binds tighter than unary
// minus on its left, so "-2**2" parses as "-(2**2)".
type parser struct {
	toks []token
	i    int
}

func parse(src string) (node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.comparison()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, errAt(ErrSyntax, tok.pos, "unexpected %q after expression", tok.text)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func isCmp(k tokenKind) bool {
	switch k {
	case tokEq, tokNe, tokLt, tokLe, tokGt, tokGe:
		return true
	}
	return false
}

func (p *parser) comparison() (node, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	if !isCmp(p.peek().kind) {
		return left, nil
	}
	cmp := &compareExpr{at: left.pos(), left: left}
	for isCmp(p.peek().kind) {
		op := p.next()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		cmp.ops = append(cmp.ops, op.kind)
		cmp.rights = append(cmp.rights, right)
	}
	return cmp, nil
}

func (p *parser) additive() (node, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokPlus && tok.kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{at: left.pos(), op: tok.kind, left: left, right: right}
	}
}

func (p *parser) multiplicative() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch tok.kind {
		case tokStar, tokSlash, tokSlashSlash, tokPercent:
			p.next()
			right, err := p.unary()
			if err != nil {
				return nil, err
			}
			left = &binaryExpr{at: left.pos(), op: tok.kind, left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) unary() (node, error) {
	tok := p.peek()
	if tok.kind == tokPlus || tok.kind == tokMinus {
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{at: tok.pos, op: tok.kind, operand: operand}, nil
	}
	return p.power()
}

func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokStarStar {
		return base, nil
	}
	op := p.next()
	// Right-associative; the exponent may itself carry a unary sign.
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &binaryExpr{at: base.pos(), op: op.kind, left: base, right: exp}, nil
}

func (p *parser) primary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return &numberLit{at: tok.pos, val: tok.num}, nil
	case tokIdent:
		if p.peek().kind != tokLParen {
			return &nameRef{at: tok.pos, name: tok.text}, nil
		}
		p.next() // consume "("
		call := &callExpr{at: tok.pos, fn: tok.text}
		if p.peek().kind == tokRParen {
			p.next()
			return call, nil
		}
		for {
			arg, err := p.comparison()
			if err != nil {
				return nil, err
			}
			call.args = append(call.args, arg)
			switch t := p.next(); t.kind {
			case tokComma:
				continue
			case tokRParen:
				return call, nil
			default:
				return nil, errAt(ErrSyntax, t.pos, "expected ',' or ')' in call to %s", tok.text)
			}
		}
	case tokLParen:
		inner, err := p.comparison()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, errAt(ErrSyntax, t.pos, "expected ')'")
		}
		return inner, nil
	case tokEOF:
		return nil, errAt(ErrSyntax, tok.pos, "unexpected end of expression")
	default:
		return nil, errAt(ErrSyntax, tok.pos, "unexpected %q", tok.text)
	}
}

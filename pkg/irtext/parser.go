package irtext

import (
	"fmt"
	"strconv"
)

// Parse lexes and parses src into a Program. There is no expression
// grammar here — every statement is a flat declaration or a three-address
// instruction line, so parsing never needs more than one token of
// lookahead beyond the statement keyword.
func Parse(src string) (*Program, error) {
	lex := NewLexer(src)
	var toks []Token
	for {
		t := lex.NextToken()
		toks = append(toks, t)
		if t.Type == TokenEOF {
			break
		}
	}
	p := &parser{toks: toks}
	return p.parseProgram()
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) cur() Token { return p.toks[p.pos] }

func (p *parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) skipNewlines() {
	for p.cur().Type == TokenNewline {
		p.advance()
	}
}

func (p *parser) expectIdent() (string, error) {
	t := p.cur()
	if t.Type != TokenIdent {
		return "", fmt.Errorf("line %d: expected identifier, got %s %q", t.Line, t.Type, t.Literal)
	}
	p.advance()
	return t.Literal, nil
}

func (p *parser) expectNumber() (int64, error) {
	t := p.cur()
	if t.Type != TokenNumber {
		return 0, fmt.Errorf("line %d: expected number, got %s %q", t.Line, t.Type, t.Literal)
	}
	p.advance()
	n, err := parseInt(t.Literal)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", t.Line, err)
	}
	return n, nil
}

func (p *parser) expectLineEnd() error {
	t := p.cur()
	if t.Type != TokenNewline && t.Type != TokenEOF {
		return fmt.Errorf("line %d: expected end of line, got %q", t.Line, t.Literal)
	}
	if t.Type == TokenNewline {
		p.advance()
	}
	return nil
}

func parseInt(lit string) (int64, error) {
	if len(lit) > 1 && lit[0] == '0' && (lit[1] == 'x' || lit[1] == 'X') {
		v, err := strconv.ParseInt(lit[2:], 16, 64)
		return v, err
	}
	return strconv.ParseInt(lit, 10, 64)
}

func parseUint(lit string) (uint64, error) {
	v, err := parseInt(lit)
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	p.skipNewlines()
	for p.cur().Type != TokenEOF {
		if err := p.parseStatement(prog); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}
	return prog, nil
}

func (p *parser) parseStatement(prog *Program) error {
	tok := p.cur()
	if tok.Type != TokenIdent {
		return fmt.Errorf("line %d: expected statement keyword, got %q", tok.Line, tok.Literal)
	}
	kw := tok.Literal
	p.advance()

	switch kw {
	case "mode":
		m, err := p.expectIdent()
		if err != nil {
			return err
		}
		if err := p.expectLineEnd(); err != nil {
			return err
		}
		prog.Mode = m
		return nil

	case "prime":
		d, err := p.parsePrime()
		if err != nil {
			return err
		}
		prog.Stmts = append(prog.Stmts, *d)
		return nil

	case "array":
		d, err := p.parseArray()
		if err != nil {
			return err
		}
		prog.Stmts = append(prog.Stmts, *d)
		return nil

	case "struct":
		d, err := p.parseStructDef()
		if err != nil {
			return err
		}
		prog.Stmts = append(prog.Stmts, *d)
		return nil

	case "structinst":
		d, err := p.parseStructInst()
		if err != nil {
			return err
		}
		prog.Stmts = append(prog.Stmts, *d)
		return nil

	case "routine":
		d, err := p.parseRoutine()
		if err != nil {
			return err
		}
		prog.Stmts = append(prog.Stmts, *d)
		return nil

	default:
		return fmt.Errorf("line %d: unknown statement %q", tok.Line, kw)
	}
}

func (p *parser) parsePrime() (*PrimeDecl, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	class, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	width, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	d := &PrimeDecl{Name: name, Class: class, Width: width}

	for p.cur().Type == TokenIdent {
		switch p.cur().Literal {
		case "signed":
			p.advance()
			v := true
			d.Signed = &v
		case "unsigned":
			p.advance()
			v := false
			d.Signed = &v
		case "init":
			p.advance()
			if p.cur().Type == TokenEquals {
				p.advance()
			}
			n, err := p.expectNumber()
			if err != nil {
				return nil, err
			}
			d.Init = &n
		default:
			return nil, fmt.Errorf("line %d: unexpected %q in prime declaration", p.cur().Line, p.cur().Literal)
		}
	}
	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *parser) parseArray() (*ArrayDecl, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	class, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	child, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	countTok := p.cur()
	if countTok.Type != TokenNumber {
		return nil, fmt.Errorf("line %d: expected element count", countTok.Line)
	}
	p.advance()
	count, err := parseUint(countTok.Literal)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", countTok.Line, err)
	}

	d := &ArrayDecl{Name: name, Class: class, Child: child, Count: count}

	if p.cur().Type == TokenIdent && p.cur().Literal == "data" {
		p.advance()
		if p.cur().Type == TokenEquals {
			p.advance()
		}
		if p.cur().Type != TokenString {
			return nil, fmt.Errorf("line %d: expected a string after data=", p.cur().Line)
		}
		d.Data = p.cur().Literal
		d.HasData = true
		p.advance()
	}

	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *parser) parseStructDef() (*StructDefDecl, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	class, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}

	d := &StructDefDecl{Name: name, Class: class}
	p.skipNewlines()
	for {
		if p.cur().Type == TokenIdent && p.cur().Literal == "end" {
			p.advance()
			break
		}
		if p.cur().Type != TokenIdent || p.cur().Literal != "member" {
			return nil, fmt.Errorf("line %d: expected member or end inside struct", p.cur().Line)
		}
		p.advance()
		mn, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		mo, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		d.Members = append(d.Members, MemberDecl{Name: mn, Obj: mo})
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}
	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *parser) parseStructInst() (*StructInstDecl, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	class, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	def, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}
	return &StructInstDecl{Name: name, Class: class, Def: def}, nil
}

func (p *parser) parseRoutine() (*RoutineDecl, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	class, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}

	d := &RoutineDecl{Name: name, Class: class}
	p.skipNewlines()
	for {
		if p.cur().Type == TokenIdent && p.cur().Literal == "end" {
			p.advance()
			break
		}
		if p.cur().Type != TokenIdent {
			return nil, fmt.Errorf("line %d: expected routine body statement", p.cur().Line)
		}

		switch p.cur().Literal {
		case "param":
			p.advance()
			pn, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			po, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			d.Params = append(d.Params, MemberDecl{Name: pn, Obj: po})
			if err := p.expectLineEnd(); err != nil {
				return nil, err
			}

		case "auto":
			p.advance()
			an, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			ao, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			d.Autos = append(d.Autos, MemberDecl{Name: an, Obj: ao})
			if err := p.expectLineEnd(); err != nil {
				return nil, err
			}

		case "label", "lbl":
			p.advance()
			ln, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			d.Instrs = append(d.Instrs, InstrStmt{Op: "lbl", Label: ln})
			if err := p.expectLineEnd(); err != nil {
				return nil, err
			}

		default:
			inst, err := p.parseInstr()
			if err != nil {
				return nil, err
			}
			d.Instrs = append(d.Instrs, *inst)
		}
		p.skipNewlines()
	}
	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *parser) parseInstr() (*InstrStmt, error) {
	opTok := p.cur()
	p.advance()
	st := &InstrStmt{Op: opTok.Literal}

	for p.cur().Type != TokenNewline && p.cur().Type != TokenEOF {
		tok := p.cur()
		switch tok.Type {
		case TokenIdent, TokenNumber:
			st.Operands = append(st.Operands, tok.Literal)
			p.advance()
		case TokenComma:
			p.advance()
		default:
			return nil, fmt.Errorf("line %d: unexpected %q in instruction", tok.Line, tok.Literal)
		}
	}

	switch st.Op {
	case "jmp", "jz", "loop", "call":
		if len(st.Operands) > 0 {
			st.Target = st.Operands[len(st.Operands)-1]
			st.Operands = st.Operands[:len(st.Operands)-1]
		}
	}

	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}
	return st, nil
}

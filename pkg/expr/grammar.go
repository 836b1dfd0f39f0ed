package expr

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
)

// Grammar (per spec):
//
//	expr   = term ('+' term)*
//	term   = factor ('*' factor)*
//	factor = number | 'sin' '(' expr ')' | 't'
//
// Parsed with participle rather than a hand-rolled recursive-descent
// tokenizer, the way the corpus reaches for a parser-combinator library
// (alecthomas/participle) for small grammars instead of writing a scanner
// by hand.

type sumNode struct {
	Left  *termNode   `parser:"@@"`
	Right []*termNode `parser:"(\"+\" @@)*"`
}

type termNode struct {
	Left  *factorNode   `parser:"@@"`
	Right []*factorNode `parser:"(\"*\" @@)*"`
}

type factorNode struct {
	Number *float64 `parser:"  @Float | @Int"`
	Time   bool     `parser:"| @\"t\""`
	Sin    *sumNode `parser:"| \"sin\" \"(\" @@ \")\""`
}

var exprParser = participle.MustBuild[sumNode]()

// Parse compiles a waveform expression in the grammar above into an
// Expression tree.
func Parse(src string) (Expression, error) {
	root, err := exprParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("expr: parsing %q: %w", src, err)
	}
	return root.toExpression(), nil
}

func (s *sumNode) toExpression() Expression {
	terms := make(Sum, 0, 1+len(s.Right))
	terms = append(terms, s.Left.toExpression())
	for _, t := range s.Right {
		terms = append(terms, t.toExpression())
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return terms
}

func (t *termNode) toExpression() Expression {
	factors := make(Product, 0, 1+len(t.Right))
	factors = append(factors, t.Left.toExpression())
	for _, f := range t.Right {
		factors = append(factors, f.toExpression())
	}
	if len(factors) == 1 {
		return factors[0]
	}
	return factors
}

func (f *factorNode) toExpression() Expression {
	switch {
	case f.Number != nil:
		return Literal(*f.Number)
	case f.Time:
		return Time{}
	case f.Sin != nil:
		return Sin{Arg: f.Sin.toExpression()}
	default:
		return Literal(0)
	}
}

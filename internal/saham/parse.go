package saham

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is returned by Parse for malformed expressions.
var ErrSyntax = errors.New("invalid formula expression")

// Parse reads an expression such as "Moon - Sun + Ascendant" or
// "2*Jupiter - Moon" into terms. Names start with a letter or underscore
// and may contain letters, digits, underscores, and dots. Repeated names
// are merged by summing their coefficients; a name whose coefficients
// cancel out is an error.
//
// Grammar:
//
//	expr := [+|-] term { (+|-) term }
//	term := [integer "*"] name
func Parse(expr string) ([]Term, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}

	var terms []Term
	index := make(map[string]int)
	pos, sign := 0, 1
	if toks[0] == "+" || toks[0] == "-" {
		if toks[0] == "-" {
			sign = -1
		}
		pos++
	}

	for {
		coef := 1
		if pos < len(toks) && isInteger(toks[pos]) {
			if pos+1 >= len(toks) || toks[pos+1] != "*" {
				return nil, fmt.Errorf("%w: expected '*' after %s in %q", ErrSyntax, toks[pos], expr)
			}
			coef, err = strconv.Atoi(toks[pos])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			pos += 2
		}
		if pos >= len(toks) || !isName(toks[pos]) {
			return nil, fmt.Errorf("%w: expected a name in %q", ErrSyntax, expr)
		}
		name := toks[pos]
		pos++

		if j, ok := index[name]; ok {
			terms[j].Coef += sign * coef
		} else {
			index[name] = len(terms)
			terms = append(terms, Term{Input: name, Coef: sign * coef})
		}

		if pos == len(toks) {
			break
		}
		switch toks[pos] {
		case "+":
			sign = 1
		case "-":
			sign = -1
		default:
			return nil, fmt.Errorf("%w: expected '+' or '-' before %q in %q", ErrSyntax, toks[pos], expr)
		}
		pos++
	}

	for _, t := range terms {
		if t.Coef == 0 {
			return nil, fmt.Errorf("%w: %s cancels out in %q", ErrSyntax, t.Input, expr)
		}
	}
	return terms, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(expr string) []Term {
	terms, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return terms
}

func tokenize(s string) ([]string, error) {
	var toks []string
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '+' || c == '-' || c == '*':
			toks = append(toks, string(c))
			i++
		case isNameByte(c):
			j := i
			for j < len(s) && isNameByte(s[j]) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrSyntax, c, s)
		}
	}
	return toks, nil
}

func isNameByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isInteger(tok string) bool {
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return tok != ""
}

func isName(tok string) bool {
	if tok == "" || tok == "+" || tok == "-" || tok == "*" {
		return false
	}
	c := tok[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// String renders terms back into expression form.
func String(terms []Term) string {
	var b strings.Builder
	for i, t := range terms {
		c := t.Coef
		switch {
		case c < 0 && i == 0:
			b.WriteString("-")
			c = -c
		case c < 0:
			b.WriteString(" - ")
			c = -c
		case i > 0:
			b.WriteString(" + ")
		}
		if c != 1 {
			b.WriteString(strconv.Itoa(c))
			b.WriteString("*")
		}
		b.WriteString(t.Input)
	}
	return b.String()
}

// Package elastic compiles searchql expression trees into Elasticsearch
// style boolean queries.
package elastic

import (
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchql"
	"github.com/letmevibethatforyou/searchql/boolquery"
)

const (
	// DefaultHashtagField is the field matched by hashtag references.
	DefaultHashtagField = "hashtag"
	// DefaultMentionField is the field matched by mention references.
	DefaultMentionField = "mention"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithHashtagField sets the field matched by hashtag references.
func WithHashtagField(field string) Option {
	return func(c *Compiler) {
		c.hashtagField = field
	}
}

// WithMentionField sets the field matched by mention references.
func WithMentionField(field string) Option {
	return func(c *Compiler) {
		c.mentionField = field
	}
}

// WithStrictNominators makes Compile fail with searchql.ErrUnsupportedNominator
// when an explicit term nominator has no handler, instead of dropping it.
func WithStrictNominators(strict bool) Option {
	return func(c *Compiler) {
		c.strict = strict
	}
}

// Compiler translates expression trees. It holds no mutable state and is
// safe for concurrent use.
type Compiler struct {
	hashtagField string
	mentionField string
	strict       bool
}

// New creates a compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		hashtagField: DefaultHashtagField,
		mentionField: DefaultMentionField,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCompiler = New()

// Compile translates n with the default compiler.
func Compile(n searchql.Node) (boolquery.Query, error) {
	return defaultCompiler.Compile(n)
}

// Compile translates n into a boolean query.
//
// A nil query with a nil error means n produced nothing, which happens for a
// nil node and for an explicit term whose nominator has no handler.
func (c *Compiler) Compile(n searchql.Node) (boolquery.Query, error) {
	switch node := n.(type) {
	case nil:
		return nil, nil
	case searchql.Word:
		return c.compileText(node.Text, node.Modifiers), nil
	case searchql.Phrase:
		return c.compileText(node.Text, node.Modifiers), nil
	case searchql.Hashtag:
		return c.compileTerm(c.hashtagField, node.Tag, node.Modifiers), nil
	case searchql.Mention:
		return c.compileTerm(c.mentionField, node.Name, node.Modifiers), nil
	case searchql.ExplicitTerm:
		return c.compileExplicitTerm(node)
	case searchql.SubExpression:
		return c.Compile(node.Expression)
	case searchql.OrExpressionList:
		should, err := c.compileAll(node.Expressions)
		if err != nil {
			return nil, err
		}
		return boolquery.Should(should...), nil
	case searchql.AndExpressionList:
		must, err := c.compileAll(node.Expressions)
		if err != nil {
			return nil, err
		}
		return boolquery.Must(must...), nil
	case searchql.Range:
		return nil, errors.WithSecondaryError(searchql.ErrInvalidExpression,
			errors.Newf("range %q outside of an explicit term", node.Payload))
	default:
		return nil, errors.WithSecondaryError(searchql.ErrInvalidExpression,
			errors.Newf("unsupported node type %T", n))
	}
}

func (c *Compiler) compileText(text string, mods searchql.Modifiers) boolquery.Query {
	q := boolquery.Match(text)
	if mods.Boosted {
		q = q.WithBoost(mods.Weight())
	}
	return convertModifiers(q, mods.Included, mods.Excluded)
}

func (c *Compiler) compileTerm(field, value string, mods searchql.Modifiers) boolquery.Query {
	q := boolquery.Term(field, value)
	if mods.Boosted {
		q = q.WithBoost(mods.Weight())
	}
	return convertModifiers(q, mods.Included, mods.Excluded)
}

func (c *Compiler) compileExplicitTerm(t searchql.ExplicitTerm) (boolquery.Query, error) {
	field, ok := t.Nominator.(searchql.SimpleTerm)
	if !ok {
		return c.compileNominator(t.Nominator)
	}

	var q boolquery.Query
	if r, isRange := t.Term.(searchql.Range); isRange {
		lower, upper, err := r.Bounds()
		if err != nil {
			return nil, errors.Wrapf(err, "explicit term %q", field.Token())
		}
		rq := boolquery.Range(field.Token(), lower, upper)
		if t.Boosted {
			rq = rq.WithBoost(t.Weight())
		}
		q = rq
	} else {
		value, ok := t.Term.(searchql.SimpleTerm)
		if !ok {
			return nil, errors.WithSecondaryError(searchql.ErrInvalidExpression,
				errors.Newf("explicit term %q has term of type %T", field.Token(), t.Term))
		}
		tq := boolquery.Compare(field.Token(), operatorFor(t.Comparison), value.Token())
		if t.Boosted {
			tq = tq.WithBoost(t.Weight())
		}
		q = tq
	}

	return convertModifiers(q, t.Included, t.Excluded), nil
}

// compileNominator handles an explicit term whose left-hand side is a compound
// node. The explicit term's own comparison, term and modifiers are ignored.
func (c *Compiler) compileNominator(n searchql.Node) (boolquery.Query, error) {
	switch n.(type) {
	case searchql.ExplicitTerm, searchql.SubExpression,
		searchql.OrExpressionList, searchql.AndExpressionList:
		return c.Compile(n)
	default:
		if c.strict {
			return nil, errors.WithSecondaryError(searchql.ErrUnsupportedNominator,
				errors.Newf("nominator of type %T", n))
		}
		return nil, nil
	}
}

func (c *Compiler) compileAll(nodes []searchql.Node) ([]boolquery.Query, error) {
	out := make([]boolquery.Query, 0, len(nodes))
	for _, n := range nodes {
		q, err := c.Compile(n)
		if err != nil {
			return nil, err
		}
		if q == nil {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// convertModifiers wraps q according to its inclusion and exclusion flags.
// Exclusion takes precedence.
func convertModifiers(q boolquery.Query, included, excluded bool) boolquery.Query {
	switch {
	case excluded:
		return boolquery.MustNot(q)
	case included:
		return boolquery.Must(q)
	default:
		return q
	}
}

func operatorFor(cmp searchql.Comparison) boolquery.Operator {
	switch cmp {
	case searchql.CompareGt:
		return boolquery.OpGt
	case searchql.CompareGte:
		return boolquery.OpGte
	case searchql.CompareLt:
		return boolquery.OpLt
	case searchql.CompareLte:
		return boolquery.OpLte
	default:
		return boolquery.OpValue
	}
}

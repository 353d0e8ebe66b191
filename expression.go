package searchql

// Node is a node of a parsed query expression tree.
// Trees are built by an external parser (or ParseJSON) and are never mutated
// once constructed, so they can be shared between goroutines.
type Node interface {
	// node is a marker method that seals the set of variants.
	node()
}

// SimpleTerm is a leaf node carrying a single token. When it appears as the
// nominator of an ExplicitTerm, its token names the field being filtered.
type SimpleTerm interface {
	Node
	Token() string
}

// DefaultBoost is the weight used when a term is boosted without an explicit weight.
const DefaultBoost = 2.0

// Modifiers holds the prefix/suffix modifiers shared by leaf and explicit terms.
type Modifiers struct {
	// Boosted indicates the term carries a relevance weight (`term^2`).
	Boosted bool
	// BoostBy is the weight multiplier, meaningful only when Boosted is set.
	BoostBy float64
	// Included marks the term as mandatory (`+term`).
	Included bool
	// Excluded marks the term as forbidden (`-term`).
	Excluded bool
}

// Weight returns the boost weight, falling back to DefaultBoost for a boosted
// term without a positive weight. It returns 0 when the term is not boosted.
func (m Modifiers) Weight() float64 {
	if !m.Boosted {
		return 0
	}
	if m.BoostBy <= 0 {
		return DefaultBoost
	}
	return m.BoostBy
}

// baseNode provides the node marker method for all node types.
type baseNode struct{}

func (baseNode) node() {}

// Word represents a single free-text word.
type Word struct {
	baseNode
	Modifiers
	// Text is the word itself.
	Text string
}

// Token implements SimpleTerm.
func (w Word) Token() string { return w.Text }

// NewWord creates a word node.
func NewWord(text string, mods Modifiers) Word {
	return Word{Text: text, Modifiers: mods}
}

// Phrase represents a quoted, possibly multi-word, phrase.
type Phrase struct {
	baseNode
	Modifiers
	// Text is the phrase without its surrounding quotes.
	Text string
}

// Token implements SimpleTerm.
func (p Phrase) Token() string { return p.Text }

// NewPhrase creates a phrase node.
func NewPhrase(text string, mods Modifiers) Phrase {
	return Phrase{Text: text, Modifiers: mods}
}

// Hashtag represents a `#tag` reference.
type Hashtag struct {
	baseNode
	Modifiers
	// Tag is the tag without the leading '#'.
	Tag string
}

// Token implements SimpleTerm.
func (h Hashtag) Token() string { return h.Tag }

// NewHashtag creates a hashtag node.
func NewHashtag(tag string, mods Modifiers) Hashtag {
	return Hashtag{Tag: tag, Modifiers: mods}
}

// Mention represents an `@user` reference.
type Mention struct {
	baseNode
	Modifiers
	// Name is the mentioned name without the leading '@'.
	Name string
}

// Token implements SimpleTerm.
func (m Mention) Token() string { return m.Name }

// NewMention creates a mention node.
func NewMention(name string, mods Modifiers) Mention {
	return Mention{Name: name, Modifiers: mods}
}

// ExplicitTerm represents a field-qualified filter or comparison such as
// `status:active` or `age:>=30`.
type ExplicitTerm struct {
	baseNode
	Modifiers
	// Nominator is the left-hand side. A SimpleTerm names a field; any other
	// node is compiled in place of the explicit term.
	Nominator Node
	// Comparison is the operator token between nominator and term.
	Comparison Comparison
	// Term is the right-hand side, a SimpleTerm or a Range.
	Term Node
}

// NewExplicitTerm creates an explicit term node.
func NewExplicitTerm(nominator Node, cmp Comparison, term Node, mods Modifiers) ExplicitTerm {
	return ExplicitTerm{Nominator: nominator, Comparison: cmp, Term: term, Modifiers: mods}
}

// Range represents a `[lower..upper]` range. It is only valid as the term of
// an ExplicitTerm. The bounds travel as a JSON encoded two element array.
type Range struct {
	baseNode
	// Payload is the encoded bound pair, e.g. `[10,20]`.
	Payload string
}

// NewRange creates a range node from an encoded bound pair.
func NewRange(payload string) Range {
	return Range{Payload: payload}
}

// SubExpression represents a parenthesized group.
type SubExpression struct {
	baseNode
	// Expression is the grouped node.
	Expression Node
}

// Group wraps a node in a sub-expression.
func Group(n Node) SubExpression {
	return SubExpression{Expression: n}
}

// OrExpressionList represents an OR combination of expressions.
type OrExpressionList struct {
	baseNode
	// Expressions contains the nodes to combine with OR logic.
	Expressions []Node
}

// Or creates an OR list combining multiple nodes.
func Or(nodes ...Node) OrExpressionList {
	return OrExpressionList{Expressions: nodes}
}

// AndExpressionList represents an AND combination of expressions.
type AndExpressionList struct {
	baseNode
	// Expressions contains the nodes to combine with AND logic.
	Expressions []Node
}

// And creates an AND list combining multiple nodes.
func And(nodes ...Node) AndExpressionList {
	return AndExpressionList{Expressions: nodes}
}

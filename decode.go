package searchql

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/valyala/fastjson"
)

// Node type names used by the JSON wire form of an expression tree.
const (
	TypeWord          = "word"
	TypePhrase        = "phrase"
	TypeHashtag       = "hashtag"
	TypeMention       = "mention"
	TypeExplicitTerm  = "explicit_term"
	TypeRange         = "range"
	TypeSubExpression = "subexpression"
	TypeOr            = "or"
	TypeAnd           = "and"
)

var parserPool fastjson.ParserPool

// ParseJSON decodes an expression tree from its JSON wire form, as emitted
// by the query parser service:
//
//	{"type":"and","expressions":[
//	  {"type":"word","token":"golang","boosted":true,"boost_by":3},
//	  {"type":"explicit_term","comparison":":>=",
//	   "nominator":{"type":"word","token":"year"},
//	   "term":{"type":"range","token":"[2020,2024]"}}]}
//
// Errors wrap ErrInvalidExpression.
func ParseJSON(data []byte) (Node, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, errors.WithSecondaryError(ErrInvalidExpression, errors.Wrap(err, "failed to parse expression JSON"))
	}

	n, err := decodeNode(v, "$")
	if err != nil {
		return nil, errors.WithSecondaryError(ErrInvalidExpression, err)
	}
	return n, nil
}

func decodeNode(v *fastjson.Value, path string) (Node, error) {
	if v == nil || v.Type() != fastjson.TypeObject {
		return nil, errors.Newf("%s: expected object", path)
	}

	typ := string(v.GetStringBytes("type"))
	switch typ {
	case TypeWord:
		return NewWord(string(v.GetStringBytes("token")), decodeModifiers(v)), nil
	case TypePhrase:
		return NewPhrase(string(v.GetStringBytes("token")), decodeModifiers(v)), nil
	case TypeHashtag:
		return NewHashtag(string(v.GetStringBytes("token")), decodeModifiers(v)), nil
	case TypeMention:
		return NewMention(string(v.GetStringBytes("token")), decodeModifiers(v)), nil
	case TypeRange:
		return NewRange(string(v.GetStringBytes("token"))), nil
	case TypeExplicitTerm:
		return decodeExplicitTerm(v, path)
	case TypeSubExpression:
		inner, err := decodeNode(v.Get("expression"), path+".expression")
		if err != nil {
			return nil, err
		}
		return Group(inner), nil
	case TypeOr:
		nodes, err := decodeList(v, path)
		if err != nil {
			return nil, err
		}
		return Or(nodes...), nil
	case TypeAnd:
		nodes, err := decodeList(v, path)
		if err != nil {
			return nil, err
		}
		return And(nodes...), nil
	case "":
		return nil, errors.Newf("%s: missing node type", path)
	default:
		return nil, errors.Newf("%s: unknown node type %q", path, typ)
	}
}

func decodeExplicitTerm(v *fastjson.Value, path string) (Node, error) {
	cmp := Comparison(v.GetStringBytes("comparison"))
	if cmp == "" {
		cmp = CompareEq
	}
	if !cmp.Valid() {
		return nil, errors.Newf("%s: unknown comparison %q", path, string(cmp))
	}

	nominator, err := decodeNode(v.Get("nominator"), path+".nominator")
	if err != nil {
		return nil, err
	}
	term, err := decodeNode(v.Get("term"), path+".term")
	if err != nil {
		return nil, err
	}
	return NewExplicitTerm(nominator, cmp, term, decodeModifiers(v)), nil
}

func decodeList(v *fastjson.Value, path string) ([]Node, error) {
	items := v.GetArray("expressions")
	if items == nil && v.Exists("expressions") && v.Get("expressions").Type() != fastjson.TypeArray {
		return nil, errors.Newf("%s.expressions: expected array", path)
	}

	nodes := make([]Node, 0, len(items))
	for i, item := range items {
		n, err := decodeNode(item, path+".expressions["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func decodeModifiers(v *fastjson.Value) Modifiers {
	return Modifiers{
		Boosted:  v.GetBool("boosted"),
		BoostBy:  v.GetFloat64("boost_by"),
		Included: v.GetBool("included"),
		Excluded: v.GetBool("excluded"),
	}
}

package search

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Query is the parsed form of a search_str: an OR-of-AND-of-Term grammar
// with no Filter production, since the index schema here has only
// guid/content and nothing for project:/tag: filters to qualify.
type Query struct {
	Expression *OrExpression `parser:"@@?"`
}

type OrExpression struct {
	And []*AndExpression `parser:"@@ ( 'OR' @@ )*"`
}

type AndExpression struct {
	Terms []*Term `parser:"@@ ( 'AND'? @@ )*"`
}

type Term struct {
	Negated bool    `parser:"@'-'?"`
	Phrase  *string `parser:"( @String"`
	Word    *string `parser:"| @Ident )"`
	Fuzz    *int    `parser:"( '~' @Int )?"`
}

func (t *Term) Value() string {
	if t.Phrase != nil {
		return *t.Phrase
	}
	if t.Word != nil {
		return *t.Word
	}
	return ""
}

var (
	searchLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
		{Name: "OR", Pattern: `\bOR\b`},
		{Name: "AND", Pattern: `\bAND\b`},
		{Name: "Int", Pattern: `\d+`},
		{Name: "Ident", Pattern: `[^\s:\-"~]+`},
		{Name: "Punct", Pattern: `[\-~]`},
		{Name: "whitespace", Pattern: `\s+`},
	})

	parser = participle.MustBuild[Query](
		participle.Lexer(searchLexer),
		participle.Unquote("String"),
	)
)

// Parse builds a Query AST from input. An empty input parses to an empty
// Query (matching nothing), not an error.
func Parse(input string) (*Query, error) {
	if input == "" {
		return &Query{}, nil
	}
	return parser.ParseString("", input)
}

// ToBleve lowers the parsed query to bleve's own query-string syntax:
// word~2 for fuzziness, "phrase" for phrases, -term for negation, AND/OR
// between terms. Bleve's native ~N fuzziness operator is exactly the
// "fuzzy-term plugin" the searcher needs, so this lowering is closer to a
// pass-through than a real compiler.
func (q *Query) ToBleve() string {
	if q == nil || q.Expression == nil {
		return ""
	}

	var orParts []string
	for _, and := range q.Expression.And {
		var andParts []string
		for _, term := range and.Terms {
			andParts = append(andParts, termToBleve(term))
		}
		orParts = append(orParts, strings.Join(andParts, " AND "))
	}
	return strings.Join(orParts, " OR ")
}

func termToBleve(t *Term) string {
	var b strings.Builder
	if t.Negated {
		b.WriteByte('-')
	}

	val := t.Value()
	if t.Phrase != nil {
		b.WriteByte('"')
		b.WriteString(val)
		b.WriteByte('"')
	} else {
		b.WriteString(val)
	}

	if t.Fuzz != nil {
		b.WriteByte('~')
		b.WriteString(strconv.Itoa(*t.Fuzz))
	}

	return b.String()
}

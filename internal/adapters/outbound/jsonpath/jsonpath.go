// Package jsonpath is the JSON backend built on ohler55/ojg.
package jsonpath

import (
	"fmt"
	"strconv"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Querier implements domain.JSONQuerier.
type Querier struct{}

func New() *Querier { return &Querier{} }

func (q *Querier) Parse(content []byte) (any, error) {
	doc, err := oj.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	return doc, nil
}

func (q *Querier) Query(doc any, expr string) ([]any, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, fmt.Errorf("parsing jsonpath %q: %w", expr, err)
	}
	return x.Get(doc), nil
}

func (q *Querier) Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return oj.JSON(t)
	}
}

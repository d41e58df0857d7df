package eval

import (
	"regexp"
	"strconv"
	"strings"
)

// Operator is a binary comparison operator.
type Operator string

const (
	OpEQ          Operator = "EQ"
	OpNEQ         Operator = "NEQ"
	OpGT          Operator = "GT"
	OpGTE         Operator = "GTE"
	OpLT          Operator = "LT"
	OpLTE         Operator = "LTE"
	OpContains    Operator = "CONTAINS"
	OpNotContains Operator = "NOT_CONTAINS"
	OpMatches     Operator = "MATCHES"
	OpNotMatches  Operator = "NOT_MATCHES"
)

// ValueType selects how compared strings are interpreted.
type ValueType string

const (
	TypeString  ValueType = "STRING"
	TypeInteger ValueType = "INTEGER"
	TypeSemver  ValueType = "SEMVER"
)

// ParseOperator normalizes an operator name. Unknown names are returned upper-cased.
func ParseOperator(s string) Operator {
	return Operator(strings.ToUpper(strings.TrimSpace(s)))
}

// ParseValueType normalizes a value type name; empty means STRING.
func ParseValueType(s string) ValueType {
	t := ValueType(strings.ToUpper(strings.TrimSpace(s)))
	if t == "" {
		return TypeString
	}
	return t
}

// Compare is CompareValues for two present values.
func Compare(actual, expected string, op Operator, typ ValueType) bool {
	return CompareValues(&actual, &expected, op, typ)
}

// CompareValues evaluates `actual op expected` under typ. A nil side is never
// equal to anything, so the result is false.
func CompareValues(actual, expected *string, op Operator, typ ValueType) bool {
	if actual == nil || expected == nil {
		return false
	}
	op = ParseOperator(string(op))

	switch ParseValueType(string(typ)) {
	case TypeInteger:
		a, errA := strconv.ParseInt(strings.TrimSpace(*actual), 10, 64)
		e, errE := strconv.ParseInt(strings.TrimSpace(*expected), 10, 64)
		if errA != nil || errE != nil {
			return op == OpNEQ
		}
		return ordered(cmpInt(a, e), op)
	case TypeSemver:
		return ordered(CompareSemver(*actual, *expected), op)
	default:
		return compareStrings(*actual, *expected, op)
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ordered maps a three-way comparison through op. Operators without an
// ordering meaning yield false.
func ordered(c int, op Operator) bool {
	switch op {
	case OpEQ:
		return c == 0
	case OpNEQ:
		return c != 0
	case OpGT:
		return c > 0
	case OpGTE:
		return c >= 0
	case OpLT:
		return c < 0
	case OpLTE:
		return c <= 0
	default:
		return false
	}
}

func compareStrings(actual, expected string, op Operator) bool {
	switch op {
	case OpNEQ:
		return actual != expected
	case OpContains:
		return strings.Contains(actual, expected)
	case OpNotContains:
		return !strings.Contains(actual, expected)
	case OpMatches, OpNotMatches:
		re, err := regexp.Compile("^(?:" + expected + ")$")
		if err != nil {
			return false
		}
		return re.MatchString(actual) == (op == OpMatches)
	case OpGT:
		return actual > expected
	case OpGTE:
		return actual >= expected
	case OpLT:
		return actual < expected
	case OpLTE:
		return actual <= expected
	default:
		return actual == expected
	}
}

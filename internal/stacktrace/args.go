package stacktrace

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robertkrimen/otto/ast"
	"github.com/robertkrimen/otto/parser"
	"github.com/robertkrimen/otto/token"
)

// parseArgs reads a call's argument list. Lists made only of literals are
// evaluated through the JavaScript grammar; anything else falls back to a
// plain ", " split, which loses precision on nested commas.
func parseArgs(list string) []any {
	if values, ok := literalArgs(list); ok {
		return values
	}
	parts := strings.Split(list, ", ")
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

func literalArgs(list string) ([]any, bool) {
	program, err := parser.ParseFile(nil, "", "["+list+"]", 0)
	if err != nil || len(program.Body) != 1 {
		return nil, false
	}
	stmt, ok := program.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil, false
	}
	arr, ok := stmt.Expression.(*ast.ArrayLiteral)
	if !ok {
		return nil, false
	}
	value, ok := literalValue(arr)
	if !ok {
		return nil, false
	}
	return value.([]any), true
}

func literalValue(expr ast.Expression) (any, bool) {
	switch e := expr.(type) {
	case nil:
		return nil, true
	case *ast.NullLiteral:
		return nil, true
	case *ast.BooleanLiteral:
		return e.Value, true
	case *ast.StringLiteral:
		return e.Value, true
	case *ast.NumberLiteral:
		switch n := e.Value.(type) {
		case int64:
			return float64(n), true
		case float64:
			return n, true
		}
		return nil, false
	case *ast.Identifier:
		if e.Name == "undefined" {
			return nil, true
		}
		return nil, false
	case *ast.UnaryExpression:
		if e.Operator != token.MINUS || e.Postfix {
			return nil, false
		}
		v, ok := literalValue(e.Operand)
		if n, isNum := v.(float64); ok && isNum {
			return -n, true
		}
		return nil, false
	case *ast.ArrayLiteral:
		out := make([]any, 0, len(e.Value))
		for _, item := range e.Value {
			v, ok := literalValue(item)
			if !ok {
				return nil, false
			}
			out = append(out, v)
		}
		return out, true
	}
	return nil, false
}

// formatArg renders an argument the way it appears inside a call label.
func formatArg(v any) string {
	switch a := v.(type) {
	case nil:
		return "null"
	case string:
		return a
	case bool:
		return strconv.FormatBool(a)
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64)
	case []any:
		parts := make([]string, len(a))
		for i, item := range a {
			parts[i] = formatArg(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(a)
	}
}

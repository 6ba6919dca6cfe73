// Package buildutil provides utilities for extracting attributes from
// buildtools AST nodes.
//
// The descriptor parser in package catalog reads plugin and web_resource
// declarations through these helpers so that attribute lookup rules are kept
// in one place.
package buildutil

import (
	"github.com/bazelbuild/buildtools/build"
)

// Attr returns the right-hand side of the named keyword argument of call,
// or nil if the argument is absent.
func Attr(call *build.CallExpr, name string) build.Expr {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
			return assign.RHS
		}
	}
	return nil
}

// String extracts a string attribute from a function call by name.
// If name is empty, the first positional string argument is returned.
// Returns empty string if the attribute is not found or not a string.
func String(call *build.CallExpr, name string) string {
	var expr build.Expr
	if name == "" {
		if len(call.List) > 0 {
			expr = call.List[0]
		}
	} else {
		expr = Attr(call, name)
	}
	if str, ok := expr.(*build.StringExpr); ok {
		return str.Value
	}
	return ""
}

// Bool extracts a boolean attribute. The second result reports whether the
// attribute was present as True or False; anything else yields (def, false).
func Bool(call *build.CallExpr, name string, def bool) (bool, bool) {
	ident, ok := Attr(call, name).(*build.Ident)
	if !ok {
		return def, false
	}
	switch ident.Name {
	case "True":
		return true, true
	case "False":
		return false, true
	}
	return def, false
}

// StringList extracts a list of strings attribute.
// Returns nil if the attribute is not found or not a list.
// Non-string elements in the list are silently skipped.
func StringList(call *build.CallExpr, name string) []string {
	list, ok := Attr(call, name).(*build.ListExpr)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(list.List))
	for _, elem := range list.List {
		if str, ok := elem.(*build.StringExpr); ok {
			result = append(result, str.Value)
		}
	}
	return result
}

// StringDict extracts a dict attribute whose keys are strings. String values
// are kept as-is, True/False become "true"/"false", and other values are
// skipped. Returns nil if the attribute is not a dict.
func StringDict(call *build.CallExpr, name string) map[string]string {
	dict, ok := Attr(call, name).(*build.DictExpr)
	if !ok {
		return nil
	}
	result := make(map[string]string, len(dict.List))
	for _, kv := range dict.List {
		key, ok := kv.Key.(*build.StringExpr)
		if !ok {
			continue
		}
		switch v := kv.Value.(type) {
		case *build.StringExpr:
			result[key.Value] = v.Value
		case *build.Ident:
			switch v.Name {
			case "True":
				result[key.Value] = "true"
			case "False":
				result[key.Value] = "false"
			}
		}
	}
	return result
}

// Calls extracts the call expressions held in a list attribute, e.g.
// resources = [resource(...), resource(...)]. Non-call elements are skipped.
func Calls(call *build.CallExpr, name string) []*build.CallExpr {
	list, ok := Attr(call, name).(*build.ListExpr)
	if !ok {
		return nil
	}
	result := make([]*build.CallExpr, 0, len(list.List))
	for _, elem := range list.List {
		if c, ok := elem.(*build.CallExpr); ok {
			result = append(result, c)
		}
	}
	return result
}

// FuncName returns the function name from a CallExpr.
// Returns empty string if the call is not a simple function call
// (e.g., method calls like foo.bar()).
func FuncName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}

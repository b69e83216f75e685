package providers

import (
	"math"
	"strconv"
	"strings"
)

// tree is a decoded JSON object. Its accessors report whether the value at a
// path exists and has a usable type, so absent or malformed fields never
// contribute.
type tree map[string]any

func (t tree) lookup(path ...string) (any, bool) {
	var cur any = map[string]any(t)
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func (t tree) object(path ...string) (tree, bool) {
	v, ok := t.lookup(path...)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return tree(obj), ok
}

// flag reads a loosely typed boolean: JSON booleans, non-zero numbers and
// non-empty strings other than "0" and "false" are true.
func (t tree) flag(path ...string) (bool, bool) {
	v, ok := t.lookup(path...)
	if !ok {
		return false, false
	}
	switch x := v.(type) {
	case bool:
		return x, true
	case float64:
		return x != 0, true
	case string:
		s := strings.TrimSpace(strings.ToLower(x))
		return s != "" && s != "0" && s != "false", true
	default:
		return false, false
	}
}

// number reads a JSON number or a numeric string.
func (t tree) number(path ...string) (float64, bool) {
	v, ok := t.lookup(path...)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// score reads a number and rounds it half away from zero.
func (t tree) score(path ...string) (int, bool) {
	f, ok := t.number(path...)
	if !ok {
		return 0, false
	}
	return roundScore(f), true
}

func roundScore(f float64) int {
	return int(math.Round(f))
}

func (t tree) text(path ...string) (string, bool) {
	v, ok := t.lookup(path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// anyFlag ORs the flags present under t; ok is false when none are present.
func (t tree) anyFlag(keys ...string) (bool, bool) {
	var found, result bool
	for _, k := range keys {
		if v, ok := t.flag(k); ok {
			found = true
			result = result || v
		}
	}
	return result, found
}

package state

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// isTrimmable matches the characters a browser's String.prototype.trim
// removes: Zs, TAB, VT, FF, BOM and the line terminators. U+0085 is kept.
func isTrimmable(r rune) bool {
	switch r {
	case '\t', '\v', '\f', '\n', '\r', '\uFEFF', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func trim(s string) string {
	return strings.TrimFunc(s, isTrimmable)
}

// truncate cuts s to at most limit code points.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// coerceTrimmedString returns the trimmed, length-limited form of v and
// false when v is not a string or is blank.
func coerceTrimmedString(v any, limit int) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = trim(s)
	if s == "" {
		return "", false
	}
	// Truncation can expose inner white space at the end; trim it so a
	// second pass yields the same value.
	s = strings.TrimRightFunc(truncate(s, limit), isTrimmable)
	return s, true
}

// shortString returns v when it is a string of at most limit code points.
func shortString(v any, limit int) (string, bool) {
	s, ok := v.(string)
	if !ok || utf8.RuneCountInString(s) > limit {
		return "", false
	}
	return s, true
}

// toNumber converts v to a float64 following the rules of a JavaScript
// Number() call for the value kinds JSON can carry. Objects and arrays
// are rejected. The result may still be NaN or infinite.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		return parseNumericString(n.String())
	case string:
		return parseNumericString(n)
	}
	return math.NaN(), false
}

func parseNumericString(s string) (float64, bool) {
	s = trim(s)
	if s == "" {
		return 0, true
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return parseRadix(s[2:], base)
		}
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	// ParseFloat also accepts spellings such as "inf", "nan" and hex
	// floats, none of which are numbers in the browser.
	for _, r := range s {
		if !(r >= '0' && r <= '9') && !strings.ContainsRune(".eE+-", r) {
			return math.NaN(), false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out-of-range values overflow to ±Inf or underflow to zero.
		if errors.Is(err, strconv.ErrRange) {
			return f, true
		}
		return math.NaN(), false
	}
	return f, true
}

// parseRadix reads unsigned digits of any length; values past the
// float64 range become +Inf.
func parseRadix(digits string, base int) (float64, bool) {
	if digits == "" || digits[0] == '+' || digits[0] == '-' {
		return math.NaN(), false
	}
	i, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return math.NaN(), false
	}
	f, _ := new(big.Float).SetInt(i).Float64()
	return f, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

package coercer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NumericCoercer converts loosely typed supplier values into float64.
// Anything that does not parse cleanly is reported as missing rather than
// guessed at: "1,000" or "~50" are malformed, not 1000 or 50.
type NumericCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	TrimSpace     bool `json:"trim_space"`     // tolerate surrounding whitespace
	AllowInfinite bool `json:"allow_infinite"` // accept +Inf/-Inf literals
}

// DefaultCoercionConfig returns the rules used by the normalizer
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		TrimSpace:     true,
		AllowInfinite: false,
	}
}

// NewNumericCoercer creates a coercer with the given config
func NewNumericCoercer(config CoercionConfig) *NumericCoercer {
	return &NumericCoercer{config: config}
}

// Coerce converts rawValue to a finite number. The second result is false
// for nil, empty, malformed, NaN and (unless allowed) infinite values.
func (c *NumericCoercer) Coerce(rawValue interface{}) (float64, bool) {
	var val float64

	switch v := rawValue.(type) {
	case nil:
		return 0, false
	case float64:
		val = v
	case float32:
		val = float64(v)
	case int:
		val = float64(v)
	case int32:
		val = float64(v)
	case int64:
		val = float64(v)
	case uint:
		val = float64(v)
	case uint32:
		val = float64(v)
	case uint64:
		val = float64(v)
	case json.Number:
		f, ok := c.parseString(string(v))
		if !ok {
			return 0, false
		}
		val = f
	case string:
		f, ok := c.parseString(v)
		if !ok {
			return 0, false
		}
		val = f
	case []byte:
		f, ok := c.parseString(string(v))
		if !ok {
			return 0, false
		}
		val = f
	case *string:
		if v == nil {
			return 0, false
		}
		return c.Coerce(*v)
	case *float64:
		if v == nil {
			return 0, false
		}
		val = *v
	default:
		// bool and composite values are never measurements
		return 0, false
	}

	if math.IsNaN(val) {
		return 0, false
	}
	if math.IsInf(val, 0) && !c.config.AllowInfinite {
		return 0, false
	}
	return val, true
}

// parseString parses a decimal or scientific literal. Hexadecimal floats
// ("0x1p3") are Go syntax, not measurements, and are rejected.
func (c *NumericCoercer) parseString(s string) (float64, bool) {
	if c.config.TrimSpace {
		s = strings.TrimSpace(s)
	}
	if s == "" || isHexLiteral(s) {
		return 0, false
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Analyze classifies a sample of values, used to report how much of a
// column was unusable before rows are dropped
func (c *NumericCoercer) Analyze(values []interface{}) Analysis {
	analysis := Analysis{TotalCount: len(values)}

	for _, val := range values {
		if isMissing(val) {
			analysis.MissingCount++
			continue
		}
		if _, ok := c.Coerce(val); ok {
			analysis.NumericCount++
		} else {
			analysis.MalformedCount++
		}
	}

	if analysis.TotalCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.TotalCount)
	}
	return analysis
}

// Analysis contains the results of a numeric coercion pass
type Analysis struct {
	TotalCount     int     `json:"total_count"`
	NumericCount   int     `json:"numeric_count"`
	MissingCount   int     `json:"missing_count"`
	MalformedCount int     `json:"malformed_count"`
	NumericRatio   float64 `json:"numeric_ratio"`
}

// String renders the analysis for log lines
func (a Analysis) String() string {
	return fmt.Sprintf("%d/%d numeric (%d missing, %d malformed)",
		a.NumericCount, a.TotalCount, a.MissingCount, a.MalformedCount)
}

func isMissing(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *string:
		return v == nil || strings.TrimSpace(*v) == ""
	case *float64:
		return v == nil
	}
	return false
}

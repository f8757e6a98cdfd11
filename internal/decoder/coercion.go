package decoder

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoerceToString converts a scalar value to string
func CoerceToString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", fmt.Errorf("value is null")
	case string:
		return v, nil
	case bool, float64, float32, int, int32, int64:
		return fmt.Sprintf("%v", v), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", value)
	}
}

// CoerceToNumber attempts to convert a value to float64
func CoerceToNumber(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		num, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string '%s' to number", v)
		}
		return num, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to number", value)
	}
}

// CoerceToCount converts a value to a non-negative work-unit count.
// Fractions are floored; NaN, infinities and negatives become zero.
func CoerceToCount(value interface{}) (int, error) {
	num, err := CoerceToNumber(value)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(num) || math.IsInf(num, 0) || num <= 0 {
		return 0, nil
	}
	if num > math.MaxInt32 {
		return math.MaxInt32, nil
	}
	return int(math.Floor(num)), nil
}

package state

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"RosetteBoard/internal/geometry"

	"gonum.org/v1/gonum/spatial/r2"
)

// Setting keys accepted by UpdateSetting and by persisted records.
const (
	KeyTool              = "tool"
	KeyLineWidth         = "lineWidth"
	KeyColor             = "color"
	KeyRotationOrder     = "rotationOrder"
	KeyReflectionEnabled = "reflectionEnabled"
	KeyCursorStyle       = "cursorStyle"
	KeyShowGuides        = "showGuides"
)

// SettingKeys lists every key in a stable order.
var SettingKeys = []string{
	KeyTool, KeyLineWidth, KeyColor, KeyRotationOrder,
	KeyReflectionEnabled, KeyCursorStyle, KeyShowGuides,
}

// Symmetry returns the group described by the settings around center.
func (s Settings) Symmetry(center r2.Vec) geometry.Symmetry {
	return geometry.Symmetry{Order: s.RotationOrder, Reflect: s.ReflectionEnabled, Center: center}
}

// Value returns the setting stored under key.
func (s Settings) Value(key string) (any, bool) {
	switch key {
	case KeyTool:
		return string(s.Tool), true
	case KeyLineWidth:
		return s.LineWidth, true
	case KeyColor:
		return s.Color, true
	case KeyRotationOrder:
		return s.RotationOrder, true
	case KeyReflectionEnabled:
		return s.ReflectionEnabled, true
	case KeyCursorStyle:
		return s.CursorStyle, true
	case KeyShowGuides:
		return s.ShowGuides, true
	}
	return nil, false
}

// With returns a copy of s with key set to value. Invalid values leave s
// untouched and return an error wrapping ErrInvalidSetting.
func (s Settings) With(key string, value any) (Settings, error) {
	switch key {
	case KeyRotationOrder:
		n, err := parseInt(value)
		if err != nil {
			return s, fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
		}
		if n < geometry.MinOrder || n > geometry.MaxOrder {
			return s, fmt.Errorf("%w: %s %d outside %d..%d", ErrInvalidSetting, key, n, geometry.MinOrder, geometry.MaxOrder)
		}
		s.RotationOrder = n
	case KeyLineWidth:
		n, err := parseInt(value)
		if err != nil {
			return s, fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
		}
		if n <= 0 {
			return s, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidSetting, key, n)
		}
		s.LineWidth = n
	case KeyColor:
		c, ok := value.(string)
		if !ok || strings.TrimSpace(c) == "" {
			return s, fmt.Errorf("%w: %s must be a color string, got %v", ErrInvalidSetting, key, value)
		}
		s.Color = strings.TrimSpace(c)
	case KeyTool:
		t, ok := value.(string)
		if tool, isTool := value.(Tool); isTool {
			t, ok = string(tool), true
		}
		if !ok || !Tool(t).Valid() {
			return s, fmt.Errorf("%w: unknown tool %v", ErrInvalidSetting, value)
		}
		s.Tool = Tool(t)
	case KeyCursorStyle:
		c, ok := value.(string)
		if !ok || !knownCursor(c) {
			return s, fmt.Errorf("%w: unknown cursor style %v", ErrInvalidSetting, value)
		}
		s.CursorStyle = c
	case KeyReflectionEnabled, KeyShowGuides:
		b, err := parseBool(value)
		if err != nil {
			return s, fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
		}
		if key == KeyShowGuides {
			s.ShowGuides = b
		} else {
			s.ReflectionEnabled = b
		}
	default:
		return s, fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}
	return s, nil
}

func knownCursor(c string) bool {
	for _, k := range CursorStyles {
		if c == k {
			return true
		}
	}
	return false
}

func parseInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if math.Trunc(n) != n || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("%v (%T) is not a number", v, v)
}

func parseBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	}
	return false, fmt.Errorf("%v (%T) is not a boolean", v, v)
}

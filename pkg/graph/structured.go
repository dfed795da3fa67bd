package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Keys of the structured configuration form.
const (
	KeyWidth          = "width"
	KeyHeight         = "height"
	KeyBuildCount     = "buildCountString"
	KeyDayCount       = "dayCountString"
	KeyGraphType      = "graphType"
	KeyUseBuildDate   = "useBuildDateAsDomain"
	KeyParameterName  = "parameterName"
	KeyParameterValue = "parameterValue"
)

// ToMap returns the structured form of the configuration.
func (c *Configuration) ToMap() map[string]any {
	s := c.settings
	return map[string]any{
		KeyWidth:          s.Width,
		KeyHeight:         s.Height,
		KeyBuildCount:     c.BuildCountString(),
		KeyDayCount:       c.DayCountString(),
		KeyGraphType:      s.GraphType,
		KeyUseBuildDate:   s.UseBuildDate,
		KeyParameterName:  s.ParameterName,
		KeyParameterValue: s.ParameterValue,
	}
}

func settingsFromMap(values map[string]any) (Settings, error) {
	var s Settings
	var err error

	if s.Width, err = requiredInt(values, KeyWidth); err != nil {
		return Settings{}, err
	}
	if s.Height, err = requiredInt(values, KeyHeight); err != nil {
		return Settings{}, err
	}
	if s.BuildCount, err = optionalCount(values, KeyBuildCount); err != nil {
		return Settings{}, err
	}
	if s.DayCount, err = optionalCount(values, KeyDayCount); err != nil {
		return Settings{}, err
	}

	graphType, ok := values[KeyGraphType].(string)
	if !ok {
		return Settings{}, fmt.Errorf("%s: missing or not a string", KeyGraphType)
	}
	s.GraphType = graphType

	if s.UseBuildDate, err = requiredBool(values, KeyUseBuildDate); err != nil {
		return Settings{}, err
	}
	if s.ParameterName, err = optionalString(values, KeyParameterName); err != nil {
		return Settings{}, err
	}
	if s.ParameterValue, err = optionalString(values, KeyParameterValue); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func requiredInt(values map[string]any, key string) (int, error) {
	v, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("%s: missing", key)
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func optionalCount(values map[string]any, key string) (int, error) {
	v, ok := values[key]
	if !ok || v == nil {
		return 0, nil
	}
	if s, isString := v.(string); isString {
		n, err := parseCount(s)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// parseCount parses a count where a blank string means 0.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func requiredBool(values map[string]any, key string) (bool, error) {
	switch v := values[key].(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		return b, nil
	case nil:
		return false, fmt.Errorf("%s: missing", key)
	default:
		return false, fmt.Errorf("%s: unexpected type %T", key, v)
	}
}

func optionalString(values map[string]any, key string) (string, error) {
	v, ok := values[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected type %T", key, v)
	}
	return s, nil
}

var errNotInteger = errors.New("not an integer")

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, errNotInteger
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, errNotInteger
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, errNotInteger
		}
		return i, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

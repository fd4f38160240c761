package domain

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Credentials is the connection map for one vendor
type Credentials map[string]any

// Clone returns a deep copy so connectors never share mutable state
func (c Credentials) Clone() Credentials {
	if c == nil {
		return Credentials{}
	}
	out := make(Credentials, len(c))
	for k, v := range c {
		if nested, ok := v.(map[string]any); ok {
			cp := make(map[string]any, len(nested))
			maps.Copy(cp, nested)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// Has reports whether key is present with a non-empty value
func (c Credentials) Has(key string) bool {
	v, ok := c[key]
	if !ok || v == nil {
		return false
	}
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed) != ""
	case map[string]any:
		return len(typed) > 0
	case []byte:
		return len(typed) > 0
	}
	return true
}

// String returns the value at key formatted as a string
func (c Credentials) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// StringOr returns the value at key or fallback when it is blank
func (c Credentials) StringOr(key, fallback string) string {
	if s := c.String(key); strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// Int returns the value at key as an int, or fallback
func (c Credentials) Int(key string, fallback int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

// Bool returns the value at key as a bool, or fallback
func (c Credentials) Bool(key string, fallback bool) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

// Map returns the nested map at key, if any
func (c Credentials) Map(key string) (map[string]any, bool) {
	switch v := c[key].(type) {
	case map[string]any:
		return v, true
	case Credentials:
		return v, true
	}
	return nil, false
}

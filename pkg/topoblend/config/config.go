package config

import "strings"

// Config is a read-only tree of tunables decoded from YAML or JSON.
type Config struct {
	data map[string]any
}

// New wraps data. A nil map gives an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// Merge returns a Config holding c with overlay laid on top. Sections
// present on both sides are merged key by key; any other overlay value
// replaces the base value. Neither input is modified.
func (c Config) Merge(overlay Config) Config {
	return Config{data: mergeMaps(c.data, overlay.data)}
}

func mergeMaps(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		bm, bok := asMap(out[k])
		om, ook := asMap(v)
		if bok && ook {
			out[k] = mergeMaps(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}

// lookup resolves key. A flat key containing dots wins over the nested
// path it spells.
func (c Config) lookup(key string) (any, bool) {
	if v, ok := c.data[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}
	var node any = c.data
	for _, part := range strings.Split(key, ".") {
		section, ok := asMap(node)
		if !ok {
			return nil, false
		}
		if node, ok = section[part]; !ok {
			return nil, false
		}
	}
	return node, true
}

// asMap accepts both map shapes the decoders produce.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

// String reads a string, falling back to def.
func (c Config) String(key, def string) string {
	if v, ok := c.lookup(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int reads an integer, falling back to def. Decoded floats are accepted
// when they are whole, since JSON numbers always decode as float64.
func (c Config) Int(key string, def int) int {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return def
}

// Float reads a number, falling back to def.
func (c Config) Float(key string, def float64) float64 {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}

// Sub returns the section at key. Missing or scalar keys give an empty Config.
func (c Config) Sub(key string) Config {
	if v, ok := c.lookup(key); ok {
		if m, ok := asMap(v); ok {
			return New(m)
		}
	}
	return New(nil)
}

// Has reports whether key resolves to any value.
func (c Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Raw exposes the decoded tree. Callers must treat it as read-only.
func (c Config) Raw() map[string]any {
	return c.data
}

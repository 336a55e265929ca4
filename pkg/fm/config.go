package fm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Configuration is a total mapping from every feature of a model to a
// selected/unselected state. Configurations are immutable values: they are
// produced by the solver and never mutated in place.
type Configuration struct {
	order  []string // canonical feature order, shared with the model
	values map[string]bool
}

// NewConfiguration builds a configuration over the given canonical feature
// order. Features missing from values are unselected. The values map is
// copied; the order slice is shared and must not be mutated by the caller.
func NewConfiguration(order []string, values map[string]bool) Configuration {
	v := make(map[string]bool, len(order))
	for _, name := range order {
		v[name] = values[name]
	}
	return Configuration{order: order, values: v}
}

// Value returns the selection state of a feature. Unknown names report false.
func (c Configuration) Value(name string) bool { return c.values[name] }

// Selected returns the selected feature names in canonical order.
func (c Configuration) Selected() []string {
	var out []string
	for _, name := range c.order {
		if c.values[name] {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of features the configuration covers.
func (c Configuration) Len() int { return len(c.order) }

// String renders the selected features as "{A, B, C}".
func (c Configuration) String() string {
	return "{" + strings.Join(c.Selected(), ", ") + "}"
}

// MarshalJSON renders the configuration as a JSON object mapping every
// feature name to its selection state, with keys in canonical order.
func (c Configuration) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if c.values[name] {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

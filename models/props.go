package models

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Props is the free-form metadata document attached to a record. Values
// are addressed with dotted paths ("attrs.alt", "sizes.thumb.width").

// Prop reads one property by dotted path. The result is a zero value
// (Exists() == false) when the path is absent.
func (m *Media) Prop(path string) gjson.Result {
	if len(m.Props) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(m.Props, path)
}

// SetProp writes one property by dotted path, creating intermediate
// objects as needed.
func (m *Media) SetProp(path string, value interface{}) error {
	doc := m.Props
	if len(doc) == 0 {
		doc = []byte("{}")
	}

	updated, err := sjson.SetBytes(doc, path, value)
	if err != nil {
		return fmt.Errorf("failed to set property %s: %w", path, err)
	}

	m.Props = updated
	return nil
}

// SetProps replaces the whole property document.
func (m *Media) SetProps(props map[string]interface{}) error {
	if props == nil {
		m.Props = []byte("{}")
		return nil
	}

	doc, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("failed to marshal properties: %w", err)
	}

	m.Props = doc
	return nil
}

// PropsMap decodes the whole property document into a map. An empty or
// missing document decodes to an empty map.
func (m *Media) PropsMap() (map[string]interface{}, error) {
	if len(m.Props) == 0 {
		return map[string]interface{}{}, nil
	}

	var props map[string]interface{}
	if err := json.Unmarshal(m.Props, &props); err != nil {
		return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
	}

	return props, nil
}

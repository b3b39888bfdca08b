package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Court payloads arrive as free-form objects (from the admin UI, or from a
// seed file). These helpers split such an object into first-class columns and
// leftover attributes.

// Keys a client may send but never write: identifiers and timestamps are
// owned by the server.
var courtReadOnlyKeys = map[string]bool{
	"_id":        true,
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// SplitCourtFields converts a payload into column values (keyed by column
// name) and attributes. A nested "attributes" object is flattened into the
// attributes. Read-only keys are dropped.
func SplitCourtFields(fields map[string]any) (columns, attrs map[string]any, err error) {
	columns = map[string]any{}
	attrs = map[string]any{}

	for key, value := range fields {
		switch {
		case courtReadOnlyKeys[key]:
			continue
		case key == "name", key == "type", key == "image":
			s, ok := value.(string)
			if !ok {
				return nil, nil, fmt.Errorf("%s must be a string", key)
			}
			columns[key] = strings.TrimSpace(s)
		case key == "price":
			price, err := parsePrice(value)
			if err != nil {
				return nil, nil, err
			}
			columns["price"] = price
		case key == "slots", key == "slot":
			slots, err := parseSlots(value)
			if err != nil {
				return nil, nil, err
			}
			columns["slots"] = slots
		case key == "attributes":
			nested, ok := value.(map[string]any)
			if !ok {
				return nil, nil, fmt.Errorf("attributes must be an object")
			}
			for k, v := range nested {
				attrs[k] = v
			}
		default:
			attrs[key] = value
		}
	}
	return columns, attrs, nil
}

// CourtFromFields builds a new Court from a payload. A name is required.
func CourtFromFields(fields map[string]any) (Court, error) {
	columns, attrs, err := SplitCourtFields(fields)
	if err != nil {
		return Court{}, err
	}

	var c Court
	c.Name, _ = columns["name"].(string)
	if c.Name == "" {
		return Court{}, fmt.Errorf("name is required")
	}
	c.Type, _ = columns["type"].(string)
	c.Image, _ = columns["image"].(string)
	if price, ok := columns["price"].(decimal.Decimal); ok {
		c.Price = price
	}
	if slots, ok := columns["slots"].(datatypes.JSONSlice[string]); ok {
		c.Slots = slots
	} else {
		c.Slots = datatypes.JSONSlice[string]{}
	}
	if len(attrs) > 0 {
		c.Attributes = datatypes.JSONMap(attrs)
	}
	return c, nil
}

// CourtsFromFields converts a list of payloads, reporting the first bad entry
// by its position.
func CourtsFromFields(raw []map[string]any) ([]Court, error) {
	out := make([]Court, 0, len(raw))
	for i, fields := range raw {
		court, err := CourtFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("court %d: %w", i, err)
		}
		out = append(out, court)
	}
	return out, nil
}

func parsePrice(value any) (decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch v := value.(type) {
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case float64:
		d = decimal.NewFromFloat(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(v))
	default:
		return decimal.Decimal{}, fmt.Errorf("price must be a number")
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price must be a number")
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("price must not be negative")
	}
	return d.Round(2), nil
}

func parseSlots(value any) (datatypes.JSONSlice[string], error) {
	switch v := value.(type) {
	case string:
		return datatypes.JSONSlice[string]{v}, nil
	case []string:
		return datatypes.JSONSlice[string](v), nil
	case []any:
		out := make(datatypes.JSONSlice[string], 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("slots must be a list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("slots must be a list of strings")
}

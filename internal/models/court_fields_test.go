package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return m
}

func TestSplitCourtFields_StripsIdentifiers(t *testing.T) {
	columns, attrs, err := SplitCourtFields(decode(t, `{"_id":"x","id":"y","price":10,"created_at":"2020-01-01"}`))
	require.NoError(t, err)
	assert.Len(t, columns, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(columns["price"].(decimal.Decimal)))
	assert.Empty(t, attrs)
}

func TestSplitCourtFields_UnknownKeysBecomeAttributes(t *testing.T) {
	columns, attrs, err := SplitCourtFields(decode(t,
		`{"name":" Centre ","surface":"clay","attributes":{"indoor":true},"slot":"08:00"}`))
	require.NoError(t, err)
	assert.Equal(t, "Centre", columns["name"])
	assert.Equal(t, []string{"08:00"}, []string(columns["slots"].(datatypes.JSONSlice[string])))
	assert.Equal(t, map[string]any{"surface": "clay", "indoor": true}, attrs)
}

func TestSplitCourtFields_Errors(t *testing.T) {
	for name, raw := range map[string]string{
		"name not string":   `{"name":5}`,
		"price not number":  `{"price":"cheap"}`,
		"negative price":    `{"price":-1}`,
		"slots wrong type":  `{"slots":[1,2]}`,
		"attributes scalar": `{"attributes":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := SplitCourtFields(decode(t, raw))
			assert.Error(t, err)
		})
	}
}

func TestCourtFromFields(t *testing.T) {
	c, err := CourtFromFields(map[string]any{
		"name":  "Court 1",
		"type":  "badminton",
		"price": "12.499",
		"slots": []any{"08:00", "09:00"},
		"lit":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Court 1", c.Name)
	assert.Equal(t, "badminton", c.Type)
	assert.Equal(t, "12.5", c.Price.String())
	assert.Equal(t, []string{"08:00", "09:00"}, []string(c.Slots))
	assert.Equal(t, true, c.Attributes["lit"])

	_, err = CourtFromFields(map[string]any{"type": "tennis"})
	assert.ErrorContains(t, err, "name is required")

	bare, err := CourtFromFields(map[string]any{"name": "Bare", "price": 20})
	require.NoError(t, err)
	assert.NotNil(t, bare.Slots)
	assert.Nil(t, bare.Attributes)
	assert.Equal(t, "20", bare.Price.String())
}

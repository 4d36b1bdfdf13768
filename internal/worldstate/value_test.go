package worldstate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFromAny(t *testing.T) {
	type labels map[string]string

	v, err := FromAny(map[string]any{
		"dock":   true,
		"count":  int64(3),
		"ratio":  float32(0.5),
		"tags":   []string{"a", "b"},
		"labels": labels{"zone": "A"},
		"none":   nil,
	})
	require.NoError(t, err)

	want := Map(map[string]Value{
		"dock":   Bool(true),
		"count":  Int(3),
		"ratio":  Number(0.5),
		"tags":   List(String("a"), String("b")),
		"labels": Map(map[string]Value{"zone": String("A")}),
		"none":   Null(),
	})
	if diff := cmp.Diff(want, v); diff != "" {
		t.Fatalf("FromAny mismatch (-want +got):\n%s", diff)
	}

	_, err = FromAny(map[int]string{1: "x"})
	assert.True(t, errors.Is(err, ErrUnsupportedValue))

	_, err = FromAny(make(chan int))
	assert.True(t, errors.Is(err, ErrUnsupportedValue))
}

func TestValueEqualAndClone(t *testing.T) {
	orig := MustFromAny(map[string]any{"q": []any{1, map[string]any{"k": "v"}}})
	clone := orig.Clone()
	assert.True(t, orig.Equal(clone))

	items, _ := clone.AsMap()
	items["q"] = Int(0)
	assert.False(t, orig.Equal(clone))

	assert.False(t, Int(1).Equal(String("1")))
	assert.False(t, List(Int(1), Int(2)).Equal(List(Int(2), Int(1))))
	assert.True(t, Null().Equal(Value{}))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "3", Int(3).String())
	assert.Equal(t, "2.5", Number(2.5).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "1,a", List(Int(1), String("a")).String())
	assert.Equal(t, `{"a":1}`, Map(map[string]Value{"a": Int(1)}).String())
	assert.Equal(t, "null", Null().String())
}

func TestStateCodecs(t *testing.T) {
	doc := `
dockAvailable: true
staff: 3
zone: A
orders: [o-1, o-2]
layout:
  rows: 4
carrier: null
`
	var fromYAML State
	require.NoError(t, yaml.Unmarshal([]byte(doc), &fromYAML))

	data, err := json.Marshal(fromYAML)
	require.NoError(t, err)

	var fromJSON State
	require.NoError(t, json.Unmarshal(data, &fromJSON))

	if diff := cmp.Diff(fromYAML, fromJSON); diff != "" {
		t.Fatalf("state changed across codecs (-yaml +json):\n%s", diff)
	}
	assert.False(t, fromJSON.Has("carrier"))
	assert.Equal(t, []string{"carrier", "dockAvailable", "layout", "orders", "staff", "zone"}, fromJSON.Keys())
}

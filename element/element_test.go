package element

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	base := Element{UUID: "a", Type: KindText, SourceType: SourceBase}
	require.NoError(t, base.Validate())

	cases := map[string]Element{
		"空 uuid": {SourceType: SourceBase},
		"未知来源":   {UUID: "a", SourceType: "Other"},
		"绑定缺少字段": {UUID: "a", SourceType: SourceTable},
		"NaN 宽度": {UUID: "a", SourceType: SourceBase, Styles: Styles{Width: Dimension(math.NaN())}},
		"Inf 旋转": {UUID: "a", SourceType: SourceBase, Rotate: math.Inf(1)},
	}
	for name, el := range cases {
		err := el.Validate()
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrInvalid), name)
	}

	bound := Element{UUID: "b", SourceType: SourceTable, FieldID: "fld1"}
	require.NoError(t, bound.Validate())
	assert.True(t, bound.Bound())
}

func TestDimensionAcceptsStrings(t *testing.T) {
	raw := `{"uuid":"a","type":"text","sourceType":"Base","content":"x",
		"styles":{"top":"12","left":"10px","width":100,"height":"10mm","fontSize":"12pt"}}`
	var el Element
	require.NoError(t, json.Unmarshal([]byte(raw), &el))

	assert.Equal(t, 12.0, el.Styles.Top.Float())
	assert.Equal(t, 10.0, el.Styles.Left.Float())
	assert.Equal(t, 100.0, el.Styles.Width.Float())
	assert.InDelta(t, 10*PxPerMm, el.Styles.Height.Float(), 1e-9)
	assert.InDelta(t, 16.0, el.Styles.FontSize.Float(), 1e-9)

	out, err := json.Marshal(el.Styles)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"top":12`, "持久化时必须是数字")
}

func TestDimensionRejectsGarbage(t *testing.T) {
	var el Element
	err := json.Unmarshal([]byte(`{"styles":{"width":"wide"}}`), &el)
	require.Error(t, err)

	_, err = ParseDimension("NaN")
	require.Error(t, err)
}

func TestMovedDoesNotAlias(t *testing.T) {
	el := Element{UUID: "a", Styles: Styles{Top: 50, Left: 50}}
	moved := el.Moved(20, 20)
	assert.Equal(t, Dimension(70), moved.Styles.Left)
	assert.Equal(t, Dimension(70), moved.Styles.Top)
	assert.Equal(t, Dimension(50), el.Styles.Left)
}

func TestToMM(t *testing.T) {
	assert.InDelta(t, 25.4, Dimension(96).ToMM(), 1e-9)
}

package udi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUDI = "(01)12345678901234(17)231231(10)ABC123"

func TestParseCanonicalKeys(t *testing.T) {
	res := Parse("(01)12345678901234(17)231231(10)ABC123(21)SN9(11)220101(240)REF-7")
	assert.Equal(t, "12345678901234", res.DI)
	assert.Equal(t, map[string]string{
		KeyExpirationDate:    "231231",
		KeyLotNumber:         "ABC123",
		KeySerialNumber:      "SN9",
		KeyManufacturingDate: "220101",
		"240":                "REF-7",
	}, res.PI)
	assert.Equal(t, "(01)12345678901234(17)231231(10)ABC123(21)SN9(11)220101(240)REF-7", res.OriginalUDI)
}

func TestParseIsTotal(t *testing.T) {
	res := Parse("no brackets here")
	assert.Empty(t, res.DI)
	assert.Empty(t, res.PI)
	assert.Equal(t, "no brackets here", res.OriginalUDI)

	res = Parse("")
	assert.Empty(t, res.DI)
	assert.NotNil(t, res.PI)
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate(sampleUDI))
	assert.False(t, Validate("no brackets here"))
	assert.False(t, Validate("(1)short"))
	assert.True(t, Validate("(8004)X"))
}

func TestFormatOrder(t *testing.T) {
	got := Format(Parts{
		DI: "12345678901234",
		PI: map[string]string{
			KeyManufacturingDate: "220101",
			KeySerialNumber:      "SN9",
			KeyLotNumber:         "ABC123",
			KeyExpirationDate:    "231231",
			"240":                "REF",
			"21x":                "",
		},
	})
	assert.Equal(t, "(01)12345678901234(17)231231(10)ABC123(21)SN9(11)220101(240)REF", got)
}

func TestFormatParseRoundTrip(t *testing.T) {
	cases := []Parts{
		{DI: "12345678901234", PI: map[string]string{}},
		{DI: "12345678901234", PI: map[string]string{KeyLotNumber: "L1"}},
		{DI: "09876543210987", PI: map[string]string{
			KeyExpirationDate:    "250630",
			KeyLotNumber:         "LOT-42",
			KeySerialNumber:      "0001",
			KeyManufacturingDate: "240101",
		}},
	}
	for _, p := range cases {
		got := Parse(Format(p)).Parts()
		assert.Equal(t, p, got, Format(p))
	}
}

func TestElementString(t *testing.T) {
	got, err := ElementString("(01)12345678901234(10)ABC(17)231231(21)SN")
	require.NoError(t, err)
	assert.Equal(t, "0112345678901234"+"10ABC\x1d"+"17231231"+"21SN", got)

	_, err = ElementString("plain")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

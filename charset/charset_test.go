package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

func TestByValue(t *testing.T) {
	for value, want := range map[int]*ECI{
		0: Cp437, 2: Cp437, 1: ISO8859_1, 3: ISO8859_1,
		20: ShiftJIS, 26: UTF8, 170: ASCII, 29: GB18030,
	} {
		got, err := ByValue(value)
		require.NoError(t, err, "value %d", value)
		assert.Same(t, want, got, "value %d", value)
	}

	_, err := ByValue(14)
	assert.ErrorIs(t, err, ErrUnknownECI)
	_, err = ByValue(-1)
	assert.ErrorIs(t, err, ErrUnknownECI)
	_, err = ByValue(1000000)
	assert.ErrorIs(t, err, ErrUnknownECI)
}

func TestByName(t *testing.T) {
	assert.Same(t, ShiftJIS, ByName("sjis"))
	assert.Same(t, ShiftJIS, ByName("Shift_JIS"))
	assert.Same(t, ISO8859_1, ByName("iso-8859-1"))
	assert.Same(t, UTF8, ByName("utf8"))
	assert.Nil(t, ByName("klingon"))
}

func TestLookupFallsBackToIANA(t *testing.T) {
	enc, err := Lookup("KOI8-R")
	require.NoError(t, err)
	s, err := Decode([]byte{0xF0, 0xD2, 0xC9, 0xD7, 0xC5, 0xD4}, enc)
	require.NoError(t, err)
	assert.Equal(t, "Привет", s)

	_, err = Lookup("no-such-charset")
	assert.Error(t, err)
}

func TestDecodeNamed(t *testing.T) {
	s, err := DecodeNamed([]byte{0x63, 0x61, 0x66, 0xE9}, "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", s)

	s, err = DecodeNamed([]byte{0x93, 0xfa, 0x96, 0x7b}, "SJIS")
	require.NoError(t, err)
	assert.Equal(t, "日本", s)

	s, err = DecodeNamed([]byte{0x00, 0x41, 0x00, 0xE9}, "UTF-16BE")
	require.NoError(t, err)
	assert.Equal(t, "Aé", s)
}

func TestBuilderJoinsRuns(t *testing.T) {
	var b Builder
	require.NoError(t, b.AppendBytes([]byte{0x93}, japanese.ShiftJIS))
	require.NoError(t, b.AppendBytes([]byte{0xfa}, japanese.ShiftJIS))
	require.NoError(t, b.AppendByte('!'))
	require.NoError(t, b.AppendBytes([]byte{0xE9}, ISO8859_1.Encoding))
	require.NoError(t, b.AppendString("x"))
	s, err := b.String()
	require.NoError(t, err)
	assert.Equal(t, "日!éx", s)
}

func TestGuessECI(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want *ECI
	}{
		{"ascii", []byte("hello"), ISO8859_1},
		{"utf8", []byte("héllo wörld"), UTF8},
		{"latin1", []byte{'c', 'a', 'f', 0xE9}, ISO8859_1},
		{"sjis kanji", []byte{0x93, 0xfa, 0x96, 0x7b, 0x8c, 0xea}, ShiftJIS},
		{"utf16 be bom", []byte{0xFE, 0xFF, 0x00, 0x41}, UTF16},
		{"utf16 le bom", []byte{0xFF, 0xFE, 0x41, 0x00}, UTF16},
		{"empty", nil, ISO8859_1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Same(t, c.want, GuessECI(c.data))
		})
	}
}

func TestGuessedUTF16FollowsBOM(t *testing.T) {
	for _, data := range [][]byte{
		{0xFE, 0xFF, 0x00, 0x41, 0x00, 0xE9},
		{0xFF, 0xFE, 0x41, 0x00, 0xE9, 0x00},
	} {
		s, err := Decode(data, Guess(data, ""))
		require.NoError(t, err)
		assert.Equal(t, "Aé", s, "% x", data)
	}
	assert.Nil(t, ByName("UTF-16"))
}

func TestGuessHonoursHint(t *testing.T) {
	assert.Equal(t, japanese.ShiftJIS, Guess([]byte("hello"), "Shift_JIS"))
	assert.Equal(t, ISO8859_1.Encoding, Guess([]byte("hello"), "not-a-charset"))
}

package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecimalFromBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint32
		wantErr bool
	}{
		{name: "simple", input: "25565", want: 25565},
		{name: "zero", input: "0", want: 0},
		{name: "empty yields zero", input: "", want: 0},
		{name: "leading zeroes", input: "0042", want: 42},
		{name: "non-digit fails", input: "12a34", wantErr: true},
		{name: "sign fails", input: "-1", wantErr: true},
		{name: "space fails", input: "1 2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decimalFromBytes[uint32]("field", []byte(tt.input))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedValue)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecimalFromBytesUint16(t *testing.T) {
	got, err := decimalFromBytes[uint16]("port", []byte("25565"))
	require.NoError(t, err)
	require.Equal(t, uint16(25565), got)
}

func TestLatin1String(t *testing.T) {
	require.Equal(t, "plain ascii", latin1String([]byte("plain ascii")))
	require.Equal(t, "", latin1String(nil))

	// 0xA7 is the section sign used for Minecraft color codes. Latin-1 maps
	// it to U+00A7, a naive string() conversion would not.
	require.Equal(t, "§cRed", latin1String([]byte{0xA7, 'c', 'R', 'e', 'd'}))
	require.Equal(t, "ÿ", latin1String([]byte{0xFF, 0x80}))
}

func TestSplitAtSubslice(t *testing.T) {
	tests := []struct {
		name       string
		slice      string
		pattern    string
		wantBefore string
		wantAfter  string
		wantOK     bool
	}{
		{name: "middle", slice: "abXYcd", pattern: "XY", wantBefore: "ab", wantAfter: "cd", wantOK: true},
		{name: "prefix", slice: "XYcd", pattern: "XY", wantBefore: "", wantAfter: "cd", wantOK: true},
		{name: "suffix", slice: "abXY", pattern: "XY", wantBefore: "ab", wantAfter: "", wantOK: true},
		{name: "first occurrence wins", slice: "aXYbXYc", pattern: "XY", wantBefore: "a", wantAfter: "bXYc", wantOK: true},
		{name: "absent", slice: "abcd", pattern: "XY", wantOK: false},
		{name: "pattern longer than slice", slice: "a", pattern: "XY", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after, ok := splitAtSubslice([]byte(tt.slice), []byte(tt.pattern))
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			require.Equal(t, tt.wantBefore, string(before))
			require.Equal(t, tt.wantAfter, string(after))
		})
	}
}

func TestPairs(t *testing.T) {
	collect := func(list []string) [][2]string {
		var got [][2]string
		pairs(list, func(a, b string) {
			got = append(got, [2]string{a, b})
		})
		return got
	}

	require.Equal(t, [][2]string{{"k1", "v1"}, {"k2", "v2"}}, collect([]string{"k1", "v1", "k2", "v2"}))

	// An odd trailing element is dropped, not paired with a zero value.
	require.Equal(t, [][2]string{{"k1", "v1"}}, collect([]string{"k1", "v1", "dangling"}))
	require.Empty(t, collect([]string{"alone"}))
	require.Empty(t, collect(nil))
}

package pe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubslice(t *testing.T) {
	buf := []byte{0, 1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name   string
		offset int
		n      int
		want   []byte
		wantOK bool
	}{
		{name: "Whole buffer", offset: 0, n: 8, want: buf, wantOK: true},
		{name: "Middle", offset: 2, n: 3, want: []byte{2, 3, 4}, wantOK: true},
		{name: "Empty at end", offset: 8, n: 0, want: []byte{}, wantOK: true},
		{name: "One past end", offset: 5, n: 4, wantOK: false},
		{name: "Offset past end", offset: 9, n: 0, wantOK: false},
		{name: "Negative offset", offset: -1, n: 2, wantOK: false},
		{name: "Negative length", offset: 0, n: -1, wantOK: false},
		{name: "Overflowing length", offset: 4, n: math.MaxInt, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := subslice(buf, tt.offset, tt.n)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFixedWidthReads(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}

	v16, ok := u16At(buf, 1)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0302), v16)

	v32, ok := u32At(buf, 5)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x09080706), v32)

	v64, ok := u64At(buf, 0)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x0807060504030201), v64)

	_, ok = u16At(buf, 8)
	assert.False(t, ok)
	_, ok = u32At(buf, 6)
	assert.False(t, ok)
	_, ok = u64At(buf, 2)
	assert.False(t, ok)
	_, ok = u32At(nil, 0)
	assert.False(t, ok)
}

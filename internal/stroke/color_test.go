package stroke

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgba8(c color.Color) [4]uint32 {
	r, g, b, a := c.RGBA()
	return [4]uint32{r >> 8, g >> 8, b >> 8, a >> 8}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want [4]uint32
	}{
		{"#000000", [4]uint32{0, 0, 0, 255}},
		{"#FFFFFF", [4]uint32{255, 255, 255, 255}},
		{"#f00", [4]uint32{255, 0, 0, 255}},
		{"#00ff0080", [4]uint32{0, 128, 0, 128}},
		{"red", [4]uint32{255, 0, 0, 255}},
		{" Blue ", [4]uint32{0, 0, 255, 255}},
		{"rgb(0, 128, 255)", [4]uint32{0, 128, 255, 255}},
		{"rgba(255,0,0,0)", [4]uint32{0, 0, 0, 0}},
		{"transparent", [4]uint32{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rgba8(c))
		})
	}
}

func TestParseColorRejects(t *testing.T) {
	for _, in := range []string{"", "#12", "#ggg", "rgb(1,2)", "rgb(1,2,300)", "rgba(1,2,3,2)", "hsl(1,2,3)", "notacolor"} {
		_, err := ParseColor(in)
		assert.ErrorIs(t, err, ErrInvalidColor, in)
	}
}

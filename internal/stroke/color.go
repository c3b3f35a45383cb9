package stroke

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned for colour strings ParseColor does not accept.
var ErrInvalidColor = errors.New("invalid color")

// ParseColor parses a CSS colour: #rgb, #rgba, #rrggbb, #rrggbbaa,
// rgb(r, g, b), rgba(r, g, b, a), transparent, or a CSS colour name.
func ParseColor(s string) (color.Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return nil, fmt.Errorf("%w: empty", ErrInvalidColor)
	case v == "transparent":
		return color.Transparent, nil
	case strings.HasPrefix(v, "#"):
		c, ok := parseHex(v[1:])
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		return c, nil
	case strings.HasPrefix(v, "rgb"):
		return parseFunctional(v, s)
	}
	if c, ok := colornames.Map[v]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// parseHex decodes the digits after '#'. Short forms repeat each digit.
func parseHex(s string) (color.NRGBA, bool) {
	if len(s) == 3 || len(s) == 4 {
		long := make([]byte, 0, 2*len(s))
		for i := 0; i < len(s); i++ {
			long = append(long, s[i], s[i])
		}
		s = string(long)
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return color.NRGBA{}, false
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, true
}

func parseFunctional(v, orig string) (color.Color, error) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, orig)
	}
	name := v[:open]
	args := strings.Split(v[open+1:len(v)-1], ",")
	if (name == "rgb" && len(args) != 3) || (name == "rgba" && len(args) != 4) ||
		(name != "rgb" && name != "rgba") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, orig)
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(args[i]))
		if err != nil || n < 0 || n > 255 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidColor, orig)
		}
		ch[i] = uint8(n)
	}
	alpha := uint8(255)
	if len(args) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(args[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidColor, orig)
		}
		alpha = uint8(a*255 + 0.5)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
}

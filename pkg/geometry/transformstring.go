package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// FormatTransform encodes t as "[[r00 r01 r02 ][r10 r11 r12 ][r20 r21 r22 ]][ox oy oz ]".
// Numbers use the shortest representation that parses back to the same float64.
func FormatTransform(t *AffineTransform) string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < 3; i++ {
		b.WriteByte('[')
		for j := 0; j < 3; j++ {
			b.WriteString(strconv.FormatFloat(t.matrix[i][j], 'g', -1, 64))
			b.WriteByte(' ')
		}
		b.WriteByte(']')
	}
	b.WriteString("][")
	for _, v := range []float64{t.offset.X, t.offset.Y, t.offset.Z} {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte(' ')
	}
	b.WriteByte(']')
	return b.String()
}

// ParseTransform decodes the format written by FormatTransform.
func ParseTransform(s string) (*AffineTransform, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("transform %q: expected [[matrix]][offset]", s)
	}
	groups := strings.Split(s, "][")
	if len(groups) != 4 {
		return nil, fmt.Errorf("transform %q: expected 3 matrix rows and an offset, got %d groups", s, len(groups))
	}
	values := strings.FieldsFunc(s, func(r rune) bool {
		return r == '[' || r == ']' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(values) != 12 {
		return nil, fmt.Errorf("transform %q: expected 12 numbers, got %d", s, len(values))
	}
	nums := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("transform %q: value %d: %w", s, i, err)
		}
		nums[i] = f
	}
	var m Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = nums[3*i+j]
		}
	}
	return NewAffineTransformFrom(m, r3.Vec{X: nums[9], Y: nums[10], Z: nums[11]}), nil
}

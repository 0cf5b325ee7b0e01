package retailers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMobile(t *testing.T) {
	cases := map[string]string{
		" +880-17 11 ": "+8801711",
		"(017)11":      "01711",
		"+":            "",
		"8+80":         "880",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeMobile(in), in)
	}
}

package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My First Post", "my-first-post"},
		{"Hello, World!", "hello-world"},
		{"  spaced   out  ", "spaced-out"},
		{"Crème Brûlée", "creme-brulee"},
		{"100% Go", "100-go"},
		{"already-a-slug", "already-a-slug"},
		{"UPPER", "upper"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, Make(c.in), "input: %q", c.in)
	}
}

func TestMakeDeterministic(t *testing.T) {
	assert.Equal(t, Make("Some Title"), Make("Some Title"))
}

package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	r := NewTemplateRenderer()
	env := map[string]float64{"sum": 5, "prod": 6, "half": 2.5, "neg": -3}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "integral values render without decimal point",
			template: "Solve x**2 - {{sum}}x + {{prod}} = 0",
			want:     "Solve x**2 - 5x + 6 = 0",
		},
		{
			name:     "fractional value keeps its decimals",
			template: "{{half}} of the total",
			want:     "2.5 of the total",
		},
		{
			name:     "negative integral value",
			template: "shift by {{neg}}",
			want:     "shift by -3",
		},
		{
			name:     "whitespace inside braces",
			template: "{{ sum }} and {{  prod  }}",
			want:     "5 and 6",
		},
		{
			name:     "unknown name is marked, not dropped",
			template: "area is {{area}}",
			want:     "area is <area?>",
		},
		{
			name:     "text without placeholders passes through",
			template: "no substitutions here",
			want:     "no substitutions here",
		},
		{
			name:     "single braces are not placeholders",
			template: "set {sum} literal",
			want:     "set {sum} literal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Render(tt.template, env))
		})
	}
}

func TestRender_NilEnvironment(t *testing.T) {
	r := NewTemplateRenderer()
	assert.Equal(t, "<x?>", r.Render("{{x}}", nil))
}

func TestRender_ValuesOutsideInt64Range(t *testing.T) {
	r := NewTemplateRenderer()
	env := map[string]float64{
		"huge": 1e300,
		"tiny": -1e300,
		"inf":  math.Inf(1),
	}

	assert.Equal(t, "1e+300", r.Render("{{huge}}", env))
	assert.Equal(t, "-1e+300", r.Render("{{tiny}}", env))
	assert.Equal(t, "+Inf", r.Render("{{inf}}", env))
}

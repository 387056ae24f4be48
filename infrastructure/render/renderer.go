// Package render fills prompt templates from instance environments.
package render

import (
	"math"
	"regexp"
	"strconv"

	"github.com/ahrav/go-slate/internal/ports"
)

// placeholderPattern matches {{name}} with optional inner whitespace.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_]\w*)\s*\}\}`)

// TemplateRenderer substitutes environment values into {{name}}
// placeholders. Integral values render without a decimal point, so a
// prompt reads "6" rather than "6.0". A placeholder whose name is not
// bound in the environment renders as <name?> to make the authoring
// mistake visible in the output instead of silently disappearing.
type TemplateRenderer struct{}

var _ ports.Renderer = TemplateRenderer{}

// NewTemplateRenderer returns a ready-to-use renderer.
func NewTemplateRenderer() TemplateRenderer { return TemplateRenderer{} }

// Render implements the Renderer interface.
func (TemplateRenderer) Render(template string, env map[string]float64) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		v, ok := env[name]
		if !ok {
			return "<" + name + "?>"
		}
		return formatValue(v)
	})
}

// formatValue renders integral floats as integers and everything else
// in shortest round-trip form. Integral values outside the int64 range
// cannot take the integer path: the float-to-int conversion is not
// defined for them, so they render as floats. The upper bound is strict
// because MaxInt64 rounds up to 2^63 as a float64, which itself
// overflows the conversion.
func formatValue(v float64) string {
	if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

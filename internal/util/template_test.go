package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		state map[string]any
		want  string
	}{
		{"plain text", "no markers here", nil, "no markers here"},
		{"field", "Hello {{.Name}}", map[string]any{"Name": "hive"}, "Hello hive"},
		{"default", `{{default "anon" .Name}}`, map[string]any{"Name": ""}, "anon"},
		{"upper lower", "{{upper .A}} {{lower .B}}", map[string]any{"A": "x", "B": "Y"}, "X y"},
		{"indent", `{{indent "  " .Body}}`, map[string]any{"Body": "a\nb"}, "  a\n  b"},
		{"join", `{{join ", " .Items}}`, map[string]any{"Items": []string{"a", "b"}}, "a, b"},
		{"no escaping", "{{.V}}", map[string]any{"V": `<"json">`}, `<"json">`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderTemplate(tt.text, tt.state)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderTemplate_ParseError(t *testing.T) {
	_, err := RenderTemplate("{{.Broken", nil)
	assert.ErrorContains(t, err, "parse template")

	assert.Panics(t, func() { MustRenderTemplate("{{if}}", nil) })
}

func TestRenderTemplate_Cached(t *testing.T) {
	text := "cached {{.N}}"
	first, err := RenderTemplate(text, map[string]any{"N": 1})
	require.NoError(t, err)
	_, ok := templateCache.Load(text)
	assert.True(t, ok)

	second, err := RenderTemplate(text, map[string]any{"N": 2})
	require.NoError(t, err)
	assert.Equal(t, "cached 1", first)
	assert.Equal(t, "cached 2", second)
}

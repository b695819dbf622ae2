package util

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

var templateCache sync.Map // text -> *template.Template

var templateFuncs = template.FuncMap{
	"default": func(defaultVal any, val any) any {
		if val == nil || val == "" {
			return defaultVal
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"indent": func(prefix, s string) string {
		if s == "" {
			return s
		}
		return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
	},
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},
}

// RenderTemplate executes text as a text/template against state. Parsed
// templates are cached by their source text.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}

	var tmpl *template.Template
	if cached, ok := templateCache.Load(text); ok {
		tmpl = cached.(*template.Template)
	} else {
		parsed, err := template.New("prompt").Option("missingkey=zero").Funcs(templateFuncs).Parse(text)
		if err != nil {
			return "", fmt.Errorf("parse template: %w", err)
		}
		templateCache.Store(text, parsed)
		tmpl = parsed
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// MustRenderTemplate is RenderTemplate for templates known to be valid.
func MustRenderTemplate(text string, state map[string]any) string {
	out, err := RenderTemplate(text, state)
	if err != nil {
		panic(err)
	}
	return out
}

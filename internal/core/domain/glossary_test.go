package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "alpha; beta;gamma", []string{"alpha", "beta", "gamma"}},
		{"trailing separator", "alpha; beta;", []string{"alpha", "beta"}},
		{"blank entries", " ; alpha ;; ", []string{"alpha"}},
		{"empty", "", []string{}},
		{"duplicates preserved", "alpha; alpha", []string{"alpha", "alpha"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKeywords(tt.in))
		})
	}
}

func TestNormalizeDefinition(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading and bullets", "**Term**\n- point one\n\npoint two", "point one point two"},
		{"inline bold", "A **bold** claim", "A bold claim"},
		{"heading with colon", "**Entropy**:\nMeasure of disorder.", "Measure of disorder."},
		{"empty", "   ", NoDefinition},
		{"only heading", "**Term**", NoDefinition},
		{"bullet star", "* first\n* second", "first second"},
		{"bullet dot", "• first\n  • second", "first second"},
		{"leading minus kept", "-5 K drift\n- measured daily", "-5 K drift measured daily"},
		{"lone bullet", "-\nvalue", "value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDefinition(tt.in))
		})
	}
}

func TestGlossary_Markdown(t *testing.T) {
	g := Glossary{
		{Keyword: "entropy", Definition: "Measure of disorder."},
		{Keyword: "enthalpy", Definition: "Heat\ncontent."},
	}
	assert.Equal(t,
		"**entropy**: Measure of disorder.\n\n**enthalpy**: Heat content.\n\n",
		g.Markdown())
	assert.Equal(t, []string{"entropy", "enthalpy"}, g.Keywords())
	assert.Empty(t, Glossary{}.Markdown())
}

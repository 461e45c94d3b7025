package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cruzador/internal/model"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		mode      model.MatchMode
		skipEmpty bool
		want      string
		wantOK    bool
	}{
		{"exact trims", "  A1\t", model.MatchExact, false, "A1", true},
		{"exact keeps case", "a1", model.MatchExact, false, "a1", true},
		{"exact keeps accents", "Ñ-1", model.MatchExact, false, "Ñ-1", true},
		{"exact empty becomes placeholder", "", model.MatchExact, false, EmptyPlaceholder, true},
		{"exact blank becomes empty string", "   ", model.MatchExact, false, "", true},
		{"exact skip empty", "", model.MatchExact, true, "", false},
		{"exact skip blank", "   ", model.MatchExact, true, "", false},
		{"lenient folds", " ÁB  Ç-1 ", model.MatchLenient, false, "ab c-1", true},
		{"lenient drops empty", "", model.MatchLenient, false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeCode(tt.raw, tt.mode, tt.skipEmpty)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFoldText(t *testing.T) {
	assert.Equal(t, "codigo de barras", FoldText("  Código   de\tBarras "))
	assert.Equal(t, "identificacao", FoldText("IDENTIFICAÇÃO"))
	assert.Equal(t, "", FoldText(" \n "))
}

func TestKeyColumn(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		mode   model.MatchMode
		want   int
		wantOK bool
	}{
		{"exact first match", []string{"nombre", "codigo", "codigo"}, model.MatchExact, 1, true},
		{"exact is case sensitive", []string{"Codigo", "CODIGO"}, model.MatchExact, 0, false},
		{"exact does not trim", []string{" codigo"}, model.MatchExact, 0, false},
		{"lenient accents", []string{"Nombre", "Código"}, model.MatchLenient, 1, true},
		{"lenient barcode", []string{"Cantidad", "Codigo de barras"}, model.MatchLenient, 1, true},
		{"lenient priority", []string{"SKU", "Cod. interno"}, model.MatchLenient, 1, true},
		{"lenient whole words only", []string{"Cantidad", "Descripción", "EAN"}, model.MatchLenient, 2, true},
		{"lenient id", []string{"Nombre", "ID"}, model.MatchLenient, 1, true},
		{"lenient none", []string{"Nombre", "Cantidad"}, model.MatchLenient, 0, false},
		{"empty header", nil, model.MatchExact, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeyColumn(tt.header, "codigo", tt.mode)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyColumn_LenientCustomKey(t *testing.T) {
	got, ok := KeyColumn([]string{"SKU", "Referencia"}, "referencia", model.MatchLenient)
	assert.True(t, ok)
	assert.Equal(t, 1, got)
}

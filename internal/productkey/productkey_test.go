package productkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_CaseWhitespaceAccents(t *testing.T) {
	// the dedup-critical property: all spellings of one product collide
	variants := []string{
		"Leche Entera 1L",
		"LECHE ENTERA 1L ",
		"leche entera 1l",
		"  LECHE   ENTERA  1L",
	}
	for _, v := range variants {
		assert.Equal(t, "LECHE ENTERA", Resolve(v), "variant %q", v)
	}
}

func TestResolve_AccentFolding(t *testing.T) {
	assert.Equal(t, Resolve("PLATANO"), Resolve("PLÁTANO"))
	assert.Equal(t, "PATE IBERICO", Resolve("Paté Ibérico"))
}

func TestResolve_PackagingSuffixes(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"AGUA MINERAL 6X1L", "AGUA MINERAL"},
		{"ACEITE OLIVA 1,5 L", "ACEITE OLIVA"},
		{"TOMATE FRITO 400 G", "TOMATE FRITO"},
		{"CERVEZA PACK 6", "CERVEZA"},
		{"YOGUR NATURAL P6", "YOGUR NATURAL"},
		{"HUEVOS 12 UDS", "HUEVOS"},
		{"REFRESCO COLA 500ML", "REFRESCO COLA"},
		{"CERVEZA TOSTADA PACK 6 330 ML", "CERVEZA TOSTADA"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Resolve(tt.raw), tt.raw)
	}
}

func TestResolve_ProductWordsUntouched(t *testing.T) {
	// tokens inside the name are never stripped, only the tail
	assert.Equal(t, "PACK 6 SORPRESA", Resolve("PACK 6 SORPRESA"))
}

func TestResolve_Total(t *testing.T) {
	// never fails and always leaves at least one token
	assert.Equal(t, "", Resolve(""))
	assert.Equal(t, "", Resolve("   "))
	assert.Equal(t, "1L", Resolve("1L"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "LASANA", Fold("Lasaña"))
	assert.Equal(t, "CAFE", Fold(" café "))
}

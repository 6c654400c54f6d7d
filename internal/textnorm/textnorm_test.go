package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_WhitespaceAndLineEndings(t *testing.T) {
	raw := "MERCADONA,  S.A.\r\n  AVDA.\tDEL   PUERTO \r205\f46011 VALENCIA\n\n"

	lines := Normalize(raw)
	assert.Equal(t, []string{
		"MERCADONA, S.A.",
		"AVDA. DEL PUERTO",
		"205",
		"46011 VALENCIA",
	}, lines)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Nil(t, Normalize(""))
	assert.Nil(t, Normalize("  \n\t\n  "))
}

func TestNormalize_JoinsHyphenatedBreaks(t *testing.T) {
	lines := Normalize("1 MANZA-\nNA GOLDEN 2,15\n")
	assert.Equal(t, []string{"1 MANZANA GOLDEN 2,15"}, lines)
}

func TestNormalize_DropsRepeatedFurniture(t *testing.T) {
	raw := "MERCADONA, S.A.\nPágina 1\n1 LECHE 0,97\nPágina 1\n1 PAN 1,20\nPágina 1\n"

	lines := Normalize(raw)
	assert.Equal(t, []string{
		"MERCADONA, S.A.",
		"Página 1",
		"1 LECHE 0,97",
		"1 PAN 1,20",
	}, lines, "repeated furniture keeps only its first occurrence")
}

func TestNormalize_KeepsRepeatedAmountLines(t *testing.T) {
	raw := "header\n1 LECHE 0,97\n1 LECHE 0,97\n"

	lines := Normalize(raw)
	assert.Equal(t, []string{"header", "1 LECHE 0,97", "1 LECHE 0,97"}, lines,
		"identical item lines are data, not furniture")
}

func TestNormalize_ComposesAccents(t *testing.T) {
	// decomposed form: A followed by a combining acute
	lines := Normalize("PLA\u0301TANO")
	assert.Equal(t, []string{"PL\u00c1TANO"}, lines)
}

func TestNormalize_NonBreakingSpace(t *testing.T) {
	lines := Normalize("TOTAL\u00a0(\u20ac)\u00a012,30")
	assert.Equal(t, []string{"TOTAL (\u20ac) 12,30"}, lines)
}

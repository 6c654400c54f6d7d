package ticketparser

import (
	"testing"
	"time"

	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTicket = `MERCADONA, S.A.   A-46103834
AVDA. DEL PUERTO 205 46011 VALENCIA
TELÉFONO: 963671011
25/03/2025 19:42  OP: 172299
FACTURA SIMPLIFICADA: 3961-017-836661
Descripción P. Unit Importe
3 LECHE ENTERA 1L 0,97 2,91
1 PAPEL HIGIENICO 3,55
PLÁTANO
0,654 kg 1,79 €/kg 1,17
1 PATATA
0,802 kg 1,90 €/kg 1,52
DESCUENTO 2ª UNIDAD -1,00
TOTAL (€) 8,15
TARJETA BANCARIA
**** **** **** 1234
`

func TestParseText_FullTicket(t *testing.T) {
	r, err := ParseText(sampleTicket, nil)
	require.NoError(t, err)

	assert.Equal(t, "3961-017-836661", r.InvoiceNumber)
	assert.Equal(t, time.Date(2025, 3, 25, 19, 42, 0, 0, time.UTC), r.Date)
	assert.Equal(t, "1234", r.CardLast4)
	assert.Equal(t, "46011", r.PostalCode)
	assert.Equal(t, "AVDA. DEL PUERTO 205 46011 VALENCIA", r.Store)
	assert.True(t, r.Total.Equal(decimal.RequireFromString("8.15")))
	assert.Equal(t, models.SourceScanned, r.Source)
	assert.Empty(t, r.Warnings)

	require.Len(t, r.Lines, 5)

	leche := r.Lines[0]
	assert.Equal(t, "LECHE ENTERA 1L", leche.Description)
	assert.Equal(t, models.LineKindUnit, leche.Kind)
	assert.True(t, leche.Quantity.Equal(decimal.NewFromInt(3)))
	assert.True(t, leche.UnitPrice.Equal(decimal.RequireFromString("0.97")))
	assert.True(t, leche.Total.Equal(decimal.RequireFromString("2.91")))

	papel := r.Lines[1]
	assert.Equal(t, models.LineKindUnit, papel.Kind)
	assert.True(t, papel.Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, papel.UnitPrice.Equal(papel.Total))

	platano := r.Lines[2]
	assert.Equal(t, "PLÁTANO", platano.Description)
	assert.Equal(t, models.LineKindWeight, platano.Kind)
	assert.True(t, platano.Quantity.Equal(decimal.RequireFromString("0.654")))
	assert.True(t, platano.UnitPrice.Equal(decimal.RequireFromString("1.79")))
	assert.True(t, platano.Total.Equal(decimal.RequireFromString("1.17")))

	patata := r.Lines[3]
	assert.Equal(t, "PATATA", patata.Description)
	assert.Equal(t, models.LineKindWeight, patata.Kind)
	assert.True(t, patata.Total.Equal(decimal.RequireFromString("1.52")))

	promo := r.Lines[4]
	assert.Equal(t, models.LineKindPromo, promo.Kind)
	assert.True(t, promo.Total.Equal(decimal.RequireFromString("-1.00")))
	assert.True(t, promo.IsPromo())
}

func TestParse_InlineWeightForm(t *testing.T) {
	lines := []string{
		"25/03/2025 19:42",
		"FACTURA SIMPLIFICADA: 3961-017-000001",
		"Descripción P. Unit Importe",
		"Plátano 0.654 kg x 1.79 €/kg",
		"TOTAL (€) 1,17",
	}

	r, err := Parse(lines, nil)
	require.NoError(t, err)
	require.Len(t, r.Lines, 1)

	item := r.Lines[0]
	assert.Equal(t, "Plátano", item.Description)
	assert.Equal(t, models.LineKindWeight, item.Kind)
	assert.True(t, item.Quantity.Equal(decimal.RequireFromString("0.654")))
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("1.79")))
	// 0.654 * 1.79 = 1.17066, rounded to cents
	assert.True(t, item.Total.Equal(decimal.RequireFromString("1.17")), "got %s", item.Total)
}

func TestParse_MissingDate(t *testing.T) {
	lines := []string{
		"MERCADONA, S.A.",
		"FACTURA SIMPLIFICADA: 3961-017-000002",
		"TOTAL (€) 5,00",
	}

	_, err := Parse(lines, nil)
	require.Error(t, err)
	assert.True(t, parsererror.IsMissingHeaderField(err))

	var missing *parsererror.MissingHeaderFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "date", missing.Field)
}

func TestParse_MissingInvoice(t *testing.T) {
	lines := []string{
		"25/03/2025 19:42",
		"TOTAL (€) 5,00",
	}

	_, err := Parse(lines, nil)
	require.Error(t, err)

	var missing *parsererror.MissingHeaderFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "invoice number", missing.Field)
}

func TestParse_AlternativeAnchors(t *testing.T) {
	lines := []string{
		"TIENDA: CALLE MAYOR 1",
		"FECHA: 05/01/2025",
		"Nº FACTURA: 12-345",
		"TOTAL 12,30 €",
		"TARJETA 5678",
	}

	r, err := Parse(lines, nil)
	require.NoError(t, err)

	assert.Equal(t, "12-345", r.InvoiceNumber)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, "CALLE MAYOR 1", r.Store)
	assert.Equal(t, "5678", r.CardLast4)
	assert.True(t, r.Total.Equal(decimal.RequireFromString("12.30")))
}

func TestParse_FirstAnchorWins(t *testing.T) {
	lines := []string{
		"25/03/2025 19:42",
		"FECHA: 01/01/2020",
		"FACTURA SIMPLIFICADA: 1111-222-333",
		"Nº FACTURA: 999",
	}

	r, err := Parse(lines, nil)
	require.NoError(t, err)

	assert.Equal(t, "1111-222-333", r.InvoiceNumber)
	assert.Equal(t, 2025, r.Date.Year())
}

func TestParse_UnparsableLineBecomesWarning(t *testing.T) {
	lines := []string{
		"25/03/2025 19:42",
		"FACTURA SIMPLIFICADA: 3961-017-000003",
		"Descripción P. Unit Importe",
		"1 QUESO CURADO 4,50",
		"@@garbled item line@@ 9,99",
		"TOTAL (€) 4,50",
	}

	r, err := Parse(lines, nil)
	require.NoError(t, err)

	require.Len(t, r.Lines, 1)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0].Line, "garbled")
}

func TestParse_SectionHeadersIgnored(t *testing.T) {
	lines := []string{
		"25/03/2025 19:42",
		"FACTURA SIMPLIFICADA: 3961-017-000004",
		"Descripción P. Unit Importe",
		"PESCADO",
		"GALERAS",
		"0,426 kg 9,95 €/kg 4,24",
		"TOTAL (€) 4,24",
	}

	r, err := Parse(lines, nil)
	require.NoError(t, err)

	require.Len(t, r.Lines, 1)
	assert.Equal(t, "GALERAS", r.Lines[0].Description)
	assert.Empty(t, r.Warnings)
}

func TestParse_NoItemBlock(t *testing.T) {
	lines := []string{
		"25/03/2025 19:42",
		"FACTURA SIMPLIFICADA: 3961-017-000005",
		"TOTAL (€) 20,00",
	}

	r, err := Parse(lines, nil)
	require.NoError(t, err)
	assert.Empty(t, r.Lines)
	assert.True(t, r.Total.Equal(decimal.NewFromInt(20)))
}

func TestParse_MultiPageStream(t *testing.T) {
	// Page furniture is removed by normalization; the parser itself must
	// treat an item block spanning a page break as one continuous run.
	lines := []string{
		"25/03/2025 19:42",
		"FACTURA SIMPLIFICADA: 3961-017-000006",
		"Descripción P. Unit Importe",
		"2 AGUA MINERAL 6X1L 0,60 1,20",
		"1 ACEITE OLIVA 1L 4,85",
		"TOTAL (€) 6,05",
	}

	r, err := Parse(lines, nil)
	require.NoError(t, err)
	require.Len(t, r.Lines, 2)
	assert.True(t, r.LineSum().Equal(decimal.RequireFromString("6.05")))
}

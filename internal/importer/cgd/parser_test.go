package cgd_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/importer/cgd"
)

func TestParser_Conta(t *testing.T) {
	csv := `Consultar saldos e movimentos à ordem - 31-01-2026;"=""0000"""
Nome cliente;JOHN DOE
NIF;"=""123"""

Dados da conta
Conta;0000 - EUR - Conta Extracto
Saldo contabilístico;1.000,00 EUR
Saldo disponível;1.000,00 EUR

Dados da consulta
Período;Últimos 90 dias
Intervalo de;01-01-2026 a 31-01-2026
Tipos de movimento;Todos

Data mov.;Data-valor;Descrição;Montante;Saldo contabilístico após movimento
30-01-2026;30-01-2026;INSTITUTO GESTAO FINA;-588,74;48.825,46
09-01-2026;09-01-2026;TFI Wise;8.608,52;52.532,78
`

	p := cgd.NewParser()
	recs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "2026-01-30", recs[0].OccurredAt)
	assert.Equal(t, "INSTITUTO GESTAO FINA", recs[0].Description)
	assert.Equal(t, candidate.RawAmount("588.74"), recs[0].Amount)
	assert.Equal(t, "expense", recs[0].InferredKind)

	assert.Equal(t, "2026-01-09", recs[1].OccurredAt)
	assert.Equal(t, "TFI Wise", recs[1].Description)
	assert.Equal(t, candidate.RawAmount("8608.52"), recs[1].Amount)
	assert.Equal(t, "income", recs[1].InferredKind)
}

func TestParser_Extrato(t *testing.T) {
	csv := `Consultar extrato - 15-02-2026 : 0829015676030
Nome empresa ;VIBRANTGARDEN UNIPESSOAL,LDA
NIF ;517948974
Conta ;0829015676030 - EUR - Conta Extracto
Intervalo de ;01-02-2026 a 14-02-2026
Tipos de movimento ;Todos
Saldo contabilístico Inicial ;48.825,46
Saldo contabilístico final ;41.393,66

Data mov. ;Data valor ;Origem ;Descrição ;Movimento ;Estorno ;Saldo contabilístico após movimento ;
13-02-2026;13-02-2026;"=""0003""";PAGAMENTO TSU ;-608,13;  ;41.393,66;
04-02-2026;04-02-2026;SIBS ;TFI Wise ;4.324,06;  ;51.302,85;
`

	p := cgd.NewParser()
	recs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "2026-02-13", recs[0].OccurredAt)
	assert.Equal(t, "PAGAMENTO TSU", recs[0].Description)
	assert.Equal(t, candidate.RawAmount("608.13"), recs[0].Amount)
	assert.Equal(t, "expense", recs[0].InferredKind)

	assert.Equal(t, "2026-02-04", recs[1].OccurredAt)
	assert.Equal(t, "TFI Wise", recs[1].Description)
	assert.Equal(t, candidate.RawAmount("4324.06"), recs[1].Amount)
	assert.Equal(t, "income", recs[1].InferredKind)
}

func TestParser_Cartao(t *testing.T) {
	csv := `Consultar saldos e movimentos de cartões - 15-02-2026
Nome empresa ;VIBRANTGARDEN UNIPESSOAL,LDA
NIF ;517948974

Conta cartão ;4163 **** **** 8016 - EUR - Business Débito
Tipo de movimentos ;Conta à ordem
Desde ;15/12/2025

Data ;Data valor ;Descrição ;Débito ;Crédito ;
16-12-2025 ;14-12-2025 ;PA GONDOMAR         GONDOMAR ;64,00 ; ;
31-12-2025 ;29-12-2025 ;UBER   *TRIP             HELP.UBER.COMNL ;47,91 ; ;
 ; ; ; ;Página 1/2 ;
`

	p := cgd.NewParser()
	recs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "2025-12-16", recs[0].OccurredAt)
	assert.Equal(t, "PA GONDOMAR         GONDOMAR", recs[0].Description)
	assert.Equal(t, candidate.RawAmount("64.00"), recs[0].Amount)
	assert.Equal(t, "expense", recs[0].InferredKind)

	assert.Equal(t, "2025-12-31", recs[1].OccurredAt)
	assert.Equal(t, "UBER   *TRIP             HELP.UBER.COMNL", recs[1].Description)
	assert.Equal(t, candidate.RawAmount("47.91"), recs[1].Amount)
	assert.Equal(t, "expense", recs[1].InferredKind)
}

func TestParser_CartaoCredit(t *testing.T) {
	csv := `Data ;Data valor ;Descrição ;Débito ;Crédito ;
16-12-2025 ;14-12-2025 ;REFUND AMAZON ;  ;25,00 ;
`

	p := cgd.NewParser()
	recs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, candidate.RawAmount("25.00"), recs[0].Amount)
	assert.Equal(t, "income", recs[0].InferredKind)
}

func TestParser_Latin1Encoding(t *testing.T) {
	utf8CSV := "Data mov.;Descrição;Montante\n30-01-2026;CAFÉ CENTRAL;-10,00\n"

	encoder := charmap.Windows1252.NewEncoder()
	latin1Bytes, err := encoder.Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	p := cgd.NewParser()
	recs, err := p.Parse(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, "CAFÉ CENTRAL", recs[0].Description)
}

func TestParser_DifferentColumnOrder(t *testing.T) {
	csv := `Random;MetaData
Montante;Descrição;Data mov.;Ignored
-10,00;TEST_ORDER;30-01-2026;XXX
`

	p := cgd.NewParser()
	recs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, "TEST_ORDER", recs[0].Description)
	assert.Equal(t, candidate.RawAmount("10.00"), recs[0].Amount)
}

func TestParser_EmptyFile(t *testing.T) {
	p := cgd.NewParser()
	_, err := p.Parse(strings.NewReader(""))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no matching CGD format")
}

func TestParser_HeaderOnly(t *testing.T) {
	csv := `Data mov.;Data-valor;Descrição;Montante`

	p := cgd.NewParser()
	recs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestParser_MissingDescriptionIsKept(t *testing.T) {
	csv := `Data mov.;Descrição;Montante
30-01-2026;;-10,00
`

	p := cgd.NewParser()
	recs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].Description)
	assert.Equal(t, "cgd:conta:row 2", recs[0].SourceRef)
}

func TestParser_AllFieldsPopulated(t *testing.T) {
	csv := `Data mov.;Descrição;Montante
30-01-2026;TEST;-10,00
`

	p := cgd.NewParser()
	recs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, candidate.RawRecord{
		OccurredAt:   "2026-01-30",
		Description:  "TEST",
		Amount:       "10.00",
		InferredKind: "expense",
		SourceRef:    "cgd:conta:row 2",
	}, recs[0])
}

func TestParser_LargeAmounts(t *testing.T) {
	csv := `Data mov.;Descrição;Montante
30-01-2026;BIG TRANSFER;-1.234.567,89
`

	p := cgd.NewParser()
	recs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, candidate.RawAmount("1234567.89"), recs[0].Amount)
}

func TestParser_RecordsNormalize(t *testing.T) {
	csv := `Data mov.;Descrição;Montante
30-01-2026;CAFÉ CENTRAL;-1.234,50
`

	recs, err := cgd.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	recs[0].OwnerID = "U1"

	c, err := candidate.NewNormalizer(nil).Normalize(recs[0], candidate.SourceDocumentScan)
	require.NoError(t, err)
	assert.Equal(t, int64(123450), c.Amount)
	assert.Equal(t, candidate.KindExpense, c.Kind)
	assert.Equal(t, 30, c.OccurredAt.Day())
}

func TestParser_SkipsFooterRows(t *testing.T) {
	csv := `Data mov.;Descrição;Montante
30-01-2026;TEST;-10,00
Totais;;;;
`

	p := cgd.NewParser()
	recs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestParser_SourceRefsFollowFileRows(t *testing.T) {
	csv := `Consultar saldos
Nome cliente;JOHN DOE

Data mov.;Descrição;Montante
30-01-2026;ZERO;0,00
29-01-2026;RENDA;-650,00
28-01-2026;SALARIO;1.500,00
`

	recs, err := cgd.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "cgd:conta:row 6", recs[0].SourceRef)
	assert.Equal(t, "expense", recs[0].InferredKind)
	assert.Equal(t, "cgd:conta:row 7", recs[1].SourceRef)
	assert.Equal(t, "income", recs[1].InferredKind)
}

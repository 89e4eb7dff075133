package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTypeFromAmount(t *testing.T) {
	assert.Equal(t, TypeIncome, TypeFromAmount(decimal.RequireFromString("850.50")))
	assert.Equal(t, TypeExpense, TypeFromAmount(decimal.RequireFromString("-125.75")))
	assert.Equal(t, TypeExpense, TypeFromAmount(decimal.Zero))
}

func TestDetectFileType(t *testing.T) {
	assert.Equal(t, FileTypeCSV, DetectFileType("Extrato Conta Corrente.CSV"))
	assert.Equal(t, FileTypeCSV, DetectFileType("export.txt"))
	assert.Equal(t, FileTypeOFX, DetectFileType("extrato.ofx"))
	assert.Equal(t, FileType(""), DetectFileType("fatura.xls"))
}

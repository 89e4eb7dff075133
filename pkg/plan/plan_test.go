package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

const samplePlan = `defaults:
  user_id: user-1
  category_id: cat-1
  duplicate_strategy: SKIP
  allocations:
    - responsible_id: resp-1
      percentage: 100
  csv:
    delimiter: ";"
    has_header: true
    date_column: date
    description_column: description
    amount_column: amount
    locale: pt-BR
statements:
  - file: extrato-jan.csv
  - file: extrato-fev.ofx
    request:
      file_type: ofx
      duplicate_strategy: FLAG
`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndResolve(t *testing.T) {
	p, err := Load(writePlan(t, samplePlan))
	require.NoError(t, err)
	require.Len(t, p.Statements, 2)

	first := p.Resolve(p.Statements[0])
	assert.Equal(t, "user-1", first.UserID)
	assert.Equal(t, "cat-1", first.CategoryID)
	assert.Equal(t, models.DuplicateSkip, first.Strategy)
	assert.Equal(t, ";", first.CSV.Delimiter)
	require.Len(t, first.Allocations, 1)
	assert.Equal(t, "resp-1", first.Allocations[0].ResponsibleID)

	second := p.Resolve(p.Statements[1])
	assert.Equal(t, "user-1", second.UserID, "defaults fill unset fields")
	assert.Equal(t, models.FileTypeOFX, second.FileType)
	assert.Equal(t, models.DuplicateFlag, second.Strategy, "statement overrides win")
}

func TestLoad_NoStatements(t *testing.T) {
	_, err := Load(writePlan(t, "defaults:\n  user_id: user-1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no statements")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("does-not-exist.yaml")
	require.Error(t, err)
}

package postgres

import (
	"testing"

	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestSimilarMomentsQueryShape(t *testing.T) {
	db := dryRunDB(t)

	vec := make([]float32, len(models.ExpressionLabels))
	vec[0] = 0.9

	var rows []models.EmotionLogEntry
	stmt := similarMomentsQuery(db, "sess-1", vec, 5).Find(&rows).Statement

	require.Contains(t, stmt.SQL.String(), "ORDER BY")
	assert.Contains(t, stmt.SQL.String(), "embedding <-> ")
	assert.Contains(t, stmt.SQL.String(), "LIMIT")
	// session filter + embedding vector + limit all bind as vars
	assert.GreaterOrEqual(t, len(stmt.Vars), 3)
	assert.Equal(t, "sess-1", stmt.Vars[0])
}

func TestSimilarMomentsQueryDefaultLimit(t *testing.T) {
	db := dryRunDB(t)

	var rows []models.EmotionLogEntry
	stmt := similarMomentsQuery(db, "sess-1", []float32{0.1}, 0).Find(&rows).Statement

	require.Contains(t, stmt.SQL.String(), "LIMIT")
	assert.Contains(t, stmt.Vars, 5)
}

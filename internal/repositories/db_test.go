package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTenantScope(t *testing.T) {
	businessID := uuid.New()
	q := tenantScope("business_id", businessID).
		and("status = ?", "scheduled").
		and("(a = ? OR b = ?)", 3)

	assert.Equal(t, " WHERE business_id = $1 AND status = $2 AND (a = $3 OR b = $3)", q.where())
	assert.Equal(t, " LIMIT $4 OFFSET $5", q.page(10, 0))
	assert.Equal(t, []interface{}{businessID, "scheduled", 3, 10, 0}, q.args)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(nil))
}

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildListQuery_RequestListing(t *testing.T) {
	query, args := BuildListQuery(NewListQueryOptions("repair_requests",
		WithColumns("id", "customer_id", "status", "created_at"),
		WithCondition(WhereCond("status", Equal, "pending")),
		WithOrderBy("created_at", "DESC"),
		WithOrderBy("id", "DESC"),
		WithLimit(20),
		WithOffset(40),
	))

	assert.Equal(t,
		`SELECT "id", "customer_id", "status", "created_at" FROM "repair_requests"`+
			` WHERE "status" = $1 ORDER BY "created_at" DESC, "id" DESC LIMIT $2 OFFSET $3`,
		query)
	assert.Equal(t, []any{"pending", 20, 40}, args)
}

func TestBuildListQuery_NoOptions(t *testing.T) {
	query, args := BuildListQuery(NewListQueryOptions("employees"))

	assert.Equal(t, `SELECT * FROM "employees"`, query)
	assert.Empty(t, args)
}

func TestBuildListQuery_Nil(t *testing.T) {
	query, args := BuildListQuery(nil)

	assert.Empty(t, query)
	assert.Nil(t, args)
}

func TestBuildListQuery_MultipleConditions(t *testing.T) {
	query, args := BuildListQuery(NewListQueryOptions("repair_requests",
		WithCondition(WhereCond("customer_id", Equal, "cust-1")),
		WithCondition(WhereCond("assigned_to", NotEqual, "emp-1")),
		WithCondition(WhereCond("created_at", GreaterThanOrEqual, "2026-01-01")),
	))

	assert.Equal(t,
		`SELECT * FROM "repair_requests"`+
			` WHERE "customer_id" = $1 AND "assigned_to" != $2 AND "created_at" >= $3`,
		query)
	assert.Equal(t, []any{"cust-1", "emp-1", "2026-01-01"}, args)
}

func TestBuildListQuery_InCondition(t *testing.T) {
	t.Run("expands the slice into placeholders", func(t *testing.T) {
		query, args := BuildListQuery(NewListQueryOptions("repair_requests",
			WithCondition(WhereCond("status", In, []string{"pending", "assigned", "in_progress"})),
			WithCondition(WhereCond("customer_id", Equal, "cust-1")),
		))

		assert.Equal(t,
			`SELECT * FROM "repair_requests" WHERE "status" IN ($1, $2, $3) AND "customer_id" = $4`,
			query)
		assert.Equal(t, []any{"pending", "assigned", "in_progress", "cust-1"}, args)
	})

	t.Run("empty slice renders nothing and keeps numbering dense", func(t *testing.T) {
		query, args := BuildListQuery(NewListQueryOptions("repair_requests",
			WithCondition(WhereCond("status", In, []string{})),
			WithCondition(WhereCond("customer_id", Equal, "cust-1")),
		))

		assert.Equal(t, `SELECT * FROM "repair_requests" WHERE "customer_id" = $1`, query)
		assert.Equal(t, []any{"cust-1"}, args)
	})

	t.Run("non-slice value renders nothing", func(t *testing.T) {
		query, args := BuildListQuery(NewListQueryOptions("repair_requests",
			WithCondition(WhereCond("status", In, "pending")),
		))

		assert.Equal(t, `SELECT * FROM "repair_requests"`, query)
		assert.Empty(t, args)
	})
}

func TestBuildListQuery_ZeroLimitAndOffset(t *testing.T) {
	query, args := BuildListQuery(NewListQueryOptions("request_events",
		WithLimit(0),
		WithOffset(0),
	))

	assert.Equal(t, `SELECT * FROM "request_events" LIMIT $1 OFFSET $2`, query)
	assert.Equal(t, []any{0, 0}, args)
}

func TestBuildListQuery_NegativeLimitIgnored(t *testing.T) {
	query, args := BuildListQuery(NewListQueryOptions("request_events",
		WithLimit(-5),
		WithOffset(-5),
	))

	assert.Equal(t, `SELECT * FROM "request_events"`, query)
	assert.Empty(t, args)
}

func TestBuildListQuery_OrderDirection(t *testing.T) {
	t.Run("lowercase direction normalized", func(t *testing.T) {
		query, _ := BuildListQuery(NewListQueryOptions("employees",
			WithOrderBy("name", "asc"),
		))
		assert.Equal(t, `SELECT * FROM "employees" ORDER BY "name" ASC`, query)
	})

	t.Run("invalid direction falls back to database default", func(t *testing.T) {
		query, _ := BuildListQuery(NewListQueryOptions("employees",
			WithOrderBy("name", "sideways"),
		))
		assert.Equal(t, `SELECT * FROM "employees" ORDER BY "name"`, query)
	})
}

func TestBuildListQuery_SanitizesIdentifiers(t *testing.T) {
	t.Run("qualified column names quote each part", func(t *testing.T) {
		query, _ := BuildListQuery(NewListQueryOptions("repair_requests",
			WithColumns("repair_requests.id"),
			WithOrderBy("repair_requests.created_at", "DESC"),
		))
		assert.Equal(t,
			`SELECT "repair_requests"."id" FROM "repair_requests" ORDER BY "repair_requests"."created_at" DESC`,
			query)
	})

	t.Run("quotes defuse injection in a field name", func(t *testing.T) {
		query, args := BuildListQuery(NewListQueryOptions("repair_requests",
			WithCondition(WhereCond(`status" = 'x' OR "1"="1`, Equal, "pending")),
		))

		// The whole hostile field renders as one quoted identifier.
		assert.Contains(t, query, `"status"" = 'x' OR ""1""=""1" = $1`)
		assert.Equal(t, []any{"pending"}, args)
	})

	t.Run("values are never interpolated", func(t *testing.T) {
		query, args := BuildListQuery(NewListQueryOptions("repair_requests",
			WithCondition(WhereCond("issue", ILike, "%'; DROP TABLE repair_requests;--%")),
		))

		assert.Equal(t, `SELECT * FROM "repair_requests" WHERE "issue" ILIKE $1`, query)
		assert.Equal(t, []any{"%'; DROP TABLE repair_requests;--%"}, args)
	})
}

func TestBuildListQuery_EmptyFieldSkipped(t *testing.T) {
	query, args := BuildListQuery(NewListQueryOptions("repair_requests",
		WithCondition(WhereCond("", Equal, "pending")),
		WithCondition(WhereCond("status", Equal, "assigned")),
	))

	assert.Equal(t, `SELECT * FROM "repair_requests" WHERE "status" = $1`, query)
	assert.Equal(t, []any{"assigned"}, args)
}

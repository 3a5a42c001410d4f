package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/workflow/storetest"
)

// Runs against a disposable database named by WORKFLOW_TEST_DATABASE_URL.
// The schema is dropped before and after.
func TestPGStore(t *testing.T) {
	url := os.Getenv("WORKFLOW_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("WORKFLOW_TEST_DATABASE_URL is not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.DropSchema(ctx))
	t.Cleanup(func() { _ = s.DropSchema(ctx) })

	storetest.Run(t, s)
}

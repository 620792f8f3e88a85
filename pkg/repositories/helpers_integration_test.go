//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/chatforge-ai/chatforge-engine/pkg/database"
	"github.com/chatforge-ai/chatforge-engine/pkg/models"
	"github.com/chatforge-ai/chatforge-engine/pkg/testhelpers"
)

// projectCtx returns a context carrying a connection scoped to projectID.
func projectCtx(t *testing.T, tdb *testhelpers.TestDB, projectID uuid.UUID) context.Context {
	t.Helper()

	provider := database.NewProjectScopeProvider(tdb.DB)
	ctx, cleanup, err := provider.WithProjectScope(context.Background(), projectID)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return ctx
}

// globalCtx returns a context carrying an unscoped connection.
func globalCtx(t *testing.T, tdb *testhelpers.TestDB) context.Context {
	t.Helper()

	provider := database.NewProjectScopeProvider(tdb.DB)
	ctx, cleanup, err := provider.WithGlobalScope(context.Background())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return ctx
}

// createTestProject provisions a fresh project row and returns its id.
func createTestProject(t *testing.T, tdb *testhelpers.TestDB) uuid.UUID {
	t.Helper()

	project := &models.Project{ID: uuid.New(), Name: "test-project"}
	require.NoError(t, NewProjectRepository().Create(globalCtx(t, tdb), project))
	return project.ID
}

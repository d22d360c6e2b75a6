//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/example/licorice-storefront/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type postgresStorageSuite struct {
	suite.Suite

	container *postgres.PostgresContainer
	storage   *store.PostgresStorage
}

func TestPostgresStorageSuite(t *testing.T) {
	suite.Run(t, new(postgresStorageSuite))
}

func (suite *postgresStorageSuite) SetupSuite() {
	ctx := suite.T().Context()

	container, connStr, err := startPostgres(ctx)
	suite.Require().NoError(err)
	suite.container = container

	db, err := store.ConnectPostgres(connStr)
	suite.Require().NoError(err)

	suite.storage = store.NewPostgresStorage(db)
	suite.Require().NoError(suite.storage.EnsureSchema(ctx))
}

func (suite *postgresStorageSuite) TearDownSuite() {
	suite.Require().NoError(testcontainers.TerminateContainer(suite.container))
}

func (suite *postgresStorageSuite) TestSetGetDelete() {
	t := suite.T()
	ctx := t.Context()

	key := "session:" + gofakeit.UUID() + ":cart"
	value := []byte(fmt.Sprintf(`[{"id":%q,"quantity":2}]`, gofakeit.UUID()))

	require.NoError(t, suite.storage.Set(ctx, key, value))

	got, ok, err := suite.storage.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, string(value), string(got))

	require.NoError(t, suite.storage.Set(ctx, key, []byte(`[]`)))
	got, _, err = suite.storage.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, suite.storage.Delete(ctx, key))
	_, ok, err = suite.storage.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func (suite *postgresStorageSuite) TestEmptyKey() {
	t := suite.T()

	_, _, err := suite.storage.Get(t.Context(), "")
	assert.ErrorIs(t, err, store.ErrEmptyKey)
}

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	container, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	return container, connStr, nil
}

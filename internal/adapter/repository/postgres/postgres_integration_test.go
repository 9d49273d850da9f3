//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/shorten-api/internal/config"
	"github.com/vadimbarashkov/shorten-api/internal/entity"

	pg "github.com/vadimbarashkov/shorten-api/pkg/postgres"
)

const migrationsPath = "file://../../../../migrations"

type URLRepositoryIntegrationTestSuite struct {
	suite.Suite
	pgCont testcontainers.Container
	db     *sqlx.DB
	repo   *URLRepository
}

func (suite *URLRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	cfg := config.Postgres{
		User:     "test",
		Password: "test",
		DB:       "url_shortener",
		SSLMode:  "disable",
	}

	var err error
	suite.pgCont, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     cfg.User,
				"POSTGRES_PASSWORD": cfg.Password,
				"POSTGRES_DB":       cfg.DB,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		suite.T().Fatalf("Failed to start postgres container: %v", err)
	}

	cfg.Host, err = suite.pgCont.Host(ctx)
	if err != nil {
		suite.T().Fatalf("Failed to get container host: %v", err)
	}
	port, err := suite.pgCont.MappedPort(ctx, "5432")
	if err != nil {
		suite.T().Fatalf("Failed to get container port: %v", err)
	}
	cfg.Port = port.Int()

	if _, err := pg.RunMigrations(migrationsPath, cfg.DSN()); err != nil {
		suite.T().Fatalf("Failed to run migrations: %v", err)
	}

	suite.db, err = pg.New(ctx, cfg.DSN())
	if err != nil {
		suite.T().Fatalf("Failed to connect to database: %v", err)
	}

	suite.repo = NewURLRepository(suite.db)
}

func (suite *URLRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.db != nil {
		suite.db.Close()
	}
	if suite.pgCont != nil {
		if err := suite.pgCont.Terminate(context.Background()); err != nil {
			suite.T().Fatalf("Failed to terminate postgres container: %v", err)
		}
	}
}

func (suite *URLRepositoryIntegrationTestSuite) TearDownSubTest() {
	_, err := suite.db.Exec(`TRUNCATE TABLE urls RESTART IDENTITY CASCADE`)
	if err != nil {
		suite.T().Fatalf("Failed to clean urls table: %v", err)
	}
}

func (suite *URLRepositoryIntegrationTestSuite) TestSave() {
	ctx := context.Background()

	suite.Run("short code exists", func() {
		_, err := suite.repo.Save(ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)

		url, err := suite.repo.Save(ctx, "abc123", "https://example2.com")

		suite.ErrorIs(err, entity.ErrShortCodeExists)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		first, err := suite.repo.Save(ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)
		second, err := suite.repo.Save(ctx, "def456", "https://example.com")
		suite.Require().NoError(err)

		suite.Equal("abc123", first.ShortCode)
		suite.Equal("https://example.com", first.OriginalURL)
		suite.Zero(first.AccessCount)
		suite.Equal(first.CreatedAt, first.UpdatedAt)
		suite.Greater(second.ID, first.ID)
	})
}

func (suite *URLRepositoryIntegrationTestSuite) TestExists() {
	ctx := context.Background()

	suite.Run("success", func() {
		_, err := suite.repo.Save(ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)

		exists, err := suite.repo.Exists(ctx, "abc123")
		suite.NoError(err)
		suite.True(exists)

		exists, err = suite.repo.Exists(ctx, "zzz999")
		suite.NoError(err)
		suite.False(exists)
	})
}

func (suite *URLRepositoryIntegrationTestSuite) TestAccessCount() {
	ctx := context.Background()

	suite.Run("stats do not count", func() {
		_, err := suite.repo.Save(ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)

		for i := 0; i < 3; i++ {
			url, err := suite.repo.RetrieveByShortCode(ctx, "abc123")
			suite.Require().NoError(err)
			suite.Zero(url.AccessCount)
		}
	})

	suite.Run("concurrent resolutions", func() {
		const n = 50

		_, err := suite.repo.Save(ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = suite.repo.RetrieveAndUpdateStats(ctx, "abc123")
			}()
		}
		wg.Wait()

		url, err := suite.repo.RetrieveByShortCode(ctx, "abc123")
		suite.Require().NoError(err)
		suite.Equal(int64(n), url.AccessCount)
	})
}

func (suite *URLRepositoryIntegrationTestSuite) TestUpdate() {
	ctx := context.Background()

	suite.Run("url not found", func() {
		url, err := suite.repo.Update(ctx, "abc123", "https://new-example.com")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		saved, err := suite.repo.Save(ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)
		_, err = suite.repo.RetrieveAndUpdateStats(ctx, "abc123")
		suite.Require().NoError(err)

		first, err := suite.repo.Update(ctx, "abc123", "https://new-example.com")
		suite.Require().NoError(err)
		second, err := suite.repo.Update(ctx, "abc123", "https://newer-example.com")
		suite.Require().NoError(err)

		suite.Equal(saved.ShortCode, second.ShortCode)
		suite.Equal(saved.CreatedAt, second.CreatedAt)
		suite.Equal(int64(1), second.AccessCount)
		suite.Equal("https://newer-example.com", second.OriginalURL)
		suite.True(first.UpdatedAt.After(saved.UpdatedAt))
		suite.True(second.UpdatedAt.After(first.UpdatedAt))
	})
}

func (suite *URLRepositoryIntegrationTestSuite) TestRemove() {
	ctx := context.Background()

	suite.Run("success", func() {
		_, err := suite.repo.Save(ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)

		suite.NoError(suite.repo.Remove(ctx, "abc123"))
		suite.ErrorIs(suite.repo.Remove(ctx, "abc123"), entity.ErrURLNotFound)

		_, err = suite.repo.RetrieveByShortCode(ctx, "abc123")
		suite.ErrorIs(err, entity.ErrURLNotFound)
	})
}

func TestURLRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.SkipNow()
	}

	suite.Run(t, new(URLRepositoryIntegrationTestSuite))
}

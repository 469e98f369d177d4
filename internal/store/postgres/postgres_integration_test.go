package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rankstack/rankstack-sync/internal/store"
	"github.com/rankstack/rankstack-sync/internal/store/storetest"
)

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// makePGStore returns a migrated, empty store. It connects to
// RANKSTACK_SYNC_POSTGRES_TEST_DSN when set, or starts a disposable container
// (shared across the test run) when RANKSTACK_SYNC_TEST_PG_CONTAINER=1.
// Without either the test is skipped.
func makePGStore(t *testing.T) store.Store {
	t.Helper()

	dsn := os.Getenv("RANKSTACK_SYNC_POSTGRES_TEST_DSN")
	if dsn == "" && os.Getenv("RANKSTACK_SYNC_TEST_PG_CONTAINER") != "" {
		containerOnce.Do(func() { containerDSN, containerErr = startContainer() })
		if containerErr != nil {
			t.Fatalf("start postgres container: %v", containerErr)
		}
		dsn = containerDSN
	}
	if dsn == "" {
		t.Skip("RANKSTACK_SYNC_POSTGRES_TEST_DSN not set; skipping postgres store integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	// The database is shared; start each subtest from a clean slate.
	if err := s.Items().DeleteAll(ctx); err != nil {
		t.Fatalf("truncate items: %v", err)
	}
	if err := s.Collections().DeleteAll(ctx); err != nil {
		t.Fatalf("truncate collections: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "rankstack",
			"POSTGRES_PASSWORD": "rankstack",
			"POSTGRES_DB":       "rankstack_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("container port: %w", err)
	}
	return fmt.Sprintf("postgres://rankstack:rankstack@%s:%s/rankstack_test?sslmode=disable", host, port.Port()), nil
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makePGStore)
}

func TestPostgresStore_MigrateIdempotent(t *testing.T) {
	s := makePGStore(t)
	pg, ok := s.(*Store)
	if !ok {
		t.Fatalf("expected *Store, got %T", s)
	}
	// Running migrations again on an up-to-date schema must be a no-op.
	if err := Migrate(context.Background(), pg.DB()); err != nil {
		t.Fatalf("re-run migrations: %v", err)
	}
}

func TestPostgresStore_HealthPing(t *testing.T) {
	s := makePGStore(t)
	pg := s.(*Store)
	if err := pg.HealthPing(context.Background()); err != nil {
		t.Fatalf("health ping: %v", err)
	}
}

package store

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	carddb "github.com/avvvet/card-services/internal/cardsvc/db"
	"github.com/avvvet/card-services/internal/cardsvc/models"
	mongodb "github.com/avvvet/card-services/internal/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore checks the behaviour every SubscriberStore backend shares.
// s must be migrated and empty.
func exerciseStore(t *testing.T, s SubscriberStore) {
	t.Helper()
	ctx := context.Background()

	created, err := s.Upsert(ctx, models.Subscriber{UserID: 30, Username: "yonas", FirstName: "Yonas"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Upsert(ctx, models.Subscriber{UserID: 30, Username: "other", FirstName: "Other"})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = s.Upsert(ctx, models.Subscriber{UserID: 10, FirstName: "Abelo"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Upsert(ctx, models.Subscriber{UserID: 20, FirstName: "Liya"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.NoError(t, s.Migrate(ctx))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []int64{30, 10, 20}, []int64{got[0].UserID, got[1].UserID, got[2].UserID})
	assert.Equal(t, "yonas", got[0].Username)
	assert.Equal(t, "Yonas", got[0].FirstName)
	assert.Less(t, got[0].ID, got[1].ID)
	assert.Less(t, got[1].ID, got[2].ID)
}

func TestSQLiteSubscriberStoreBehaviour(t *testing.T) {
	exerciseStore(t, createTestStore(t))
}

func TestPgSubscriberStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_URL")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_URL required for postgres store tests")
	}

	pool, err := carddb.Connect(dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ctx := context.Background()
	s := NewPgSubscriberStore(pool)
	require.NoError(t, s.Migrate(ctx))
	_, err = pool.Exec(ctx, "TRUNCATE subscribers RESTART IDENTITY")
	require.NoError(t, err)

	exerciseStore(t, s)
}

func TestMongoSubscriberStore(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI required for mongo store tests")
	}

	mdb, err := mongodb.ConnectToDB(uri)
	require.NoError(t, err)

	// a throwaway database per run
	testDB := mdb.Client().Database("cards_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		testDB.Drop(ctx)
		mongodb.Disconnect(mdb)
	})

	s := NewMongoSubscriberStore(testDB)
	require.NoError(t, s.Migrate(context.Background()))

	exerciseStore(t, s)
}

package store

import (
	"context"
	"net"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/ngimbabet/predictions-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewGormStore(db, rdb), mock
}

func TestGetProfile(t *testing.T) {
	st, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"identity_id", "doc", "created_at", "updated_at"}).
		AddRow("u-1", []byte(`{"email":"x@example.com","subscription":"safe","status":"active"}`), time.Now(), time.Now())
	mock.ExpectQuery(`SELECT \* FROM "profile_records"`).WillReturnRows(rows)

	fields, err := st.GetProfile(context.Background(), "u-1")
	require.NoError(t, err)

	assert.Equal(t, "u-1", fields["id"])
	assert.Equal(t, "x@example.com", fields["email"])
	assert.Equal(t, "safe", fields["subscription"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileNotFound(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT \* FROM "profile_records"`).
		WillReturnRows(sqlmock.NewRows([]string{"identity_id", "doc", "created_at", "updated_at"}))

	_, err := st.GetProfile(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfileNotFound(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE "profile_records"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := st.UpdateProfile(context.Background(), "missing", Fields{"status": "inactive"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRecordMergesDocument(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE "records"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := st.UpdateRecord(context.Background(), CollectionMatches, "rec-1", Fields{"status": "won"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeCollectionRejectsBadOrderField(t *testing.T) {
	st, _ := newTestStore(t)

	_, err := st.SubscribeCollection(CollectionMatches, "date; DROP TABLE records", true, func(Snapshot) {})
	require.Error(t, err)
}

func TestAuthChangeRoundTrip(t *testing.T) {
	st, _ := newTestStore(t)

	events := make(chan models.AuthEvent, 4)
	unsub, err := st.OnAuthChange(func(ev models.AuthEvent) { events <- ev })
	require.NoError(t, err)
	defer unsub()

	sent := models.AuthEvent{
		Type:     models.AuthSignedIn,
		Identity: &models.Identity{ID: "u-1", Email: "x@example.com"},
	}

	// Publish until the subscription is live; pub/sub has no replay.
	var got models.AuthEvent
	require.Eventually(t, func() bool {
		require.NoError(t, st.PublishAuthChange(context.Background(), sent))
		select {
		case got = <-events:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.AuthSignedIn, got.Type)
	require.NotNil(t, got.Identity)
	assert.Equal(t, "u-1", got.Identity.ID)
}

func TestFieldsDocStripsID(t *testing.T) {
	doc, err := fieldsDoc(Fields{"id": "abc", "homeTeam": "Arsenal"})
	require.NoError(t, err)

	fields, err := docFields(doc, "xyz")
	require.NoError(t, err)

	assert.Equal(t, "xyz", fields["id"], "the row key wins over any embedded id")
	assert.Equal(t, "Arsenal", fields["homeTeam"])
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, classify(&net.OpError{Op: "dial", Err: context.DeadlineExceeded}), ErrUnavailable)
	assert.ErrorIs(t, classify(context.DeadlineExceeded), ErrUnavailable)
}

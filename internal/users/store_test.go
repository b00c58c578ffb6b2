package users

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func newMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI is not set")
	}
	ctx := context.Background()
	dbName := fmt.Sprintf("authenticator_test_%d", time.Now().UnixNano())
	store, err := OpenMongo(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.client.Database(dbName).Drop(ctx)
		_ = store.Close(ctx)
	})
	return store
}

func TestSQLStore(t *testing.T) {
	runStoreContract(t, newSQLiteStore(t), "999999")
}

func TestMongoStore(t *testing.T) {
	runStoreContract(t, newMongoStore(t), bson.NewObjectID().Hex())
}

func strPtr(s string) *string { return &s }

func runStoreContract(t *testing.T, store Store, unknownID string) {
	ctx := context.Background()

	otp := "123456"
	otpExp := time.Now().Add(15 * time.Minute).UTC()
	created, err := store.Create(ctx, &User{
		Name:                       "Alice",
		Email:                      "alice@example.com",
		Password:                   "hash",
		VerificationToken:          &otp,
		VerificationTokenExpiresAt: &otpExp,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.IsVerified)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := store.Create(ctx, &User{Name: "Other", Email: "alice@example.com", Password: "x"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("find by email and id", func(t *testing.T) {
		byEmail, err := store.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
		require.NotNil(t, byEmail.VerificationToken)
		assert.Equal(t, "123456", *byEmail.VerificationToken)
		require.NotNil(t, byEmail.VerificationTokenExpiresAt)
		assert.WithinDuration(t, otpExp, *byEmail.VerificationTokenExpiresAt, time.Second)

		byID, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", byID.Name)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.FindByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.FindByID(ctx, unknownID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.FindByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, ErrNotFound)

		err = store.Update(ctx, &User{ID: unknownID, Email: "ghost@example.com"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update clears tokens", func(t *testing.T) {
		u, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)

		resetExp := time.Now().Add(15 * time.Minute).UTC()
		u.IsVerified = true
		u.VerificationToken = nil
		u.VerificationTokenExpiresAt = nil
		u.ResetPasswordToken = strPtr("deadbeef")
		u.ResetPasswordExpiresAt = &resetExp
		require.NoError(t, store.Update(ctx, u))

		got, err := store.FindByResetToken(ctx, "alice@example.com", "deadbeef")
		require.NoError(t, err)
		assert.True(t, got.IsVerified)
		assert.Nil(t, got.VerificationToken)
		assert.Nil(t, got.VerificationTokenExpiresAt)

		_, err = store.FindByResetToken(ctx, "alice@example.com", "other")
		assert.ErrorIs(t, err, ErrNotFound)

		got.ResetPasswordToken = nil
		got.ResetPasswordExpiresAt = nil
		got.Password = "new-hash"
		require.NoError(t, store.Update(ctx, got))

		_, err = store.FindByResetToken(ctx, "alice@example.com", "deadbeef")
		assert.ErrorIs(t, err, ErrNotFound)

		final, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", final.Password)
		assert.Nil(t, final.ResetPasswordToken)
	})
}

func TestUserViewsOmitSecrets(t *testing.T) {
	u := &User{ID: "1", Name: "A", Email: "a@x.com", Password: "hash", IsVerified: true}

	p := u.Profile()
	assert.Equal(t, "a@x.com", p.Email)
	assert.True(t, p.IsVerified)

	s := u.Summary()
	assert.Equal(t, "1", s.ID)
	assert.Equal(t, "A", s.Name)
}

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/notes-api/internal/models"
)

type userStore interface {
	CreateUser(ctx context.Context, name, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
}

// runUserStoreContract exercises the behaviour every store must share.
func runUserStoreContract(t *testing.T, s userStore) {
	ctx := context.Background()

	t.Run("create and read back", func(t *testing.T) {
		email := gofakeit.Email()
		created, err := s.CreateUser(ctx, gofakeit.Name(), email, "$2a$04$digest")
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.NotNil(t, created.Posts)

		byEmail, err := s.GetUserByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
		assert.Equal(t, "$2a$04$digest", byEmail.Password)

		byID, err := s.GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, email, byID.Email)
		assert.Empty(t, byID.Posts)
	})

	t.Run("duplicate email", func(t *testing.T) {
		email := gofakeit.Email()
		_, err := s.CreateUser(ctx, "first", email, "x")
		require.NoError(t, err)

		_, err = s.CreateUser(ctx, "second", email, "y")
		assert.True(t, errors.Is(err, models.ErrDuplicateEmail), "got %v", err)
	})

	t.Run("email is case sensitive", func(t *testing.T) {
		email := "Case." + gofakeit.Email()
		_, err := s.CreateUser(ctx, "upper", email, "x")
		require.NoError(t, err)

		_, err = s.GetUserByEmail(ctx, "case."+email[len("Case."):])
		assert.True(t, errors.Is(err, models.ErrUserNotFound), "got %v", err)
	})

	t.Run("missing users", func(t *testing.T) {
		_, err := s.GetUserByEmail(ctx, "nobody-"+gofakeit.Email())
		assert.True(t, errors.Is(err, models.ErrUserNotFound))

		_, err = s.GetUserByID(ctx, "not-an-id")
		assert.True(t, errors.Is(err, models.ErrUserNotFound))

		err = s.SaveUser(ctx, &models.User{ID: "not-an-id"})
		assert.True(t, errors.Is(err, models.ErrUserNotFound))
	})

	t.Run("save persists posts in order", func(t *testing.T) {
		u, err := s.CreateUser(ctx, gofakeit.Name(), gofakeit.Email(), "x")
		require.NoError(t, err)

		u.Posts = append(u.Posts,
			models.Post{ID: "p1", Title: "first", Description: "one"},
			models.Post{ID: "p2", Title: "second", Description: "two"},
		)
		require.NoError(t, s.SaveUser(ctx, u))

		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, got.Posts, 2)
		assert.Equal(t, "p1", got.Posts[0].ID)
		assert.Equal(t, "second", got.Posts[1].Title)
	})
}

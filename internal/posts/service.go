package posts

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/notes-api/internal/models"
)

// UserStore is the slice of the credential store the post operations need.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
}

// Service manages the posts embedded in a user's record. Every operation
// resolves the owner first and only ever touches that owner's collection.
//
// Mutations are fetch/modify/save without locking or version checks, so two
// concurrent writes to one user's posts are last-write-wins.
type Service struct {
	users UserStore
	newID func() string
}

func NewService(users UserStore) *Service {
	return &Service{
		users: users,
		newID: func() string { return primitive.NewObjectID().Hex() },
	}
}

// Create appends a post and returns the owner's full collection.
func (s *Service) Create(ctx context.Context, userID, title, description string) ([]models.Post, error) {
	if err := validate(title, description); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Posts = append(user.Posts, models.Post{
		ID:          s.newID(),
		Title:       title,
		Description: description,
	})
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return models.ClonePosts(user.Posts), nil
}

// List returns the owner's posts in insertion order.
func (s *Service) List(ctx context.Context, userID string) ([]models.Post, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.ClonePosts(user.Posts), nil
}

// Update replaces both title and description of postID.
func (s *Service) Update(ctx context.Context, userID, postID, title, description string) ([]models.Post, error) {
	if err := validate(title, description); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := indexOf(user.Posts, postID)
	if idx < 0 {
		return nil, models.ErrPostNotFound
	}
	user.Posts[idx].Title = title
	user.Posts[idx].Description = description

	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return models.ClonePosts(user.Posts), nil
}

// Delete removes postID. An unknown id is not an error.
func (s *Service) Delete(ctx context.Context, userID, postID string) ([]models.Post, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := make([]models.Post, 0, len(user.Posts))
	for _, p := range user.Posts {
		if p.ID != postID {
			kept = append(kept, p)
		}
	}
	user.Posts = kept

	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return models.ClonePosts(user.Posts), nil
}

func indexOf(posts []models.Post, id string) int {
	for i := range posts {
		if posts[i].ID == id {
			return i
		}
	}
	return -1
}

func validate(title, description string) error {
	if title == "" || description == "" {
		return models.NewValidationError("Title and description are required")
	}
	return nil
}

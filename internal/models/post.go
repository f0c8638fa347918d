package models

// Post is a title/description note owned by exactly one User.
type Post struct {
	ID          string `json:"_id"         bson:"_id"`
	Title       string `json:"title"       bson:"title"`
	Description string `json:"description" bson:"description"`
}

// PostRequest is the JSON body for POST /api/posts and PUT /api/posts/{postId}.
type PostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ClonePosts returns a copy of posts that never aliases the input. A nil
// input yields an empty, non-nil slice so it encodes as [].
func ClonePosts(posts []Post) []Post {
	out := make([]Post, len(posts))
	copy(out, posts)
	return out
}

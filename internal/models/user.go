package models

// User is the single persisted record per account. Posts are embedded and
// have no existence outside their owner.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"` // bcrypt digest, never serialize
	Posts    []Post `json:"posts"`
}

// Profile is the public view returned by GET /api/user.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile returns the name/email projection of the user.
func (u *User) Profile() Profile {
	return Profile{Name: u.Name, Email: u.Email}
}

// RegisterRequest is the JSON body for POST /api/register.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest is the JSON body for POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

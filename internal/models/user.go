package models

// Role gates what a user may change.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is the persisted account record. It is never written to a response;
// use UserView for that.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	Role         Role
	CurrentToken string

	pendingPassword  string
	passwordModified bool
}

// SetPassword stages a new plaintext password. It is hashed the next time
// the record is saved and never persisted as is.
func (u *User) SetPassword(plain string) {
	u.pendingPassword = plain
	u.passwordModified = true
}

// PasswordModified reports whether a staged password awaits hashing.
func (u *User) PasswordModified() bool { return u.passwordModified }

// PendingPassword returns the staged plaintext, if any.
func (u *User) PendingPassword() string { return u.pendingPassword }

// ApplyPasswordHash replaces the stored hash and drops the staged plaintext.
func (u *User) ApplyPasswordHash(hash string) {
	u.PasswordHash = hash
	u.pendingPassword = ""
	u.passwordModified = false
}

// UserView is the only shape of a user that leaves the server.
type UserView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

func NewUserView(u *User) UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}

// SignupInput is the allow-listed body of a signup request.
type SignupInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Credentials is the allow-listed body of a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

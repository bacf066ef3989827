package models

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StoredUser is the persisted form of a user. The password hash never
// leaves the store package; callers only see the embedded User.
type StoredUser struct {
	User
	PasswordHash string `json:"password_hash"`
}

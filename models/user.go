package models

type User struct {
	ID       string `bson:"_id" json:"id"`
	FullName string `bson:"fullName" json:"fullName"`
	Username string `bson:"username" json:"username"`
	Password string `bson:"password" json:"-"`
	Role     Role   `bson:"role" json:"role"`
}

// Identity returns the identity a token issued for u carries.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

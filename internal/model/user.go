package model

// Identity is the profile resolved from a credential via GET /users/me/.
type Identity struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Registration is the payload of POST /users/register/.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// RegistrationResult is what the service returns on 201; both fields may be absent.
type RegistrationResult struct {
	Token string    `json:"token,omitempty"`
	User  *Identity `json:"user,omitempty"`
}

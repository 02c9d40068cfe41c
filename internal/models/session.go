package models

// SessionState is the server-side part of a login session.
type SessionState struct {
	UserID   int64  `json:"user_id" redis:"user_id"`
	Username string `json:"username" redis:"username"`
	Email    string `json:"email" redis:"email"`
}

func NewSessionState(id Identity) SessionState {
	return SessionState{UserID: id.UserID, Username: id.Username, Email: id.Email}
}

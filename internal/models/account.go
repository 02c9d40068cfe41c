package models

// SignupRequest carries the signup form. Validation order matters to callers,
// see accounts.validateSignup.
type SignupRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=100"`
	Email           string `json:"email" validate:"required,max=100"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// ProfileUpdate carries the profile form. NewPassword is optional; when set,
// OldPassword must re-authenticate the current user.
type ProfileUpdate struct {
	FullName    string `json:"full_name" validate:"max=100"`
	NewPassword string `json:"new_password"`
	OldPassword string `json:"old_password"`
}

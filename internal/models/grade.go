package models

import "github.com/go-playground/validator/v10"

// Grade belongs to a user by username only; there is no foreign key.
type Grade struct {
	Username string `db:"username" json:"-" validate:"required,max=100"`
	Subject  string `db:"subject" json:"subject" validate:"required,max=100"`
	Marks    int    `db:"marks" json:"marks"`
}

func (g *Grade) Validate() error {
	validate := validator.New()
	return validate.Struct(g)
}

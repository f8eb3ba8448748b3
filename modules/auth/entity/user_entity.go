package entity

import (
	"slotswap-api/core/entity"
)

type User struct {
	Email        string `db:"email" json:"email"`
	Name         string `db:"name" json:"name"`
	Handle       string `db:"handle" json:"handle"`
	PasswordHash string `db:"password_hash" json:"-"`
	entity.BaseEntity
}

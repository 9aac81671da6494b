package domain

import "time"

type User struct {
	ID           uint
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

package models

import "time"

type Account struct {
	ID                   string     `db:"id" json:"id"`
	Username             string     `db:"username" json:"username"`
	EncryptedCredentials string     `db:"encrypted_credentials" json:"-"`
	IsActive             bool       `db:"is_active" json:"is_active"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	LastUsed             *time.Time `db:"last_used" json:"last_used"`
}

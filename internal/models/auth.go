package models

import "github.com/golang-jwt/jwt/v5"

// Role mirrors the three actor groups the surrounding system resolves.
type Role string

const (
	RoleStudent     Role = "student"
	RoleInstitution Role = "institution"
	RoleMinistry    Role = "ministry"
)

// JWTClaims is the already-authenticated actor identity attached by the
// gateway; this service only validates and reads it.
type JWTClaims struct {
	UserID string `json:"uid"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

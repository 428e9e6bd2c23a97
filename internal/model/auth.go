package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims carrying the stable cuber identifier.
type UserClaims struct {
	UserID string `json:"userId"`
	Handle string `json:"handle"`
	jwt.RegisteredClaims
}

// TokenRequest is the request body for issuing a user token.
type TokenRequest struct {
	Handle string `json:"handle"`
}

// TokenResponse is returned after a token is issued.
type TokenResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

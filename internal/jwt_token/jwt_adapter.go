package jwttoken

import (
	authmw "tokengate/pkg/platform/middleware/auth"
)

// JWTServiceAdapter exposes JWTService to the auth middleware.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	wallet, err := claims.Wallet()
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{Caller: wallet, JTI: claims.ID}, nil
}

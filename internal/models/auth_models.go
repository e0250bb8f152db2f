package models

import "github.com/golang-jwt/jwt/v5"

// ClientClaims claims токена клиента API переводов
type ClientClaims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

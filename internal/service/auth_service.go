package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gw-transfer-service/internal/custom_err"
	"gw-transfer-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type Auth interface {
	IssueToken(clientID string) (string, error)
	ValidateToken(tokenString string) (*models.ClientClaims, error)
}

type AuthService struct {
	jwtSecret     []byte
	jwtExpiration time.Duration
	log           *slog.Logger
}

func NewAuthService(jwtSecret string, jwtExpiration time.Duration, log *slog.Logger) Auth {
	return &AuthService{
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: jwtExpiration,
		log:           log,
	}
}

func (s *AuthService) IssueToken(clientID string) (string, error) {
	const op = "service.IssueToken"

	if clientID == "" {
		return "", fmt.Errorf("%s: client id is required: %w", op, custom_err.ErrInvalidInput)
	}

	now := time.Now()
	claims := models.ClientClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		s.log.Error("failed to sign token", slog.String("op", op), slog.String("error", err.Error()))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*models.ClientClaims, error) {
	claims := &models.ClientClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, custom_err.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, custom_err.ErrTokenNotActive
		}

		return nil, custom_err.ErrInvalidToken
	}

	if !token.Valid || claims.ClientID == "" {
		return nil, custom_err.ErrInvalidToken
	}

	return claims, nil
}

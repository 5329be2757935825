package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"repairhub-server/models"
	"repairhub-server/types"
)

const tokenIssuer = "repairhub-server"

// JWTService signs and validates access tokens.
type JWTService struct {
	secret []byte
	expiry time.Duration
	clock  Clock
}

func NewJWTService(secret string, expiryHours int) *JWTService {
	return &JWTService{secret: []byte(secret), expiry: time.Duration(expiryHours) * time.Hour}
}

// Token is an issued access token.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (js *JWTService) Issue(userID uint, role models.UserRole) (*Token, error) {
	now := js.clock.now()
	claims := &types.Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(js.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(js.secret)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: signed, ExpiresIn: int64(js.expiry.Seconds()), TokenType: "Bearer"}, nil
}

// Validate parses tokenString and returns its claims.
func (js *JWTService) Validate(tokenString string) (*types.Claims, error) {
	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return js.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(js.clock.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

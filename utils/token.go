package utils

import (
	"errors"
	"rewards-dashboard/config"
	"time"

	"aidanwoods.dev/go-paseto"
)

// TokenClaims identify the signed-in store to the dashboard's own routes.
// The backend bearer token never leaves the server.
type TokenClaims struct {
	StoreID   string `json:"storeId"`
	StoreName string `json:"storeName"`
}

var ErrTokenClaims = errors.New("invalid token claims")

func GenerateAccessToken(claims TokenClaims, cfg *config.Config) (string, error) {
	location, _ := time.LoadLocation(cfg.DbTz)
	token := paseto.NewToken()
	token.SetIssuedAt(time.Now().In(location))
	token.SetNotBefore(time.Now().In(location))
	token.SetExpiration(time.Now().In(location).Add(time.Duration(cfg.AccessTokenTTL) * time.Minute))
	token.SetString("storeId", claims.StoreID)
	token.SetString("storeName", claims.StoreName)
	token.SetString("type", "access")

	key, err := paseto.V4SymmetricKeyFromBytes([]byte(cfg.PasetoSymmetricKey))
	if err != nil {
		return "", err
	}
	return token.V4Encrypt(key, nil), nil
}

func ValidateToken(tokenString string, cfg *config.Config) (*paseto.Token, error) {
	key, err := paseto.V4SymmetricKeyFromBytes([]byte(cfg.PasetoSymmetricKey))
	if err != nil {
		return nil, err
	}

	parser := paseto.NewParser()
	parser.AddRule(paseto.NotExpired())

	token, err := parser.ParseV4Local(key, tokenString, nil)
	return token, err
}

// ParseClaims validates tokenString and extracts the store claims.
func ParseClaims(tokenString string, cfg *config.Config) (TokenClaims, error) {
	token, err := ValidateToken(tokenString, cfg)
	if err != nil {
		return TokenClaims{}, err
	}
	if tokenType, err := token.GetString("type"); err != nil || tokenType != "access" {
		return TokenClaims{}, ErrTokenClaims
	}
	storeID, err := token.GetString("storeId")
	if err != nil || storeID == "" {
		return TokenClaims{}, ErrTokenClaims
	}
	storeName, _ := token.GetString("storeName")
	return TokenClaims{StoreID: storeID, StoreName: storeName}, nil
}

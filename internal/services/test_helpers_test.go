package services_test

import (
	"time"

	"github.com/escribo/planos-web/pkg/logger"
	gojwt "github.com/golang-jwt/jwt/v5"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func signedToken(secret, subject string, expiresIn time.Duration) string {
	claims := gojwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		panic(err)
	}
	return token
}

package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func ActorIDFromContext(c echo.Context) (int64, error) {
	if id, ok := c.Get("actor_id").(int64); ok {
		return id, nil
	}
	return 0, errors.New("no actor id in context")
}

func RoleFromContext(c echo.Context) (string, error) {
	if role, ok := c.Get("actor_role").(string); ok && role != "" {
		return role, nil
	}
	return "", errors.New("no role in context")
}

// ExtractClaims reads the verified token the echo-jwt middleware stashed in
// the context and copies sub/role into typed context keys.
func ExtractClaims(c echo.Context) error {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return errors.New("no jwt token in context")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("unexpected claims type")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return errors.New("sub missing in claims")
	}
	role, _ := claims["role"].(string)

	c.Set("actor_id", int64(sub))
	c.Set("actor_role", role)
	return nil
}

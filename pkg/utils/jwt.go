package utils

import (
	"errors"

	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingID    = errors.New("token has no id claim")
)

func DecodeJWT(token string, secret []byte) (jwt.MapClaims, error) {
	parsedToken, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ViewerFromToken reads the signed-in user from an access token. With an
// empty secret the signature is not checked, since the client does not
// always hold the key the server signs with.
func ViewerFromToken(token string, secret []byte) (model.Viewer, error) {
	var claims jwt.MapClaims
	if len(secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
			return model.Viewer{}, err
		}
	} else {
		var err error
		claims, err = DecodeJWT(token, secret)
		if err != nil {
			return model.Viewer{}, err
		}
	}

	return ViewerFromClaims(claims)
}

func ViewerFromClaims(claims jwt.MapClaims) (model.Viewer, error) {
	id, _ := claims["id"].(string)
	if id == "" {
		return model.Viewer{}, ErrMissingID
	}

	viewer := model.Viewer{ID: id}
	if name, ok := claims["username"].(string); ok {
		viewer.Name = name
	}
	if image, ok := claims["image"].(string); ok {
		viewer.AvatarURL = image
	}
	return viewer, nil
}

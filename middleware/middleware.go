package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"wanderplan/globals"
	"wanderplan/rdx"
	"wanderplan/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// JWT claims
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator verifies bearer tokens and rejects revoked ones.
type Authenticator struct {
	Secret  []byte
	Revoked rdx.Store
}

func NewAuthenticator(secret []byte, revoked rdx.Store) *Authenticator {
	return &Authenticator{Secret: secret, Revoked: revoked}
}

func RevokedKey(tokenID string) string { return "revoked:" + tokenID }

// Issue signs a token for the user, valid for ttl.
func (a *Authenticator) Issue(userID, email, tokenID string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	return signed, claims, err
}

// Validate parses a raw token (with or without the "Bearer " prefix).
func (a *Authenticator) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	if claims.UserID == "" {
		return nil, errors.New("token carries no user")
	}

	if a.Revoked != nil && claims.ID != "" {
		revoked, err := a.Revoked.Exists(ctx, RevokedKey(claims.ID))
		if err != nil {
			slog.Warn("revocation lookup failed", "error", err)
		}
		if revoked {
			return nil, errors.New("token revoked")
		}
	}
	return claims, nil
}

func (a *Authenticator) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get("Authorization")
		// Browsers cannot set headers on websocket upgrades.
		if tokenString == "" && websocket.IsWebSocketUpgrade(r) {
			tokenString = r.URL.Query().Get("token")
		}
		if tokenString == "" {
			utils.SendError(w, http.StatusUnauthorized, "Missing token")
			return
		}

		claims, err := a.Validate(r.Context(), tokenString)
		if err != nil {
			utils.SendError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, globals.ClaimsKey, claims)
		next(w, r.WithContext(ctx), ps)
	}
}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(globals.ClaimsKey).(*Claims)
	return c
}

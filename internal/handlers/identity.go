package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/auth"
)

const authCookieName = "auth_token"

// EnsurePlayerIdentity returns the player id carried by the auth_token cookie
// (or ?token= query parameter). A missing or invalid token gets a fresh id,
// and the new token is set as a cookie on w. Call it before the upgrade so
// the cookie rides on the handshake response.
func EnsurePlayerIdentity(w http.ResponseWriter, r *http.Request, ids *auth.TokenIssuer) (uuid.UUID, error) {
	token := r.URL.Query().Get("token")
	if cookie, err := r.Cookie(authCookieName); err == nil && cookie.Value != "" {
		token = cookie.Value
	}
	if token != "" {
		if id, err := ids.Verify(token); err == nil {
			return id, nil
		}
	}

	id := uuid.New()
	newToken, err := ids.Issue(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to issue identity token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    newToken,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

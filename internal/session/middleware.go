package session

import (
	"context"
	"net/http"

	"github.com/shrimpsizemoose/gradebook/internal/models"
)

type contextKeyState struct{}

// RequireSession redirects requests without a session to loginPath.
func (m *Manager) RequireSession(loginPath string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := m.Current(r)
		if err != nil {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyState{}, *state)
		next(w, r.WithContext(ctx))
	}
}

func FromContext(ctx context.Context) (models.SessionState, bool) {
	state, ok := ctx.Value(contextKeyState{}).(models.SessionState)
	return state, ok
}

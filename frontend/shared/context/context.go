package context

import (
	"context"

	"receiptstudio/infrastructure/rbac"
	"receiptstudio/infrastructure/templates"
	"receiptstudio/models"
)

type sessionKey struct{}

func NewContextWithSession(ctx context.Context, session models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func GetSessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(models.Session)
	return s, ok
}

// ViewerFromContext returns the ownership identity of the signed-in user.
func ViewerFromContext(ctx context.Context) (templates.Viewer, bool) {
	s, ok := GetSessionFromContext(ctx)
	if !ok || s.UserID <= 0 {
		return templates.Viewer{}, false
	}
	return templates.Viewer{UserID: s.UserID, IsAdmin: s.User.Role == rbac.RoleAdmin}, true
}

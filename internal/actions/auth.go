package actions

import (
	"context"

	"recipebox/internal/models"
	"recipebox/internal/service"
	"recipebox/internal/validation"
)

// Register creates an account.
func (a *Actions) Register(ctx context.Context, in validation.RegistrationInput) models.Result[*models.User] {
	return run(ctx, "register", "Failed to register", func(ctx context.Context) (*models.User, error) {
		return a.auth.Register(ctx, in)
	})
}

// SignIn checks credentials and opens a session. Every credential failure,
// including a lookup error, reports the same message.
func (a *Actions) SignIn(ctx context.Context, email, password string) models.Result[*models.Session] {
	res := run(ctx, "sign_in", "Failed to sign in", func(ctx context.Context) (*models.Session, error) {
		return a.auth.SignIn(ctx, email, password)
	})
	if !res.Success() && res.Kind() == models.CodeInternal {
		return models.Err[*models.Session](models.CodeUnauthorized, service.InvalidCredentialsMessage)
	}
	return res
}

// SignOut revokes the session token. Unknown or expired tokens sign out successfully.
func (a *Actions) SignOut(ctx context.Context, token string) models.Result[models.Empty] {
	return run(ctx, "sign_out", "Failed to sign out", func(ctx context.Context) (models.Empty, error) {
		if token == "" {
			return models.Empty{}, nil
		}
		return models.Empty{}, a.auth.Revoke(ctx, token)
	})
}

// GetSession resolves a token to its session; the payload is nil when unauthenticated.
func (a *Actions) GetSession(ctx context.Context, token string) models.Result[*models.Session] {
	return run(ctx, "get_session", "Failed to load session", func(ctx context.Context) (*models.Session, error) {
		return a.auth.Session(ctx, token)
	})
}

// Package actions exposes the catalog and auth operations as server actions.
// Every action returns a models.Result and never returns an error or panics:
// internal failures are logged here and reduced to a per-action message.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"recipebox/internal/featureflags"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/notifications"
	"recipebox/internal/observability"
	"recipebox/internal/service"
)

// Actions holds the services the actions delegate to.
type Actions struct {
	ingredients *service.IngredientService
	recipes     *service.RecipeService
	auth        *service.AuthService
	images      *service.ImageService
	events      notifications.Publisher
	flags       *featureflags.Manager
}

// Deps are the collaborators of Actions. Events and Flags may be nil.
type Deps struct {
	Ingredients *service.IngredientService
	Recipes     *service.RecipeService
	Auth        *service.AuthService
	Images      *service.ImageService
	Events      notifications.Publisher
	Flags       *featureflags.Manager
}

// New builds Actions from its dependencies.
func New(d Deps) *Actions {
	return &Actions{
		ingredients: d.Ingredients,
		recipes:     d.Recipes,
		auth:        d.Auth,
		images:      d.Images,
		events:      d.Events,
		flags:       d.Flags,
	}
}

// Auth exposes the auth service for session middleware.
func (a *Actions) Auth() *service.AuthService {
	return a.auth
}

// run executes fn inside a span, recovers panics and converts the outcome into a Result.
func run[T any](ctx context.Context, action, fallback string, fn func(context.Context) (T, error)) (res models.Result[T]) {
	ctx, span := observability.StartAction(ctx, action)
	defer func() {
		if r := recover(); r != nil {
			span.Fail(fmt.Errorf("panic: %v", r))
			middleware.Logger.ErrorContext(ctx, "action panicked",
				slog.String("action", action),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			res = models.Err[T](models.CodeInternal, fallback)
		}
		outcome := res.Kind()
		if res.Success() {
			outcome = "ok"
		}
		observability.RecordAction(action, outcome)
		span.Finish(outcome)
	}()

	value, err := fn(ctx)
	if err != nil {
		res = models.Fail[T](err, fallback)
		if res.Kind() == models.CodeInternal {
			span.Fail(err)
			middleware.Logger.ErrorContext(ctx, "action failed",
				slog.String("action", action),
				slog.String("error", err.Error()))
		}
		return res
	}
	return models.Ok(value)
}

// publish announces a catalog change. Delivery problems never fail the mutation.
func (a *Actions) publish(ctx context.Context, typ notifications.EventType, id string) {
	if a.events == nil {
		return
	}
	if err := a.events.Publish(ctx, notifications.CatalogEvent{Type: typ, ID: id}); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish catalog event",
			slog.String("event_type", string(typ)),
			slog.String("id", id),
			slog.String("error", err.Error()))
	}
}

func subjectFrom(ctx context.Context) string {
	uid, _ := ctx.Value(middleware.UserIDKey).(string)
	return uid
}

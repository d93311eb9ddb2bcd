package security

import "context"

// Actor is the authenticated operator on whose behalf a request runs. Every
// state-changing operation records the actor in its audit events.
type Actor struct {
	ID    int32
	Email string
	Roles []string
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RequestMeta travels with the request for audit attribution.
type RequestMeta struct {
	IP            string
	UserAgent     string
	CorrelationID string
}

type contextKey int

const (
	actorKey contextKey = iota
	requestMetaKey
)

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the authenticated actor, or false when the request
// carried no valid token.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, meta)
}

func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey).(RequestMeta)
	return meta
}

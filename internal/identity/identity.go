// Package identity resolves bearer tokens to acting users. The engine does
// not issue tokens itself; deployments plug in a resolver backed by whatever
// issues their credentials. A static table resolver is provided for
// development and tests.
package identity

import (
	"context"
	"strings"

	"templify/internal/apperror"
	"templify/internal/model"
)

// Resolver maps a bearer token to the actor it authenticates.
type Resolver interface {
	Resolve(ctx context.Context, token string) (model.Actor, error)
}

// StaticResolver authenticates against a fixed in-memory token table.
type StaticResolver struct {
	actors map[string]model.Actor
}

// NewStaticResolver parses a comma-separated "token:userID:role1|role2" table,
// as carried by the AUTH_TOKENS environment variable. Roles are optional.
// Malformed entries are skipped.
func NewStaticResolver(table string) *StaticResolver {
	actors := make(map[string]model.Actor)
	for _, entry := range strings.Split(table, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		actor := model.Actor{ID: parts[1]}
		if len(parts) == 3 && parts[2] != "" {
			actor.Roles = strings.Split(parts[2], "|")
		}
		actors[parts[0]] = actor
	}
	return &StaticResolver{actors: actors}
}

func (r *StaticResolver) Resolve(_ context.Context, token string) (model.Actor, error) {
	actor, ok := r.actors[token]
	if !ok {
		return model.Actor{}, apperror.New(apperror.KindAccessDenied, "invalid token")
	}
	return actor, nil
}

package push

import (
	"context"
	"fmt"

	"github.com/brrowapp/brrow-backend/internal/model"
)

// Router picks a provider by device platform.
type Router struct {
	providers map[model.Platform]Provider
}

func NewRouter() *Router {
	return &Router{providers: make(map[model.Platform]Provider)}
}

func (r *Router) Handle(p model.Platform, prov Provider) {
	r.providers[p] = prov
}

func (r *Router) Supports(p model.Platform) bool {
	_, ok := r.providers[p]
	return ok
}

func (r *Router) Send(ctx context.Context, t Target, p Payload) Result {
	prov, ok := r.providers[t.Platform]
	if !ok {
		return Result{Outcome: Rejected, Err: fmt.Errorf("%w %q", ErrNoProvider, t.Platform)}
	}
	return prov.Send(ctx, t, p)
}

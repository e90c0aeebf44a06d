package users

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"wanderplan/models"
	"wanderplan/rdx"

	"github.com/samber/lo"
)

const directoryTTL = 10 * time.Minute

type cachedUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Directory resolves user ids to expanded refs, caching display fields.
type Directory struct {
	store Store
	cache rdx.Store
}

func NewDirectory(store Store, cache rdx.Store) *Directory {
	return &Directory{store: store, cache: cache}
}

func cacheKey(id string) string { return "users:" + id }

// Expand returns refs in the same order with every known user expanded.
// Ids the store does not know stay bare references.
func (d *Directory) Expand(ctx context.Context, refs []models.UserRef) []models.UserRef {
	out := make([]models.UserRef, len(refs))
	found := make(map[string]models.UserRef, len(refs))
	var missing []string

	for _, id := range lo.Uniq(lo.Map(refs, func(r models.UserRef, _ int) string { return r.Key() })) {
		if id == "" {
			continue
		}
		if ref, ok := d.fromCache(ctx, id); ok {
			found[id] = ref
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		loaded, err := d.store.ByIDs(ctx, missing)
		if err != nil {
			slog.Warn("user expansion failed", "ids", missing, "error", err)
		}
		for i := range loaded {
			ref := loaded[i].Ref()
			found[ref.Key()] = ref
			d.remember(ctx, ref)
		}
	}

	for i, r := range refs {
		if ref, ok := found[r.Key()]; ok {
			out[i] = ref
		} else {
			out[i] = models.Reference(r.Key())
		}
	}
	return out
}

func (d *Directory) ExpandOne(ctx context.Context, ref models.UserRef) models.UserRef {
	return d.Expand(ctx, []models.UserRef{ref})[0]
}

// Invalidate drops the cached display record after a profile change.
func (d *Directory) Invalidate(ctx context.Context, id string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Del(ctx, cacheKey(id)); err != nil {
		slog.Warn("user cache invalidation failed", "userid", id, "error", err)
	}
}

func (d *Directory) fromCache(ctx context.Context, id string) (models.UserRef, bool) {
	if d.cache == nil {
		return models.UserRef{}, false
	}
	raw, err := d.cache.Get(ctx, cacheKey(id))
	if err != nil {
		return models.UserRef{}, false
	}
	var cu cachedUser
	if err := json.Unmarshal([]byte(raw), &cu); err != nil || cu.ID == "" {
		return models.UserRef{}, false
	}
	return models.Expanded(cu.ID, cu.Name, cu.Email, cu.Avatar), true
}

func (d *Directory) remember(ctx context.Context, ref models.UserRef) {
	if d.cache == nil {
		return
	}
	b, err := json.Marshal(cachedUser{ID: ref.ID, Name: ref.Name, Email: ref.Email, Avatar: ref.Avatar})
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, cacheKey(ref.ID), string(b), directoryTTL); err != nil {
		slog.Warn("user cache write failed", "userid", ref.ID, "error", err)
	}
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/repository"
	"github.com/Ran-Mewo/CatPaymentBot/internal/infra/metrics"
	red "github.com/Ran-Mewo/CatPaymentBot/internal/infra/redis"
)

var _ repository.ProfileRepository = (*profileRepoCacheDecorator)(nil)

// profileRepoCacheDecorator caches read paths of the profile repository. The
// poller resolves the same profiles every cycle, so hits are frequent.
type profileRepoCacheDecorator struct {
	inner repository.ProfileRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewProfileRepoCacheDecorator(inner repository.ProfileRepository, cache red.RedisClient, ttl time.Duration) repository.ProfileRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &profileRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func profileKey(id string) string { return fmt.Sprintf("profile:%s", id) }

func profileNameKey(guildID, name string) string {
	return fmt.Sprintf("profile:%s:%s", guildID, strings.ToLower(name))
}

func profileListKey(guildID string) string { return fmt.Sprintf("profiles:%s", guildID) }

func (d *profileRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentProfile, error) {
	key := profileKey(id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var p model.PaymentProfile
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("profile", "hit")
			return &p, nil
		}
	}

	metrics.IncCacheRequest("profile", "miss")
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if p != nil {
		bytes, _ := json.Marshal(p)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return p, nil
}

func (d *profileRepoCacheDecorator) FindByName(ctx context.Context, tx repository.Tx, guildID, name string) (*model.PaymentProfile, error) {
	key := profileNameKey(guildID, name)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var p model.PaymentProfile
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("profile", "hit")
			return &p, nil
		}
	}

	metrics.IncCacheRequest("profile", "miss")
	p, err := d.inner.FindByName(ctx, tx, guildID, name)
	if err != nil {
		return nil, err
	}
	if p != nil {
		bytes, _ := json.Marshal(p)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return p, nil
}

func (d *profileRepoCacheDecorator) ListByGuild(ctx context.Context, tx repository.Tx, guildID string) ([]*model.PaymentProfile, error) {
	key := profileListKey(guildID)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var list []*model.PaymentProfile
		if json.Unmarshal([]byte(val), &list) == nil {
			metrics.IncCacheRequest("profile_list", "hit")
			return list, nil
		}
	}

	metrics.IncCacheRequest("profile_list", "miss")
	list, err := d.inner.ListByGuild(ctx, tx, guildID)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		bytes, _ := json.Marshal(list)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return list, nil
}

// Write operations invalidate every key the profile may live under.
func (d *profileRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.PaymentProfile) error {
	d.cache.Del(ctx, profileKey(p.ID), profileNameKey(p.GuildID, p.Name), profileListKey(p.GuildID))
	return d.inner.Save(ctx, tx, p)
}

func (d *profileRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	// The name key needs the stored row; resolve it before deleting.
	if p, err := d.inner.FindByID(ctx, tx, id); err == nil && p != nil {
		d.cache.Del(ctx, profileKey(id), profileNameKey(p.GuildID, p.Name), profileListKey(p.GuildID))
	} else {
		d.cache.Del(ctx, profileKey(id))
	}
	return d.inner.Delete(ctx, tx, id)
}

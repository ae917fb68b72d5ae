// Package cache guarda en Redis el listado de resoluciones de cada empresa.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/jhoicas/dian-resoluciones/internal/application/usecase"
	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
	"github.com/jhoicas/dian-resoluciones/pkg/config"
)

var _ usecase.ResolutionCache = (*RedisCache)(nil)

// RedisCache cache de listas de resoluciones. Deshabilitado se comporta como un cache siempre vacío.
type RedisCache struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
}

// NewRedisCache conecta con Redis si cfg.Enabled.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{client: client, enabled: true, ttl: cfg.TTL}, nil
}

// Enabled indica si hay Redis detrás.
func (c *RedisCache) Enabled() bool { return c.enabled }

// GenKey contador de generación de una empresa. Cada Invalidate lo incrementa.
func GenKey(companyID string) string {
	return "dian:resolutions:gen:" + companyID
}

// ListKey clave del listado de una empresa en una generación.
func ListKey(companyID string, gen int64) string {
	return "dian:resolutions:" + companyID + ":" + strconv.FormatInt(gen, 10)
}

func (c *RedisCache) generation(ctx context.Context, companyID string) (int64, error) {
	gen, err := c.client.Get(ctx, GenKey(companyID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to get resolutions generation from Redis")
	}
	return gen, nil
}

func (c *RedisCache) GetList(ctx context.Context, companyID string) ([]*entity.Resolution, int64, bool, error) {
	if !c.enabled {
		return nil, 0, false, nil
	}
	gen, err := c.generation(ctx, companyID)
	if err != nil {
		return nil, 0, false, err
	}
	data, err := c.client.Get(ctx, ListKey(companyID, gen)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, gen, false, nil
		}
		return nil, 0, false, errors.Wrap(err, "failed to get resolutions from Redis")
	}
	var list []*entity.Resolution
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, gen, false, errors.Wrap(err, "failed to unmarshal cached resolutions")
	}
	return list, gen, true, nil
}

// SetList guarda la lista bajo la generación gen, la que devolvió GetList antes de leer la base.
func (c *RedisCache) SetList(ctx context.Context, companyID string, gen int64, list []*entity.Resolution) error {
	if !c.enabled {
		return nil
	}
	if list == nil {
		list = []*entity.Resolution{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return errors.Wrap(err, "failed to marshal resolutions for caching")
	}
	if err := c.client.Set(ctx, ListKey(companyID, gen), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to set resolutions in Redis")
	}
	return nil
}

// Invalidate pasa la empresa a una generación nueva y borra la lista de la anterior.
// Una lista de la generación anterior escrita después queda huérfana hasta que venza su TTL.
func (c *RedisCache) Invalidate(ctx context.Context, companyID string) error {
	if !c.enabled {
		return nil
	}
	gen, err := c.client.Incr(ctx, GenKey(companyID)).Result()
	if err != nil {
		return errors.Wrap(err, "failed to invalidate resolutions in Redis")
	}
	if err := c.client.Del(ctx, ListKey(companyID, gen-1)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete stale resolutions in Redis")
	}
	return nil
}

// Close cierra la conexión con Redis.
func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}
	return c.client.Close()
}

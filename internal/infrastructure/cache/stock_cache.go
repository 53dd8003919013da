package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// DefaultTTL vigencia de una lectura cacheada si no se configura REDIS_STOCK_TTL.
const DefaultTTL = 30 * time.Second

const allBranches = "all"

var _ inventory.StockCache = (*StockCache)(nil)

// StockCache guarda en Redis las lecturas de stock por (empresa, sucursal).
// Claves: stock:{empresa}:g{generación}:{sucursal|all}. La generación vive en
// stockgen:{empresa} y Invalidate la incrementa, así una lectura escrita con una
// generación vieja queda huérfana hasta que vence.
type StockCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    zerolog.Logger
}

// NewStockCache construye la caché. ttl <= 0 usa DefaultTTL.
func NewStockCache(client redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *StockCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StockCache{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "stock_cache").Logger(),
	}
}

// Key devuelve la clave Redis de una lectura en una generación.
func Key(companyID, branchID string, gen int64) string {
	if branchID == "" {
		branchID = allBranches
	}
	return fmt.Sprintf("stock:%s:g%d:%s", companyID, gen, branchID)
}

// GenerationKey devuelve la clave del contador de generación de la empresa.
func GenerationKey(companyID string) string {
	return "stockgen:" + companyID
}

func (c *StockCache) generation(ctx context.Context, companyID string) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(companyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation %s: %w", companyID, err)
	}
	return gen, nil
}

// Get devuelve la generación vigente y, en un acierto, las líneas guardadas en ella.
func (c *StockCache) Get(ctx context.Context, companyID, branchID string) ([]*entity.StockLine, int64, bool, error) {
	gen, err := c.generation(ctx, companyID)
	if err != nil {
		return nil, 0, false, err
	}
	key := Key(companyID, branchID, gen)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gen, false, nil
		}
		return nil, gen, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var lines []*entity.StockLine
	if err := json.Unmarshal(data, &lines); err != nil {
		// Una entrada corrupta se trata como fallo de caché.
		c.log.Warn().Err(err).Str("key", key).Msg("entrada de caché ilegible")
		return nil, gen, false, nil
	}
	return lines, gen, true, nil
}

// Set guarda la lectura bajo la generación obtenida en Get, con el TTL configurado.
func (c *StockCache) Set(ctx context.Context, companyID, branchID string, gen int64, lines []*entity.StockLine) error {
	if lines == nil {
		lines = []*entity.StockLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal stock lines: %w", err)
	}
	key := Key(companyID, branchID, gen)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate avanza la generación de la empresa y borra sus lecturas guardadas.
func (c *StockCache) Invalidate(ctx context.Context, companyID string) error {
	gen, err := c.client.Incr(ctx, GenerationKey(companyID)).Result()
	if err != nil {
		return fmt.Errorf("redis incr generation %s: %w", companyID, err)
	}

	pattern := fmt.Sprintf("stock:%s:*", companyID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	c.log.Debug().Str("company_id", companyID).Int64("generation", gen).Int("keys", len(keys)).Msg("caché de stock invalidada")
	return nil
}

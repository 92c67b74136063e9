// Package redis bloqueo opcional por nombre de producto entre instancias del servicio.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-api/internal/application/inventory"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/pkg/logger"
)

var _ inventory.NameLocker = (*NameLocker)(nil)

const (
	lockKeyPrefix = "lock:alloc:"
	retryMin      = 10 * time.Millisecond
	retryMax      = 200 * time.Millisecond
)

// Solo borra la clave si todavía es nuestra (el TTL pudo vencer y otro la tomó).
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// NameLocker SET NX PX por nombre normalizado, con reintentos hasta el plazo del contexto.
type NameLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	log    *logger.Logger
}

// NewNameLocker construye el bloqueo. wait acota la espera cuando el contexto no trae plazo.
func NewNameLocker(client *redis.Client, ttl, wait time.Duration, log *logger.Logger) *NameLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &NameLocker{client: client, ttl: ttl, wait: wait, log: log.Named("redis_name_lock")}
}

// Key clave de Redis para un nombre de producto.
func Key(name string) string {
	return lockKeyPrefix + strings.ToLower(strings.TrimSpace(name))
}

// Lock espera el bloqueo del nombre; agotar la espera es un error transitorio.
func (l *NameLocker) Lock(ctx context.Context, name string) (func(), error) {
	key := Key(name)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	backoff := retryMin
	for {
		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, domain.NewTransient("redis lock "+key, waitCtx.Err())
			}
			return nil, domain.NewTransient("redis lock "+key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-waitCtx.Done():
			return nil, domain.NewTransient("redis lock "+key, waitCtx.Err())
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > retryMax {
			backoff = retryMax
		}
	}
}

func (l *NameLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		// el TTL termina liberándolo
		l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el bloqueo")
	}
}

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

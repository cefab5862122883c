package resource

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	opCallerAccountID        = "GetCallerAccountID"
	opDescribeInstanceType   = "DescribeInstanceType"
	opDescribeBeanstalkSetup = "DescribeBeanstalkConfigurationSettings"
	opListBeanstalkApps      = "ListBeanstalkApplications"
	opListBeanstalkEnvs      = "ListBeanstalkEnvironments"
	opListRepositories       = "ListRepositories"
)

// Cache wraps a Querier with a cache keyed by operation name and serialized
// arguments. The first caller for a key performs the lookup; concurrent
// callers for the same key share its result. Failed lookups are not cached.
//
// A shared lookup runs detached from the caller that started it, so one
// caller giving up never fails the others. Each caller still stops waiting
// when its own context ends.
//
// A Cache lives for one session; create a new one when the session restarts.
type Cache struct {
	next   Querier
	logger *zap.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]any
	// generations counts the invalidations of each operation family. A lookup
	// only stores its result if its family was not invalidated while it ran.
	generations map[string]uint64
}

// NewCache returns a Cache in front of next.
func NewCache(next Querier, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		next:        next,
		logger:      logger,
		entries:     make(map[string]any),
		generations: make(map[string]uint64),
	}
}

// CacheKey builds the key for an operation and its arguments.
func CacheKey(operation string, args ...any) string {
	if len(args) == 0 {
		return operation + "()"
	}
	// Arguments are strings and string slices, which always marshal.
	data, _ := json.Marshal(args)
	return operation + "(" + string(data) + ")"
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Invalidate removes every cached entry of the given operation family.
// Lookups of that family still in flight will not be cached.
func (c *Cache) Invalidate(operation string) int {
	prefix := operation + "("
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[operation]++
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	c.logger.Debug("invalidated cached lookups",
		zap.String("operation", operation), zap.Int("removed", removed))
	return removed
}

func getAndCache[T any](ctx context.Context, c *Cache, operation string, args []any, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	key := CacheKey(operation, args...)

	c.mu.RLock()
	cached, ok := c.entries[key]
	generation := c.generations[operation]
	c.mu.RUnlock()
	if ok {
		c.logger.Debug("resource cache hit", zap.String("key", key))
		return cached.(T), nil
	}

	// Callers arriving after an invalidation start their own flight instead
	// of joining one that may return a stale result.
	flight := key + "#" + strconv.FormatUint(generation, 10)
	lookupCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (any, error) {
		c.logger.Debug("resource cache miss", zap.String("key", key))
		result, err := fetch(lookupCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.generations[operation] == generation {
			c.entries[key] = result
		}
		c.mu.Unlock()
		return result, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			c.logger.Debug("resource lookup shared", zap.String("key", key))
		}
		return res.Val.(T), nil
	}
}

func (c *Cache) GetCallerAccountID(ctx context.Context) (string, error) {
	return getAndCache(ctx, c, opCallerAccountID, nil, c.next.GetCallerAccountID)
}

func (c *Cache) DescribeInstanceType(ctx context.Context, instanceType string) (*InstanceTypeInfo, error) {
	return getAndCache(ctx, c, opDescribeInstanceType, []any{instanceType},
		func(ctx context.Context) (*InstanceTypeInfo, error) {
			return c.next.DescribeInstanceType(ctx, instanceType)
		})
}

func (c *Cache) DescribeBeanstalkConfigurationSettings(ctx context.Context, applicationName, environmentName string) ([]ConfigurationOptionSetting, error) {
	return getAndCache(ctx, c, opDescribeBeanstalkSetup, []any{applicationName, environmentName},
		func(ctx context.Context) ([]ConfigurationOptionSetting, error) {
			return c.next.DescribeBeanstalkConfigurationSettings(ctx, applicationName, environmentName)
		})
}

func (c *Cache) ListBeanstalkApplications(ctx context.Context) ([]string, error) {
	return getAndCache(ctx, c, opListBeanstalkApps, nil, c.next.ListBeanstalkApplications)
}

func (c *Cache) ListBeanstalkEnvironments(ctx context.Context, applicationName string) ([]string, error) {
	return getAndCache(ctx, c, opListBeanstalkEnvs, []any{applicationName},
		func(ctx context.Context) ([]string, error) {
			return c.next.ListBeanstalkEnvironments(ctx, applicationName)
		})
}

func (c *Cache) ListRepositories(ctx context.Context, names []string) ([]Repository, error) {
	return getAndCache(ctx, c, opListRepositories, []any{names},
		func(ctx context.Context) ([]Repository, error) {
			return c.next.ListRepositories(ctx, names)
		})
}

// CreateRepository is never cached. Once the repository exists every cached
// repository listing is dropped, along with any listing still in flight.
func (c *Cache) CreateRepository(ctx context.Context, name string) (*Repository, error) {
	repo, err := c.next.CreateRepository(ctx, name)
	if err != nil {
		return nil, err
	}
	c.Invalidate(opListRepositories)
	return repo, nil
}

var _ Querier = (*Cache)(nil)

// Package resolver turns legacy business keys into relational surrogate ids.
package resolver

import (
	"context"
	"strings"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/cache"
	cumuluscontext "github.com/2lambda123/nasa-cumulus-sub001/pkg/context"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/Gobusters/ectologger"
)

type CollectionStore interface {
	GetCumulusID(ctx context.Context, name, version string) (int64, bool, error)
}

type ProviderStore interface {
	GetCumulusIDByName(ctx context.Context, name string) (int64, bool, error)
}

type AsyncOperationStore interface {
	GetCumulusIDByID(ctx context.Context, id string) (int64, bool, error)
}

type ExecutionStore interface {
	GetCumulusIDByArn(ctx context.Context, arn string) (int64, bool, error)
	GetCumulusIDByURL(ctx context.Context, url string) (int64, bool, error)
}

type PdrStore interface {
	GetCumulusIDByName(ctx context.Context, name string) (int64, bool, error)
}

type Stores struct {
	Collections     CollectionStore
	Providers       ProviderStore
	AsyncOperations AsyncOperationStore
	Executions      ExecutionStore
	Pdrs            PdrStore
}

const (
	kindCollection     = "collection"
	kindProvider       = "provider"
	kindAsyncOperation = "async_operation"
	kindExecution      = "execution"
	kindExecutionURL   = "execution_url"
	kindPdr            = "pdr"
)

// Resolver looks ids up through an optional cache. Cache failures are logged
// and the lookup falls through to the store.
type Resolver struct {
	stores Stores
	cache  cache.IDCache
	logger ectologger.Logger
}

func New(stores Stores, idCache cache.IDCache, logger ectologger.Logger) *Resolver {
	return &Resolver{stores: stores, cache: idCache, logger: logger}
}

func (r *Resolver) cached(ctx context.Context, key string) (int64, bool) {
	if r.cache == nil {
		return 0, false
	}
	id, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(cumuluscontext.LogFields(ctx)).WithField("cache_key", key).Warn("Surrogate id cache read failed")
		return 0, false
	}
	return id, ok
}

func (r *Resolver) remember(ctx context.Context, key string, id int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, id); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(cumuluscontext.LogFields(ctx)).WithField("cache_key", key).Warn("Surrogate id cache write failed")
	}
}

func (r *Resolver) lookup(ctx context.Context, kind, businessKey string, find func() (int64, bool, error)) (int64, bool, error) {
	key := cache.Key(kind, businessKey)
	if id, ok := r.cached(ctx, key); ok {
		return id, true, nil
	}
	id, ok, err := find()
	if err != nil || !ok {
		return 0, false, err
	}
	r.remember(ctx, key, id)
	return id, true, nil
}

// Collection resolves a "name___version" collection key. Absence is a
// DependencyNotFound error.
func (r *Resolver) Collection(ctx context.Context, collectionID string) (int64, error) {
	name, version, err := models.ParseCollectionID(collectionID)
	if err != nil {
		return 0, cumuluserrors.NewDependencyNotFound(kindCollection, collectionID).WithCause(err)
	}
	id, ok, err := r.lookup(ctx, kindCollection, collectionID, func() (int64, bool, error) {
		return r.stores.Collections.GetCumulusID(ctx, name, version)
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, cumuluserrors.NewDependencyNotFound(kindCollection, collectionID)
	}
	return id, nil
}

func (r *Resolver) Provider(ctx context.Context, name string) (int64, error) {
	id, ok, err := r.lookup(ctx, kindProvider, name, func() (int64, bool, error) {
		return r.stores.Providers.GetCumulusIDByName(ctx, name)
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, cumuluserrors.NewDependencyNotFound(kindProvider, name)
	}
	return id, nil
}

func (r *Resolver) AsyncOperation(ctx context.Context, asyncOperationID string) (int64, error) {
	id, ok, err := r.lookup(ctx, kindAsyncOperation, asyncOperationID, func() (int64, bool, error) {
		return r.stores.AsyncOperations.GetCumulusIDByID(ctx, asyncOperationID)
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, cumuluserrors.NewDependencyNotFound(kindAsyncOperation, asyncOperationID)
	}
	return id, nil
}

// Pdr is a soft lookup; ok is false when the PDR has not been migrated.
func (r *Resolver) Pdr(ctx context.Context, name string) (int64, bool, error) {
	return r.lookup(ctx, kindPdr, name, func() (int64, bool, error) {
		return r.stores.Pdrs.GetCumulusIDByName(ctx, name)
	})
}

func (r *Resolver) ExecutionByArn(ctx context.Context, arn string) (int64, bool, error) {
	return r.lookup(ctx, kindExecution, arn, func() (int64, bool, error) {
		return r.stores.Executions.GetCumulusIDByArn(ctx, arn)
	})
}

// Execution resolves the execution reference carried by granules and PDRs.
// It is normally the execution URL; when no row has that URL the arn embedded
// in it is tried.
func (r *Resolver) Execution(ctx context.Context, reference string) (int64, bool, error) {
	if strings.HasPrefix(reference, "arn:") {
		return r.ExecutionByArn(ctx, reference)
	}

	id, ok, err := r.lookup(ctx, kindExecutionURL, reference, func() (int64, bool, error) {
		return r.stores.Executions.GetCumulusIDByURL(ctx, reference)
	})
	if err != nil || ok {
		return id, ok, err
	}

	if arn := ArnFromReference(reference); arn != "" {
		return r.ExecutionByArn(ctx, arn)
	}
	return 0, false, nil
}

// RememberExecution caches the id of an execution written during the run.
func (r *Resolver) RememberExecution(ctx context.Context, arn string, id int64) {
	r.remember(ctx, cache.Key(kindExecution, arn), id)
}

// ArnFromReference extracts the state machine execution arn from a console
// URL, or returns "" when there is none.
func ArnFromReference(reference string) string {
	i := strings.Index(reference, "arn:")
	if i < 0 {
		return ""
	}
	arn := reference[i:]
	if j := strings.IndexAny(arn, "?&# "); j >= 0 {
		arn = arn[:j]
	}
	return arn
}

package migration

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/cache"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/conflict"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/dynamo"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/dynamo/dynamotest"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/resolver"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/require"
)

const (
	executionsTable = "executions-table"
	granulesTable   = "granules-table"
	pdrsTable       = "pdrs-table"

	testCollection = "MOD09GQ___006"
	testProvider   = "s3_provider"
)

func silentLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type linkKey struct {
	granule   int64
	execution int64
}

type granuleKey struct {
	granuleID  string
	collection int64
}

// tables is the state of the fake relational store. Rows are values so a
// transaction snapshot is a map copy.
type tables struct {
	nextID      int64
	collections map[string]int64
	providers   map[string]int64
	asyncOps    map[string]int64
	executions  map[string]models.Execution
	granules    map[granuleKey]models.Granule
	files       map[string]models.File
	links       map[linkKey]bool
	pdrs        map[string]models.Pdr
}

func (t tables) clone() tables {
	return tables{
		nextID:      t.nextID,
		collections: maps.Clone(t.collections),
		providers:   maps.Clone(t.providers),
		asyncOps:    maps.Clone(t.asyncOps),
		executions:  maps.Clone(t.executions),
		granules:    maps.Clone(t.granules),
		files:       maps.Clone(t.files),
		links:       maps.Clone(t.links),
		pdrs:        maps.Clone(t.pdrs),
	}
}

// fakeDB mimics the upsert semantics of the repositories, including the
// status-dependent merge and the granule write guards.
type fakeDB struct {
	mu sync.Mutex
	t  tables

	// failFileKey makes the upsert of the file with this key fail.
	failFileKey string
}

func newFakeDB() *fakeDB {
	db := &fakeDB{t: tables{
		collections: map[string]int64{},
		providers:   map[string]int64{},
		asyncOps:    map[string]int64{},
		executions:  map[string]models.Execution{},
		granules:    map[granuleKey]models.Granule{},
		files:       map[string]models.File{},
		links:       map[linkKey]bool{},
		pdrs:        map[string]models.Pdr{},
	}}
	db.t.collections[testCollection] = db.id()
	db.t.providers[testProvider] = db.id()
	return db
}

func (db *fakeDB) id() int64 {
	db.t.nextID++
	return db.t.nextID
}

func (db *fakeDB) execution(arn string) (models.Execution, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.t.executions[arn]
	return e, ok
}

func (db *fakeDB) granule(granuleID string) (models.Granule, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	g, ok := db.t.granules[granuleKey{granuleID, db.t.collections[testCollection]}]
	return g, ok
}

func (db *fakeDB) fileCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.t.files)
}

func (db *fakeDB) linked(granuleCumulusID, executionCumulusID int64) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.t.links[linkKey{granuleCumulusID, executionCumulusID}]
}

func (db *fakeDB) pdr(name string) (models.Pdr, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.t.pdrs[name]
	return p, ok
}

func (db *fakeDB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	db.mu.Lock()
	snapshot := db.t.clone()
	db.mu.Unlock()

	if err := fn(ctx); err != nil {
		db.mu.Lock()
		db.t = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

type fakeExecutions struct{ db *fakeDB }

func (f fakeExecutions) GetByArn(_ context.Context, arn string) (*models.Execution, error) {
	e, ok := f.db.execution(arn)
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f fakeExecutions) GetCumulusIDByArn(_ context.Context, arn string) (int64, bool, error) {
	e, ok := f.db.execution(arn)
	return e.CumulusID, ok, nil
}

func (f fakeExecutions) GetCumulusIDByURL(_ context.Context, url string) (int64, bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, e := range f.db.t.executions {
		if e.URL != nil && *e.URL == url {
			return e.CumulusID, true, nil
		}
	}
	return 0, false, nil
}

func (f fakeExecutions) Upsert(_ context.Context, execution *models.Execution) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	row := *execution
	existing, ok := f.db.t.executions[execution.Arn]
	if !ok {
		row.CumulusID = f.db.id()
		f.db.t.executions[row.Arn] = row
		return row.CumulusID, nil
	}
	if conflict.ForExecution(execution.Status).Variant == conflict.Narrow {
		row = existing
		row.CreatedAt = execution.CreatedAt
		row.UpdatedAt = execution.UpdatedAt
		row.Timestamp = execution.Timestamp
		row.OriginalPayload = execution.OriginalPayload
	}
	row.CumulusID = existing.CumulusID
	f.db.t.executions[row.Arn] = row
	return row.CumulusID, nil
}

type fakeGranules struct{ db *fakeDB }

func (f fakeGranules) Get(_ context.Context, granuleID string, collectionCumulusID int64) (*models.Granule, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	g, ok := f.db.t.granules[granuleKey{granuleID, collectionCumulusID}]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (f fakeGranules) Upsert(_ context.Context, granule *models.Granule, executionCumulusID int64) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	key := granuleKey{granule.GranuleID, granule.CollectionCumulusID}
	row := *granule
	existing, ok := f.db.t.granules[key]
	if !ok {
		row.CumulusID = f.db.id()
		f.db.t.granules[key] = row
		return row.CumulusID, nil
	}

	policy := conflict.ForGranule(granule.Status)
	if policy.CreatedAtGuard && existing.CreatedAt.After(granule.CreatedAt) {
		return 0, cumuluserrors.NewWriteConflict(string(models.EntityGranules), granule.GranuleID)
	}
	if policy.RequireNoExecutionLink && f.db.t.links[linkKey{existing.CumulusID, executionCumulusID}] {
		return 0, cumuluserrors.NewWriteConflict(string(models.EntityGranules), granule.GranuleID)
	}
	if policy.Variant == conflict.Narrow {
		row = existing
		row.Status = granule.Status
		row.Timestamp = granule.Timestamp
		row.UpdatedAt = granule.UpdatedAt
		row.CreatedAt = granule.CreatedAt
	}
	row.CumulusID = existing.CumulusID
	f.db.t.granules[key] = row
	return row.CumulusID, nil
}

type fakeFiles struct{ db *fakeDB }

func (f fakeFiles) Upsert(_ context.Context, file *models.File) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	key := file.Bucket + "/" + file.Key
	if key == f.db.failFileKey {
		return 0, fmt.Errorf("connection reset upserting %s", key)
	}
	row := *file
	if existing, ok := f.db.t.files[key]; ok {
		row.CumulusID = existing.CumulusID
	} else {
		row.CumulusID = f.db.id()
	}
	f.db.t.files[key] = row
	return row.CumulusID, nil
}

type fakeLinks struct{ db *fakeDB }

func (f fakeLinks) Link(_ context.Context, granuleCumulusID, executionCumulusID int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.t.links[linkKey{granuleCumulusID, executionCumulusID}] = true
	return nil
}

type fakePdrs struct{ db *fakeDB }

func (f fakePdrs) GetByName(_ context.Context, name string) (*models.Pdr, error) {
	p, ok := f.db.pdr(name)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f fakePdrs) GetCumulusIDByName(_ context.Context, name string) (int64, bool, error) {
	p, ok := f.db.pdr(name)
	return p.CumulusID, ok, nil
}

func (f fakePdrs) Upsert(_ context.Context, pdr *models.Pdr) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	row := *pdr
	if existing, ok := f.db.t.pdrs[pdr.Name]; ok {
		row.CumulusID = existing.CumulusID
	} else {
		row.CumulusID = f.db.id()
	}
	f.db.t.pdrs[row.Name] = row
	return row.CumulusID, nil
}

type fakeCollections struct{ db *fakeDB }

func (f fakeCollections) GetCumulusID(_ context.Context, name, version string) (int64, bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	id, ok := f.db.t.collections[models.BuildCollectionID(name, version)]
	return id, ok, nil
}

type fakeNamed struct {
	db   *fakeDB
	pick func(t tables) map[string]int64
}

func (f fakeNamed) GetCumulusIDByName(_ context.Context, name string) (int64, bool, error) {
	return f.lookup(name)
}

func (f fakeNamed) GetCumulusIDByID(_ context.Context, id string) (int64, bool, error) {
	return f.lookup(id)
}

func (f fakeNamed) lookup(key string) (int64, bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	id, ok := f.pick(f.db.t)[key]
	return id, ok, nil
}

type fakeArtifacts struct {
	written map[models.Entity][]models.RecordError
	err     error
}

func (f *fakeArtifacts) WriteErrors(_ context.Context, runID string, entity models.Entity, failures []models.RecordError) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.written == nil {
		f.written = map[models.Entity][]models.RecordError{}
	}
	f.written[entity] = failures
	return fmt.Sprintf("s3://artifacts/%s/%s-errors.json", runID, entity), nil
}

type fakeEvents struct {
	summaries []*models.RunSummary
	failures  []models.RecordError
}

func (f *fakeEvents) PublishRunCompleted(_ context.Context, summary *models.RunSummary) error {
	f.summaries = append(f.summaries, summary)
	return nil
}

func (f *fakeEvents) PublishRecordFailures(_ context.Context, _ string, failures []models.RecordError) error {
	f.failures = append(f.failures, failures...)
	return nil
}

// harness wires the fake relational store, the in-memory legacy store and
// the real resolver.
type harness struct {
	db       *fakeDB
	api      *dynamotest.API
	legacy   *dynamo.Client
	resolver *resolver.Resolver
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := newFakeDB()
	api := dynamotest.New()
	api.CreateTable(executionsTable, "arn")
	api.CreateTable(granulesTable, "granuleId", "collectionId")
	api.CreateTable(pdrsTable, "pdrName")

	h := &harness{db: db, api: api, legacy: dynamo.NewClient(api, 2, silentLogger())}
	h.resolver = h.newResolver()
	return h
}

// newResolver returns a resolver with an empty cache, as a new run would have.
func (h *harness) newResolver() *resolver.Resolver {
	return resolver.New(resolver.Stores{
		Collections:     fakeCollections{h.db},
		Providers:       fakeNamed{h.db, func(t tables) map[string]int64 { return t.providers }},
		AsyncOperations: fakeNamed{h.db, func(t tables) map[string]int64 { return t.asyncOps }},
		Executions:      fakeExecutions{h.db},
		Pdrs:            fakePdrs{h.db},
	}, cache.NewMemoryCache(time.Minute, time.Minute), silentLogger())
}

func (h *harness) put(t *testing.T, table string, records ...map[string]any) {
	t.Helper()
	for _, r := range records {
		require.NoError(t, h.api.Put(table, r))
	}
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Legacy:            h.legacy,
		Transactor:        h.db,
		Resolver:          h.newResolver(),
		Executions:        fakeExecutions{h.db},
		Granules:          fakeGranules{h.db},
		Files:             fakeFiles{h.db},
		GranuleExecutions: fakeLinks{h.db},
		Pdrs:              fakePdrs{h.db},
	}
}

func (h *harness) executionMigrator(maxParentDepth int) *ExecutionMigrator {
	return NewExecutionMigrator(h.legacy, executionsTable, fakeExecutions{h.db}, h.resolver, maxParentDepth, silentLogger())
}

func (h *harness) granuleMigrator() *GranuleMigrator {
	return NewGranuleMigrator(fakeGranules{h.db}, fakeFiles{h.db}, fakeLinks{h.db}, h.db, h.resolver, silentLogger())
}

func (h *harness) pdrMigrator() *PdrMigrator {
	return NewPdrMigrator(fakePdrs{h.db}, h.resolver, silentLogger())
}

func (h *harness) drive(t *testing.T, migrator RecordMigrator, table string) DriverResult {
	t.Helper()
	result, err := NewDriver(migrator, 1, silentLogger()).Run(context.Background(), h.legacy.Scan(table))
	require.NoError(t, err)
	return result
}

func executionRecord(arn, parentArn, status string, updatedAt int64) map[string]any {
	r := map[string]any{
		"arn":       arn,
		"name":      arn,
		"execution": "https://console.aws.amazon.com/states/home#/executions/details/" + arn,
		"status":    status,
		"type":      "IngestGranule",
		"createdAt": updatedAt - 10,
		"updatedAt": updatedAt,
	}
	if parentArn != "" {
		r["parentArn"] = parentArn
	}
	return r
}

func granuleRecord(granuleID, executionArn, status string, updatedAt int64, files ...map[string]any) map[string]any {
	raw := make([]any, 0, len(files))
	for _, f := range files {
		raw = append(raw, f)
	}
	return map[string]any{
		"granuleId":    granuleID,
		"collectionId": testCollection,
		"status":       status,
		"execution":    "https://console.aws.amazon.com/states/home#/executions/details/" + executionArn,
		"provider":     testProvider,
		"createdAt":    updatedAt - 10,
		"updatedAt":    updatedAt,
		"files":        raw,
	}
}

func fileRecord(bucket, key string) map[string]any {
	return map[string]any{
		"bucket":   bucket,
		"key":      key,
		"fileName": key,
		"size":     1024,
	}
}

func pdrRecord(name, executionArn string, updatedAt int64) map[string]any {
	r := map[string]any{
		"pdrName":      name,
		"collectionId": testCollection,
		"provider":     testProvider,
		"status":       "completed",
		"progress":     100,
		"createdAt":    updatedAt - 10,
		"updatedAt":    updatedAt,
	}
	if executionArn != "" {
		r["execution"] = "https://console.aws.amazon.com/states/home#/executions/details/" + executionArn
	}
	return r
}

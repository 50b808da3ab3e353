package models

// Outcome is the result of migrating one legacy record.
type Outcome string

const (
	OutcomeMigrated Outcome = "migrated"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// MigrationSummary tallies one entity's records. Drivers own their summary and
// return it; nothing is shared between runs.
type MigrationSummary struct {
	TotalRecords int64 `json:"total_dynamo_db_records"`
	Migrated     int64 `json:"migrated"`
	Skipped      int64 `json:"skipped"`
	Failed       int64 `json:"failed"`
}

// Add counts one source record with the given outcome.
func (s *MigrationSummary) Add(outcome Outcome) {
	s.AddN(outcome, 1)
}

// AddN counts n source records with the given outcome.
func (s *MigrationSummary) AddN(outcome Outcome, n int64) {
	s.TotalRecords += n
	switch outcome {
	case OutcomeMigrated:
		s.Migrated += n
	case OutcomeSkipped:
		s.Skipped += n
	case OutcomeFailed:
		s.Failed += n
	}
}

type GranulesAndFilesSummary struct {
	Granules MigrationSummary `json:"granules"`
	Files    MigrationSummary `json:"files"`
}

// RunSummary is the combined result of one coordinator invocation. Entities
// that were not selected are omitted.
type RunSummary struct {
	RunID      string                   `json:"run_id"`
	Executions *MigrationSummary        `json:"executions,omitempty"`
	Granules   *GranulesAndFilesSummary `json:"granules,omitempty"`
	Pdrs       *MigrationSummary        `json:"pdrs,omitempty"`
	Errors     map[Entity]string        `json:"errors,omitempty"`
}

// RecordError describes one failed record for the error artifact.
type RecordError struct {
	Entity Entity `json:"entity"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

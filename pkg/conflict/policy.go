// Package conflict decides how an incoming legacy record is merged into a row
// that already exists in the relational store.
package conflict

import (
	"fmt"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
)

type Variant int

const (
	// Full overwrites every inserted column.
	Full Variant = iota
	// Narrow overwrites only Policy.Columns.
	Narrow
	// Ignore keeps the existing row untouched.
	Ignore
)

func (v Variant) String() string {
	switch v {
	case Full:
		return "full"
	case Narrow:
		return "narrow"
	case Ignore:
		return "ignore"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Policy is the ON CONFLICT behavior of one upsert.
type Policy struct {
	Variant Variant
	Columns []string
	// CreatedAtGuard rejects the write when the stored row was created after
	// the incoming one.
	CreatedAtGuard bool
	// RequireNoExecutionLink rejects the write when the granule is already
	// linked to the execution being migrated.
	RequireNoExecutionLink bool
}

var (
	executionRunningColumns = []string{"created_at", "updated_at", "timestamp", "original_payload"}
	granuleRunningColumns   = []string{"status", "timestamp", "updated_at", "created_at"}
)

// ForExecution: a running event may arrive after the terminal one, so it only
// refreshes timestamps and the original payload.
func ForExecution(status string) Policy {
	if status == models.StatusRunning {
		return Policy{Variant: Narrow, Columns: executionRunningColumns}
	}
	return Policy{Variant: Full}
}

func ForGranule(status string) Policy {
	if status == models.StatusRunning {
		return Policy{
			Variant:                Narrow,
			Columns:                granuleRunningColumns,
			CreatedAtGuard:         true,
			RequireNoExecutionLink: true,
		}
	}
	return Policy{Variant: Full, CreatedAtGuard: true}
}

// ForFile: files carry no staleness of their own and always follow the granule.
func ForFile() Policy {
	return Policy{Variant: Full}
}

func ForPdr() Policy {
	return Policy{Variant: Full}
}

func ForGranuleExecution() Policy {
	return Policy{Variant: Ignore}
}

// MergeColumns returns the columns overwritten on conflict.
func (p Policy) MergeColumns(insertColumns, conflictColumns []string) []string {
	switch p.Variant {
	case Ignore:
		return nil
	case Narrow:
		return append([]string(nil), p.Columns...)
	}

	keys := map[string]bool{}
	for _, c := range conflictColumns {
		keys[c] = true
	}
	merge := make([]string, 0, len(insertColumns))
	for _, c := range insertColumns {
		if !keys[c] {
			merge = append(merge, c)
		}
	}
	return merge
}

// Apply renders the policy as an ON CONFLICT clause on ib. executionCumulusID
// is only read when RequireNoExecutionLink is set.
func (p Policy) Apply(ib *database.InsertBuilder, table string, insertColumns, conflictColumns []string, executionCumulusID int64) {
	if p.Variant == Ignore {
		ib.OnConflictDoNothing(conflictColumns...)
		return
	}

	clause := ib.OnConflict(conflictColumns...).Set(p.MergeColumns(insertColumns, conflictColumns)...)
	if p.CreatedAtGuard {
		clause.Where(fmt.Sprintf("%s.created_at <= %%v", table), database.Excluded("created_at"))
	}
	if p.RequireNoExecutionLink {
		clause.Where(fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM granules_executions ge WHERE ge.granule_cumulus_id = %s.cumulus_id AND ge.execution_cumulus_id = %%v)",
			table), executionCumulusID)
	}
}

// Package ports defines the interfaces between the statistical core and
// its collaborators: data loading on the way in, marginal lookup on the
// way through.
package ports

import (
	"crashlens/domain/collision"
	"crashlens/domain/core"
	"crashlens/domain/risk"
)

// RecordSource loads a well-formed record set. Implementations own file
// parsing, column mapping, and row validity filtering; the core never sees
// raw strings except through the normalizers.
type RecordSource interface {
	Load() ([]collision.Record, LoadReport, error)
}

// LoadReport summarizes a load for logging and the dashboard summary.
type LoadReport struct {
	DatasetID   core.DatasetID
	Path        string
	RowsRead    int
	RowsSkipped int
	Fingerprint core.Fingerprint
}

// MarginalSource supplies marginal statistics for a record set. The
// canonical implementation memoizes per fingerprint; a cold recomputation
// must produce identical results, so correctness never depends on the
// cache being warm.
type MarginalSource interface {
	Marginals(fp core.Fingerprint, records []collision.Record) risk.MarginalSet
}

// Package memo wraps the marginal-statistics builder with a cache keyed by
// dataset fingerprint. The record set does not change within a session, so
// one entry suffices; a fingerprint change evicts the previous result.
package memo

import (
	"fmt"
	"strings"
	"sync"

	"crashlens/adapters/stats/marginals"
	"crashlens/domain/collision"
	"crashlens/domain/core"
	"crashlens/domain/risk"
)

// Provider memoizes marginals.Build output per record-set fingerprint.
// Safe for concurrent readers; the build itself runs outside the lock at
// most once per fingerprint in the common path.
type Provider struct {
	dims   []collision.Dimension
	params risk.Params

	mu     sync.RWMutex
	key    core.Fingerprint
	cached risk.MarginalSet
	warm   bool
}

// NewProvider creates a provider for the given dimensions and parameters.
func NewProvider(dims []collision.Dimension, params risk.Params) *Provider {
	return &Provider{dims: dims, params: params}
}

// Marginals returns the marginal set for the record set identified by fp,
// rebuilding only when the fingerprint changes.
func (p *Provider) Marginals(fp core.Fingerprint, records []collision.Record) risk.MarginalSet {
	p.mu.RLock()
	if p.warm && p.key == fp {
		set := p.cached
		p.mu.RUnlock()
		return set
	}
	p.mu.RUnlock()

	set := marginals.Build(records, p.dims, p.params)

	p.mu.Lock()
	p.key = fp
	p.cached = set
	p.warm = true
	p.mu.Unlock()
	return set
}

// FingerprintRecords derives a content fingerprint for a record set.
// Loaders compute this once at load time; it is the memoization key.
func FingerprintRecords(records []collision.Record) core.Fingerprint {
	var b strings.Builder
	fmt.Fprintf(&b, "count=%d\n", len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "%t|%d|%d", r.Injured, r.Hour, r.DayOfWeek)
		for _, dim := range collision.Dimensions() {
			v, _ := r.Category(dim)
			b.WriteByte('|')
			b.WriteString(v)
		}
		b.WriteByte('\n')
	}
	return core.NewFingerprint([]byte(b.String()))
}

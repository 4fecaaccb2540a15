package memo

import (
	"reflect"
	"testing"

	"crashlens/adapters/stats/marginals"
	"crashlens/domain/collision"
	"crashlens/domain/risk"
)

func sampleRecords(borough string, n, injured int) []collision.Record {
	records := make([]collision.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, collision.Record{
			Injured: i < injured,
			Hour:    -1, DayOfWeek: -1,
			Borough: borough,
		})
	}
	return records
}

func TestProvider_ColdEqualsWarm(t *testing.T) {
	records := sampleRecords("Brooklyn", 100, 30)
	fp := FingerprintRecords(records)
	params := risk.DefaultParams()
	dims := collision.Dimensions()

	provider := NewProvider(dims, params)
	warm := provider.Marginals(fp, records)
	again := provider.Marginals(fp, records)
	cold := marginals.Build(records, dims, params)

	if !reflect.DeepEqual(warm, cold) {
		t.Error("memoized marginals differ from a cold recomputation")
	}
	if !reflect.DeepEqual(warm, again) {
		t.Error("repeated lookups with the same fingerprint differ")
	}
}

func TestProvider_RebuildsOnFingerprintChange(t *testing.T) {
	first := sampleRecords("Brooklyn", 100, 30)
	second := sampleRecords("Brooklyn", 100, 60)

	provider := NewProvider(collision.Dimensions(), risk.DefaultParams())
	setA := provider.Marginals(FingerprintRecords(first), first)
	setB := provider.Marginals(FingerprintRecords(second), second)

	if setA.BaseRate == setB.BaseRate {
		t.Error("provider served stale marginals after the record set changed")
	}
}

func TestFingerprintRecords(t *testing.T) {
	a := sampleRecords("Brooklyn", 10, 3)
	b := sampleRecords("Brooklyn", 10, 3)
	c := sampleRecords("Queens", 10, 3)

	if FingerprintRecords(a) != FingerprintRecords(b) {
		t.Error("identical record sets must fingerprint identically")
	}
	if FingerprintRecords(a) == FingerprintRecords(c) {
		t.Error("differing record sets must fingerprint differently")
	}
	if FingerprintRecords(nil).IsEmpty() {
		t.Error("empty record sets still get a fingerprint")
	}
}

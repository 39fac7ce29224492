package compensation

import "github.com/shopspring/decimal"

// =============================================================================
// SCOPE FILTER
// =============================================================================

// scopeKey returns the record field a rule scope matches against.
// The second return is false for an unknown scope.
func scopeKey(r SoldRecord, scope ApplyScope) (string, bool) {
	switch scope {
	case ScopeProduct:
		return r.ProductID, true
	case ScopeLOB:
		return r.LOBID, true
	case ScopeProductType:
		return string(r.ProductType), true
	case ScopePremiumCategory:
		return string(r.PremiumCategory), true
	default:
		return "", false
	}
}

// FilterRecords keeps the records whose status is eligible and whose scope
// field exactly matches one of filters. An empty filter set or an unknown
// scope yields no records.
func FilterRecords(records []SoldRecord, scope ApplyScope, filters []string, statuses StatusFilter) []SoldRecord {
	if _, known := scopeKey(SoldRecord{}, scope); !known || len(filters) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(filters))
	for _, f := range filters {
		allowed[f] = struct{}{}
	}

	var out []SoldRecord
	for _, r := range records {
		if !statuses.Contains(r.Status) {
			continue
		}
		k, _ := scopeKey(r, scope)
		if _, hit := allowed[k]; hit {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// METRIC AGGREGATOR
// =============================================================================

// Metrics are the scalar bases of a record set.
type Metrics struct {
	Apps    int64                               `json:"apps"`
	Premium decimal.Decimal                     `json:"premium"`
	Buckets map[PremiumCategory]decimal.Decimal `json:"buckets"`
	// AppsByBucket counts records per premium category.
	AppsByBucket map[PremiumCategory]int64 `json:"apps_by_bucket"`
}

// Aggregate reduces records to Metrics.
func Aggregate(records []SoldRecord) Metrics {
	m := Metrics{
		Premium:      decimal.Zero,
		Buckets:      make(map[PremiumCategory]decimal.Decimal),
		AppsByBucket: make(map[PremiumCategory]int64),
	}
	for _, r := range records {
		m.Apps++
		m.Premium = m.Premium.Add(r.Premium)
		m.Buckets[r.PremiumCategory] = m.Bucket(r.PremiumCategory).Add(r.Premium)
		m.AppsByBucket[r.PremiumCategory]++
	}
	return m
}

// Bucket returns the premium of one category. An empty category means the
// total premium.
func (m Metrics) Bucket(cat PremiumCategory) decimal.Decimal {
	if cat == "" {
		return m.Premium
	}
	if v, ok := m.Buckets[cat]; ok {
		return v
	}
	return decimal.Zero
}

// AppsIn returns the app count of one category, or all apps when cat is empty.
func (m Metrics) AppsIn(cat PremiumCategory) int64 {
	if cat == "" {
		return m.Apps
	}
	return m.AppsByBucket[cat]
}

// Basis returns the tier-basis scalar. Unset basis means APP_COUNT; an
// unknown basis returns false.
func (m Metrics) Basis(basis TierBasis, bucket PremiumCategory) (decimal.Decimal, bool) {
	switch basis {
	case BasisAppCount, "":
		return decimal.NewFromInt(m.Apps), true
	case BasisPremiumSum:
		return m.Premium, true
	case BasisBucketValue:
		return m.Bucket(bucket), true
	default:
		return decimal.Zero, false
	}
}

package metrics

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/adopet/pkg/db"
)

const (
	ComponentExpense         = "expense"
	ComponentExpenseCategory = "expense_category"
	ComponentAdoption        = "adoption"
	ComponentOrganization    = "organization"
	ComponentAnimal          = "animal"
)

const (
	ReasonUniqueViolation     = "unique_violation"
	ReasonCheckViolation      = "check_violation"
	ReasonForeignKeyViolation = "foreign_key_violation"
	ReasonDeadlineExceeded    = "deadline_exceeded"
	ReasonUnknown             = "unknown"
)

// StoreMetrics captures integrity signals raised by the domain guards and the store.
type StoreMetrics struct {
	guardRejections *prometheus.CounterVec
	storeViolations *prometheus.CounterVec
	searchResults   *prometheus.HistogramVec
}

var (
	storeMetricsOnce sync.Once
	storeMetrics     *StoreMetrics
)

// Store returns the singleton store metrics registry.
func Store() *StoreMetrics {
	return StoreWithConfig(Config{})
}

// StoreWithConfig returns the singleton store metrics registry using config labels.
func StoreWithConfig(cfg Config) *StoreMetrics {
	storeMetricsOnce.Do(func() {
		storeMetrics = newStoreMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return storeMetrics
}

func newStoreMetrics(registerer prometheus.Registerer, cfg Config) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabelsFor(cfg)

	guardRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "adopet_guard_rejections_total",
		Help:        "Writes rejected by application-level guards before reaching the store.",
		ConstLabels: constLabels,
	}, []string{"component", "reason"})
	storeViolations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "adopet_store_violations_total",
		Help:        "Constraint violations reported by the store.",
		ConstLabels: constLabels,
	}, []string{"component", "reason"})
	searchResults := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "adopet_search_results",
		Help:        "Result page size of public searches.",
		Buckets:     []float64{0, 1, 5, 10, 20, 50, 100},
		ConstLabels: constLabels,
	}, []string{"kind"})

	registerer.MustRegister(guardRejections, storeViolations, searchResults)

	return &StoreMetrics{
		guardRejections: guardRejections,
		storeViolations: storeViolations,
		searchResults:   searchResults,
	}
}

// IncGuardRejection counts a write rejected by a domain guard.
func (m *StoreMetrics) IncGuardRejection(component string, err error) {
	if m == nil || err == nil {
		return
	}
	m.guardRejections.WithLabelValues(component, err.Error()).Inc()
}

// IncStoreViolation counts a constraint violation returned by the store.
func (m *StoreMetrics) IncStoreViolation(component string, err error) {
	if m == nil || err == nil {
		return
	}
	m.storeViolations.WithLabelValues(component, ClassifyStoreError(err)).Inc()
}

// ObserveSearchResults records how many items a search page returned.
func (m *StoreMetrics) ObserveSearchResults(kind string, count int) {
	if m == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	m.searchResults.WithLabelValues(kind).Observe(float64(count))
}

// ClassifyStoreError maps store errors to a low-cardinality reason.
func ClassifyStoreError(err error) string {
	switch {
	case err == nil:
		return ReasonUnknown
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonDeadlineExceeded
	case db.IsDuplicateKeyErr(err):
		return ReasonUniqueViolation
	case db.IsCheckViolation(err):
		return ReasonCheckViolation
	case db.IsForeignKeyViolation(err):
		return ReasonForeignKeyViolation
	default:
		return ReasonUnknown
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"retention_backend/internal/lifecycle/domain"
	"retention_backend/internal/lifecycle/repository"
	"retention_backend/platform/apperr"
	"retention_backend/platform/logger"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeRepo is an in-memory Repository with the same conditional-update
// semantics as the PostgreSQL implementation.
type fakeRepo struct {
	mu sync.Mutex

	relationships map[string]*repository.Relationship
	payments      map[string][]time.Time
	appointments  map[string][]time.Time
	logEntries    []repository.StatusChangeEntry

	failEvaluationFor map[string]error
	transitionCalls   int
}

func key(customerID, businessID uuid.UUID) string {
	return customerID.String() + "|" + businessID.String()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		relationships:     make(map[string]*repository.Relationship),
		payments:          make(map[string][]time.Time),
		appointments:      make(map[string][]time.Time),
		failEvaluationFor: make(map[string]error),
	}
}

func (f *fakeRepo) addRelationship(status domain.Status) (uuid.UUID, uuid.UUID) {
	customerID, businessID := uuid.New(), uuid.New()
	f.relationships[key(customerID, businessID)] = &repository.Relationship{
		ID:         uuid.New(),
		CustomerID: customerID,
		BusinessID: businessID,
		Status:     status,
		CreatedAt:  testNow.AddDate(0, -6, 0),
		UpdatedAt:  testNow.AddDate(0, -1, 0),
	}
	return customerID, businessID
}

func (f *fakeRepo) GetRelationship(_ context.Context, customerID, businessID uuid.UUID) (repository.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failEvaluationFor[key(customerID, businessID)]; err != nil {
		return repository.Relationship{}, err
	}
	rel, ok := f.relationships[key(customerID, businessID)]
	if !ok {
		return repository.Relationship{}, apperr.NotFound("customer relationship not found")
	}
	return *rel, nil
}

func (f *fakeRepo) ListRelationships(_ context.Context, businessID *uuid.UUID) ([]repository.RelationshipRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var refs []repository.RelationshipRef
	for _, rel := range f.relationships {
		if businessID != nil && rel.BusinessID != *businessID {
			continue
		}
		refs = append(refs, repository.RelationshipRef{
			CustomerID: rel.CustomerID,
			BusinessID: rel.BusinessID,
			Status:     rel.Status,
		})
	}
	return refs, nil
}

func (f *fakeRepo) ListByStatus(_ context.Context, businessID uuid.UUID, status *domain.Status) ([]repository.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rels []repository.Relationship
	for _, rel := range f.relationships {
		if rel.BusinessID != businessID {
			continue
		}
		if status != nil && rel.Status != *status {
			continue
		}
		rels = append(rels, *rel)
	}
	return rels, nil
}

func (f *fakeRepo) TransitionStatus(_ context.Context, p repository.TransitionParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitionCalls++
	rel, ok := f.relationships[key(p.CustomerID, p.BusinessID)]
	if !ok || rel.Status != p.From {
		return false, nil
	}
	rel.Status = p.To
	rel.UpdatedAt = testNow
	f.logEntries = append(f.logEntries, repository.StatusChangeEntry{
		ID:                uuid.New(),
		CustomerID:        p.CustomerID,
		BusinessID:        p.BusinessID,
		OldStatus:         p.From,
		NewStatus:         p.To,
		Reason:            p.Reason,
		DaysSinceActivity: p.DaysSinceActivity,
		ChangedAt:         testNow,
	})
	return true, nil
}

func (f *fakeRepo) CountByStatus(_ context.Context, businessID *uuid.UUID) (repository.StatusCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var counts repository.StatusCounts
	for _, rel := range f.relationships {
		if businessID != nil && rel.BusinessID != *businessID {
			continue
		}
		switch rel.Status {
		case domain.StatusNew:
			counts.New++
		case domain.StatusActive:
			counts.Active++
		case domain.StatusAtRisk:
			counts.AtRisk++
		case domain.StatusLost:
			counts.Lost++
		case domain.StatusRecovered:
			counts.Recovered++
		}
	}
	return counts, nil
}

func (f *fakeRepo) LastSuccessfulPayment(_ context.Context, customerID, businessID uuid.UUID) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payments := f.payments[key(customerID, businessID)]
	if len(payments) == 0 {
		return nil, nil
	}
	last := payments[len(payments)-1]
	return &last, nil
}

func (f *fakeRepo) LastAppointmentActivity(_ context.Context, customerID, businessID uuid.UUID) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	touches := f.appointments[key(customerID, businessID)]
	if len(touches) == 0 {
		return nil, nil
	}
	last := touches[len(touches)-1]
	return &last, nil
}

func (f *fakeRepo) PaymentHistory(_ context.Context, customerID, businessID uuid.UUID) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.payments[key(customerID, businessID)]...), nil
}

func (f *fakeRepo) RecentChanges(_ context.Context, since time.Time, _ *uuid.UUID) ([]repository.StatusChangeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []repository.StatusChangeEntry
	for _, e := range f.logEntries {
		if !e.ChangedAt.Before(since) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (f *fakeRepo) History(_ context.Context, customerID, businessID uuid.UUID) ([]repository.StatusChangeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []repository.StatusChangeEntry
	for _, e := range f.logEntries {
		if e.CustomerID == customerID && e.BusinessID == businessID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

func newTestService(repo *fakeRepo) *Service {
	svc := New(repo, nil, domain.ThresholdDefaults{AtRiskDays: 30, LostDays: 60}, logger.New("development"))
	svc.now = func() time.Time { return testNow }
	return svc
}

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func TestEvaluateFrozenNew(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusNew)
	// Plenty of stale activity that would otherwise trigger a decline.
	repo.payments[key(customerID, businessID)] = []time.Time{daysAgo(200)}

	result, err := newTestService(repo).Evaluate(context.Background(), customerID, businessID)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if result.Changed {
		t.Fatal("new relationship must never be transitioned by the engine")
	}
	if len(repo.logEntries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(repo.logEntries))
	}
}

func TestEvaluateUnknownRelationship(t *testing.T) {
	repo := newFakeRepo()
	_, err := newTestService(repo).Evaluate(context.Background(), uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestEvaluateNoActivityIsNoChange(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusActive)

	result, err := newTestService(repo).Evaluate(context.Background(), customerID, businessID)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if result.Changed {
		t.Fatal("no recorded activity must be a no-op, not a transition")
	}
}

// Scenario A: active, one historical payment 45 days ago, defaults 30/60.
func TestEvaluateActiveBecomesAtRisk(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusActive)
	repo.payments[key(customerID, businessID)] = []time.Time{daysAgo(45)}

	result, err := newTestService(repo).Evaluate(context.Background(), customerID, businessID)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !result.Changed || result.NewStatus != domain.StatusAtRisk {
		t.Fatalf("result = %+v, want transition to at_risk", result)
	}
	if result.Reason != "No activity for 45 days (threshold: 30 days)" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
	if got := repo.relationships[key(customerID, businessID)].Status; got != domain.StatusAtRisk {
		t.Errorf("persisted status = %q, want at_risk", got)
	}
}

// Scenario B: at_risk, last activity 65 days ago, defaults 30/60.
func TestEvaluateAtRiskBecomesLost(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusAtRisk)
	repo.payments[key(customerID, businessID)] = []time.Time{daysAgo(65)}

	result, err := newTestService(repo).Evaluate(context.Background(), customerID, businessID)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !result.Changed || result.NewStatus != domain.StatusLost {
		t.Fatalf("result = %+v, want transition to lost", result)
	}
}

// Scenario C: lost, payment recorded today.
func TestEvaluateLostBecomesRecovered(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusLost)
	repo.payments[key(customerID, businessID)] = []time.Time{daysAgo(90), testNow}

	result, err := newTestService(repo).Evaluate(context.Background(), customerID, businessID)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !result.Changed || result.NewStatus != domain.StatusRecovered {
		t.Fatalf("result = %+v, want transition to recovered", result)
	}
	if result.Reason != "Customer returned with activity after being lost" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

// Even when the gap already exceeds the lost threshold, an active
// relationship only reaches at_risk in a single evaluation.
func TestEvaluateNeverSkipsAtRisk(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusActive)
	repo.payments[key(customerID, businessID)] = []time.Time{daysAgo(150)}

	result, err := newTestService(repo).Evaluate(context.Background(), customerID, businessID)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if result.NewStatus != domain.StatusAtRisk {
		t.Fatalf("result = %+v, want at_risk, never lost in one step", result)
	}
}

// A successful payment is authoritative even when an appointment touch is
// more recent.
func TestEvaluatePaymentAuthoritativeOverAppointment(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusActive)
	repo.payments[key(customerID, businessID)] = []time.Time{daysAgo(45)}
	repo.appointments[key(customerID, businessID)] = []time.Time{daysAgo(1)}

	result, err := newTestService(repo).Evaluate(context.Background(), customerID, businessID)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !result.Changed || result.NewStatus != domain.StatusAtRisk {
		t.Fatalf("result = %+v, want at_risk based on the 45-day-old payment", result)
	}
}

func TestEvaluateAppointmentFallbackWithoutPayments(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusActive)
	repo.appointments[key(customerID, businessID)] = []time.Time{daysAgo(10)}

	result, err := newTestService(repo).Evaluate(context.Background(), customerID, businessID)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if result.Changed {
		t.Fatalf("result = %+v, want no change for a 10-day-old appointment", result)
	}
}

// Adaptive thresholds: a customer paying every 5 days is at risk after a
// 10-day gap even though the configured default is 30.
func TestEvaluateAdaptiveThreshold(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusActive)
	repo.payments[key(customerID, businessID)] = []time.Time{daysAgo(25), daysAgo(20), daysAgo(15), daysAgo(10)}

	result, err := newTestService(repo).Evaluate(context.Background(), customerID, businessID)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !result.Changed || result.NewStatus != domain.StatusAtRisk {
		t.Fatalf("result = %+v, want at_risk for a fast-rhythm customer", result)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusActive)
	repo.payments[key(customerID, businessID)] = []time.Time{daysAgo(45)}
	svc := newTestService(repo)

	first, err := svc.Evaluate(context.Background(), customerID, businessID)
	if err != nil {
		t.Fatalf("first Evaluate returned error: %v", err)
	}
	if !first.Changed {
		t.Fatal("first evaluation should transition to at_risk")
	}

	second, err := svc.Evaluate(context.Background(), customerID, businessID)
	if err != nil {
		t.Fatalf("second Evaluate returned error: %v", err)
	}
	if second.Changed {
		t.Fatal("second evaluation with no new activity must be a no-op")
	}
	if len(repo.logEntries) != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", len(repo.logEntries))
	}
}

// Two racing evaluations observing the same pre-transition status must
// produce exactly one persisted transition and one audit entry.
func TestEvaluateConcurrentSingleTransition(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusActive)
	repo.payments[key(customerID, businessID)] = []time.Time{daysAgo(45)}

	// Two separate services simulate two processes; singleflight cannot
	// help across that boundary, so the conditional update must.
	svcA := newTestService(repo)
	svcB := newTestService(repo)

	var wg sync.WaitGroup
	results := make([]EvaluationResult, 2)
	errs := make([]error, 2)
	for i, svc := range []*Service{svcA, svcB} {
		wg.Add(1)
		go func(i int, svc *Service) {
			defer wg.Done()
			results[i], errs[i] = svc.Evaluate(context.Background(), customerID, businessID)
		}(i, svc)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("evaluation %d returned error: %v", i, err)
		}
	}

	changed := 0
	for _, r := range results {
		if r.Changed {
			changed++
		}
	}
	if changed != 1 {
		t.Fatalf("expected exactly one caller to realize the transition, got %d", changed)
	}
	if len(repo.logEntries) != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", len(repo.logEntries))
	}
}

func TestSweepCountersAndErrorContinuation(t *testing.T) {
	repo := newFakeRepo()

	// Healthy active customer: stays active.
	activeCustomer, activeBusiness := repo.addRelationship(domain.StatusActive)
	repo.payments[key(activeCustomer, activeBusiness)] = []time.Time{daysAgo(5)}

	// Stale active customer: becomes at_risk.
	staleCustomer, staleBusiness := repo.addRelationship(domain.StatusActive)
	repo.payments[key(staleCustomer, staleBusiness)] = []time.Time{daysAgo(45)}

	// Frozen new customer: counted, never transitioned.
	repo.addRelationship(domain.StatusNew)

	// Broken record: evaluation fails, sweep continues.
	brokenCustomer, brokenBusiness := repo.addRelationship(domain.StatusActive)
	repo.failEvaluationFor[key(brokenCustomer, brokenBusiness)] = errors.New("boom")

	result, err := newTestService(repo).Sweep(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}

	if result.Processed != 3 {
		t.Errorf("Processed = %d, want 3", result.Processed)
	}
	if result.Updated != 1 {
		t.Errorf("Updated = %d, want 1", result.Updated)
	}
	if result.Errors != 1 {
		t.Errorf("Errors = %d, want 1", result.Errors)
	}
	if result.Active != 1 || result.AtRisk != 1 || result.New != 1 {
		t.Errorf("status counters = %+v, want active=1 at_risk=1 new=1", result)
	}
}

func TestSweepScopedToBusiness(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusActive)
	repo.payments[key(customerID, businessID)] = []time.Time{daysAgo(45)}
	otherCustomer, otherBusiness := repo.addRelationship(domain.StatusActive)
	repo.payments[key(otherCustomer, otherBusiness)] = []time.Time{daysAgo(45)}

	result, err := newTestService(repo).Sweep(context.Background(), &businessID)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("Processed = %d, want only the scoped business", result.Processed)
	}
	if got := repo.relationships[key(otherCustomer, otherBusiness)].Status; got != domain.StatusActive {
		t.Errorf("out-of-scope relationship was mutated to %q", got)
	}
}

func TestRecentChangesWindow(t *testing.T) {
	repo := newFakeRepo()
	customerID, businessID := repo.addRelationship(domain.StatusActive)
	repo.payments[key(customerID, businessID)] = []time.Time{daysAgo(45)}
	svc := newTestService(repo)

	if _, err := svc.Evaluate(context.Background(), customerID, businessID); err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	changes, err := svc.RecentChanges(context.Background(), nil, 24)
	if err != nil {
		t.Fatalf("RecentChanges returned error: %v", err)
	}
	if changes.Total != 1 {
		t.Fatalf("Total = %d, want 1", changes.Total)
	}
	if changes.Items[0].NewStatus != "at_risk" {
		t.Errorf("NewStatus = %q, want at_risk", changes.Items[0].NewStatus)
	}
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"retention_backend/internal/activity/repository"
	"retention_backend/internal/activity/transport"
	"retention_backend/internal/events"
	"retention_backend/platform/logger"
)

type relKey struct {
	customerID uuid.UUID
	businessID uuid.UUID
}

type fakeRepo struct {
	mu            sync.Mutex
	relationships map[relKey]string // key -> status
	payments      []repository.PaymentParams
	appointments  []time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{relationships: make(map[relKey]string)}
}

func (f *fakeRepo) EnsureRelationship(_ context.Context, customerID, businessID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := relKey{customerID, businessID}
	if _, ok := f.relationships[k]; !ok {
		f.relationships[k] = "new"
	}
	return nil
}

func (f *fakeRepo) RecordPayment(_ context.Context, p repository.PaymentParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, p)
	return nil
}

func (f *fakeRepo) RecordAppointment(_ context.Context, _, _ uuid.UUID, touchedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appointments = append(f.appointments, touchedAt)
	return nil
}

func (f *fakeRepo) ActivateRelationship(_ context.Context, customerID, businessID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := relKey{customerID, businessID}
	if f.relationships[k] != "new" {
		return false, nil
	}
	f.relationships[k] = "active"
	return true, nil
}

type fakeBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *fakeBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
}

func (b *fakeBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *fakeBus) Subscribe(string, events.Handler) {}

func (b *fakeBus) events() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.published...)
}

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *fakeRepo, bus *fakeBus) *Service {
	svc := New(repo, bus, logger.New("test"))
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestRecordPaymentActivatesNewRelationship(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	customerID := uuid.New()
	businessID := uuid.New()

	resp, err := svc.RecordPayment(context.Background(), businessID, transport.RecordPaymentRequest{
		CustomerID:  customerID,
		AmountCents: 2500,
	})
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if !resp.Activated {
		t.Error("first successful payment should activate the relationship")
	}
	if got := repo.relationships[relKey{customerID, businessID}]; got != "active" {
		t.Errorf("relationship status = %q, want %q", got, "active")
	}

	published := bus.events()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	pr, ok := published[0].(events.PaymentRecorded)
	if !ok {
		t.Fatalf("published event type = %T, want PaymentRecorded", published[0])
	}
	if !pr.Activated {
		t.Error("PaymentRecorded.Activated = false, want true")
	}
	if !pr.PaidAt.Equal(testNow) {
		t.Errorf("PaymentRecorded.PaidAt = %v, want %v", pr.PaidAt, testNow)
	}
}

func TestRecordPaymentSecondPaymentDoesNotReactivate(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	customerID := uuid.New()
	businessID := uuid.New()
	req := transport.RecordPaymentRequest{CustomerID: customerID, AmountCents: 1000}

	if _, err := svc.RecordPayment(context.Background(), businessID, req); err != nil {
		t.Fatalf("first RecordPayment() error = %v", err)
	}
	resp, err := svc.RecordPayment(context.Background(), businessID, req)
	if err != nil {
		t.Fatalf("second RecordPayment() error = %v", err)
	}
	if resp.Activated {
		t.Error("second payment reported Activated = true")
	}
	if len(repo.payments) != 2 {
		t.Errorf("recorded %d payments, want 2", len(repo.payments))
	}
}

func TestRecordPaymentFailedPaymentDoesNotActivateOrPublish(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	customerID := uuid.New()
	businessID := uuid.New()
	failed := false

	resp, err := svc.RecordPayment(context.Background(), businessID, transport.RecordPaymentRequest{
		CustomerID:  customerID,
		AmountCents: 2500,
		Succeeded:   &failed,
	})
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if resp.Activated {
		t.Error("failed payment reported Activated = true")
	}
	if got := repo.relationships[relKey{customerID, businessID}]; got != "new" {
		t.Errorf("relationship status = %q, want %q", got, "new")
	}
	if len(bus.events()) != 0 {
		t.Errorf("published %d events for a failed payment, want 0", len(bus.events()))
	}
	if len(repo.payments) != 1 {
		t.Errorf("recorded %d payments, want 1 (failed payments are still stored)", len(repo.payments))
	}
}

func TestRecordPaymentHonorsExplicitOccurredAt(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	occurred := testNow.AddDate(0, 0, -14)
	_, err := svc.RecordPayment(context.Background(), uuid.New(), transport.RecordPaymentRequest{
		CustomerID: uuid.New(),
		OccurredAt: &occurred,
	})
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if !repo.payments[0].PaidAt.Equal(occurred) {
		t.Errorf("stored PaidAt = %v, want %v", repo.payments[0].PaidAt, occurred)
	}
}

func TestRecordAppointmentPublishesTouchAndKeepsStatus(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	customerID := uuid.New()
	businessID := uuid.New()

	resp, err := svc.RecordAppointment(context.Background(), businessID, transport.RecordAppointmentRequest{
		CustomerID: customerID,
	})
	if err != nil {
		t.Fatalf("RecordAppointment() error = %v", err)
	}
	if resp.Activated {
		t.Error("appointment touch reported Activated = true")
	}
	if got := repo.relationships[relKey{customerID, businessID}]; got != "new" {
		t.Errorf("relationship status = %q, want %q (appointments never activate)", got, "new")
	}

	published := bus.events()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if _, ok := published[0].(events.AppointmentTouched); !ok {
		t.Errorf("published event type = %T, want AppointmentTouched", published[0])
	}
}

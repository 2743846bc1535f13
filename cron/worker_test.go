package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bookline/models"
	"bookline/services/notification"
)

type fakeInstances struct {
	instances map[string]*models.Instance
	err       error
}

func (f *fakeInstances) Create(inst *models.Instance) error { return nil }
func (f *fakeInstances) GetByID(id string) (*models.Instance, error) {
	if f.err != nil {
		return nil, f.err
	}
	inst, ok := f.instances[id]
	if !ok {
		return nil, errors.New("instance not found")
	}
	return inst, nil
}
func (f *fakeInstances) GetByWebhookPath(path string) (*models.Instance, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeInstances) GetAll() ([]models.Instance, error) { return nil, nil }
func (f *fakeInstances) Update(inst *models.Instance) error { return nil }
func (f *fakeInstances) Delete(id string) error             { return nil }

type fakeGuests struct {
	upcoming []models.GuestRecord
}

func (f *fakeGuests) Create(ctx context.Context, rec *models.GuestRecord) error { return nil }
func (f *fakeGuests) GetByID(ctx context.Context, instanceID, id string) (*models.GuestRecord, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeGuests) ListByEmail(ctx context.Context, instanceID, email string) ([]models.GuestRecord, error) {
	return nil, nil
}
func (f *fakeGuests) ListByInstance(ctx context.Context, instanceID, status string) ([]models.GuestRecord, error) {
	return nil, nil
}
func (f *fakeGuests) UpdateStatus(ctx context.Context, instanceID, id, status, rescheduledTo string) error {
	return nil
}
func (f *fakeGuests) ListUpcomingActive(ctx context.Context, from, to time.Time) ([]models.GuestRecord, error) {
	return f.upcoming, nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	failures int
	sent     []string
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, inst *models.Instance, rec *models.GuestRecord, kind notification.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failures > 0 {
		d.failures--
		return errors.New("queue unavailable")
	}
	d.sent = append(d.sent, rec.ID)
	return nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

func (l *fakeLocker) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}

func sweepFixture(dispatcher *fakeDispatcher) (Deps, *fakeLocker) {
	inst := &models.Instance{ID: "inst-1", BusinessName: "Acme Clinic"}
	rec := models.GuestRecord{
		ID:          "rec-1",
		InstanceID:  "inst-1",
		Status:      models.GuestStatusActive,
		BookingTime: time.Now().Add(2 * time.Hour),
	}
	deps := Deps{
		Instances:  &fakeInstances{instances: map[string]*models.Instance{"inst-1": inst}},
		Guests:     &fakeGuests{upcoming: []models.GuestRecord{rec}},
		Dispatcher: dispatcher,
	}
	return deps, newFakeLocker()
}

func TestSweepRemindersSendsOnce(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	deps, locks := sweepFixture(dispatcher)

	sweepReminders(context.Background(), deps, locks)
	sweepReminders(context.Background(), deps, locks)

	if len(dispatcher.sent) != 1 {
		t.Fatalf("dispatched %d reminders, want 1", len(dispatcher.sent))
	}
	if !locks.isHeld("reminded:rec-1") {
		t.Error("dedupe marker should stay held after a successful dispatch")
	}
}

func TestSweepRemindersRetriesAfterFailedDispatch(t *testing.T) {
	dispatcher := &fakeDispatcher{failures: 1}
	deps, locks := sweepFixture(dispatcher)

	sweepReminders(context.Background(), deps, locks)
	if len(dispatcher.sent) != 0 {
		t.Fatalf("dispatched %d reminders on the failing sweep, want 0", len(dispatcher.sent))
	}
	if locks.isHeld("reminded:rec-1") {
		t.Fatal("dedupe marker should be released when the enqueue fails")
	}

	sweepReminders(context.Background(), deps, locks)
	if len(dispatcher.sent) != 1 {
		t.Fatalf("dispatched %d reminders after retry, want 1", len(dispatcher.sent))
	}
}

func TestSweepRemindersReleasesMarkerWhenInstanceLoadFails(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	deps, locks := sweepFixture(dispatcher)
	deps.Instances = &fakeInstances{err: errors.New("mongo down")}

	sweepReminders(context.Background(), deps, locks)

	if len(dispatcher.sent) != 0 {
		t.Fatalf("dispatched %d reminders, want 0", len(dispatcher.sent))
	}
	if locks.isHeld("reminded:rec-1") {
		t.Error("dedupe marker should be released when the instance cannot be loaded")
	}
}

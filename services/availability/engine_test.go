package availability

import (
	"context"
	"testing"
	"time"

	"bookline/models"
	"bookline/services/calendar"
)

type fakeProvider struct {
	busy []calendar.BusyPeriod
}

func (p *fakeProvider) BusyPeriods(ctx context.Context, from, to time.Time) ([]calendar.BusyPeriod, error) {
	return p.busy, nil
}

func (p *fakeProvider) CreateEvent(ctx context.Context, ev calendar.EventDetails) (string, error) {
	return "ev-1", nil
}

func (p *fakeProvider) UpdateEvent(ctx context.Context, eventID string, newStart time.Time) error {
	return nil
}

func (p *fakeProvider) DeleteEvent(ctx context.Context, eventID string) error {
	return nil
}

func fakeFactory(p calendar.Provider) calendar.Factory {
	return func(ctx context.Context, inst *models.Instance) (calendar.Provider, error) {
		return p, nil
	}
}

func testInstance() *models.Instance {
	return &models.Instance{
		ID:               "inst-1",
		BusinessName:     "Acme Clinic",
		WebhookPath:      "acme",
		Timezone:         "Asia/Dubai",
		TimezoneOffset:   "+04:00",
		WorkdayStart:     "09:00",
		WorkdayEnd:       "17:00",
		SlotDurationMins: 30,
		CalendarProvider: models.CalendarProviderGoogle,
		Active:           true,
	}
}

// at builds an instant on the test date in the instance's +04:00 offset.
func at(t *testing.T, clock string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, "2026-03-10T"+clock+":00+04:00")
	if err != nil {
		t.Fatalf("bad clock %q: %v", clock, err)
	}
	return ts
}

func fixedNow(t *testing.T) func() time.Time {
	// Midnight on the test date, far before the workday.
	now := at(t, "00:00")
	return func() time.Time { return now }
}

func TestDaySlotsFullDay(t *testing.T) {
	engine := NewEngine(fakeFactory(&fakeProvider{}))
	engine.Now = fixedNow(t)

	slots, err := engine.DaySlots(context.Background(), testInstance(), "2026-03-10")
	if err != nil {
		t.Fatalf("DaySlots failed: %v", err)
	}
	// 09:00 to 17:00 at 30 minutes is 16 slots.
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(at(t, "09:00")) {
		t.Errorf("first slot starts at %v, want 09:00", slots[0].Start)
	}
	if !slots[15].Start.Equal(at(t, "16:30")) {
		t.Errorf("last slot starts at %v, want 16:30", slots[15].Start)
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].Start.After(slots[i-1].Start) {
			t.Fatalf("slots out of order at index %d", i)
		}
	}
}

func TestDaySlotsExcludesBusyPeriods(t *testing.T) {
	provider := &fakeProvider{busy: []calendar.BusyPeriod{
		{Start: at(t, "10:00"), End: at(t, "11:00")},
	}}
	engine := NewEngine(fakeFactory(provider))
	engine.Now = fixedNow(t)

	slots, err := engine.DaySlots(context.Background(), testInstance(), "2026-03-10")
	if err != nil {
		t.Fatalf("DaySlots failed: %v", err)
	}
	if len(slots) != 14 {
		t.Fatalf("expected 14 slots, got %d", len(slots))
	}
	for _, slot := range slots {
		if !slot.Start.Before(at(t, "10:00")) && slot.Start.Before(at(t, "11:00")) {
			t.Errorf("slot at %v overlaps the busy period", slot.Start)
		}
	}
}

func TestDaySlotsBufferWidensExclusion(t *testing.T) {
	inst := testInstance()
	inst.BufferMins = 15

	provider := &fakeProvider{busy: []calendar.BusyPeriod{
		{Start: at(t, "10:00"), End: at(t, "11:00")},
	}}
	engine := NewEngine(fakeFactory(provider))
	engine.Now = fixedNow(t)

	slots, err := engine.DaySlots(context.Background(), inst, "2026-03-10")
	if err != nil {
		t.Fatalf("DaySlots failed: %v", err)
	}
	// The 09:30 slot ends at 10:00 which now collides with the padded busy
	// start of 09:45, and 11:00 collides with the padded end of 11:15.
	for _, slot := range slots {
		if slot.Start.Equal(at(t, "09:30")) || slot.Start.Equal(at(t, "11:00")) {
			t.Errorf("slot at %v should be excluded by the buffer", slot.Start)
		}
	}
}

func TestDaySlotsHonorsMinimumLead(t *testing.T) {
	inst := testInstance()
	inst.MinLeadMins = 60

	engine := NewEngine(fakeFactory(&fakeProvider{}))
	engine.Now = func() time.Time { return at(t, "09:00") }

	slots, err := engine.DaySlots(context.Background(), inst, "2026-03-10")
	if err != nil {
		t.Fatalf("DaySlots failed: %v", err)
	}
	for _, slot := range slots {
		if slot.Start.Before(at(t, "10:00")) {
			t.Errorf("slot at %v is inside the lead window", slot.Start)
		}
	}
	if len(slots) != 14 {
		t.Fatalf("expected 14 slots after lead filter, got %d", len(slots))
	}
}

func TestDaySlotsRejectsBadDate(t *testing.T) {
	engine := NewEngine(fakeFactory(&fakeProvider{}))
	engine.Now = fixedNow(t)

	if _, err := engine.DaySlots(context.Background(), testInstance(), "10-03-2026"); err == nil {
		t.Fatal("expected an error for a malformed date")
	}
}

func TestBookable(t *testing.T) {
	tests := []struct {
		name  string
		start string
		busy  []calendar.BusyPeriod
		lead  int
		want  bool
	}{
		{name: "free slot", start: "10:00", want: true},
		{name: "off grid", start: "10:15", want: false},
		{name: "before opening", start: "08:30", want: false},
		{name: "last slot of the day", start: "16:30", want: true},
		{name: "would run past closing", start: "16:45", want: false},
		{name: "occupied", start: "10:00", busy: []calendar.BusyPeriod{{Start: at(t, "10:00"), End: at(t, "10:30")}}, want: false},
		{name: "too soon", start: "09:00", lead: 600, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inst := testInstance()
			inst.MinLeadMins = tc.lead
			engine := NewEngine(fakeFactory(&fakeProvider{busy: tc.busy}))
			engine.Now = fixedNow(t)

			ok, reason, err := engine.Bookable(context.Background(), inst, at(t, tc.start))
			if err != nil {
				t.Fatalf("Bookable failed: %v", err)
			}
			if ok != tc.want {
				t.Errorf("Bookable(%s) = %v (%q), want %v", tc.start, ok, reason, tc.want)
			}
			if !ok && reason == "" {
				t.Error("expected a guest-presentable reason")
			}
		})
	}
}

func TestSlotGridIsRestartable(t *testing.T) {
	start := at(t, "09:00")
	end := at(t, "11:00")
	grid := slotGrid(start, end, 30*time.Minute)

	first := 0
	for range grid {
		first++
	}
	second := 0
	for range grid {
		second++
	}
	if first != 4 || second != 4 {
		t.Fatalf("grid should yield 4 slots on every pass, got %d then %d", first, second)
	}
}

package ledger

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	guestRepo "bookline/database/repository/guest"
	"bookline/models"
	"bookline/services/availability"
	"bookline/services/calendar"
	"bookline/services/notification"
	"bookline/utils"

	"go.uber.org/zap"
)

// slotLockTTL bounds how long a slot stays locked if a booking crashes
// between acquire and release.
const slotLockTTL = 30 * time.Second

// DefaultLedgerService is the production implementation of LedgerService.
type DefaultLedgerService struct {
	Repo         guestRepo.GuestRepository
	Providers    calendar.Factory
	Availability *availability.Engine
	Locks        utils.Locker
	Notifier     notification.Dispatcher
}

func slotLockKey(instanceID string, start time.Time) string {
	return fmt.Sprintf("slot:%s:%d", instanceID, start.Unix())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Book reserves a slot. The fresh availability check plus the slot lock
// guarantee that two concurrent attempts on one slot cannot both succeed,
// and replaying the same booking after success fails the busy re-check
// instead of creating a second event.
func (s *DefaultLedgerService) Book(ctx context.Context, inst *models.Instance, req BookRequest) (*models.GuestRecord, error) {
	rec, err := s.book(ctx, inst, req)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, inst, rec, notification.EventBooked)
	return rec, nil
}

// book is Book without the notification, shared with Reschedule.
func (s *DefaultLedgerService) book(ctx context.Context, inst *models.Instance, req BookRequest) (*models.GuestRecord, error) {
	if req.Name == "" || req.Email == "" {
		return nil, NewValidationError("guest name and email are required")
	}

	locked, err := s.Locks.Acquire(ctx, slotLockKey(inst.ID, req.Start), slotLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	if !locked {
		return nil, NewValidationError("that slot is no longer available")
	}
	defer func() {
		if err := s.Locks.Release(context.WithoutCancel(ctx), slotLockKey(inst.ID, req.Start)); err != nil {
			utils.GetLogger().Warn("failed to release slot lock", zap.Error(err))
		}
	}()

	// Race-guard: re-check against fresh provider data between quote and booking.
	free, reason, err := s.Availability.Bookable(ctx, inst, req.Start)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, NewValidationError(reason)
	}

	provider, err := s.Providers(ctx, inst)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Appointment with %s", req.Name)
	}
	eventID, err := provider.CreateEvent(ctx, calendar.EventDetails{
		Start:       req.Start,
		Duration:    inst.SlotDuration(),
		GuestName:   req.Name,
		GuestEmail:  normalizeEmail(req.Email),
		Title:       title,
		Description: req.Description,
		Timezone:    inst.Timezone,
	})
	if err != nil {
		return nil, err
	}

	pin, err := generatePIN()
	if err != nil {
		// Compensate: no record can exist without a PIN.
		s.compensateEvent(ctx, inst, provider, eventID)
		return nil, err
	}

	rec := &models.GuestRecord{
		InstanceID:      inst.ID,
		Name:            req.Name,
		Email:           normalizeEmail(req.Email),
		PIN:             pin,
		BookingTime:     req.Start.UTC(),
		TimezoneOffset:  inst.TimezoneOffset,
		MeetingTitle:    title,
		CalendarEventID: eventID,
		Status:          models.GuestStatusActive,
	}

	// Once the provider event exists the ledger write and any compensation
	// must run to completion even if the caller disconnects.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.Repo.Create(persistCtx, rec); err != nil {
		s.compensateEvent(ctx, inst, provider, eventID)
		return nil, fmt.Errorf("failed to persist guest record: %w", err)
	}
	return rec, nil
}

// compensateEvent deletes a provider event created for a booking whose
// ledger write failed, so no orphaned booking exists without a record.
func (s *DefaultLedgerService) compensateEvent(ctx context.Context, inst *models.Instance, provider calendar.Provider, eventID string) {
	bg := context.WithoutCancel(ctx)
	if err := provider.DeleteEvent(bg, eventID); err != nil {
		utils.GetLogger().Error("compensation failed: orphaned calendar event",
			zap.String("instanceId", inst.ID),
			zap.String("eventId", eventID),
			zap.Error(err),
		)
	}
}

// authenticate loads a record and verifies the guest's email+PIN. Mismatches
// return AuthenticationError with no state change.
func (s *DefaultLedgerService) authenticate(ctx context.Context, inst *models.Instance, email, pin, recordID string) (*models.GuestRecord, error) {
	rec, err := s.Repo.GetByID(ctx, inst.ID, recordID)
	if err != nil {
		return nil, &AuthenticationError{}
	}
	emailOK := normalizeEmail(email) == rec.Email
	pinOK := subtle.ConstantTimeCompare([]byte(pin), []byte(rec.PIN)) == 1
	if !emailOK || !pinOK {
		return nil, &AuthenticationError{}
	}
	return rec, nil
}

func (s *DefaultLedgerService) Cancel(ctx context.Context, inst *models.Instance, email, pin, recordID string) (*models.GuestRecord, error) {
	rec, err := s.authenticate(ctx, inst, email, pin, recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.GuestStatusActive {
		return nil, &StateTransitionError{From: rec.Status, To: models.GuestStatusCanceled}
	}

	provider, err := s.Providers(ctx, inst)
	if err != nil {
		return nil, err
	}
	if err := provider.DeleteEvent(ctx, rec.CalendarEventID); err != nil {
		return nil, err
	}

	// The event is gone; the ledger must reflect that even on disconnect.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.Repo.UpdateStatus(persistCtx, inst.ID, rec.ID, models.GuestStatusCanceled, ""); err != nil {
		utils.GetLogger().Error("ledger out of sync: event deleted but record still Active",
			zap.String("recordId", rec.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to mark record canceled: %w", err)
	}
	rec.Status = models.GuestStatusCanceled

	s.notify(ctx, inst, rec, notification.EventCanceled)
	return rec, nil
}

func (s *DefaultLedgerService) Reschedule(ctx context.Context, inst *models.Instance, email, pin, recordID string, newStart time.Time) (*models.GuestRecord, error) {
	oldRec, err := s.authenticate(ctx, inst, email, pin, recordID)
	if err != nil {
		return nil, err
	}
	if oldRec.Status != models.GuestStatusActive {
		return nil, &StateTransitionError{From: oldRec.Status, To: models.GuestStatusRescheduled}
	}

	// Book the new slot first: the old reservation is only torn down once the
	// replacement exists, so the guest never holds no reservation at all.
	newRec, err := s.book(ctx, inst, BookRequest{
		Start: newStart,
		Name:  oldRec.Name,
		Email: oldRec.Email,
		Title: oldRec.MeetingTitle,
	})
	if err != nil {
		return nil, err
	}

	persistCtx := context.WithoutCancel(ctx)
	if err := s.Repo.UpdateStatus(persistCtx, inst.ID, oldRec.ID, models.GuestStatusRescheduled, newRec.ID); err != nil {
		utils.GetLogger().Error("failed to mark old record rescheduled",
			zap.String("recordId", oldRec.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to link rescheduled record: %w", err)
	}

	provider, err := s.Providers(ctx, inst)
	if err == nil {
		err = provider.DeleteEvent(persistCtx, oldRec.CalendarEventID)
	}
	if err != nil {
		// The new booking stands; the stale event needs manual cleanup.
		utils.GetLogger().Error("failed to delete superseded calendar event",
			zap.String("recordId", oldRec.ID),
			zap.String("eventId", oldRec.CalendarEventID),
			zap.Error(err),
		)
	}

	s.notify(ctx, inst, newRec, notification.EventRescheduled)
	return newRec, nil
}

func (s *DefaultLedgerService) FindByEmail(ctx context.Context, inst *models.Instance, email string) ([]models.GuestRecord, error) {
	return s.Repo.ListByEmail(ctx, inst.ID, normalizeEmail(email))
}

// notify dispatches a lifecycle email. Best-effort: a dispatch failure is
// logged and never fails the booking operation.
func (s *DefaultLedgerService) notify(ctx context.Context, inst *models.Instance, rec *models.GuestRecord, kind notification.Event) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Dispatch(context.WithoutCancel(ctx), inst, rec, kind); err != nil {
		utils.GetLogger().Warn("failed to dispatch notification",
			zap.String("recordId", rec.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

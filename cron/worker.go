package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookline/config"
	guestRepo "bookline/database/repository/guest"
	instanceRepo "bookline/database/repository/instance"
	settingsRepo "bookline/database/repository/settings"
	"bookline/models"
	"bookline/services/notification"
	"bookline/utils"

	"github.com/hibiken/asynq"
	cron "github.com/robfig/cron/v3"
)

// reminderWindow is how far ahead the sweep looks for appointments that
// deserve a reminder email.
const reminderWindow = 24 * time.Hour

// reminderDedupeTTL keeps the "already reminded" marker alive well past the
// appointment so hourly sweeps cannot double-send.
const reminderDedupeTTL = 48 * time.Hour

// Deps carries everything the background side needs. The worker reloads
// instance and record per task, so queue payloads stay free of secrets.
type Deps struct {
	Instances  instanceRepo.InstanceRepository
	Guests     guestRepo.GuestRepository
	Settings   settingsRepo.SettingsRepository
	Dispatcher notification.Dispatcher
}

// InitEmailWorker starts the asynq consumer for guest email tasks in the
// background. Enqueued tasks carry only ids; the handler resolves SMTP
// config and record state fresh at delivery time.
func InitEmailWorker(deps Deps) {
	log := utils.GetLogger().Sugar()

	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeEmailSend, handleEmailTask(deps))

	go func() {
		log.Info("email worker starting")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("email worker failed to start: %v", err)
		}
	}()
}

func handleEmailTask(deps Deps) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		log := utils.GetLogger().Sugar()

		var p notification.EmailTaskPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Errorw("email task has invalid payload", "error", err)
			return fmt.Errorf("invalid email task payload: %w", err)
		}

		inst, err := deps.Instances.GetByID(p.InstanceID)
		if err != nil {
			return fmt.Errorf("failed to load instance %s: %w", p.InstanceID, err)
		}
		rec, err := deps.Guests.GetByID(ctx, p.InstanceID, p.RecordID)
		if err != nil {
			return fmt.Errorf("failed to load record %s: %w", p.RecordID, err)
		}
		gs, err := deps.Settings.Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}

		smtp := models.ResolveSMTP(inst, gs)
		if smtp == nil {
			// Not retryable: no transport is configured at either level.
			log.Warnw("dropping email task, smtp not configured",
				"instanceId", p.InstanceID, "recordId", p.RecordID, "kind", p.Kind)
			return nil
		}

		if err := notification.SendGuestEmail(smtp, inst, rec, p.Kind); err != nil {
			log.Errorw("failed to send guest email",
				"instanceId", p.InstanceID, "recordId", p.RecordID, "kind", p.Kind, "error", err)
			return err
		}
		log.Infow("guest email sent", "recordId", p.RecordID, "kind", p.Kind)
		return nil
	}
}

// InitReminderSweep schedules the hourly scan for upcoming appointments and
// returns the started scheduler so main can stop it on shutdown. A Redis
// marker per record keeps overlapping sweeps and restarts from re-sending.
func InitReminderSweep(deps Deps, locks utils.Locker) *cron.Cron {
	log := utils.GetLogger().Sugar()

	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		sweepReminders(ctx, deps, locks)
	})
	if err != nil {
		log.Fatalf("failed to schedule reminder sweep: %v", err)
	}
	c.Start()
	log.Info("reminder sweep scheduled hourly")
	return c
}

func sweepReminders(ctx context.Context, deps Deps, locks utils.Locker) {
	log := utils.GetLogger().Sugar()

	now := time.Now()
	records, err := deps.Guests.ListUpcomingActive(ctx, now, now.Add(reminderWindow))
	if err != nil {
		log.Errorw("reminder sweep failed to list records", "error", err)
		return
	}

	instances := make(map[string]*models.Instance)
	for _, rec := range records {
		first, err := locks.Acquire(ctx, "reminded:"+rec.ID, reminderDedupeTTL)
		if err != nil {
			log.Errorw("reminder dedupe check failed", "recordId", rec.ID, "error", err)
			continue
		}
		if !first {
			continue
		}

		// The marker is held from here on. If the reminder cannot actually
		// be enqueued, give it back so the next sweep picks the record up
		// again instead of dropping the reminder for good.
		release := func() {
			if err := locks.Release(ctx, "reminded:"+rec.ID); err != nil {
				log.Errorw("failed to release reminder marker", "recordId", rec.ID, "error", err)
			}
		}

		inst, ok := instances[rec.InstanceID]
		if !ok {
			inst, err = deps.Instances.GetByID(rec.InstanceID)
			if err != nil {
				log.Errorw("reminder sweep failed to load instance",
					"instanceId", rec.InstanceID, "error", err)
				release()
				continue
			}
			instances[rec.InstanceID] = inst
		}

		if err := deps.Dispatcher.Dispatch(ctx, inst, &rec, notification.EventReminder); err != nil {
			log.Errorw("failed to enqueue reminder", "recordId", rec.ID, "error", err)
			release()
		}
	}
}

package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"mindbridge/config"
	"mindbridge/services/reservation"

	"github.com/hibiken/asynq"
	cronlib "github.com/robfig/cron/v3"
)

const TypeReservationExpire = "reservation:expire"

type expirePayload struct {
	ReservationID string `json:"reservationId"`
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// AsynqExpiryScheduler arms a deferred expiry task per reservation entering
// AWAITING_PAYMENT. The task id makes re-arming the same reservation a no-op.
type AsynqExpiryScheduler struct {
	client *asynq.Client
}

func NewAsynqExpiryScheduler() *AsynqExpiryScheduler {
	return &AsynqExpiryScheduler{client: asynq.NewClient(redisOpts())}
}

func (s *AsynqExpiryScheduler) ScheduleExpiry(ctx context.Context, reservationID string, after time.Duration) error {
	payload, err := json.Marshal(expirePayload{ReservationID: reservationID})
	if err != nil {
		return fmt.Errorf("failed to encode expiry payload: %w", err)
	}

	task := asynq.NewTask(TypeReservationExpire, payload)
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(after),
		asynq.TaskID("expire:"+reservationID),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("failed to enqueue expiry task: %w", err)
	}
	return nil
}

// InitExpiryWorker runs the async worker in background.
func InitExpiryWorker(svc reservation.ReservationService) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReservationExpire, handleExpireTask(svc))

	// Start async worker with retry logic
	go func() {
		log.Println("[ExpiryWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ExpiryWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ExpiryWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleExpireTask(svc reservation.ReservationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p expirePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ExpiryWorker] invalid payload: %v", err)
			return err
		}
		return svc.ExpireOne(ctx, p.ReservationID)
	}
}

// InitExpirySweep starts the periodic backstop sweep for reservations whose
// deferred task was lost.
func InitExpirySweep(svc reservation.ReservationService) *cronlib.Cron {
	c := cronlib.New()
	spec := config.AppConfig.ExpirySweepCron

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		expired, err := svc.ExpireStale(ctx, time.Now())
		if err != nil {
			log.Printf("[ExpirySweep] sweep failed: %v", err)
			return
		}
		if expired > 0 {
			log.Printf("[ExpirySweep] expired %d unpaid reservations", expired)
		}
	})
	if err != nil {
		log.Fatalf("[ExpirySweep] invalid cron spec %q: %v", spec, err)
	}

	c.Start()
	return c
}

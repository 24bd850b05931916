package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/admission"
	"github.com/iliyamo/gym-operations/internal/config"
	"github.com/iliyamo/gym-operations/internal/database"
	"github.com/iliyamo/gym-operations/internal/handler"
	"github.com/iliyamo/gym-operations/internal/lock"
	"github.com/iliyamo/gym-operations/internal/middleware"
	"github.com/iliyamo/gym-operations/internal/queue"
	"github.com/iliyamo/gym-operations/internal/repository"
	"github.com/iliyamo/gym-operations/internal/router"
	queue_publisher "github.com/iliyamo/gym-operations/internal/service"
	"github.com/iliyamo/gym-operations/internal/waitlist"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()

	db, err := database.Open(database.Config{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Repositories share the single pool.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	members := repository.NewMemberRepo(db)
	trainers := repository.NewTrainerRepo(db)
	plans := repository.NewPlanRepo(db)
	subs := repository.NewSubscriptionRepo(db)
	payments := repository.NewPaymentRepo(db)
	checkins := repository.NewCheckinRepo(db)
	sessions := repository.NewSessionRepo(db)
	enrollments := repository.NewEnrollmentRepo(db)
	entries := repository.NewWaitlistRepo(db)
	workouts := repository.NewWorkoutRepo(db)
	progress := repository.NewProgressRepo(db)

	// One keyed-lock table serializes per member and per session; the
	// key prefixes keep the two scopes apart.
	locks := lock.NewKeyed()

	engine := admission.NewEngine(db, members, subs, payments, checkins, locks, cfg.Admission)
	engine.SetPublisher(func(ctx context.Context, ev queue.CheckinRecordedEvent) {
		_ = queue_publisher.PublishCheckinRecorded(ctx, ev)
	})

	coord := waitlist.NewCoordinator(db, sessions, enrollments, entries, subs, locks, cfg.Waitlist)
	coord.SetPublisher(func(ctx context.Context, ev queue.WaitlistPromotedEvent) {
		_ = queue_publisher.PublishWaitlistPromoted(ctx, ev)
	})

	clock, err := waitlist.NewClock(coord, cfg.Waitlist.SweepInterval)
	if err != nil {
		log.Fatalf("init promotion clock: %v", err)
	}
	if err := clock.Start(context.Background()); err != nil {
		log.Fatalf("start promotion clock: %v", err)
	}
	defer clock.Stop()

	// Event consumers run for the lifetime of the process and
	// reconnect on broker failures.
	go func() {
		if err := queue.StartConsumers(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	checkinH := handler.NewCheckinHandler(engine, checkins)
	memberH := handler.NewMemberHandler(members)
	trainerH := handler.NewTrainerHandler(trainers)
	subH := handler.NewSubscriptionHandler(plans, subs, payments, members)
	sessionH := handler.NewSessionHandler(sessions, enrollments, coord)
	waitlistH := handler.NewWaitlistHandler(coord, entries)
	reportH := handler.NewReportHandler(payments)
	workoutH := handler.NewWorkoutHandler(workouts, members, trainers)
	progressH := handler.NewProgressHandler(progress, workouts)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterBrowse(e, cacheMW, sessionH, trainerH, subH)
	router.RegisterMember(e, cfg.JWTSecret, rateMW, sessionH, waitlistH, workoutH, progressH)
	router.RegisterReception(e, cfg.JWTSecret, rateMW, checkinH, memberH, subH, sessionH, waitlistH, workoutH, progressH)
	router.RegisterAdmin(e, cfg.JWTSecret, authH, memberH, trainerH, sessionH, subH, reportH)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

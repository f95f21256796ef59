package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rollcall/internal/config"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

// Worker consumes check-in events and keeps live per-lesson counters in
// redis so the API can serve attendance-in-progress numbers without
// touching Postgres.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for check-ins...")
	for msg := range messages {
		if msg.Type != queue.TypeCheckin {
			continue
		}

		evt, err := queue.DecodeCheckin(msg)
		if err != nil {
			log.Printf("bad checkin message: %v", err)
			continue
		}

		n, err := redisClient.IncrLessonCheckins(ctx, evt.LessonID)
		if err != nil {
			log.Printf("counter update for lesson %s failed: %v", evt.LessonID, err)
			continue
		}
		log.Printf("lesson %s now at %d check-ins", evt.LessonID, n)
	}

	log.Println("worker exited")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soulspace/soulspace_server/config"
	"github.com/soulspace/soulspace_server/internal/database"
	"github.com/soulspace/soulspace_server/internal/pkg/crm"
	"github.com/soulspace/soulspace_server/internal/pkg/pubsub"
	"github.com/soulspace/soulspace_server/internal/pkg/queue"
	"github.com/soulspace/soulspace_server/internal/repository"
	"github.com/soulspace/soulspace_server/internal/worker"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	syncQueue := queue.NewQueue(rdb, cfg.Queue.CRMSyncQueue)
	publisher := pubsub.NewPublisher(rdb)
	crmClient := crm.NewOdooClient(&cfg.Odoo)
	userRepo := repository.NewUserRepository(db)

	processor := worker.NewProcessor(userRepo, crmClient, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	maxWorkers := cfg.Queue.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	log.Printf("CRM sync worker started, max workers: %d", maxWorkers)

	for i := 0; i < maxWorkers; i++ {
		go func(workerID int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("Worker %d shutting down", workerID)
					return
				default:
					msg, err := syncQueue.Pop(ctx, 5*time.Second)
					if err != nil {
						if ctx.Err() != nil {
							return
						}
						log.Printf("Worker %d: failed to pop task: %v", workerID, err)
						continue
					}

					if msg == nil {
						continue // timeout, keep waiting
					}

					log.Printf("Worker %d: processing %s for user %d", workerID, msg.Action, msg.UserID)
					if err := processor.Process(ctx, msg); err != nil {
						log.Printf("Worker %d: task failed: %v", workerID, err)
						requeue(syncQueue, msg)
					}
				}
			}
		}(i)
	}

	<-ctx.Done()
	log.Println("Worker shutdown complete")
}

// requeue pushes a failed task back with an incremented attempt count.
// Tasks past the retry budget are dropped with a log line.
func requeue(q *queue.Queue, msg *queue.SyncMessage) {
	msg.Attempts++
	if msg.Attempts >= worker.MaxAttempts {
		log.Printf("Dropping %s for user %d after %d attempts", msg.Action, msg.UserID, msg.Attempts)
		return
	}

	pushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := q.Push(pushCtx, msg); err != nil {
		log.Printf("Failed to requeue %s for user %d: %v", msg.Action, msg.UserID, err)
	}
}

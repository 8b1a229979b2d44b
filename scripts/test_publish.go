//go:build ignore

// Публикует тестовое событие сохранения фермы и ждёт, пока воркер обновит
// статистику владельцев в кеше.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/talhao-editor/internal/domain"
)

const ownerStatsKey = "stats:owners"

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	farmID := flag.Int64("farm", 1, "farm id for the event")
	owner := flag.String("owner", "Maria", "farm owner")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	before := statsUpdatedAt(ctx, client)

	event := domain.FarmSavedEvent{
		EventID: uuid.New(),
		FarmID:  *farmID,
		Code:    fmt.Sprintf("FZ-%d", *farmID),
		Owner:   *owner,
		AreaHa:  120.5,
		Parcels: 3,
		SavedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamFarmSaved,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: %s\n", domain.StreamFarmSaved)
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Farm ID: %d (%s)\n", event.FarmID, event.Owner)

	fmt.Printf("\nWaiting for %s to be refreshed...\n", ownerStatsKey)

	timeout := time.After(30 * time.Second)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			fmt.Println("Timeout waiting for owner stats")
			return
		case <-ticker.C:
			if updated := statsUpdatedAt(ctx, client); updated.After(before) {
				raw, _ := client.Get(ctx, ownerStatsKey).Bytes()
				var stats map[string]interface{}
				if err := json.Unmarshal(raw, &stats); err == nil {
					pretty, _ := json.MarshalIndent(stats, "", "  ")
					fmt.Printf("\nOwner stats refreshed:\n%s\n", pretty)
				}
				return
			}
		}
	}
}

func statsUpdatedAt(ctx context.Context, client *redis.Client) time.Time {
	raw, err := client.Get(ctx, ownerStatsKey).Bytes()
	if errors.Is(err, redis.Nil) || err != nil {
		return time.Time{}
	}

	var stats domain.OwnerStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return time.Time{}
	}
	return stats.UpdatedAt
}

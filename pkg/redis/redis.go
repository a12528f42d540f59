package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const lookupKeyPrefix = "placa:lookup:"

// Nil is re-exported so callers can detect cache misses without importing
// the driver.
var Nil = redis.Nil

type IRedis interface {
	SetLookup(ctx context.Context, plate string, payload string, expiration time.Duration) error
	GetLookup(ctx context.Context, plate string) (string, error)
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func (r *redisClient) SetLookup(ctx context.Context, plate string, payload string, expiration time.Duration) error {
	key := lookupKeyPrefix + plate
	err := r.client.Set(ctx, key, payload, expiration).Err()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error caching lookup for %s: %v", plate, err))
		return err
	}
	return nil
}

func (r *redisClient) GetLookup(ctx context.Context, plate string) (string, error) {
	key := lookupKeyPrefix + plate
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", err
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error reading cached lookup for %s: %v", plate, err))
		return "", err
	}
	return val, nil
}

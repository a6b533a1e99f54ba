package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/banodoco/Reigh-sub002/internal/config"
	"github.com/banodoco/Reigh-sub002/internal/notify"
)

func main() {
	// 加载环境变量（可选的 .env 文件）
	_ = godotenv.Load()

	// 加载配置文件
	cfg := config.InitConfig()

	if cfg.Redis.Addr == "" {
		log.Fatal("未配置 Redis 地址，通知消费者无法启动")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	consumer := notify.NewConsumer(rdb, notify.ConsumerConfig{
		Stream:     cfg.Redis.Stream,
		Group:      cfg.Notifier.Group,
		Consumer:   cfg.Notifier.Consumer,
		WebhookURL: cfg.Notifier.WebhookURL,
	})

	// 收到终止信号时优雅退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("通知消费者启动，流: %s, 消费组: %s", cfg.Redis.Stream, cfg.Notifier.Group)
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("通知消费者异常退出: %v", err)
	}
	log.Println("通知消费者已停止")
}

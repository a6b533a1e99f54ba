package notify

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConsumerConfig 通知消费者配置
type ConsumerConfig struct {
	Stream     string
	Group      string
	Consumer   string
	WebhookURL string
}

// Consumer 通知流消费者
//
// 以消费组方式读取任务事件流，逐条转发到配置的 webhook。
// 转发失败不 ACK，消息留在待处理列表等待重投。
type Consumer struct {
	rdb    *redis.Client
	cfg    ConsumerConfig
	client *http.Client
}

func NewConsumer(rdb *redis.Client, cfg ConsumerConfig) *Consumer {
	return &Consumer{
		rdb: rdb,
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Run 阻塞运行消费循环，直到 ctx 取消
func (c *Consumer) Run(ctx context.Context) error {
	// 消费组可能已存在，BUSYGROUP 不算错误
	err := c.rdb.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			Streams:  []string{c.cfg.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("读取通知流失败: %v", err)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				if err := c.forward(ctx, msg); err != nil {
					log.Printf("转发事件 %s 失败: %v", msg.ID, err)
					continue
				}
				_ = c.rdb.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err()
			}
		}
	}
}

// forward 把事件内容 POST 到 webhook；未配置 webhook 时只打日志
func (c *Consumer) forward(ctx context.Context, msg redis.XMessage) error {
	payload, _ := msg.Values["payload"].(string)
	eventType, _ := msg.Values["event_type"].(string)

	if c.cfg.WebhookURL == "" {
		log.Printf("任务事件 %s: %s", eventType, payload)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewBufferString(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", eventType)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.New("webhook 返回状态码 " + resp.Status)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}

package notify

import (
	"context"

	"github.com/banodoco/Reigh-sub002/internal/models"

	"github.com/redis/go-redis/v9"
)

// Publisher 事件发布端。中继只依赖该接口，便于测试替换。
type Publisher interface {
	Publish(ctx context.Context, event *models.OutboxEvent) error
}

// StreamPublisher 把发件箱事件发布到 Redis Stream
type StreamPublisher struct {
	rdb    *redis.Client
	stream string
}

func NewStreamPublisher(rdb *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{
		rdb:    rdb,
		stream: stream,
	}
}

// Publish 以 XADD 追加事件
func (p *StreamPublisher) Publish(ctx context.Context, event *models.OutboxEvent) error {
	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"event_type": event.EventType,
			"task_id":    event.TaskID,
			"payload":    event.Payload,
		},
	}).Err()
}

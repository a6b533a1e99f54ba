package notify

import (
	"context"
	"log"
	"time"

	"github.com/banodoco/Reigh-sub002/internal/repository"
)

// Relay 发件箱中继
//
// 周期性扫描已提交但未发布的发件箱事件并推送到通知流。
// 发布是尽力而为的：单条失败只记录日志并留待下一轮重试，
// 绝不影响产生该事件的状态转换(转换早已提交)。
type Relay struct {
	outboxRepo *repository.OutboxRepository
	publisher  Publisher
	interval   time.Duration
	batchSize  int
}

func NewRelay(outboxRepo *repository.OutboxRepository, publisher Publisher, interval time.Duration) *Relay {
	return &Relay{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		interval:   interval,
		batchSize:  100,
	}
}

// Run 阻塞运行中继循环，直到 ctx 取消
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.RelayOnce(ctx); err != nil {
				log.Printf("发件箱中继失败: %v", err)
			}
		}
	}
}

// RelayOnce 发布一批未发布事件，返回首个查询级错误
func (r *Relay) RelayOnce(ctx context.Context) error {
	events, err := r.outboxRepo.ListUnpublished(r.batchSize)
	if err != nil {
		return err
	}

	for i := range events {
		event := &events[i]
		if err := r.publisher.Publish(ctx, event); err != nil {
			// 保持 published=false，下一轮重试
			log.Printf("事件 %d (%s) 发布失败: %v", event.ID, event.EventType, err)
			continue
		}
		if err := r.outboxRepo.MarkPublished(event.ID); err != nil {
			return err
		}
	}
	return nil
}

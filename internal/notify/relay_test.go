package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/repository"
	"github.com/banodoco/Reigh-sub002/pkg/database"
)

// stubPublisher 测试用发布端，可配置为全部失败
type stubPublisher struct {
	fail      bool
	published []string
}

func (p *stubPublisher) Publish(ctx context.Context, event *models.OutboxEvent) error {
	if p.fail {
		return errors.New("stream unavailable")
	}
	p.published = append(p.published, event.EventType)
	return nil
}

// TestRelayOncePublishesAndMarks 中继发布事件并按序标记已发布
func TestRelayOncePublishesAndMarks(t *testing.T) {
	db := database.NewTestDB(t)
	outboxRepo := repository.NewOutboxRepository(db)

	for _, eventType := range []string{models.EventTaskComplete, models.EventTaskFailed} {
		if err := outboxRepo.Create(&models.OutboxEvent{
			EventType: eventType,
			TaskID:    "t1",
			Payload:   "{}",
		}); err != nil {
			t.Fatalf("写入发件箱失败: %v", err)
		}
	}

	pub := &stubPublisher{}
	relay := NewRelay(outboxRepo, pub, time.Second)
	if err := relay.RelayOnce(context.Background()); err != nil {
		t.Fatalf("中继失败: %v", err)
	}

	if len(pub.published) != 2 {
		t.Fatalf("期望发布 2 条事件, 实际 %d", len(pub.published))
	}
	if pub.published[0] != models.EventTaskComplete || pub.published[1] != models.EventTaskFailed {
		t.Errorf("事件发布顺序错误: %v", pub.published)
	}

	remaining, err := outboxRepo.ListUnpublished(10)
	if err != nil {
		t.Fatalf("查询未发布事件失败: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("全部事件应已标记发布, 剩余 %d", len(remaining))
	}

	// 再跑一轮：没有新事件，不重复发布
	if err := relay.RelayOnce(context.Background()); err != nil {
		t.Fatalf("中继失败: %v", err)
	}
	if len(pub.published) != 2 {
		t.Errorf("空轮次不应重复发布, 实际 %d", len(pub.published))
	}
}

// TestRelayOncePublishFailureLeavesUnpublished 发布失败的事件留待下一轮重试
func TestRelayOncePublishFailureLeavesUnpublished(t *testing.T) {
	db := database.NewTestDB(t)
	outboxRepo := repository.NewOutboxRepository(db)

	if err := outboxRepo.Create(&models.OutboxEvent{
		EventType: models.EventTaskCancelled,
		TaskID:    "t1",
		Payload:   "{}",
	}); err != nil {
		t.Fatalf("写入发件箱失败: %v", err)
	}

	pub := &stubPublisher{fail: true}
	relay := NewRelay(outboxRepo, pub, time.Second)
	// 单条发布失败只记日志，不算中继级错误
	if err := relay.RelayOnce(context.Background()); err != nil {
		t.Fatalf("中继不应因单条发布失败报错: %v", err)
	}

	remaining, err := outboxRepo.ListUnpublished(10)
	if err != nil {
		t.Fatalf("查询未发布事件失败: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("发布失败的事件应保持未发布, 剩余 %d", len(remaining))
	}

	// 恢复后同一事件被重新投递
	pub.fail = false
	if err := relay.RelayOnce(context.Background()); err != nil {
		t.Fatalf("中继失败: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0] != models.EventTaskCancelled {
		t.Errorf("恢复后应重投事件: %v", pub.published)
	}
}

package service

import (
	"testing"
	"time"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/repository"
	"github.com/banodoco/Reigh-sub002/pkg/database"
)

// TestListCreditEntries 计费流水按时间倒序返回，limit 生效
func TestListCreditEntries(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db), repository.NewCreditRepository(db))

	user := seedUser(t, db, "alice", 100)
	other := seedUser(t, db, "bob", 100)

	base := time.Now().Add(-time.Hour)
	for i, taskID := range []string{"t1", "t2", "t3"} {
		entry := &models.CreditEntry{
			UserID:    user.ID,
			TaskID:    taskID,
			Amount:    -1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("创建流水失败: %v", err)
		}
	}
	if err := db.Create(&models.CreditEntry{UserID: other.ID, TaskID: "t-other", Amount: -1}).Error; err != nil {
		t.Fatalf("创建流水失败: %v", err)
	}

	entries, err := svc.ListCreditEntries(user.ID, 0)
	if err != nil {
		t.Fatalf("查询流水失败: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("期望 3 条流水, 实际 %d", len(entries))
	}
	// 最新的在前，且不包含其他用户的流水
	for i, want := range []string{"t3", "t2", "t1"} {
		if entries[i].TaskID != want {
			t.Errorf("第 %d 条期望 %s, 实际 %s", i+1, want, entries[i].TaskID)
		}
	}

	entries, err = svc.ListCreditEntries(user.ID, 2)
	if err != nil {
		t.Fatalf("查询流水失败: %v", err)
	}
	if len(entries) != 2 || entries[0].TaskID != "t3" {
		t.Errorf("limit 未生效: %+v", entries)
	}
}

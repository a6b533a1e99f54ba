package scheduler

import (
	"testing"
	"time"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/repository"
	"github.com/banodoco/Reigh-sub002/pkg/database"

	"gorm.io/gorm"
)

func newCapacityService(db *gorm.DB, cap int) *CapacityService {
	cfg := testSchedulerConfig()
	cfg.UserTaskCap = cap
	return NewCapacityService(repository.NewTaskRepository(db), repository.NewUserRepository(db), cfg)
}

// TestCapacityMatchesClaimPath 容量报告必须与认领路径逐次吻合
//
// 场景：余额10、上限5、3个就绪任务。报告可认领数为3，
// 连续认领3次全部成功，之后报告归零且第4次认领为空。
func TestCapacityMatchesClaimPath(t *testing.T) {
	db := database.NewTestDB(t)
	capacity := newCapacityService(db, 5)
	svc := newSchedulerService(db, testSchedulerConfig())

	user := seedUser(t, db, "alice", 10)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "image_generation", models.RunTypeGPU, false)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedTask(t, db, project.ID, "image_generation", models.TaskStatusQueued, base.Add(time.Duration(i)*time.Second))
	}

	n, err := capacity.CountEligibleForUser(user.ID, false, "")
	if err != nil || n != 3 {
		t.Fatalf("期望可认领数 3, 实际 %d (%v)", n, err)
	}

	for i := 0; i < 3; i++ {
		c, err := svc.ClaimNext("worker-1", ClaimFilter{})
		if err != nil || c == nil {
			t.Fatalf("报告有容量但第 %d 次认领失败: %v, %+v", i+1, err, c)
		}
	}

	n, err = capacity.CountEligibleForUser(user.ID, false, "")
	if err != nil || n != 0 {
		t.Fatalf("认领完后期望容量 0, 实际 %d (%v)", n, err)
	}
	c, err := svc.ClaimNext("worker-1", ClaimFilter{})
	if err != nil || c != nil {
		t.Fatalf("报告容量为零但仍认领到任务: %v, %+v", err, c)
	}
}

// TestCapacityIncludeActive includeActive 两种口径的计算
func TestCapacityIncludeActive(t *testing.T) {
	db := database.NewTestDB(t)
	capacity := newCapacityService(db, 5)

	user := seedUser(t, db, "alice", 10)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "image_generation", models.RunTypeGPU, false)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 2; i++ {
		seedTask(t, db, project.ID, "image_generation", models.TaskStatusInProgress, base.Add(time.Duration(i)*time.Second))
	}
	for i := 0; i < 4; i++ {
		seedTask(t, db, project.ID, "image_generation", models.TaskStatusQueued, base.Add(time.Duration(10+i)*time.Second))
	}

	// includeActive=true: min(cap, inProgress+ready) = min(5, 2+4) = 5
	n, err := capacity.CountEligibleForUser(user.ID, true, "")
	if err != nil || n != 5 {
		t.Errorf("includeActive=true 期望 5, 实际 %d (%v)", n, err)
	}

	// includeActive=false: min(cap−inProgress, ready) = min(3, 4) = 3
	n, err = capacity.CountEligibleForUser(user.ID, false, "")
	if err != nil || n != 3 {
		t.Errorf("includeActive=false 期望 3, 实际 %d (%v)", n, err)
	}
}

// TestCapacityZeroCredits 零积分用户的就绪任务不计入容量
func TestCapacityZeroCredits(t *testing.T) {
	db := database.NewTestDB(t)
	capacity := newCapacityService(db, 5)

	user := seedUser(t, db, "broke", 0)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "image_generation", models.RunTypeGPU, false)
	seedTask(t, db, project.ID, "image_generation", models.TaskStatusQueued, time.Now())

	n, err := capacity.CountEligibleForUser(user.ID, false, "")
	if err != nil || n != 0 {
		t.Errorf("零积分用户期望容量 0, 实际 %d (%v)", n, err)
	}
	n, err = capacity.CountEligibleForUser(user.ID, true, "")
	if err != nil || n != 0 {
		t.Errorf("零积分用户(includeActive)期望容量 0, 实际 %d (%v)", n, err)
	}
}

// TestCapacityRunTypeFilter 容量统计同样应用执行通道过滤
func TestCapacityRunTypeFilter(t *testing.T) {
	db := database.NewTestDB(t)
	capacity := newCapacityService(db, 5)

	user := seedUser(t, db, "alice", 10)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "image_generation", models.RunTypeGPU, false)
	seedTaskType(t, db, "style_transfer_api", models.RunTypeAPI, false)
	seedTask(t, db, project.ID, "image_generation", models.TaskStatusQueued, time.Now())
	seedTask(t, db, project.ID, "style_transfer_api", models.TaskStatusQueued, time.Now())

	n, err := capacity.CountEligibleForUser(user.ID, false, models.RunTypeGPU)
	if err != nil || n != 1 {
		t.Errorf("gpu 通道期望 1, 实际 %d (%v)", n, err)
	}
	n, err = capacity.CountEligibleForUser(user.ID, false, "")
	if err != nil || n != 2 {
		t.Errorf("全通道期望 2, 实际 %d (%v)", n, err)
	}
}

// TestCountEligibleAcrossUsers 全局容量为各用户容量之和
func TestCountEligibleAcrossUsers(t *testing.T) {
	db := database.NewTestDB(t)
	capacity := newCapacityService(db, 5)

	seedTaskType(t, db, "image_generation", models.RunTypeGPU, false)

	alice := seedUser(t, db, "alice", 10)
	aliceProject := seedProject(t, db, alice.ID)
	for i := 0; i < 2; i++ {
		seedTask(t, db, aliceProject.ID, "image_generation", models.TaskStatusQueued, time.Now())
	}

	bob := seedUser(t, db, "bob", 10)
	bobProject := seedProject(t, db, bob.ID)
	seedTask(t, db, bobProject.ID, "image_generation", models.TaskStatusQueued, time.Now())

	// 第三个用户没有积分，不贡献容量
	carol := seedUser(t, db, "carol", 0)
	carolProject := seedProject(t, db, carol.ID)
	seedTask(t, db, carolProject.ID, "image_generation", models.TaskStatusQueued, time.Now())

	n, err := capacity.CountEligible(false, "")
	if err != nil || n != 3 {
		t.Errorf("全局容量期望 3, 实际 %d (%v)", n, err)
	}
}

// TestPerUserCapacityStats 各用户容量统计行
func TestPerUserCapacityStats(t *testing.T) {
	db := database.NewTestDB(t)
	capacity := newCapacityService(db, 2)

	seedTaskType(t, db, "image_generation", models.RunTypeGPU, false)

	alice := seedUser(t, db, "alice", 10)
	aliceProject := seedProject(t, db, alice.ID)
	base := time.Now().Add(-time.Hour)
	seedTask(t, db, aliceProject.ID, "image_generation", models.TaskStatusQueued, base)
	seedTask(t, db, aliceProject.ID, "image_generation", models.TaskStatusInProgress, base)
	seedTask(t, db, aliceProject.ID, "image_generation", models.TaskStatusInProgress, base)

	bob := seedUser(t, db, "bob", 3)
	bobProject := seedProject(t, db, bob.ID)
	seedTask(t, db, bobProject.ID, "image_generation", models.TaskStatusQueued, base)

	stats, err := capacity.PerUserCapacityStats()
	if err != nil {
		t.Fatalf("获取容量统计失败: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("期望 2 行统计, 实际 %d", len(stats))
	}

	byUser := make(map[uint]UserCapacityStats)
	for _, s := range stats {
		byUser[s.UserID] = s
	}

	a := byUser[alice.ID]
	if a.Queued != 1 || a.InProgress != 2 || !a.AtLimit {
		t.Errorf("alice 统计错误: %+v", a)
	}
	b := byUser[bob.ID]
	if b.Queued != 1 || b.InProgress != 0 || b.AtLimit {
		t.Errorf("bob 统计错误: %+v", b)
	}
}

package api

import (
	"github.com/banodoco/Reigh-sub002/internal/api/handlers"
	"github.com/banodoco/Reigh-sub002/internal/api/middleware"
	"github.com/banodoco/Reigh-sub002/internal/config"
	"github.com/banodoco/Reigh-sub002/internal/repository"
	"github.com/banodoco/Reigh-sub002/internal/scheduler"
	"github.com/banodoco/Reigh-sub002/internal/service"
	"github.com/banodoco/Reigh-sub002/pkg/database"

	"github.com/gin-gonic/gin"
)

// SetupRoutes 设置所有路由
func SetupRoutes(router *gin.Engine, cfg *config.Config) {
	// 获取数据库连接
	db := database.GetDB()

	// 初始化仓储层
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	generationRepo := repository.NewGenerationRepository(db)
	creditRepo := repository.NewCreditRepository(db)

	// 初始化服务层
	userService := service.NewUserService(userRepo, creditRepo)
	billingService := service.NewBillingService()
	taskService := service.NewTaskService(db, billingService)
	projectService := service.NewProjectService(projectRepo, generationRepo)
	shotService := service.NewShotService(db)
	monitorService := service.NewMonitorService()
	schedulerService := scheduler.NewSchedulerService(taskRepo, cfg.Scheduler)
	capacityService := scheduler.NewCapacityService(taskRepo, userRepo, cfg.Scheduler)

	// 初始化处理器
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	projectHandler := handlers.NewProjectHandler(projectService)
	shotHandler := handlers.NewShotHandler(shotService)
	schedulerHandler := handlers.NewSchedulerHandler(schedulerService, taskService)
	capacityHandler := handlers.NewCapacityHandler(capacityService)
	overviewHandler := handlers.NewOverviewHandler(taskRepo, capacityService, monitorService)
	healthHandler := handlers.NewHealthHandler()

	// 公开路由组
	public := router.Group("/api/v1")
	{
		// 健康检查路由
		public.GET("/health", healthHandler.CheckHealth)

		// 认证相关路由（登录和刷新令牌无需认证）
		auth := public.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
		}
	}

	// 需要认证的路由组
	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware())
	{
		// 系统概览
		protected.GET("/overview", overviewHandler.GetOverview)

		// 认证相关路由
		auth := protected.Group("/auth")
		{
			auth.GET("/me", authHandler.GetCurrentUser)
		}

		// 用户管理路由
		users := protected.Group("/users")
		{
			users.GET("/:id", userHandler.GetUser)
			users.PATCH("/me/preferences", userHandler.UpdatePreferences)
		}

		// 项目管理路由
		projects := protected.Group("/projects")
		{
			projects.GET("", projectHandler.ListProjects)
			projects.POST("", projectHandler.CreateProject)
			projects.GET("/:id", projectHandler.GetProject)
			projects.GET("/:id/generations", projectHandler.ListGenerations)
		}

		// 任务管理路由
		tasks := protected.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id/params", taskHandler.UpdateParams)
			tasks.POST("/:id/cancel", taskHandler.CancelTask)
		}

		// 镜头管理路由
		shots := protected.Group("/shots")
		{
			shots.GET("", shotHandler.ListShots)
			shots.POST("", shotHandler.CreateShot)
			shots.POST("/:id/generations", shotHandler.AddGeneration)
			shots.GET("/:id/generations", shotHandler.ListGenerations)
		}

		// 当前用户容量查询
		protected.GET("/capacity/me", capacityHandler.MyCapacity)

		// 当前用户计费流水
		protected.GET("/credits/me", userHandler.MyCreditEntries)

		// 管理员专用路由
		admin := protected.Group("/admin")
		admin.Use(middleware.AdminMiddleware())
		{
			// 管理员用户管理
			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", userHandler.ListUsers)
				adminUsers.POST("", userHandler.CreateUser)
				adminUsers.POST("/:id/credits", userHandler.GrantCredits)
			}

			// 容量统计
			admin.GET("/capacity/stats", overviewHandler.GetCapacityStats)
		}

		// 调度器服务路由（供工作节点调用）
		worker := protected.Group("/worker")
		worker.Use(middleware.ServiceMiddleware())
		{
			worker.POST("/claim", schedulerHandler.ClaimNext)
			worker.POST("/tasks/:id/complete", schedulerHandler.CompleteTask)
			worker.POST("/tasks/:id/fail", schedulerHandler.FailTask)
			worker.POST("/tasks/:id/cancel", schedulerHandler.CancelTask)
			worker.GET("/capacity", capacityHandler.CountEligible)
			worker.GET("/capacity/users/:id", capacityHandler.CountEligibleForUser)
			worker.GET("/capacity/stats", capacityHandler.PerUserStats)
		}
	}
}

package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/banodoco/Reigh-sub002/docs" // 导入生成的swagger文档
	"github.com/banodoco/Reigh-sub002/internal/api"
	"github.com/banodoco/Reigh-sub002/internal/config"
	"github.com/banodoco/Reigh-sub002/internal/notify"
	"github.com/banodoco/Reigh-sub002/internal/repository"
	"github.com/banodoco/Reigh-sub002/pkg/database"
	"github.com/banodoco/Reigh-sub002/pkg/utils"
)

// @title           生成任务调度系统 API
// @version         1.0
// @description     多租户生成任务调度系统后端API文档

// @contact.name   API Support

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description 请在此输入 'Bearer {token}' 格式的 JWT token

func main() {
	// 加载环境变量（可选的 .env 文件）
	_ = godotenv.Load()

	// 加载配置文件
	cfg := config.InitConfig()

	// 初始化 JWT 密钥
	utils.InitJWTSecret(cfg.JWT.Secret)

	// 初始化数据库连接
	database.InitDB(cfg)

	// 配置了 Redis 时启动发件箱中继
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		publisher := notify.NewStreamPublisher(rdb, cfg.Redis.Stream)
		outboxRepo := repository.NewOutboxRepository(database.GetDB())
		relay := notify.NewRelay(outboxRepo, publisher, cfg.RelayIntervalDuration())
		go func() {
			if err := relay.Run(context.Background()); err != nil {
				log.Printf("发件箱中继退出: %v", err)
			}
		}()
	}

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)

	// 创建Gin路由器
	router := gin.Default()

	// 设置路由
	api.SetupRoutes(router, cfg)

	// 添加Swagger文档路由
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 展示Swagger文档
	log.Println("Swagger文档地址: http://localhost:" + cfg.Port + "/swagger/index.html")

	// 启动服务器
	log.Printf("启动服务器，监听端口 :%s\n", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("无法启动服务器: %s\n", err)
	}
}

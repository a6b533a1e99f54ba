package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Port     string `yaml:"port"`
	Database struct {
		Driver string `yaml:"driver"` // postgres 或 sqlite
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	JWT struct {
		Secret     string `yaml:"secret"`
		Expiration string `yaml:"expiration"`
	} `yaml:"jwt"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Redis     struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Stream   string `yaml:"stream"`
	} `yaml:"redis"`
	Notifier struct {
		Group         string `yaml:"group"`
		Consumer      string `yaml:"consumer"`
		WebhookURL    string `yaml:"webhook_url"`
		RelayInterval string `yaml:"relay_interval"`
	} `yaml:"notifier"`
}

// SchedulerConfig 调度器配置，构造时注入服务层，运行期不可变
type SchedulerConfig struct {
	UserTaskCap      int    `yaml:"user_task_cap"`      // 单用户并发上限
	ClaimRetries     int    `yaml:"claim_retries"`      // 锁冲突重试次数
	RetryBackoffBase string `yaml:"retry_backoff_base"` // 退避基础时长
	RetryBackoffMax  string `yaml:"retry_backoff_max"`  // 退避最大时长
}

// BackoffBase 解析退避基础时长
func (c SchedulerConfig) BackoffBase() time.Duration {
	return parseDuration(c.RetryBackoffBase, 50*time.Millisecond)
}

// BackoffMax 解析退避最大时长
func (c SchedulerConfig) BackoffMax() time.Duration {
	return parseDuration(c.RetryBackoffMax, time.Second)
}

// RelayIntervalDuration 解析中继轮询间隔
func (c *Config) RelayIntervalDuration() time.Duration {
	return parseDuration(c.Notifier.RelayInterval, 2*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func LoadConfig(filePath string) (*Config, error) {
	config := &Config{}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}

	// 填充调度器默认值
	if config.Scheduler.UserTaskCap <= 0 {
		config.Scheduler.UserTaskCap = 5
	}
	if config.Scheduler.ClaimRetries <= 0 {
		config.Scheduler.ClaimRetries = 3
	}
	if config.Database.Driver == "" {
		config.Database.Driver = "sqlite"
	}

	// 环境变量覆盖（部署时通过 .env 注入）
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}

	return config, nil
}

func InitConfig() *Config {
	config, err := LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	return config
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Deadline  DeadlineConfig  `mapstructure:"deadline"`
	Review    ReviewConfig    `mapstructure:"review"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（提醒去重、限流、Token 黑名单）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
// 令牌由统一认证服务签发，本服务只负责校验
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DeadlineConfig 论文期限规则配置
type DeadlineConfig struct {
	EvaluationBusinessDays     int           `mapstructure:"evaluation_business_days"`      // 评审委员会评审期限（工作日）
	ObservationCalendarDays    int           `mapstructure:"observation_calendar_days"`     // 意见整改期限（自然日）
	AlertThresholdBusinessDays int           `mapstructure:"alert_threshold_business_days"` // 临期提醒阈值（工作日）
	AlertDedupTTL              time.Duration `mapstructure:"alert_dedup_ttl"`               // 同一期限同一天提醒去重标记的存活时间
}

// ReviewConfig 评审共识配置
type ReviewConfig struct {
	// RequireCompleteConsensus 为 true 时，主席须等全部评审意见提交后才能作出最终决定
	RequireCompleteConsensus bool `mapstructure:"require_complete_consensus"`
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ExpireInterval time.Duration `mapstructure:"expire_interval"` // 过期期限扫描间隔
	AlertTime      string        `mapstructure:"alert_time"`      // 每日临期提醒时间 "HH:MM"
	Timezone       string        `mapstructure:"timezone"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "thesis_tracker")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "America/Lima")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "") // 仅登记键名，便于 AutomaticEnv 覆盖
	v.SetDefault("auth.issuer", "thesis-auth")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("deadline.evaluation_business_days", 15)
	v.SetDefault("deadline.observation_calendar_days", 30)
	v.SetDefault("deadline.alert_threshold_business_days", 3)
	v.SetDefault("deadline.alert_dedup_ttl", "36h")

	v.SetDefault("review.require_complete_consensus", false)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.expire_interval", "1h")
	v.SetDefault("scheduler.alert_time", "08:00")
	v.SetDefault("scheduler.timezone", "America/Lima")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("THESIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Deadline.EvaluationBusinessDays <= 0 || c.Deadline.ObservationCalendarDays <= 0 {
		return fmt.Errorf("配置校验失败: deadline 天数必须为正数")
	}
	if c.Deadline.AlertThresholdBusinessDays <= 0 {
		return fmt.Errorf("配置校验失败: deadline.alert_threshold_business_days 必须为正数")
	}
	if _, err := time.Parse("15:04", c.Scheduler.AlertTime); err != nil {
		return fmt.Errorf("配置校验失败: scheduler.alert_time 格式应为 HH:MM")
	}
	if c.Scheduler.ExpireInterval <= 0 {
		return fmt.Errorf("配置校验失败: scheduler.expire_interval 必须为正数")
	}
	return nil
}

// Package config 负责加载和管理应用程序的配置
// 使用 viper 库支持 YAML 配置文件和环境变量覆盖，并通过 godotenv 读取本地 .env 文件
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 数据库驱动
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// 缓存驱动
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

// 机器人回复模式
const (
	BotModeCanned  = "canned"  // 从固定话术中随机选择
	BotModeForward = "forward" // 转发到外部文本生成服务
)

// Config 是应用程序的根配置结构
// 包含所有子配置模块
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // 数据库配置
	Redis    RedisConfig    `mapstructure:"redis"`    // Redis 配置
	Cache    CacheConfig    `mapstructure:"cache"`    // 缓存配置
	JWT      JWTConfig      `mapstructure:"jwt"`      // JWT 配置
	Log      LogConfig      `mapstructure:"log"`      // 日志配置
	Bot      BotConfig      `mapstructure:"bot"`      // 机器人配置
}

// ServerConfig 服务器相关配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`          // 监听端口，默认 8080
	Mode         string        `mapstructure:"mode"`          // 运行模式: debug / release
	CORS         []string      `mapstructure:"cors"`          // CORS 允许的域名
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`  // 读超时
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // 写超时，需要大于 bot.timeout
}

// DatabaseConfig 数据库连接配置
// DSN 非空时直接使用；MySQL 在 DSN 为空时由各字段拼接
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`         // mysql / postgres / sqlite
	DSN          string `mapstructure:"dsn"`            // 完整连接串，sqlite 可使用 "memory"
	Host         string `mapstructure:"host"`           // 数据库主机地址
	Port         int    `mapstructure:"port"`           // 数据库端口
	Username     string `mapstructure:"username"`       // 数据库用户名
	Password     string `mapstructure:"password"`       // 数据库密码
	Database     string `mapstructure:"database"`       // 数据库名称
	Charset      string `mapstructure:"charset"`        // 字符集（MySQL）
	SSLMode      string `mapstructure:"sslmode"`        // SSL 模式（Postgres）
	MaxIdleConns int    `mapstructure:"max_idle_conns"` // 最大空闲连接数
	MaxOpenConns int    `mapstructure:"max_open_conns"` // 最大打开连接数
	MaxLifetime  int    `mapstructure:"max_lifetime"`   // 连接最大生命周期（秒）
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`      // Redis 主机地址
	Port     int    `mapstructure:"port"`      // Redis 端口
	Username string `mapstructure:"username"`  // Redis 用户名
	Password string `mapstructure:"password"`  // Redis 密码
	DB       int    `mapstructure:"db"`        // 数据库索引 (0-15)
	PoolSize int    `mapstructure:"pool_size"` // 连接池大小
}

// CacheConfig 缓存配置
// Token 黑名单可以存放在 Redis（多实例）或进程内存（单实例/开发）
type CacheConfig struct {
	Driver string `mapstructure:"driver"` // redis / memory
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`         // JWT 签名密钥，至少32字符
	Issuer        string        `mapstructure:"issuer"`         // 签发者
	AccessExpire  time.Duration `mapstructure:"access_expire"`  // Access Token 过期时间
	RefreshExpire time.Duration `mapstructure:"refresh_expire"` // Refresh Token 过期时间
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // 日志级别: debug/info/warn/error
	Format     string `mapstructure:"format"`      // 日志格式: json/console
	File       string `mapstructure:"file"`        // 日志文件路径，为空则只输出到控制台
	MaxSize    int    `mapstructure:"max_size"`    // 单个文件最大大小（MB）
	MaxBackups int    `mapstructure:"max_backups"` // 保留的旧文件数量
	MaxAge     int    `mapstructure:"max_age"`     // 保留天数
	Compress   bool   `mapstructure:"compress"`    // 是否 gzip 压缩旧文件
}

// BotConfig 机器人回复配置
// 每个部署只启用一种模式
type BotConfig struct {
	Mode          string        `mapstructure:"mode"`           // canned / forward
	Endpoint      string        `mapstructure:"endpoint"`       // 外部生成服务地址（forward 模式）
	Timeout       time.Duration `mapstructure:"timeout"`        // 调用外部服务的超时时间
	RequestField  string        `mapstructure:"request_field"`  // 请求体中存放用户消息的字段名
	ResponseField string        `mapstructure:"response_field"` // 响应体中读取回复文本的字段名
	Seed          int64         `mapstructure:"seed"`           // 随机种子，0 表示使用当前时间
}

// Load 从指定路径加载配置文件
// 加载顺序: .env -> config.yaml -> 环境变量 -> 默认值
// 参数:
//   - configPath: 配置文件目录路径 (如 "./configs")
//
// 返回:
//   - *Config: 配置对象
//   - error: 如果加载失败则返回错误
func Load(configPath string) (*Config, error) {
	// .env 不存在时忽略，直接使用系统环境变量
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.AutomaticEnv()
	// 例如: SERVER_PORT -> server.port
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVariables(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时继续使用默认值和环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置项是否合法
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: jwt.secret is required")
	}

	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}

	switch c.Cache.Driver {
	case CacheRedis, CacheMemory:
	default:
		return fmt.Errorf("config: unsupported cache.driver %q", c.Cache.Driver)
	}

	switch c.Bot.Mode {
	case BotModeCanned:
	case BotModeForward:
		if c.Bot.Endpoint == "" {
			return errors.New("config: bot.endpoint is required in forward mode")
		}
	default:
		return fmt.Errorf("config: unsupported bot.mode %q", c.Bot.Mode)
	}

	if c.Bot.Timeout <= 0 {
		return errors.New("config: bot.timeout must be positive")
	}
	return nil
}

// bindEnvVariables 绑定环境变量到配置项
func bindEnvVariables(v *viper.Viper) {
	// 服务器配置
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// 数据库配置
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.dsn", "DB_DSN", "DATABASE_URL")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.username", "DB_USERNAME")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.database", "DB_DATABASE")

	// Redis / 缓存配置
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.username", "REDIS_USERNAME")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("cache.driver", "CACHE_DRIVER")

	// JWT 配置
	v.BindEnv("jwt.secret", "JWT_SECRET", "JWT_SECRET_KEY")

	// 日志配置
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
	v.BindEnv("log.file", "LOG_FILE")

	// 机器人配置
	v.BindEnv("bot.mode", "BOT_MODE")
	v.BindEnv("bot.endpoint", "BOT_ENDPOINT")
	v.BindEnv("bot.timeout", "BOT_TIMEOUT")
}

// setDefaults 设置配置项的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors", []string{"http://localhost:5173"})
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "60s")

	// 数据库默认配置
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.max_lifetime", 3600)

	// Redis 默认配置
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 100)
	v.SetDefault("cache.driver", CacheMemory)

	// JWT 默认配置
	v.SetDefault("jwt.issuer", "govchat")
	v.SetDefault("jwt.access_expire", "24h")
	v.SetDefault("jwt.refresh_expire", "168h")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)

	// 机器人默认配置
	v.SetDefault("bot.mode", BotModeCanned)
	v.SetDefault("bot.timeout", "30s")
	v.SetDefault("bot.request_field", "user_query")
	v.SetDefault("bot.response_field", "generated_text")
	v.SetDefault("bot.seed", 0)
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 PARIMARKET_SERVER_PORT 覆盖 server.port
const EnvPrefix = "PARIMARKET"

// Config 全局配置结构体（匹配 config/config.yaml）
type Config struct {
	Server ServerConfig `mapstructure:"server"` // 服务器配置
	Log    LogConfig    `mapstructure:"log"`    // 日志配置
	Market MarketConfig `mapstructure:"market"` // 市场规则配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`             // 服务端口
	Mode            string        `mapstructure:"mode"`             // Gin运行模式：debug/release/test
	EnablePprof     bool          `mapstructure:"enable_pprof"`     // 是否注册 pprof 路由
	CORSOrigins     []string      `mapstructure:"cors_origins"`     // 允许跨域的前端地址
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`     // 读超时
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`    // 写超时
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // 优雅退出等待时间
}

// LogConfig 日志配置，File 为空时输出到 stdout
type LogConfig struct {
	Level      string `mapstructure:"level"`        // debug/info/warn/error
	Format     string `mapstructure:"format"`       // text/json
	File       string `mapstructure:"file"`         // 日志文件路径（按大小轮转）
	MaxSizeMB  int    `mapstructure:"max_size_mb"`  // 单个文件最大 MB
	MaxBackups int    `mapstructure:"max_backups"`  // 保留旧文件个数
	MaxAgeDays int    `mapstructure:"max_age_days"` // 旧文件保留天数
}

// MarketConfig 市场规则：单笔下注额上下限，0 表示不限制
type MarketConfig struct {
	MinBet float64 `mapstructure:"min_bet"` // 最小下注金额
	MaxBet float64 `mapstructure:"max_bet"` // 最大下注金额
}

// LoadConfig 加载 ./config/config.yaml，.env 与 PARIMARKET_* 环境变量覆盖同名字段
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录加载 config.yaml。配置文件不存在时使用默认值
func LoadConfigFrom(dir string) (*Config, error) {
	// 1. 加载 .env（若存在）
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	v := viper.New()
	setDefaults(v)

	// 2. 读取 config.yaml
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 3. 环境变量优先级最高
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.enable_pprof", false)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("market.min_bet", 0)
	v.SetDefault("market.max_bet", 0)
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 超出范围: %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode 不支持: %q", c.Server.Mode)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format 不支持: %q", c.Log.Format)
	}
	if c.Market.MinBet < 0 || c.Market.MaxBet < 0 {
		return fmt.Errorf("market 下注限额不能为负: min=%g max=%g", c.Market.MinBet, c.Market.MaxBet)
	}
	if c.Market.MaxBet > 0 && c.Market.MinBet > c.Market.MaxBet {
		return fmt.Errorf("market.min_bet(%g) 大于 market.max_bet(%g)", c.Market.MinBet, c.Market.MaxBet)
	}
	return nil
}

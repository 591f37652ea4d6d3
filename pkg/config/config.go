package config

import (
	"os"
	"strconv"
	"time"
)

// LLMConfig 文本生成服务配置
type LLMConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	FailureThreshold    int           `yaml:"failure_threshold"`
	SuccessThreshold    int           `yaml:"success_threshold"`
	Timeout             time.Duration `yaml:"timeout"`
	HalfOpenMaxRequests int           `yaml:"half_open_max_requests"`
}

// IMAPConfig 收件配置
type IMAPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Mailbox  string `yaml:"mailbox"`
	TLS      bool   `yaml:"tls"`
}

// SMTPConfig 发件配置
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// TLS 为 true 时使用隐式 TLS，否则使用 STARTTLS
	TLS bool `yaml:"tls"`
}

// OperatorConfig 操作者（回复署名人）配置
type OperatorConfig struct {
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	DraftAddress string `yaml:"draft_address"`
}

// TriageConfig 批处理配置
type TriageConfig struct {
	Delay       time.Duration `yaml:"delay"`
	FixturePath string        `yaml:"fixture_path"`
	Labels      []string      `yaml:"labels"`
	DedupTTL    time.Duration `yaml:"dedup_ttl"`
}

// AuditConfig 审计记录配置
type AuditConfig struct {
	CSVPath    string `yaml:"csv_path"`
	SQLitePath string `yaml:"sqlite_path"`
	Postgres   bool   `yaml:"postgres"`
	Events     bool   `yaml:"events"`
}

// DBConfig 数据库配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// MQConfig 消息队列配置
type MQConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// MetricsConfig 指标服务配置，Addr 为空时不启动
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// OtelConfig OpenTelemetry 配置
type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// OverrideLLMFromEnv 从环境变量覆盖文本生成配置
func OverrideLLMFromEnv(cfg *LLMConfig) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.Model = model
	}
}

// OverrideMailFromEnv 从环境变量覆盖收发件与操作者配置
// IMAP 使用应用专用密码 EMAIL_APP_PASSWORD，SMTP 使用 EMAIL_PASSWORD
func OverrideMailFromEnv(imap *IMAPConfig, smtp *SMTPConfig, op *OperatorConfig) {
	if user := os.Getenv("EMAIL_USERNAME"); user != "" {
		imap.Username = user
		smtp.Username = user
		op.Email = user
	}
	if pw := os.Getenv("EMAIL_APP_PASSWORD"); pw != "" {
		imap.Password = pw
	}
	if pw := os.Getenv("EMAIL_PASSWORD"); pw != "" {
		smtp.Password = pw
	}
	if host := os.Getenv("IMAP_SERVER"); host != "" {
		imap.Host = host
	}
	if port := os.Getenv("IMAP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			imap.Port = p
		}
	}
	if host := os.Getenv("EMAIL_SERVER"); host != "" {
		smtp.Host = host
	}
	if port := os.Getenv("EMAIL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			smtp.Port = p
		}
	}
	if name := os.Getenv("YOUR_NAME"); name != "" {
		op.Name = name
	}
	if addr := os.Getenv("YOUR_GMAIL_ADDRESS_FOR_DRAFTS"); addr != "" {
		op.DraftAddress = addr
	}
}

// OverrideDBFromEnv 从环境变量覆盖数据库配置
func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
}

// OverrideMQFromEnv 从环境变量覆盖MQ配置
func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

// OverrideRedisFromEnv 从环境变量覆盖Redis配置
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

// OverrideLogFromEnv 从环境变量覆盖日志配置
func OverrideLogFromEnv(cfg *LogConfig) {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = level
	}
}

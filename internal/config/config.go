package config

import (
	"fmt"
	"time"

	"mailtriage/internal/model"
	"mailtriage/pkg/config"
)

type Config struct {
	LLM      config.LLMConfig      `yaml:"llm"`
	IMAP     config.IMAPConfig     `yaml:"imap"`
	SMTP     config.SMTPConfig     `yaml:"smtp"`
	Operator config.OperatorConfig `yaml:"operator"`
	Triage   config.TriageConfig   `yaml:"triage"`
	Audit    config.AuditConfig    `yaml:"audit"`
	DB       config.DBConfig       `yaml:"db"`
	MQ       config.MQConfig       `yaml:"mq"`
	Redis    config.RedisConfig    `yaml:"redis"`
	Log      config.LogConfig      `yaml:"log"`
	Metrics  config.MetricsConfig  `yaml:"metrics"`
	Otel     config.OtelConfig     `yaml:"otel"`
}

// Load 使用统一配置中心加载配置，环境变量优先级最高
func Load(env, configDir string) (*Config, error) {
	var cfg Config
	if err := config.Decode(env, configDir, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	config.OverrideLLMFromEnv(&cfg.LLM)
	config.OverrideMailFromEnv(&cfg.IMAP, &cfg.SMTP, &cfg.Operator)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideLogFromEnv(&cfg.Log)

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.5-pro"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.IMAP.Host == "" {
		cfg.IMAP.Host = "imap.gmail.com"
	}
	if cfg.IMAP.Port == 0 {
		cfg.IMAP.Port = 993
	}
	if cfg.IMAP.Mailbox == "" {
		cfg.IMAP.Mailbox = "INBOX"
	}
	if cfg.SMTP.Host == "" {
		cfg.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Operator.Name == "" {
		cfg.Operator.Name = "AI Agent"
	}
	if cfg.Operator.Email == "" {
		cfg.Operator.Email = cfg.SMTP.Username
	}
	if cfg.Operator.DraftAddress == "" {
		cfg.Operator.DraftAddress = cfg.Operator.Email
	}
	if cfg.Triage.Delay == 0 {
		cfg.Triage.Delay = 10 * time.Second
	}
	if len(cfg.Triage.Labels) == 0 {
		for _, l := range model.SentimentLabels {
			cfg.Triage.Labels = append(cfg.Triage.Labels, string(l))
		}
	}
	if cfg.Triage.DedupTTL == 0 {
		cfg.Triage.DedupTTL = 7 * 24 * time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Otel.ServiceName == "" {
		cfg.Otel.ServiceName = "mailtriage"
	}
}

// Labels returns the configured filter labels, rejecting unknown ones.
func (c *Config) Labels() ([]model.Classification, error) {
	out := make([]model.Classification, 0, len(c.Triage.Labels))
	for _, l := range c.Triage.Labels {
		label, ok := model.ParseClassification(l)
		if !ok {
			return nil, fmt.Errorf("unknown classification label %q", l)
		}
		out = append(out, label)
	}
	return out, nil
}

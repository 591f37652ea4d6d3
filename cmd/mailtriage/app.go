package main

import (
	"context"

	"go.uber.org/zap"

	"mailtriage/internal/config"
	"mailtriage/internal/credential"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/otel"
)

// app holds what every command needs: configuration, logger and tracing.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	cleanup []func()
}

func bootstrap() (*app, error) {
	cfg, err := config.Load(configEnv, configDir)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	// 环境变量与配置文件都未提供时从系统钥匙串读取
	for _, secret := range []struct {
		value *string
		key   string
	}{
		{&cfg.LLM.APIKey, credential.KeyGeminiAPIKey},
		{&cfg.IMAP.Password, credential.KeyIMAPPassword},
		{&cfg.SMTP.Password, credential.KeySMTPPassword},
	} {
		if err := credential.Fill(secret.value, secret.key); err != nil {
			log.Warn("Keyring lookup failed", zap.String("key", secret.key), zap.Error(err))
		}
	}

	shutdownTracing, err := otel.Init(context.Background(), otel.Config{
		ServiceName:    cfg.Otel.ServiceName,
		Environment:    configEnv,
		SampleRatio:    cfg.Otel.SampleRatio,
		ServiceVersion: version,
		Endpoint:       cfg.Otel.Endpoint,
		Enabled:        cfg.Otel.Enabled,
	}, log)
	if err != nil {
		log.Warn("OpenTelemetry disabled", zap.Error(err))
		shutdownTracing = func() {}
	}

	a := &app{cfg: cfg, log: log}
	a.onClose(func() { _ = log.Sync() })
	a.onClose(shutdownTracing)
	return a, nil
}

func (a *app) onClose(f func()) {
	a.cleanup = append(a.cleanup, f)
}

// Close runs cleanups in reverse registration order.
func (a *app) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

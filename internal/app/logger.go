package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger(env, appName string) *zap.Logger {
	logger, err := loggerConfig(env, appName).Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}

// loggerConfig: production пишет JSON с уровня info, остальные окружения - цветную консоль с debug
func loggerConfig(env, appName string) zap.Config {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.OutputPaths = []string{"stdout"}
	if appName != "" {
		config.InitialFields = map[string]interface{}{"app": appName}
	}
	return config
}

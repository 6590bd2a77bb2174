package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar *zap.SugaredLogger

// Init инициализирует zap логгер
func Init() error {
	config := zap.NewProductionConfig()

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)

	logger, err := config.Build()
	if err != nil {
		return err
	}

	sugar = logger.Sugar()
	return nil
}

// Infow пишет информационное сообщение с полями
func Infow(msg string, keysAndValues ...interface{}) {
	if sugar != nil {
		sugar.Infow(msg, keysAndValues...)
	}
}

// Errorw пишет сообщение об ошибке с полями
func Errorw(msg string, keysAndValues ...interface{}) {
	if sugar != nil {
		sugar.Errorw(msg, keysAndValues...)
	}
}

// RequestResponseLogger — middleware-логер для входящих HTTP-запросов.
func RequestResponseLogger() gin.HandlerFunc {
	return func(c *gin.Context) {

		start := time.Now()
		uri := c.Request.RequestURI
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		size := c.Writer.Size()

		if sugar == nil {
			return
		}
		sugar.Infoln(
			"uri", uri,
			"method", method,
			"duration", duration,
			"status", status,
			"size", size,
		)

	}
}

func Close() {
	if sugar != nil {
		sugar.Sync()
	}
}

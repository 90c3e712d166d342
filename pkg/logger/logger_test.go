package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "[MASKED]", maskToken("Bearer abc"))
	assert.Equal(t, "Bearer eyJ...wxyz9", maskToken("Bearer eyJhbGciOiJIUzI1NiJ9.wxyz9"))
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, 100*time.Millisecond, true)
	query := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("record not found is ignored", func(t *testing.T) {
		gl.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("errors are logged", func(t *testing.T) {
		gl.Trace(context.Background(), time.Now(), query, errors.New("connection reset"))
		assert.Equal(t, 1, logs.FilterMessage("쿼리 실패").Len())
	})

	t.Run("slow queries are warned", func(t *testing.T) {
		gl.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
		assert.Equal(t, 1, logs.FilterMessage("느린 쿼리").Len())
	})

	t.Run("fast queries are silent at warn level", func(t *testing.T) {
		before := logs.Len()
		gl.Trace(context.Background(), time.Now(), query, nil)
		assert.Equal(t, before, logs.Len())
	})

	t.Run("silent mode logs nothing", func(t *testing.T) {
		before := logs.Len()
		gl.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), query, errors.New("boom"))
		assert.Equal(t, before, logs.Len())
	})
}

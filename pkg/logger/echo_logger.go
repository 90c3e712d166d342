package logger

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
)

// NewEchoRequestLogger는 zap으로 HTTP 요청/응답을 기록하는 Echo 미들웨어를 생성합니다.
// skipPaths에 포함된 경로(헬스 체크 등)는 기록하지 않습니다.
func NewEchoRequestLogger(logger *zap.Logger, skipPaths ...string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			_, ok := skip[c.Request().URL.Path]
			return ok
		},
		HandleError:  true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogRequestID: true,
		LogUserAgent: true,
		LogStatus:    true,
		LogError:     true,
		LogHeaders:   []string{"Authorization", "Idempotency-Key"},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.method", v.Method),
				zap.String("request.path", v.URIPath),
				zap.String("request.route", v.RoutePath),
				zap.String("request.request_id", v.RequestID),
				zap.String("request.user_agent", v.UserAgent),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
			}

			if values := v.Headers["Authorization"]; len(values) > 0 {
				fields = append(fields, zap.String("request.authorization", maskToken(values[0])))
			}
			if values := v.Headers["Idempotency-Key"]; len(values) > 0 {
				fields = append(fields, zap.String("request.idempotency_key", values[0]))
			}

			switch {
			case v.Error != nil && v.Status >= http.StatusInternalServerError:
				logger.Error("Request failed", append(fields, zap.Error(v.Error))...)
			case v.Status >= http.StatusInternalServerError:
				logger.Error("Server error", fields...)
			case v.Status >= http.StatusBadRequest:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("Request completed", fields...)
			}
			return nil
		},
	})
}

// maskToken은 Bearer 토큰의 앞뒤 일부만 남기고 마스킹합니다.
func maskToken(val string) string {
	if len(val) > 15 {
		return val[:10] + "..." + val[len(val)-5:]
	}
	return "[MASKED]"
}

// WithEchoLogger는 Echo 내장 로거와 기본 에러 핸들러를 zap 기반으로 교체합니다.
func WithEchoLogger(e *echo.Echo, logger *zap.Logger) {
	e.Logger = NewEchoZapLogger(logger)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		var body interface{} = echo.Map{"error": http.StatusText(code)}

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			switch msg := he.Message.(type) {
			case echo.Map:
				body = msg
			case string:
				body = echo.Map{"error": msg}
			default:
				body = echo.Map{"error": http.StatusText(code)}
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Error("HTTP error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path))
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Error("Failed to send error response", zap.Error(err))
		}
	}
}

// EchoZapLogger는 echo.Logger 인터페이스를 구현한 zap 로거 래퍼입니다.
// 레벨/헤더/프리픽스 설정은 zap 설정을 따르므로 무시됩니다.
type EchoZapLogger struct {
	Logger *zap.Logger
	sugar  *zap.SugaredLogger
}

// NewEchoZapLogger는 Echo의 Logger 인터페이스를 구현한 zap 로거 래퍼를 생성합니다.
func NewEchoZapLogger(logger *zap.Logger) *EchoZapLogger {
	return &EchoZapLogger{Logger: logger, sugar: logger.Sugar()}
}

func (l *EchoZapLogger) Output() io.Writer                      { return &zapWriter{logger: l.Logger} }
func (l *EchoZapLogger) SetOutput(io.Writer)                    {}
func (l *EchoZapLogger) Level() log.Lvl                         { return log.INFO }
func (l *EchoZapLogger) SetLevel(log.Lvl)                       {}
func (l *EchoZapLogger) SetHeader(string)                       {}
func (l *EchoZapLogger) Prefix() string                         { return "" }
func (l *EchoZapLogger) SetPrefix(string)                       {}
func (l *EchoZapLogger) Print(i ...interface{})                 { l.sugar.Info(i...) }
func (l *EchoZapLogger) Printf(format string, i ...interface{}) { l.sugar.Infof(format, i...) }
func (l *EchoZapLogger) Printj(j log.JSON)                      { l.Logger.Info("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Debug(i ...interface{})                 { l.sugar.Debug(i...) }
func (l *EchoZapLogger) Debugf(format string, i ...interface{}) { l.sugar.Debugf(format, i...) }
func (l *EchoZapLogger) Debugj(j log.JSON)                      { l.Logger.Debug("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Info(i ...interface{})                  { l.sugar.Info(i...) }
func (l *EchoZapLogger) Infof(format string, i ...interface{})  { l.sugar.Infof(format, i...) }
func (l *EchoZapLogger) Infoj(j log.JSON)                       { l.Logger.Info("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Warn(i ...interface{})                  { l.sugar.Warn(i...) }
func (l *EchoZapLogger) Warnf(format string, i ...interface{})  { l.sugar.Warnf(format, i...) }
func (l *EchoZapLogger) Warnj(j log.JSON)                       { l.Logger.Warn("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Error(i ...interface{})                 { l.sugar.Error(i...) }
func (l *EchoZapLogger) Errorf(format string, i ...interface{}) { l.sugar.Errorf(format, i...) }
func (l *EchoZapLogger) Errorj(j log.JSON)                      { l.Logger.Error("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Fatal(i ...interface{})                 { l.sugar.Fatal(i...) }
func (l *EchoZapLogger) Fatalf(format string, i ...interface{}) { l.sugar.Fatalf(format, i...) }
func (l *EchoZapLogger) Fatalj(j log.JSON)                      { l.Logger.Fatal("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Panic(i ...interface{})                 { l.sugar.Panic(i...) }
func (l *EchoZapLogger) Panicf(format string, i ...interface{}) { l.sugar.Panicf(format, i...) }
func (l *EchoZapLogger) Panicj(j log.JSON)                      { l.Logger.Panic("json_message", zap.Any("json", j)) }

// zapWriter는 io.Writer 인터페이스를 구현한 zap 로거 래퍼입니다.
type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Write(p []byte) (n int, err error) {
	w.logger.Info(string(p))
	return len(p), nil
}

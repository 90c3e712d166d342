package logger

import (
	"context"
	"path"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewGrpcUnaryServerInterceptor는 단일 요청/응답 gRPC 메서드에 대한 로깅 인터셉터를 생성합니다.
func NewGrpcUnaryServerInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		startTime := time.Now()
		resp, err := handler(ctx, req)
		logGrpcCall(logger, info.FullMethod, false, err, time.Since(startTime))
		return resp, err
	}
}

// NewGrpcStreamServerInterceptor는 스트리밍 gRPC 메서드에 대한 로깅 인터셉터를 생성합니다.
func NewGrpcStreamServerInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		startTime := time.Now()
		err := handler(srv, ss)
		logGrpcCall(logger, info.FullMethod, true, err, time.Since(startTime))
		return err
	}
}

// logGrpcCall은 상태 코드에 따라 로그 레벨을 결정해 호출 결과를 기록합니다.
// 일시적인 실패(취소, 타임아웃, 가용성)는 Warn, 그 외 실패는 Error로 기록합니다.
func logGrpcCall(logger *zap.Logger, fullMethod string, stream bool, err error, duration time.Duration) {
	statusCode := codes.OK
	if err != nil {
		if st, ok := status.FromError(err); ok {
			statusCode = st.Code()
		} else {
			statusCode = codes.Unknown
		}
	}

	fields := []zap.Field{
		zap.String("grpc.service", path.Dir(fullMethod)[1:]),
		zap.String("grpc.method", path.Base(fullMethod)),
		zap.String("grpc.code", statusCode.String()),
		zap.Bool("grpc.stream", stream),
		zap.Duration("grpc.duration", duration),
	}

	switch statusCode {
	case codes.OK:
		logger.Info("gRPC 요청 완료", fields...)
	case codes.Canceled, codes.DeadlineExceeded, codes.ResourceExhausted,
		codes.Aborted, codes.Unavailable, codes.FailedPrecondition:
		logger.Warn("gRPC 요청 실패", append(fields, zap.Error(err))...)
	default:
		logger.Error("gRPC 요청 오류", append(fields, zap.Error(err))...)
	}
}

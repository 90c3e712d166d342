package errors

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CodePair는 프레임워크 간 코드 매핑을 위한 구조체입니다
type CodePair struct {
	HTTPStatus int
	GRPCCode   codes.Code
}

// 코드 매핑 테이블
var codeMapping = map[string]CodePair{
	ErrInternal:        {500, codes.Internal},
	ErrNotFound:        {404, codes.NotFound},
	ErrInvalidArgument: {400, codes.InvalidArgument},
	ErrUnauthenticated: {401, codes.Unauthenticated},
	ErrUnauthorized:    {403, codes.PermissionDenied},
	ErrConflict:        {409, codes.AlreadyExists},
	ErrTimeout:         {504, codes.DeadlineExceeded},
	ErrNotImplemented:  {501, codes.Unimplemented},
	ErrInvalidState:    {409, codes.FailedPrecondition},
	ErrProvider:        {502, codes.Unavailable},
	ErrPartialFailure:  {500, codes.DataLoss},
	ErrUnavailable:     {503, codes.Unavailable},
}

// GetCodeMapping은 특정 에러 코드에 대한 HTTP 및 gRPC 코드 매핑을 반환합니다
func GetCodeMapping(code string) (int, codes.Code) {
	if pair, ok := codeMapping[code]; ok {
		return pair.HTTPStatus, pair.GRPCCode
	}
	return 500, codes.Internal // 기본값으로 Internal Server Error
}

// ToGRPCError는 에러를 gRPC status 에러로 변환합니다
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		_, grpcCode := GetCodeMapping(appErr.Code())
		return status.Error(grpcCode, appErr.Error())
	}

	return status.Error(codes.Internal, err.Error())
}

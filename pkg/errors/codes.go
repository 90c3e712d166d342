package errors

// 공통 에러 코드 정의
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"
	ErrNotImplemented  = "NOT_IMPLEMENTED"

	// 결제/구독 도메인 에러 코드
	ErrInvalidState   = "INVALID_STATE"   // 허용되지 않는 상태 전이
	ErrProvider       = "PROVIDER_ERROR"  // 결제 제공자 호출 실패
	ErrPartialFailure = "PARTIAL_FAILURE" // 결제는 완료되었으나 후속 처리 실패
	ErrUnavailable    = "UNAVAILABLE"     // 외부 백엔드 일시 장애
)

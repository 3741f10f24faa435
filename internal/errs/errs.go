// Package errs defines the typed failures returned by the booking core.
// Handlers map a failure's Kind onto an HTTP status.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindValidation Kind = "validation"
	KindForbidden  Kind = "forbidden"
	KindInternal   Kind = "internal"
)

// Error is a classified failure with a user-facing message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Code, so wrapped copies of a sentinel still match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// Domain sentinels.
var (
	ErrMachineNotFound    = &Error{Kind: KindNotFound, Code: "machine_not_found", Message: "Không tìm thấy máy (machine not found)"}
	ErrRoomNotFound       = &Error{Kind: KindNotFound, Code: "room_not_found", Message: "Không tìm thấy phòng (room not found)"}
	ErrNoActiveSession    = &Error{Kind: KindNotFound, Code: "no_active_session", Message: "Phòng này không có phiên sử dụng máy đang hoạt động (no active session)"}
	ErrNotInQueue         = &Error{Kind: KindNotFound, Code: "not_in_queue", Message: "Bạn không có trong hàng đợi (not in queue)"}
	ErrMachineBusy        = &Error{Kind: KindConflict, Code: "machine_busy", Message: "Máy đang được sử dụng (machine is not available)"}
	ErrAlreadyQueued      = &Error{Kind: KindConflict, Code: "already_queued", Message: "IP đã có trong hàng đợi (IP already in queue)"}
	ErrRoomMismatch       = &Error{Kind: KindValidation, Code: "room_mismatch", Message: "Số phòng không khớp với hàng đợi (room number does not match queue record)"}
	ErrInvalidMachineType = &Error{Kind: KindValidation, Code: "invalid_machine_type", Message: "Loại máy không hợp lệ (invalid machine type)"}
	ErrInvalidStatus      = &Error{Kind: KindValidation, Code: "invalid_status", Message: "Trạng thái máy không hợp lệ (invalid machine status)"}
	ErrInvalidTime        = &Error{Kind: KindValidation, Code: "invalid_time", Message: "Thời gian kết thúc không hợp lệ (invalid estimated end time)"}
	ErrNotSessionOwner    = &Error{Kind: KindForbidden, Code: "not_session_owner", Message: "Chỉ thiết bị đã bắt đầu mới được kết thúc (only the starting IP may finish)"}
)

// Validation returns a validation failure for a missing or malformed field.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: "validation", Message: msg}
}

// Internal wraps a storage or infrastructure failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: "Lỗi máy chủ (internal error)", Err: err}
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

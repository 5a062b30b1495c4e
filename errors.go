package tagbus

import "github.com/ehrlich-b/tagbus/internal/errs"

// Error and ErrorCode are aliases of internal/errs' definitions so that
// internal/ctrl can construct them without importing this package.
type (
	Error     = errs.Error
	ErrorCode = errs.ErrorCode
)

const (
	CodeInvalidArgument = errs.CodeInvalidArgument
	CodeMessageTooBig   = errs.CodeMessageTooBig
	CodeNotFound        = errs.CodeNotFound
	CodeKeyExists       = errs.CodeKeyExists
	CodeCapacity        = errs.CodeCapacity
	CodePermission      = errs.CodePermission
	CodePrivateTag      = errs.CodePrivateTag
	CodeRemoving        = errs.CodeRemoving
	CodeBusy            = errs.CodeBusy
	CodeInterrupted     = errs.CodeInterrupted
	CodeOutOfMemory     = errs.CodeOutOfMemory
)

var (
	NewError      = errs.NewError
	NewTagError   = errs.NewTagError
	NewLevelError = errs.NewLevelError
	WrapError     = errs.WrapError
	IsCode        = errs.IsCode
)

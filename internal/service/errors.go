package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/mmynk/lunchtab/internal/models"
)

// connectError maps a domain error kind onto a Connect status code.
func connectError(err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, models.ErrValidation):
		code = connect.CodeInvalidArgument
	case errors.Is(err, models.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, models.ErrUnauthorized):
		code = connect.CodePermissionDenied
	case errors.Is(err, models.ErrOrderingClosed), errors.Is(err, models.ErrConfiguration):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, models.ErrIngestion):
		code = connect.CodeAborted
	case errors.Is(err, models.ErrStore):
		code = connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}

package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tuklasart/backend/pkg/errorx"
	"github.com/tuklasart/backend/pkg/xcontext"
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func writeResponse(gctx *gin.Context, ctx context.Context) {
	if err := xcontext.Error(ctx); err != nil {
		errx := errorx.Error{}
		if !errors.As(err, &errx) {
			errx = errorx.Unknown
		}

		gctx.JSON(statusOf(errx.Code), response{
			Code:  int64(errx.Code),
			Error: errx.Message,
		})
		return
	}

	gctx.JSON(http.StatusOK, response{Code: 0, Data: xcontext.Response(ctx)})
}

// statusOf maps the error code bands to an HTTP status. Business errors
// stay 200 with a non-zero code in the envelope; only authentication,
// authorization, absence, and malformed input change the status line.
func statusOf(code errorx.Code) int {
	switch code {
	case errorx.Unauthenticated, errorx.TokenExpired, errorx.StolenDetected,
		errorx.InvalidSignature, errorx.InvalidNonce:
		return http.StatusUnauthorized
	case errorx.PermissionDenied:
		return http.StatusForbidden
	case errorx.NotFound:
		return http.StatusNotFound
	case errorx.BadRequest:
		return http.StatusBadRequest
	case errorx.Unknown.Code, errorx.Internal:
		return http.StatusInternalServerError
	}

	return http.StatusOK
}

package router

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tuklasart/backend/pkg/errorx"
	"github.com/tuklasart/backend/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		ctx := router.newContext(gctx)

		req, err := bindRequest[Request](gctx, method)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot bind the request: %v", err)
			ctx = xcontext.WithError(ctx, errorx.New(errorx.BadRequest, "Cannot bind the request"))
			writeResponse(gctx, ctx)
			router.close(ctx)
			return
		}

		for _, m := range router.befores {
			newCtx, err := m(ctx)
			if err != nil {
				ctx = xcontext.WithError(ctx, err)
				writeResponse(gctx, ctx)
				router.close(ctx)
				return
			}

			if newCtx != nil {
				ctx = newCtx
			}
		}

		resp, err := handler(ctx, req)
		if err != nil {
			ctx = xcontext.WithError(ctx, err)
		} else {
			ctx = xcontext.WithResponse(ctx, resp)
			for _, m := range router.afters {
				newCtx, err := m(ctx)
				if err != nil {
					xcontext.Logger(ctx).Warnf("After middleware failed: %v", err)
					break
				}

				if newCtx != nil {
					ctx = newCtx
				}
			}
		}

		writeResponse(gctx, ctx)
		router.close(ctx)
	}
}

func bindRequest[Request any](gctx *gin.Context, method string) (*Request, error) {
	var req Request

	if len(gctx.Params) > 0 {
		if err := gctx.ShouldBindUri(&req); err != nil {
			return nil, err
		}
	}

	switch method {
	case http.MethodGet, http.MethodDelete:
		if err := gctx.ShouldBindQuery(&req); err != nil {
			return nil, err
		}

	default:
		if err := gctx.ShouldBindJSON(&req); err != nil && err != io.EOF &&
			!strings.Contains(err.Error(), "EOF") {
			return nil, err
		}
	}

	return &req, nil
}

func (r *Router) newContext(gctx *gin.Context) context.Context {
	ctx := gctx.Request.Context()
	ctx = xcontext.WithConfigs(ctx, r.cfg)
	ctx = xcontext.WithLogger(ctx, r.logger)
	ctx = xcontext.WithDB(ctx, r.db)
	ctx = xcontext.WithTokenEngine(ctx, r.tokenEngine)
	ctx = xcontext.WithSnowFlake(ctx, r.snowflake)
	ctx = xcontext.WithHTTPRequest(ctx, gctx.Request)
	ctx = xcontext.WithHTTPWriter(ctx, gctx.Writer)
	return ctx
}

func (r *Router) close(ctx context.Context) {
	for _, closer := range r.closers {
		closer(ctx)
	}
}

package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/BohdanGlowacki/UGODY/internal/common"
)

const RequestIDHeader = "x-request-id"

// RequestLogging tags each call with a request id (taken from metadata or
// generated) and logs its outcome.
func RequestLogging(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		reqID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(RequestIDHeader); len(v) > 0 {
				reqID = v[0]
			}
		}
		ctx, reqID = common.EnsureRequestID(ctx, reqID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, reqID))

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		log := common.LoggerFor(ctx, logger)
		attrs := []any{"method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
		if err != nil {
			log.Warn("grpc request failed", append(attrs, "error", err)...)
		} else {
			log.Info("grpc request", attrs...)
		}
		return resp, err
	}
}

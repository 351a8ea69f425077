package grpc

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/platform/logger"
)

// Metadata keys carrying the caller identity set by the API gateway
const (
	UserIDHeader = "x-user-id"
	RolesHeader  = "x-user-roles"
)

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the authorization token from request metadata.
// If the token is missing or invalid, it returns status.Unauthenticated.
// If valid, the x-user-id and comma-separated x-user-roles headers are attached
// to the context as the request principal.
func AuthInterceptor(validToken string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		if strings.TrimPrefix(authHeaders[0], "Bearer ") != validToken {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		if ids := md.Get(UserIDHeader); len(ids) > 0 && strings.TrimSpace(ids[0]) != "" {
			p := domain.Principal{UserID: strings.TrimSpace(ids[0])}
			for _, header := range md.Get(RolesHeader) {
				for _, role := range strings.Split(header, ",") {
					if role = strings.TrimSpace(role); role != "" {
						p.Roles = append(p.Roles, role)
					}
				}
			}
			ctx = domain.WithPrincipal(ctx, p)
		}

		return handler(ctx, req)
	}
}

// LoggingInterceptor logs every call with its status code and duration
func LoggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	log = logger.OrNop(log)
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		if err != nil {
			log.Warn("rpc failed",
				"method", info.FullMethod,
				"code", status.Code(err).String(),
				"duration_ms", elapsed.Milliseconds(),
				"error", err,
			)
			return resp, err
		}
		log.Debug("rpc served", "method", info.FullMethod, "duration_ms", elapsed.Milliseconds())
		return resp, nil
	}
}

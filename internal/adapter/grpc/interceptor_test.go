package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
)

func TestAuthInterceptor(t *testing.T) {
	validToken := "test-token-123"
	interceptor := AuthInterceptor(validToken)

	tests := []struct {
		name           string
		ctx            context.Context
		handlerCalled  bool
		expectedCode   codes.Code
		expectedErrMsg string
	}{
		{
			name: "Valid Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", validToken),
			),
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
		{
			name: "Valid Bearer Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+validToken),
			),
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
		{
			name: "Invalid Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "wrong-token"),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name:           "Missing Token",
			ctx:            context.Background(),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing metadata",
		},
		{
			name: "Missing Authorization Header",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("other-header", "value"),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing authorization header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				handlerCalled = true
				return "success", nil
			}

			info := &grpc.UnaryServerInfo{
				FullMethod: "/" + ServiceName + "/" + MethodGetSummary,
			}

			resp, err := interceptor(tt.ctx, "test-request", info, handler)

			assert.Equal(t, tt.handlerCalled, handlerCalled, "handler called status mismatch")

			if tt.expectedCode == codes.OK {
				assert.NoError(t, err)
				assert.Equal(t, "success", resp)
			} else {
				assert.Error(t, err)
				st, ok := status.FromError(err)
				assert.True(t, ok, "error should be a gRPC status")
				assert.Equal(t, tt.expectedCode, st.Code())
				assert.Contains(t, st.Message(), tt.expectedErrMsg)
			}
		})
	}
}

func TestAuthInterceptor_AttachesPrincipal(t *testing.T) {
	interceptor := AuthInterceptor("tok")
	info := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/" + MethodRecordOverride}

	tests := []struct {
		name      string
		md        metadata.MD
		wantFound bool
		want      domain.Principal
	}{
		{
			name:      "user and roles",
			md:        metadata.Pairs("authorization", "tok", UserIDHeader, "advisor-1", RolesHeader, "advisor, viewer"),
			wantFound: true,
			want:      domain.Principal{UserID: "advisor-1", Roles: []string{"advisor", "viewer"}},
		},
		{
			name:      "repeated role headers",
			md:        metadata.Pairs("authorization", "tok", UserIDHeader, "u2", RolesHeader, "admin", RolesHeader, "viewer"),
			wantFound: true,
			want:      domain.Principal{UserID: "u2", Roles: []string{"admin", "viewer"}},
		},
		{
			name:      "user without roles",
			md:        metadata.Pairs("authorization", "tok", UserIDHeader, "u3"),
			wantFound: true,
			want:      domain.Principal{UserID: "u3"},
		},
		{
			name: "no user header",
			md:   metadata.Pairs("authorization", "tok", RolesHeader, "admin"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.Principal
			var found bool
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				got, found = domain.PrincipalFromContext(ctx)
				return nil, nil
			}

			_, err := interceptor(metadata.NewIncomingContext(context.Background(), tt.md), nil, info, handler)

			assert.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	interceptor := LoggingInterceptor(nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/" + MethodGetCharts}
	failure := status.Error(codes.Internal, "failed to load inventory data")

	resp, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)

	_, err = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, failure
	})
	assert.True(t, errors.Is(err, failure))
}

package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/platform/logger"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/override"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/routing"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/truthcheck"
)

// Server implements the InventoryRouting gRPC server
type Server struct {
	RoutingService    *routing.RoutingService
	OverrideService   *override.OverrideService
	TruthCheckService *truthcheck.TruthCheckService
	Logger            *logger.Logger
}

var _ InventoryRoutingServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	routingService *routing.RoutingService,
	overrideService *override.OverrideService,
	truthCheckService *truthcheck.TruthCheckService,
	log *logger.Logger,
) *Server {
	return &Server{
		RoutingService:    routingService,
		OverrideService:   overrideService,
		TruthCheckService: truthCheckService,
		Logger:            logger.OrNop(log),
	}
}

// GetSummary handles the GetSummary RPC
func (s *Server) GetSummary(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, mapError(err)
	}

	summary, err := s.RoutingService.GetSummary(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return encode(summaryToStruct(summary))
}

// GetCharts handles the GetCharts RPC
func (s *Server) GetCharts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, mapError(err)
	}

	charts, err := s.RoutingService.GetCharts(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return encode(chartsToStruct(charts))
}

// GetInventory handles the GetInventory RPC
func (s *Server) GetInventory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeInventoryRequest(in)
	if err != nil {
		return nil, mapError(err)
	}

	page, err := s.RoutingService.GetInventory(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return encode(inventoryPageToStruct(page))
}

// ListFilterOptions handles the ListFilterOptions RPC
func (s *Server) ListFilterOptions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, mapError(err)
	}

	opts, err := s.RoutingService.ListFilterOptions(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return encode(filterOptionsToStruct(opts))
}

// RecordOverride handles the RecordOverride RPC
// When user_id is omitted the authenticated principal's id is used.
func (s *Server) RecordOverride(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeOverrideRequest(in)
	if err != nil {
		return nil, mapError(err)
	}
	if req.UserID == "" {
		if p, ok := domain.PrincipalFromContext(ctx); ok {
			req.UserID = p.UserID
		}
	}

	res, err := s.OverrideService.RecordOverride(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return encode(overrideResultToStruct(res))
}

// GetTruthChecks handles the GetTruthChecks RPC
func (s *Server) GetTruthChecks(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.TruthCheckService.BuildTruthChecks(ctx)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return encode(truthChecksToStruct(res))
}

// fail logs store-side causes before they are reduced to a status
func (s *Server) fail(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrDataAccess) {
		method, _ := grpc.Method(ctx)
		s.Logger.Error("request failed", "method", method, "error", err)
	}
	return mapError(err)
}

func encode(out *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// mapError converts domain errors to gRPC status errors
// Data-access causes are logged by fail; callers only see a generic message.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, domain.ErrDataAccess):
		return status.Error(codes.Internal, "failed to load inventory data")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

package override

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/observability"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/platform/logger"
)

// RecordRequest carries one override request
type RecordRequest struct {
	UserID          string
	RiskProfile     domain.RiskProfile
	Horizon         domain.Horizon
	Flags           domain.OverrideFlags
	Reason          string
	SelectedAssetID *string
}

// RecordResult is the written audit row plus the disclosure, if one was generated
type RecordResult struct {
	Record     *domain.OverrideAuditRecord
	Disclosure *domain.Disclosure
}

// OverrideService handles override auditing
type OverrideService struct {
	OverrideRepo domain.OverrideRepository
	Disclosures  domain.DisclosureGenerator
	Authorizer   domain.OverrideAuthorizer
	Logger       *logger.Logger
	Metrics      *observability.Metrics

	// Now and NewID are replaceable in tests
	Now   func() time.Time
	NewID func() uuid.UUID
}

// NewOverrideService creates a new OverrideService instance
func NewOverrideService(
	overrideRepo domain.OverrideRepository,
	disclosures domain.DisclosureGenerator,
	authorizer domain.OverrideAuthorizer,
	log *logger.Logger,
	metrics *observability.Metrics,
) *OverrideService {
	return &OverrideService{
		OverrideRepo: overrideRepo,
		Disclosures:  disclosures,
		Authorizer:   authorizer,
		Logger:       logger.OrNop(log),
		Metrics:      metrics,
		Now:          time.Now,
		NewID:        uuid.New,
	}
}

// RecordOverride writes exactly one audit row for an accepted request.
// Logic:
//   - Reject a missing user or reason, then ask the authorizer
//   - Append the row with the type label derived from the flags
//   - When an asset and a full profile context are given, request a disclosure;
//     its absence or failure never undoes the row
func (s *OverrideService) RecordOverride(ctx context.Context, req RecordRequest) (*RecordResult, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: override user id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: an override requires a reason", domain.ErrValidation)
	}

	if s.Authorizer != nil {
		if err := s.Authorizer.AuthorizeOverride(ctx, req.UserID); err != nil {
			return nil, err
		}
	}

	record := &domain.OverrideAuditRecord{
		ID:              s.NewID(),
		UserID:          strings.TrimSpace(req.UserID),
		RiskProfile:     req.RiskProfile,
		Horizon:         req.Horizon,
		Flags:           req.Flags,
		OverrideType:    req.Flags.Type(),
		Reason:          strings.TrimSpace(req.Reason),
		SelectedAssetID: req.SelectedAssetID,
		CreatedAt:       s.Now().UTC(),
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.OverrideRepo.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: append override audit: %w", domain.ErrDataAccess, err)
	}
	s.Metrics.ObserveOverride(record.OverrideType)
	s.Logger.Info("override recorded",
		"audit_id", record.ID.String(),
		"override_type", record.OverrideType,
		"risk_profile", record.RiskProfile,
		"horizon", record.Horizon,
	)

	result := &RecordResult{Record: record}
	if req.SelectedAssetID != nil && req.RiskProfile != "" && req.Horizon != "" && s.Disclosures != nil {
		disclosure, err := s.Disclosures.GenerateDisclosure(ctx, record.OverrideType, *req.SelectedAssetID, req.RiskProfile, req.Horizon)
		if err != nil {
			s.Logger.Warn("disclosure generation failed", "audit_id", record.ID.String(), "asset_id", *req.SelectedAssetID, "error", err)
		}
		result.Disclosure = disclosure
	}

	return result, nil
}

// RoleAuthorizer lets a principal record overrides for itself when it holds an override role
type RoleAuthorizer struct {
	Roles []string
}

// NewRoleAuthorizer creates a new RoleAuthorizer instance
func NewRoleAuthorizer(roles []string) *RoleAuthorizer {
	return &RoleAuthorizer{Roles: roles}
}

// AuthorizeOverride checks the principal attached to ctx
func (a *RoleAuthorizer) AuthorizeOverride(ctx context.Context, userID string) error {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok || p.UserID == "" {
		return fmt.Errorf("%w: no authenticated principal", domain.ErrUnauthorized)
	}
	if p.UserID != strings.TrimSpace(userID) {
		return fmt.Errorf("%w: principal cannot record overrides for another user", domain.ErrUnauthorized)
	}
	if !p.HasRole(a.Roles...) {
		return fmt.Errorf("%w: principal holds no override role", domain.ErrUnauthorized)
	}
	return nil
}

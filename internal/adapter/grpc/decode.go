package grpc

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/override"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/routing"
)

// decodeRequest reads the filters, routing and overrides sections of a read request:
//
//	{
//	  "filters":   {"cities": [...], "areas": [...], "status_bands": [...], "safety_bands": [...], "price_tiers": [...]},
//	  "routing":   {"risk_profile": "conservative", "horizon": "ready", "ranked": true,
//	                "budget": "1500000", "preferred_area": "JVC", "bedrooms": 2, "intent": "yield"},
//	  "overrides": {"allow_beyond_horizon": false, "allow_speculative": false}
//	}
func decodeRequest(in *structpb.Struct) (routing.Request, error) {
	m := in.AsMap()

	filters, err := decodeFilters(m)
	if err != nil {
		return routing.Request{}, err
	}
	params, err := decodeRouting(m)
	if err != nil {
		return routing.Request{}, err
	}
	flags, err := decodeOverrideFlags(m)
	if err != nil {
		return routing.Request{}, err
	}

	return routing.Request{Filters: filters, Routing: params, Overrides: flags}, nil
}

// decodeInventoryRequest adds "page" (default 1) and "page_size" (default applied by the service)
func decodeInventoryRequest(in *structpb.Struct) (routing.InventoryRequest, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return routing.InventoryRequest{}, err
	}
	m := in.AsMap()

	page, err := intField(m, "page")
	if err != nil {
		return routing.InventoryRequest{}, err
	}
	if page == nil {
		one := 1
		page = &one
	}
	pageSize, err := intField(m, "page_size")
	if err != nil {
		return routing.InventoryRequest{}, err
	}
	size := 0
	if pageSize != nil {
		size = *pageSize
	}

	return routing.InventoryRequest{Request: req, Page: *page, PageSize: size}, nil
}

// decodeOverrideRequest reads a flat record-override request
func decodeOverrideRequest(in *structpb.Struct) (override.RecordRequest, error) {
	m := in.AsMap()

	profile, err := riskProfileField(m, "risk_profile")
	if err != nil {
		return override.RecordRequest{}, err
	}
	horizon, err := horizonField(m, "horizon")
	if err != nil {
		return override.RecordRequest{}, err
	}
	beyond, err := boolField(m, "allow_beyond_horizon")
	if err != nil {
		return override.RecordRequest{}, err
	}
	speculative, err := boolField(m, "allow_speculative")
	if err != nil {
		return override.RecordRequest{}, err
	}
	userID, err := stringField(m, "user_id")
	if err != nil {
		return override.RecordRequest{}, err
	}
	reason, err := stringField(m, "reason")
	if err != nil {
		return override.RecordRequest{}, err
	}
	assetID, err := stringField(m, "selected_asset_id")
	if err != nil {
		return override.RecordRequest{}, err
	}

	req := override.RecordRequest{
		UserID:      userID,
		RiskProfile: profile,
		Horizon:     horizon,
		Flags:       domain.OverrideFlags{AllowBeyondHorizon: beyond, AllowSpeculative: speculative},
		Reason:      reason,
	}
	if assetID != "" {
		req.SelectedAssetID = &assetID
	}
	return req, nil
}

func decodeFilters(m map[string]interface{}) (domain.FilterSet, error) {
	section, err := sectionField(m, "filters")
	if err != nil {
		return domain.FilterSet{}, err
	}

	var f domain.FilterSet
	fields := []struct {
		key string
		dst *[]string
	}{
		{"cities", &f.Cities},
		{"areas", &f.Areas},
		{"status_bands", &f.StatusBands},
		{"safety_bands", &f.SafetyBands},
		{"price_tiers", &f.PriceTiers},
	}
	for _, field := range fields {
		values, err := stringListField(section, field.key)
		if err != nil {
			return domain.FilterSet{}, err
		}
		*field.dst = values
	}
	return f, nil
}

func decodeRouting(m map[string]interface{}) (domain.RoutingParams, error) {
	section, err := sectionField(m, "routing")
	if err != nil {
		return domain.RoutingParams{}, err
	}

	var p domain.RoutingParams
	if p.RiskProfile, err = riskProfileField(section, "risk_profile"); err != nil {
		return domain.RoutingParams{}, err
	}
	if p.Horizon, err = horizonField(section, "horizon"); err != nil {
		return domain.RoutingParams{}, err
	}
	if p.Ranked, err = boolField(section, "ranked"); err != nil {
		return domain.RoutingParams{}, err
	}
	if p.PreferredArea, err = stringField(section, "preferred_area"); err != nil {
		return domain.RoutingParams{}, err
	}
	if p.Intent, err = stringField(section, "intent"); err != nil {
		return domain.RoutingParams{}, err
	}

	budget, err := stringField(section, "budget")
	if err != nil {
		return domain.RoutingParams{}, err
	}
	if budget != "" {
		d, err := decimal.NewFromString(budget)
		if err != nil {
			return domain.RoutingParams{}, fmt.Errorf("%w: invalid budget format: %v", domain.ErrValidation, err)
		}
		if !d.IsPositive() {
			return domain.RoutingParams{}, fmt.Errorf("%w: budget must be positive", domain.ErrValidation)
		}
		p.Budget = &d
	}

	if p.Bedrooms, err = intField(section, "bedrooms"); err != nil {
		return domain.RoutingParams{}, err
	}
	if p.Bedrooms != nil && *p.Bedrooms < 0 {
		return domain.RoutingParams{}, fmt.Errorf("%w: bedrooms cannot be negative", domain.ErrValidation)
	}
	return p, nil
}

func decodeOverrideFlags(m map[string]interface{}) (domain.OverrideFlags, error) {
	section, err := sectionField(m, "overrides")
	if err != nil {
		return domain.OverrideFlags{}, err
	}
	beyond, err := boolField(section, "allow_beyond_horizon")
	if err != nil {
		return domain.OverrideFlags{}, err
	}
	speculative, err := boolField(section, "allow_speculative")
	if err != nil {
		return domain.OverrideFlags{}, err
	}
	return domain.OverrideFlags{AllowBeyondHorizon: beyond, AllowSpeculative: speculative}, nil
}

func sectionField(m map[string]interface{}, key string) (map[string]interface{}, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return map[string]interface{}{}, nil
	}
	section, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an object", domain.ErrValidation, key)
	}
	return section, nil
}

func stringField(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s must be a string", domain.ErrValidation, key)
	}
	return strings.TrimSpace(s), nil
}

func stringListField(m map[string]interface{}, key string) ([]string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	if s, isString := v.(string); isString {
		// a lone string is one value, not a whitespace-separated list
		v = []interface{}{s}
	}
	raw, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a list of strings", domain.ErrValidation, key)
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func boolField(m map[string]interface{}, key string) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", domain.ErrValidation, key)
	}
	return b, nil
}

func intField(m map[string]interface{}, key string) (*int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	if f, isFloat := v.(float64); isFloat && f != float64(int(f)) {
		return nil, fmt.Errorf("%w: %s must be a whole number", domain.ErrValidation, key)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, key)
	}
	return &n, nil
}

func riskProfileField(m map[string]interface{}, key string) (domain.RiskProfile, error) {
	s, err := stringField(m, key)
	if err != nil || s == "" {
		return "", err
	}
	p, ok := domain.ParseRiskProfile(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown risk profile %q", domain.ErrValidation, s)
	}
	return p, nil
}

func horizonField(m map[string]interface{}, key string) (domain.Horizon, error) {
	s, err := stringField(m, key)
	if err != nil || s == "" {
		return "", err
	}
	h, ok := domain.ParseHorizon(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown horizon %q", domain.ErrValidation, s)
	}
	return h, nil
}

package app

import (
	"context"
	"fmt"
	"time"

	"restaurant_lives/internal/domain"
)

const defaultInspectionsLimit = 50

type QueryService struct {
	repo     domain.FeedRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.FeedRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

// generationKey holds the municipality's current feed generation. Read keys
// embed it, so bumping it on republish orphans every earlier entry.
func generationKey(municipality string) string {
	return "gen:" + municipality
}

func businessKey(municipality string, gen int64, id string) string {
	return fmt.Sprintf("business:%s:%d:%s", municipality, gen, id)
}

func inspectionsKey(municipality string, gen int64, id string, limit int) string {
	return fmt.Sprintf("inspections:%s:%d:%s:%d", municipality, gen, id, limit)
}

// generation returns 0 when no feed has been published through this cache.
func generation(ctx context.Context, c domain.Cache, municipality string) int64 {
	var gen int64
	if ok, err := c.Get(ctx, generationKey(municipality), &gen); !ok || err != nil {
		return 0
	}
	return gen
}

func (s *QueryService) GetBusiness(ctx context.Context, municipality, id string) (domain.Business, error) {
	key := businessKey(municipality, generation(ctx, s.cache, municipality), id)
	var b domain.Business
	if ok, _ := s.cache.Get(ctx, key, &b); ok {
		return b, nil
	}
	b, err := s.repo.GetBusiness(ctx, municipality, id)
	if err != nil {
		return domain.Business{}, err
	}
	_ = s.cache.Set(ctx, key, b, int(s.cacheTTL.Seconds()))
	return b, nil
}

func (s *QueryService) ListInspections(ctx context.Context, municipality, id string, limit int) (domain.InspectionsPage, error) {
	if limit <= 0 {
		limit = defaultInspectionsLimit
	}
	key := inspectionsKey(municipality, generation(ctx, s.cache, municipality), id, limit)
	var out domain.InspectionsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	page, err := s.repo.ListInspections(ctx, municipality, id, limit)
	if err != nil {
		return domain.InspectionsPage{}, err
	}

	// copy to avoid aliasing the repo's backing array
	cp := domain.InspectionsPage{Items: append([]domain.Inspection(nil), page.Items...)}
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}

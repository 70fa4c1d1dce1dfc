package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jusondac/factory-app/internal/apierror"
	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"
	"github.com/jusondac/factory-app/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ReportService projects unit batches across all three phases, grouped by
// preparation date. Built reports are cached in redis; the projection
// tolerates staleness up to the TTL.
type ReportService interface {
	Build(ctx context.Context, filter dto.ReportFilter) (*dto.ReportResponse, error)
}

type reportService struct {
	batches repository.UnitBatchRepository
	cache   *redis.Client
	ttl     time.Duration
}

// NewReportService builds the service. cache may be nil, in which case every
// report is computed fresh.
func NewReportService(batches repository.UnitBatchRepository, cache *redis.Client, ttl time.Duration) ReportService {
	return &reportService{batches: batches, cache: cache, ttl: ttl}
}

func reportCacheKey(filter dto.ReportFilter) string {
	return fmt.Sprintf("report:%s:%s", filter.StartDate, filter.EndDate)
}

func (s *reportService) Build(ctx context.Context, filter dto.ReportFilter) (*dto.ReportResponse, error) {
	key := reportCacheKey(filter)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached dto.ReportResponse
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	batches, err := s.batches.ListForReport(ctx, filter.StartDate, filter.EndDate)
	if err != nil {
		log.Error().Err(err).Msg("report query failed")
		return nil, apierror.Internal("could not build report")
	}

	resp := buildReport(filter, batches)

	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("report cache write failed")
			}
		}
	}
	return resp, nil
}

func buildReport(filter dto.ReportFilter, batches []model.UnitBatch) *dto.ReportResponse {
	resp := &dto.ReportResponse{
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
	}

	// Batches arrive ordered by prepare date descending; group adjacent rows
	// sharing a date.
	var current *dto.ReportGroup
	totalQuantity := 0
	totalWaste := 0

	for i := range batches {
		b := &batches[i]
		if b.Prepare == nil {
			continue
		}
		date := b.Prepare.PrepareDate.Format("2006-01-02")
		if current == nil || current.Date != date {
			resp.Groups = append(resp.Groups, dto.ReportGroup{Date: date})
			current = &resp.Groups[len(resp.Groups)-1]
		}
		current.Rows = append(current.Rows, reportRow(b))

		resp.TotalBatches++
		totalQuantity += b.Quantity
		if b.Package != nil {
			totalWaste += b.Package.WasteQuantity
		}
	}

	resp.TotalQuantity = totalQuantity
	resp.TotalWaste = totalWaste
	if totalQuantity > 0 {
		yield := decimal.NewFromInt(int64(totalQuantity - totalWaste)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(totalQuantity))).
			Round(2)
		resp.YieldPct = yield.String()
	}
	return resp
}

func reportRow(b *model.UnitBatch) dto.ReportRow {
	row := dto.ReportRow{
		UnitID:      b.UnitID,
		BatchCode:   b.BatchCode,
		BatchStatus: b.Status,
		Quantity:    b.Quantity,
	}
	if b.Product != nil {
		row.ProductName = b.Product.Name
	}
	if b.Prepare != nil {
		row.PrepareStatus = b.Prepare.Status
		row.PrepareDate = b.Prepare.PrepareDate.Format("2006-01-02")
	}
	if b.Produce != nil {
		row.ProduceStatus = b.Produce.Status
		if b.Produce.Machine != nil {
			row.ProduceMachine = b.Produce.Machine.Name
		}
	}
	if b.Package != nil {
		row.PackageStatus = b.Package.Status
		if b.Package.Machine != nil {
			row.PackageMachine = b.Package.Machine.Name
		}
		row.WasteQuantity = b.Package.WasteQuantity
		if b.Quantity > 0 && b.Package.WasteQuantity > 0 {
			pct := decimal.NewFromInt(int64(b.Package.WasteQuantity)).
				Mul(decimal.NewFromInt(100)).
				Div(decimal.NewFromInt(int64(b.Quantity))).
				Round(2)
			row.WastePct = pct.String()
		}
	}
	if b.ExpiryDate != nil {
		row.ExpiryDate = b.ExpiryDate.Format("2006-01-02")
	}
	return row
}

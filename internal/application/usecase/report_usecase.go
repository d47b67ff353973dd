package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
)

// ReportUseCase reportes de solo lectura sobre ventas y stock.
type ReportUseCase struct {
	reports repository.ReportRepository
}

// NewReportUseCase crea el caso de uso de reportes.
func NewReportUseCase(reports repository.ReportRepository) *ReportUseCase {
	return &ReportUseCase{reports: reports}
}

// Revenue ingreso (suma de final_amount) del período [from, to).
func (uc *ReportUseCase) Revenue(ctx context.Context, from, to time.Time) (*dto.RevenueResponse, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: el período es inválido (from >= to)", domain.ErrInvalidInput)
	}
	revenue, err := uc.reports.RevenueByPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &dto.RevenueResponse{
		From:    from.Format(time.RFC3339),
		To:      to.Format(time.RFC3339),
		Revenue: revenue,
	}, nil
}

// TopProducts productos más vendidos del período, por unidades.
func (uc *ReportUseCase) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]*dto.TopProductResponse, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: el período es inválido (from >= to)", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := uc.reports.TopSellingProducts(ctx, from, to, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.TopProductResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, &dto.TopProductResponse{
			ProductID:   r.ProductID,
			SKU:         r.SKU,
			Name:        r.Name,
			UnitsSold:   r.UnitsSold,
			GrossAmount: r.GrossAmount,
		})
	}
	return out, nil
}

// Dashboard resumen del panel principal.
func (uc *ReportUseCase) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	stats, err := uc.reports.GetDashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.DashboardResponse{
		TodayRevenue:     stats.TodayRevenue,
		MonthRevenue:     stats.MonthRevenue,
		TodaySales:       stats.TodaySales,
		TotalProducts:    stats.TotalProducts,
		LowStockProducts: stats.LowStockProducts,
	}, nil
}

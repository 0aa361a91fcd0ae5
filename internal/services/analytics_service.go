package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/k4sper1love/school-service/internal/models"
)

const analyticsSheet = "Analytics"

type analyticsService struct {
	base
}

func NewAnalyticsService(deps Dependencies) AnalyticsService {
	return &analyticsService{base: newBase(deps)}
}

func (s *analyticsService) Record(ctx context.Context, entry *models.APIRequestLog) error {
	if err := s.repo.RequestLog().Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// CountsByEndpoint orders by count descending. Ties follow store order.
func (s *analyticsService) CountsByEndpoint(ctx context.Context, filter models.AnalyticsFilter) ([]models.EndpointCount, error) {
	filter.Method = strings.ToUpper(strings.TrimSpace(filter.Method))
	s.log(ctx).Info("Fetching API analytics", "method", filter.Method, "filtered_by_user", filter.UserID != nil)

	counts, err := s.repo.RequestLog().CountsByEndpoint(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate request logs: %w", err)
	}
	return orEmpty(counts), nil
}

func (s *analyticsService) Export(ctx context.Context, filter models.AnalyticsFilter, w io.Writer) error {
	counts, err := s.CountsByEndpoint(ctx, filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", analyticsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(analyticsSheet, "A1", &[]interface{}{"Endpoint", "Request Count"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(analyticsSheet, "A1", "B1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, c := range counts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(analyticsSheet, cell, &[]interface{}{c.Endpoint, c.RequestCount}); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(analyticsSheet, "A", "A", 48); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/pkg/types"
)

type StatisticType string

const (
	StatisticTypeDailyTransactionCount StatisticType = "daily_transaction_count"
	// StatisticTypeDailySales is labelled by payment method.
	StatisticTypeDailySales StatisticType = "daily_sales"
	// StatisticTypeDailyFuelVolume is labelled by fuel type id, value in liters.
	StatisticTypeDailyFuelVolume StatisticType = "daily_fuel_volume"
	StatisticTypeTotalSales      StatisticType = "total_sales"
)

var filterFields = []string{"payment_method", "fuel_type_id", "employee_id"}

type SalesStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

// SalesStatisticRequest covers completed transactions created in [From, To).
// Zero bounds are open.
type SalesStatisticRequest struct {
	From      time.Time                 `json:"from"`
	To        time.Time                 `json:"to"`
	Filters   []*types.CommonFilter     `json:"filters"`
	DataItems []*SalesStatisticDataItem `json:"data_items"`
}

func (r *SalesStatisticRequest) Validate() error {
	if len(r.DataItems) == 0 {
		return fmt.Errorf("data_items is required")
	}
	for _, f := range r.Filters {
		if !lo.Contains(filterFields, f.Field) {
			return fmt.Errorf("unsupported filter field: %s", f.Field)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && !r.From.Before(r.To) {
		return fmt.Errorf("from must be before to")
	}
	return nil
}

type SalesStatisticResponseDataItem struct {
	Date  string          `json:"date,omitempty"`
	Label string          `json:"label,omitempty"`
	Count int64           `json:"count"`
	Value decimal.Decimal `json:"value"`
}

type SalesStatisticResponse struct {
	DataItems map[StatisticType][]SalesStatisticResponseDataItem `json:"data_items"`
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) base(ctx context.Context, request *SalesStatisticRequest) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("status = ?", types.TransactionStatusCompleted).
		Where(types.FiltersAnd(request.Filters))
	if !request.From.IsZero() {
		q = q.Where("created_at >= ?", request.From)
	}
	if !request.To.IsZero() {
		q = q.Where("created_at < ?", request.To)
	}
	return q
}

// DailySales sums completed sales per day and payment method, newest day first.
func (s *Service) DailySales(ctx context.Context, from, to time.Time) ([]SalesStatisticResponseDataItem, error) {
	return s.getDailySales(ctx, &SalesStatisticRequest{From: from, To: to})
}

func (s *Service) getDailyTransactionCount(ctx context.Context, request *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	err := s.base(ctx, request).
		Select("DATE(created_at) AS date, COUNT(*) AS count, COUNT(*) AS value").
		Group("DATE(created_at)").
		Order("date DESC").
		Scan(&results).Error
	return normalizeDates(results), err
}

func (s *Service) getDailySales(ctx context.Context, request *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	err := s.base(ctx, request).
		Select("DATE(created_at) AS date, payment_method AS label, COUNT(*) AS count, SUM(total_amount) AS value").
		Group("DATE(created_at), payment_method").
		Order("date DESC, label ASC").
		Scan(&results).Error
	return normalizeDates(results), err
}

func (s *Service) getDailyFuelVolume(ctx context.Context, request *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	err := s.base(ctx, request).
		Select("DATE(created_at) AS date, fuel_type_id AS label, COUNT(*) AS count, SUM(fuel_amount) AS value").
		Group("DATE(created_at), fuel_type_id").
		Order("date DESC, label ASC").
		Scan(&results).Error
	return normalizeDates(results), err
}

func (s *Service) getTotalSales(ctx context.Context, request *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	err := s.base(ctx, request).
		Select("payment_method AS label, COUNT(*) AS count, SUM(total_amount) AS value").
		Group("payment_method").
		Order("label ASC").
		Scan(&results).Error
	return results, err
}

// normalizeDates trims driver specific date renderings (postgres hands
// back a timestamp, sqlite a string) to YYYY-MM-DD.
func normalizeDates(items []SalesStatisticResponseDataItem) []SalesStatisticResponseDataItem {
	for i := range items {
		if len(items[i].Date) > len(time.DateOnly) {
			items[i].Date = items[i].Date[:len(time.DateOnly)]
		}
	}
	return items
}

func (s *Service) getSalesStatistic(ctx context.Context, request *SalesStatisticRequest, dataItem *SalesStatisticDataItem) ([]SalesStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyTransactionCount:
		return s.getDailyTransactionCount(ctx, request)
	case StatisticTypeDailySales:
		return s.getDailySales(ctx, request)
	case StatisticTypeDailyFuelVolume:
		return s.getDailyFuelVolume(ctx, request)
	case StatisticTypeTotalSales:
		return s.getTotalSales(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

func (s *Service) GetSalesStatistic(ctx context.Context, request *SalesStatisticRequest) (*SalesStatisticResponse, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []SalesStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *SalesStatisticDataItem) {
			defer wg.Done()
			res, err := s.getSalesStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []SalesStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]SalesStatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &SalesStatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)

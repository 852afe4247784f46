package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"salesbackend/cache"
	"salesbackend/models"
	"salesbackend/store"
	"salesbackend/utils"
)

// SalesService records sales against the inventory and builds the sales
// reports. Stock checks always go to the store, never to the cache.
type SalesService struct {
	store      *store.Store
	cache      cache.Cache
	metrics    *Metrics
	windowDays int
	now        func() time.Time
}

// NewSalesService builds the service. windowDays limits the summary to the
// last N days; 0 summarizes every sale.
func NewSalesService(s *store.Store, c cache.Cache, m *Metrics, windowDays int) *SalesService {
	return &SalesService{store: s, cache: c, metrics: m, windowDays: windowDays, now: time.Now}
}

// RecordSale prices every line from the current product documents, then
// commits all stock decrements together with the sale. Nothing is applied
// when any line fails.
func (s *SalesService) RecordSale(ctx context.Context, userID string, req models.SaleRequest) (*models.RecordedSale, error) {
	recorded, err := s.recordSale(ctx, userID, req)
	if err != nil {
		s.metrics.SalesRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}
	s.metrics.SalesRecorded.Inc()
	return recorded, nil
}

func (s *SalesService) recordSale(ctx context.Context, userID string, req models.SaleRequest) (*models.RecordedSale, error) {
	if len(req.Items) == 0 {
		return nil, newError(ErrValidation, "No items provided")
	}
	for _, line := range req.Items {
		if strings.TrimSpace(line.ProductID) == "" || line.QuantitySold <= 0 {
			return nil, newError(ErrValidation, "Invalid product or quantity")
		}
	}

	var (
		items       = make([]models.SaleItem, 0, len(req.Items))
		claimed     = map[string]int{}
		totalAmount = decimal.Zero
		totalProfit = decimal.Zero
	)
	for _, line := range req.Items {
		product, err := s.store.Products.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, newError(ErrNotFound, "Product %s not found", line.ProductID)
			}
			return nil, err
		}
		if product.UserID != userID {
			return nil, newError(ErrForbidden, "Unauthorized access to product")
		}
		if product.Quantity-claimed[product.ID] < line.QuantitySold {
			return nil, newError(ErrInsufficientStock, "Not enough stock for %s", itemName(product.ItemName))
		}
		claimed[product.ID] += line.QuantitySold

		amount := utils.LineAmount(product.SellingPrice, line.QuantitySold)
		profit := utils.LineProfit(product.BuyPrice, product.SellingPrice, line.QuantitySold)
		items = append(items, models.SaleItem{
			ProductID:    product.ID,
			ItemName:     product.ItemName,
			BuyPrice:     product.BuyPrice,
			SellingPrice: product.SellingPrice,
			QuantitySold: line.QuantitySold,
			Amount:       utils.ToFloat(amount),
			Profit:       utils.ToFloat(profit),
		})
		totalAmount = totalAmount.Add(amount)
		totalProfit = totalProfit.Add(profit)
	}

	now := s.now().UTC()
	sale := &models.Sale{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        now.Format(models.DateLayout),
		Items:       items,
		TotalAmount: utils.ToFloat(totalAmount),
		TotalProfit: utils.ToFloat(totalProfit),
		CreatedAt:   now,
	}
	if err := s.store.Sales.CommitSale(ctx, sale); err != nil {
		return nil, fromStore(err, "Product")
	}

	keys := []string{cache.ProductsKey(userID), cache.SalesKey(userID), cache.SalesSummaryKey(userID, s.summaryCutoff())}
	for productID := range claimed {
		keys = append(keys, cache.ProductKey(productID, userID))
	}
	invalidate(ctx, s.cache, keys...)

	log.Printf("Sale %s recorded for user %s: %d items, total %.2f", sale.ID, userID, len(items), sale.TotalAmount)
	return &models.RecordedSale{
		Message:     "Sale recorded successfully",
		SaleID:      sale.ID,
		TotalAmount: sale.TotalAmount,
		TotalProfit: sale.TotalProfit,
		Items:       items,
	}, nil
}

// ListSales returns every sale of the user, oldest first.
func (s *SalesService) ListSales(ctx context.Context, userID string) ([]models.Sale, error) {
	key := cache.SalesKey(userID)
	var cached []models.Sale
	if readCache(ctx, s.cache, key, &cached) && cached != nil {
		return cached, nil
	}

	sales := []models.Sale{}
	err := s.store.Sales.ForEachSale(ctx, userID, func(sale *models.Sale) error {
		sales = append(sales, *sale)
		return nil
	})
	if err != nil {
		return nil, err
	}

	writeCache(ctx, s.cache, key, sales)
	return sales, nil
}

type dayBucket struct {
	sales, profit decimal.Decimal
	items         int
}

// summaryCutoff is the first date inside the summary window, or "" when
// the window is unbounded.
func (s *SalesService) summaryCutoff() string {
	if s.windowDays <= 0 {
		return ""
	}
	return s.now().UTC().AddDate(0, 0, -s.windowDays).Format(models.DateLayout)
}

type productBucket struct {
	name     string
	quantity int
	profit   decimal.Decimal
}

// SummarizeSales folds the user's sales into per-day totals, ascending by
// date, and per-item-name totals, descending by quantity with ties kept in
// the order the names were first seen.
func (s *SalesService) SummarizeSales(ctx context.Context, userID string) (*models.SalesSummary, error) {
	cutoff := s.summaryCutoff()
	key := cache.SalesSummaryKey(userID, cutoff)
	var cached models.SalesSummary
	if readCache(ctx, s.cache, key, &cached) && cached.DailySales != nil && cached.TopProducts != nil {
		return &cached, nil
	}

	days := map[string]*dayBucket{}
	var dates []string
	products := map[string]*productBucket{}
	var names []string

	err := s.store.Sales.ForEachSale(ctx, userID, func(sale *models.Sale) error {
		if cutoff != "" && sale.Date < cutoff {
			return nil
		}

		day, ok := days[sale.Date]
		if !ok {
			day = &dayBucket{}
			days[sale.Date] = day
			dates = append(dates, sale.Date)
		}
		day.sales = day.sales.Add(decimal.NewFromFloat(sale.TotalAmount))
		day.profit = day.profit.Add(decimal.NewFromFloat(sale.TotalProfit))

		for _, item := range sale.Items {
			day.items += item.QuantitySold

			name := itemName(item.ItemName)
			p, ok := products[name]
			if !ok {
				p = &productBucket{name: name}
				products[name] = p
				names = append(names, name)
			}
			p.quantity += item.QuantitySold
			p.profit = p.profit.Add(decimal.NewFromFloat(item.Profit))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary := &models.SalesSummary{
		DailySales:  make([]models.DailySales, 0, len(dates)),
		TopProducts: make([]models.ProductSales, 0, len(names)),
	}

	sort.Strings(dates)
	for _, date := range dates {
		d := days[date]
		summary.DailySales = append(summary.DailySales, models.DailySales{
			Date:       date,
			Sales:      utils.ToFloat(d.sales),
			Profit:     utils.ToFloat(d.profit),
			TotalItems: d.items,
		})
	}

	for _, name := range names {
		p := products[name]
		summary.TopProducts = append(summary.TopProducts, models.ProductSales{
			Name:     p.name,
			Quantity: p.quantity,
			Profit:   utils.ToFloat(p.profit),
		})
	}
	sort.SliceStable(summary.TopProducts, func(i, j int) bool {
		return summary.TopProducts[i].Quantity > summary.TopProducts[j].Quantity
	})

	writeCache(ctx, s.cache, key, summary)
	return summary, nil
}

func itemName(name string) string {
	if name == "" {
		return models.UnknownItemName
	}
	return name
}

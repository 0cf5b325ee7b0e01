package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/internal/orders"
	"github.com/angelmondragon/agency-ledger/pkg/db"
	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/angelmondragon/agency-ledger/pkg/logger"
	"github.com/angelmondragon/agency-ledger/pkg/types"
)

// Service rebuilds order history and rollups from persisted orders.
type Service interface {
	ListAllOrders(ctx context.Context) (*OrdersReport, error)
	ListRetailerOrders(ctx context.Context, retailerID uuid.UUID) (*OrdersReport, error)
	ListOrdersFiltered(ctx context.Context, filter OrderFilter) (*OrdersReport, error)
	ShiftSummary(ctx context.Context, date time.Time, shift enums.Shift) (*ShiftSummary, error)
	ProductSales(ctx context.Context, date *time.Time, shift *enums.Shift) (*ProductSalesReport, error)
	ExportShiftSummary(ctx context.Context, date time.Time, shift enums.Shift) (*Export, error)
}

type service struct {
	repo         Repository
	logg         *logger.Logger
	supplierName string
}

// NewService wires the reports service. supplierName titles exported sheets.
func NewService(repo Repository, logg *logger.Logger, supplierName string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if strings.TrimSpace(supplierName) == "" {
		supplierName = "Supplier"
	}
	return &service{repo: repo, logg: logg, supplierName: supplierName}, nil
}

func (s *service) ListAllOrders(ctx context.Context) (*OrdersReport, error) {
	return s.ListOrdersFiltered(ctx, OrderFilter{})
}

func (s *service) ListRetailerOrders(ctx context.Context, retailerID uuid.UUID) (*OrdersReport, error) {
	if _, err := s.repo.FindRetailer(ctx, retailerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found").
				WithDetails(map[string]any{"retailer_id": retailerID.String()})
		}
		return nil, db.TranslateError(err, "load retailer")
	}
	return s.ListOrdersFiltered(ctx, OrderFilter{RetailerID: &retailerID})
}

func (s *service) ListOrdersFiltered(ctx context.Context, filter OrderFilter) (*OrdersReport, error) {
	normalized, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListOrders(ctx, normalized)
	if err != nil {
		return nil, db.TranslateError(err, "list orders")
	}

	report := &OrdersReport{
		Orders:     make([]orders.OrderDTO, 0, len(rows)),
		OrderCount: len(rows),
		GrandTotal: decimal.Zero,
		GrandCost:  decimal.Zero,
	}
	for _, row := range rows {
		report.Orders = append(report.Orders, orders.FromModel(row))
		report.GrandTotal = report.GrandTotal.Add(row.TotalAmount)
		report.GrandCost = report.GrandCost.Add(row.CostAmount)
	}
	return report, nil
}

func (s *service) ShiftSummary(ctx context.Context, date time.Time, shift enums.Shift) (*ShiftSummary, error) {
	if date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	if !shift.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shift must be AM or PM")
	}
	day := types.TruncateDate(date)
	rows, err := s.repo.ListOrders(ctx, OrderFilter{Date: &day, Shift: &shift})
	if err != nil {
		return nil, db.TranslateError(err, "load shift orders")
	}
	return buildShiftSummary(day, shift, rows), nil
}

func (s *service) ProductSales(ctx context.Context, date *time.Time, shift *enums.Shift) (*ProductSalesReport, error) {
	filter, err := normalizeFilter(OrderFilter{Date: date, Shift: shift})
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, db.TranslateError(err, "load product sales")
	}
	return buildProductSales(rows), nil
}

func normalizeFilter(filter OrderFilter) (OrderFilter, error) {
	out := filter
	if filter.Shift != nil && !filter.Shift.IsValid() {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "shift must be AM or PM")
	}
	if filter.Date != nil {
		d := types.TruncateDate(*filter.Date)
		out.Date = &d
	}
	if filter.From != nil {
		d := types.TruncateDate(*filter.From)
		out.From = &d
	}
	if filter.To != nil {
		d := types.TruncateDate(*filter.To)
		out.To = &d
	}
	if out.From != nil && out.To != nil && out.From.After(*out.To) {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to").
			WithDetails(map[string]any{
				"from": out.From.Format(types.DateLayout),
				"to":   out.To.Format(types.DateLayout),
			})
	}
	return out, nil
}

func buildShiftSummary(day time.Time, shift enums.Shift, rows []models.Order) *ShiftSummary {
	summary := &ShiftSummary{
		Date:       types.NewDate(day),
		Shift:      shift,
		Products:   []ProductColumn{},
		Shops:      []ShopRow{},
		GrandTotal: decimal.Zero,
		TotalDue:   decimal.Zero,
		TotalCost:  decimal.Zero,
	}

	names := map[uuid.UUID]string{}
	for _, order := range rows {
		for _, line := range order.Lines {
			if _, ok := names[line.ProductID]; ok {
				continue
			}
			name := line.ProductID.String()
			if line.Product != nil {
				name = line.Product.Name
			}
			names[line.ProductID] = name
		}
	}
	for id, name := range names {
		summary.Products = append(summary.Products, ProductColumn{ID: id, Name: name})
	}
	sort.Slice(summary.Products, func(i, j int) bool {
		if summary.Products[i].Name != summary.Products[j].Name {
			return summary.Products[i].Name < summary.Products[j].Name
		}
		return summary.Products[i].ID.String() < summary.Products[j].ID.String()
	})
	column := make(map[uuid.UUID]int, len(summary.Products))
	for i, p := range summary.Products {
		column[p.ID] = i
	}
	summary.ProductTotals = make([]int, len(summary.Products))

	// one order per retailer for a given date and shift
	for _, order := range rows {
		shop := ShopRow{
			RetailerID:  order.RetailerID,
			Quantities:  make([]int, len(summary.Products)),
			TotalAmount: order.TotalAmount,
			CostAmount:  order.CostAmount,
			DueAmount:   decimal.Zero,
		}
		if order.Retailer != nil {
			shop.ShopName = order.Retailer.ShopName
			shop.DueAmount = order.Retailer.DueAmount
		}
		for _, line := range order.Lines {
			idx := column[line.ProductID]
			shop.Quantities[idx] += line.Quantity
			summary.ProductTotals[idx] += line.Quantity
		}
		summary.Shops = append(summary.Shops, shop)
		summary.GrandTotal = summary.GrandTotal.Add(shop.TotalAmount)
		summary.TotalDue = summary.TotalDue.Add(shop.DueAmount)
		summary.TotalCost = summary.TotalCost.Add(shop.CostAmount)
	}
	sort.SliceStable(summary.Shops, func(i, j int) bool {
		if summary.Shops[i].ShopName != summary.Shops[j].ShopName {
			return summary.Shops[i].ShopName < summary.Shops[j].ShopName
		}
		return summary.Shops[i].RetailerID.String() < summary.Shops[j].RetailerID.String()
	})
	summary.NetProfit = summary.GrandTotal.Sub(summary.TotalCost)
	return summary
}

type salesKey struct {
	date      time.Time
	isAM      bool
	productID uuid.UUID
}

func buildProductSales(rows []models.Order) *ProductSalesReport {
	report := &ProductSalesReport{
		Rows:        []ProductSalesRow{},
		TotalAmount: decimal.Zero,
		TotalCost:   decimal.Zero,
	}
	index := map[salesKey]int{}
	for _, order := range rows {
		day := types.TruncateDate(order.OrderDate)
		for _, line := range order.Lines {
			key := salesKey{date: day, isAM: order.OrderShift, productID: line.ProductID}
			pos, ok := index[key]
			if !ok {
				name := line.ProductID.String()
				if line.Product != nil {
					name = line.Product.Name
				}
				pos = len(report.Rows)
				index[key] = pos
				report.Rows = append(report.Rows, ProductSalesRow{
					Date:        types.NewDate(day),
					Shift:       enums.ShiftFromBool(order.OrderShift),
					ProductID:   line.ProductID,
					ProductName: name,
					Amount:      decimal.Zero,
					Cost:        decimal.Zero,
				})
			}
			row := &report.Rows[pos]
			row.Quantity += line.Quantity
			row.Amount = row.Amount.Add(line.Subtotal)
			row.Cost = row.Cost.Add(line.CostSubtotal)
			report.TotalAmount = report.TotalAmount.Add(line.Subtotal)
			report.TotalCost = report.TotalCost.Add(line.CostSubtotal)
		}
	}
	sort.SliceStable(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		if a.Shift != b.Shift {
			return a.Shift == enums.ShiftAM
		}
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.ProductID.String() < b.ProductID.String()
	})
	return report
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/pkg/db"
	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
)

// Service manages the product catalog and answers price lookups.
type Service interface {
	Lookup
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) (*ProductDTO, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, status *enums.ProductStatus) ([]ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validateMoney("price", input.Price); err != nil {
		return nil, err
	}
	if err := validateMoney("cost", input.Cost); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:     name,
		Price:    input.Price.Round(2),
		Cost:     input.Cost.Round(2),
		Status:   enums.ProductStatusAvailable,
		ImageURL: input.ImageURL,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "uq_products_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product name already exists").
				WithDetails(map[string]any{"name": name})
		}
		return nil, db.TranslateError(err, "create product")
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Price != nil {
		if err := validateMoney("price", *input.Price); err != nil {
			return nil, err
		}
		updates["price"] = input.Price.Round(2)
	}
	if input.Cost != nil {
		if err := validateMoney("cost", *input.Cost); err != nil {
			return nil, err
		}
		updates["cost"] = input.Cost.Round(2)
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if len(updates) == 0 {
		return s.FindProduct(ctx, id)
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "uq_products_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product name already exists")
		}
		return nil, translateProductErr(err, id)
	}
	return s.FindProduct(ctx, id)
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) (*ProductDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	if err := s.repo.Update(ctx, id, map[string]any{"status": status}); err != nil {
		return nil, translateProductErr(err, id)
	}
	return s.FindProduct(ctx, id)
}

// DeleteProduct removes a product no order has used. Products with order
// history are retired through SetStatus instead; the order_lines foreign key
// catches a line inserted between the count and the delete.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	refs, err := s.repo.CountOrderLines(ctx, id)
	if err != nil {
		return db.TranslateError(err, "count order lines")
	}
	if refs > 0 {
		return productInUse(id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return productInUse(id)
		}
		return translateProductErr(err, id)
	}
	return nil
}

func productInUse(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by orders; mark it unavailable instead").
		WithDetails(map[string]any{"product_id": id.String()})
}

func (s *service) FindProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateProductErr(err, id)
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, status *enums.ProductStatus) ([]ProductDTO, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	products, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, db.TranslateError(err, "list products")
	}
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, FromModel(p))
	}
	return out, nil
}

// GetProduct returns the current price and cost of a single product.
func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*PriceSnapshot, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateProductErr(err, id)
	}
	snap := snapshotFromModel(*product)
	return &snap, nil
}

// ResolveProducts loads every id in one query. Any unknown id fails the
// whole call with NOT_FOUND listing the missing ids.
func (s *service) ResolveProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]PriceSnapshot, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	products, err := s.repo.FindByIDs(ctx, unique)
	if err != nil {
		return nil, db.TranslateError(err, "resolve products")
	}
	out := make(map[uuid.UUID]PriceSnapshot, len(products))
	for _, p := range products {
		out[p.ID] = snapshotFromModel(p)
	}

	var missing []string
	for _, id := range unique {
		if _, ok := out[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"missing_product_ids": missing})
	}
	return out, nil
}

func validateMoney(field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" must be non-negative")
	}
	if !models.MoneyFits(value.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" is too large").
			WithDetails(map[string]any{"max": models.MaxMoney.StringFixed(2)})
	}
	return nil
}

func translateProductErr(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": id.String()})
	}
	return db.TranslateError(err, "load product")
}

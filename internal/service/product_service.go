package service

import (
	"context"

	"github.com/jusondac/factory-app/internal/apierror"
	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"
	"github.com/jusondac/factory-app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ProductService interface {
	Create(ctx context.Context, user *model.User, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, user *model.User, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, user *model.User, id uuid.UUID) error
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) Create(ctx context.Context, user *model.User, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if !user.CanCreateProducts() {
		return nil, apierror.Unauthorized("only managers may manage products")
	}

	product := &model.Product{
		Name:        req.Name,
		CreatedByID: user.ID,
		PeriodYear:  req.PeriodYear,
		PeriodMonth: req.PeriodMonth,
		PeriodWeek:  req.PeriodWeek,
		PeriodDay:   req.PeriodDay,
	}
	for _, name := range req.Ingredients {
		product.Ingredients = append(product.Ingredients, model.Ingredient{Name: name})
	}

	for attempt := 0; attempt < idGenAttempts; attempt++ {
		code, err := NewProductCode()
		if err != nil {
			return nil, apierror.Internal("could not generate product code")
		}
		product.ProductCode = code
		err = s.repo.Create(ctx, product)
		if err == nil {
			return productToResponse(product), nil
		}
		if isDuplicate(err) && attempt < idGenAttempts-1 {
			continue
		}
		log.Error().Err(err).Str("name", req.Name).Msg("product creation failed")
		return nil, apierror.Internal("could not create product")
	}
	return nil, apierror.Internal("could not create product")
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("product not found")
	}
	return productToResponse(product), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("product list failed")
		return nil, apierror.Internal("could not list products")
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, *productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Update edits the catalog entry. Replacing ingredients never touches
// in-flight preparations, which hold their own snapshot.
func (s *productService) Update(ctx context.Context, user *model.User, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if !user.CanCreateProducts() {
		return nil, apierror.Unauthorized("only managers may manage products")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("product not found")
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.PeriodYear != nil {
		product.PeriodYear = *req.PeriodYear
	}
	if req.PeriodMonth != nil {
		product.PeriodMonth = *req.PeriodMonth
	}
	if req.PeriodWeek != nil {
		product.PeriodWeek = *req.PeriodWeek
	}
	if req.PeriodDay != nil {
		product.PeriodDay = *req.PeriodDay
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if req.Ingredients != nil {
			ingredients := make([]model.Ingredient, 0, len(*req.Ingredients))
			for _, name := range *req.Ingredients {
				ingredients = append(ingredients, model.Ingredient{ProductID: product.ID, Name: name})
			}
			if err := s.repo.ReplaceIngredientsTx(tx, product.ID, ingredients); err != nil {
				return err
			}
			product.Ingredients = ingredients
		}
		return s.repo.SaveTx(tx, product)
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("product_id", id.String()).Msg("product update failed")
		return nil, apierror.Internal("could not update product")
	}
	return productToResponse(product), nil
}

func (s *productService) Delete(ctx context.Context, user *model.User, id uuid.UUID) error {
	if !user.CanCreateProducts() {
		return apierror.Unauthorized("only managers may manage products")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("product not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error().Err(err).Str("product_id", id.String()).Msg("product delete failed")
		return apierror.Internal("could not delete product")
	}
	return nil
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:          p.ID.String(),
		ProductCode: p.ProductCode,
		Name:        p.Name,
		Ingredients: make([]string, 0, len(p.Ingredients)),
		PeriodYear:  p.PeriodYear,
		PeriodMonth: p.PeriodMonth,
		PeriodWeek:  p.PeriodWeek,
		PeriodDay:   p.PeriodDay,
	}
	for _, ing := range p.Ingredients {
		resp.Ingredients = append(resp.Ingredients, ing.Name)
	}
	if p.CreatedBy != nil {
		resp.CreatedBy = p.CreatedBy.Name
	}
	return resp
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// phonePattern prefijo internacional opcional y 8 a 15 dígitos.
var phonePattern = regexp.MustCompile(`^(\+\d{1,3}[- ]?)?\d{8,15}$`)

// SupplierUseCase registro de proveedores: alta, consulta, reemplazo y listado.
type SupplierUseCase struct {
	repo     repository.SupplierRepository
	validate *validator.Validate
	now      func() time.Time
}

// NewSupplierUseCase construye el caso de uso.
func NewSupplierUseCase(repo repository.SupplierRepository) *SupplierUseCase {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &SupplierUseCase{repo: repo, validate: v, now: time.Now}
}

// Create registra un proveedor. ICE repetido devuelve ErrDuplicate.
func (uc *SupplierUseCase) Create(ctx context.Context, in dto.SupplierRequest) (*dto.SupplierResponse, error) {
	in = normalizeSupplier(in)
	if err := uc.check(in); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByTaxID(ctx, in.TaxID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: ICE %s ya registrado", domain.ErrDuplicate, in.TaxID)
	}
	now := uc.now()
	s := &entity.Supplier{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	applySupplier(s, in)
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return toSupplierResponse(s), nil
}

// GetByID obtiene un proveedor; ErrNotFound si no existe.
func (uc *SupplierUseCase) GetByID(ctx context.Context, id string) (*dto.SupplierResponse, error) {
	s, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return toSupplierResponse(s), nil
}

// Update reemplaza todos los datos del proveedor.
func (uc *SupplierUseCase) Update(ctx context.Context, id string, in dto.SupplierRequest) (*dto.SupplierResponse, error) {
	in = normalizeSupplier(in)
	if err := uc.check(in); err != nil {
		return nil, err
	}
	s, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if other, err := uc.repo.GetByTaxID(ctx, in.TaxID); err != nil {
		return nil, err
	} else if other != nil && other.ID != id {
		return nil, fmt.Errorf("%w: ICE %s ya registrado", domain.ErrDuplicate, in.TaxID)
	}
	applySupplier(s, in)
	s.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return toSupplierResponse(s), nil
}

// List proveedores paginados por razón social.
func (uc *SupplierUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.SupplierListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SupplierResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *toSupplierResponse(s))
	}
	return &dto.SupplierListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// Exists indica si el proveedor está registrado (verificación de órdenes entregadas).
func (uc *SupplierUseCase) Exists(ctx context.Context, id string) (bool, error) {
	s, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return s != nil, nil
}

// check traduce los errores del validador a ErrInvalidInput con los campos que fallaron.
func (uc *SupplierUseCase) check(in dto.SupplierRequest) error {
	err := uc.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(fields, ", "))
}

func normalizeSupplier(in dto.SupplierRequest) dto.SupplierRequest {
	in.Company = strings.TrimSpace(in.Company)
	in.Contact = strings.TrimSpace(in.Contact)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.TaxID = strings.ToUpper(strings.TrimSpace(in.TaxID))
	return in
}

func applySupplier(s *entity.Supplier, in dto.SupplierRequest) {
	s.Company = in.Company
	s.Contact = in.Contact
	s.Email = in.Email
	s.Phone = in.Phone
	s.Address = in.Address
	s.City = in.City
	s.TaxID = in.TaxID
}

func toSupplierResponse(s *entity.Supplier) *dto.SupplierResponse {
	return &dto.SupplierResponse{
		ID:        s.ID,
		Company:   s.Company,
		Contact:   s.Contact,
		Email:     s.Email,
		Phone:     s.Phone,
		Address:   s.Address,
		City:      s.City,
		TaxID:     s.TaxID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

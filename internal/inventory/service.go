package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
)

type Repository interface {
	CreateItem(ctx context.Context, it *Item) error
	// GetItem returns an apperr NotFound error when id does not exist.
	GetItem(ctx context.Context, id string) (*Item, error)
	// GetItems returns the existing items among ids; missing ids are omitted.
	GetItems(ctx context.Context, ids []string) ([]*Item, error)
	UpdateItem(ctx context.Context, it *Item) error
	ListItems(ctx context.Context, filter ListFilter) ([]*Item, error)
}

// ProductTypeResolver maps a product type as entered to the factor id it
// belongs to, or fails with an apperr error when no factor matches.
type ProductTypeResolver interface {
	ResolveProductType(ctx context.Context, raw string) (string, error)
}

type Service struct {
	repo         Repository
	productTypes ProductTypeResolver
	now          func() time.Time
}

type Option func(*Service)

// WithProductTypes makes Intake store canonical factor ids.
func WithProductTypes(r ProductTypeResolver) Option {
	return func(s *Service) { s.productTypes = r }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type IntakeParams struct {
	ID            string
	Customer      string
	ProductTypeID string
	Amounts       Amounts
}

// Intake registers a newly received item. It starts open: not graded, not completed.
func (s *Service) Intake(ctx context.Context, params IntakeParams) (*Item, error) {
	customer := strings.TrimSpace(params.Customer)
	if customer == "" {
		return nil, apperr.InvalidArgument("customer is required")
	}

	productType := strings.TrimSpace(params.ProductTypeID)
	if productType == "" {
		return nil, apperr.InvalidArgument("product type is required")
	}

	if s.productTypes != nil {
		resolved, err := s.productTypes.ResolveProductType(ctx, productType)
		if err != nil {
			return nil, err
		}

		productType = resolved
	}

	id := params.ID
	if id == "" {
		id = uuid.NewString()
	}

	it := &Item{
		ID:            id,
		Customer:      customer,
		ProductTypeID: productType,
		Amounts:       params.Amounts,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.CreateItem(ctx, it); err != nil {
		return nil, err
	}

	return it, nil
}

// Grade records the grade and disposition of an item that is not yet completed.
func (s *Service) Grade(ctx context.Context, id string, grade Grade, disposition Disposition) (*Item, error) {
	g, ok := ParseGrade(string(grade))
	if !ok {
		return nil, apperr.InvalidArgument("unknown grade %q", grade)
	}

	switch disposition {
	case DispositionReused, DispositionResold, DispositionScrapped:
	default:
		return nil, apperr.InvalidArgument("unknown disposition %q", disposition)
	}

	if !Consistent(g, disposition) {
		return nil, apperr.FailedPrecondition("grade %s is not allowed for disposition %s", g, disposition)
	}

	it, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if it.Completed {
		return nil, apperr.FailedPrecondition("item %s is already completed", id)
	}

	it.Grade = g
	it.Disposition = disposition
	it.UpdatedAt = new(s.now().UTC())

	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	return it, nil
}

// Complete closes processing of a graded item and makes it available for invoicing.
func (s *Service) Complete(ctx context.Context, id string) (*Item, error) {
	it, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if it.Completed {
		return nil, apperr.FailedPrecondition("item %s is already completed", id)
	}

	if it.Disposition == DispositionNone {
		return nil, apperr.FailedPrecondition("item %s has no disposition", id)
	}

	now := s.now().UTC()
	it.Completed = true
	it.MarkedForInvoice = true
	it.CompletedAt = new(now)
	it.UpdatedAt = new(now)

	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	return it, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Item, error) {
	return s.repo.ListItems(ctx, filter)
}

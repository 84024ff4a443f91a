package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/data"
	"github.com/fixpoint/repair-api/internal/domain/model"
	apperrors "github.com/fixpoint/repair-api/internal/errors"
)

// EmployeeService serves roster reads for the admin portal. Availability
// changes flow through the request lifecycle, never through this service.
type EmployeeService struct {
	repo core.EmployeeRepository
}

func NewEmployeeService(repo core.EmployeeRepository) *EmployeeService {
	if repo == nil {
		panic("employee service requires a repository")
	}
	return &EmployeeService{repo: repo}
}

// GetByID retrieves a single employee.
func (s *EmployeeService) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	if id == "" {
		return nil, apperrors.Validation("employee id is required")
	}
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrEmployeeNotFound) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, "Employee not found")
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return employee, nil
}

// List returns a page of the employee roster.
func (s *EmployeeService) List(ctx context.Context, limit, offset int) ([]*model.Employee, error) {
	employees, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

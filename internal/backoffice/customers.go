package backoffice

import (
	"context"
	"sort"
	"strings"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
)

// CustomerInput describes a new customer.
type CustomerInput struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

// CustomerPatch updates the operator-maintained customer fields.
type CustomerPatch struct {
	Notes         *string
	IsBlacklisted *bool
}

// ListCustomers returns customers newest first. A non-empty query keeps only
// customers whose first name, last name or phone contains it, case-insensitively.
func (service *Service) ListCustomers(ctx context.Context, query string) ([]ledger.Customer, error) {
	customers, err := service.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(customers, func(left int, right int) bool {
		return customers[left].CreatedAt.After(customers[right].CreatedAt)
	})
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return customers, nil
	}
	matched := make([]ledger.Customer, 0, len(customers))
	for _, customer := range customers {
		if strings.Contains(strings.ToLower(customer.FirstName), needle) ||
			strings.Contains(strings.ToLower(customer.LastName), needle) ||
			strings.Contains(strings.ToLower(customer.Phone), needle) {
			matched = append(matched, customer)
		}
	}
	return matched, nil
}

func (service *Service) GetCustomer(ctx context.Context, customerID string) (ledger.Customer, error) {
	customers, err := service.store.ListCustomers(ctx)
	if err != nil {
		return ledger.Customer{}, err
	}
	for _, customer := range customers {
		if customer.ID == customerID {
			return customer, nil
		}
	}
	return ledger.Customer{}, notFound(subjectCustomer, customerID)
}

func (service *Service) CreateCustomer(ctx context.Context, input CustomerInput) (ledger.Customer, error) {
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return ledger.Customer{}, invalid(subjectCustomer, "firstName and lastName are required")
	}
	customers, err := service.store.ListCustomers(ctx)
	if err != nil {
		return ledger.Customer{}, err
	}
	now := service.nowFn()
	customer := ledger.Customer{
		ID:        service.newID(),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     strings.TrimSpace(input.Phone),
		Email:     strings.TrimSpace(input.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := service.store.SaveCustomers(ctx, append(customers, customer)); err != nil {
		return ledger.Customer{}, err
	}
	return customer, nil
}

func (service *Service) UpdateCustomer(ctx context.Context, customerID string, patch CustomerPatch) (ledger.Customer, error) {
	customers, err := service.store.ListCustomers(ctx)
	if err != nil {
		return ledger.Customer{}, err
	}
	for index := range customers {
		if customers[index].ID != customerID {
			continue
		}
		if patch.Notes != nil {
			customers[index].Notes = *patch.Notes
		}
		if patch.IsBlacklisted != nil {
			customers[index].IsBlacklisted = *patch.IsBlacklisted
		}
		customers[index].UpdatedAt = service.nowFn()
		if err := service.store.SaveCustomers(ctx, customers); err != nil {
			return ledger.Customer{}, err
		}
		return customers[index], nil
	}
	return ledger.Customer{}, notFound(subjectCustomer, customerID)
}

func (service *Service) DeleteCustomer(ctx context.Context, customerID string) error {
	customers, err := service.store.ListCustomers(ctx)
	if err != nil {
		return err
	}
	remaining, removed := removeByID(customers, customerID, func(customer ledger.Customer) string { return customer.ID })
	if !removed {
		return notFound(subjectCustomer, customerID)
	}
	return service.store.SaveCustomers(ctx, remaining)
}

package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, outletID string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	ListActiveByOutlet(ctx context.Context, outletID string) ([]Employee, error)
}

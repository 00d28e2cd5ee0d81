package employee

import "errors"

var (
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrEmployeeInactive     = errors.New("employee is not active")
	ErrNoEmployeeForAccount = errors.New("account is not linked to an employee")
)

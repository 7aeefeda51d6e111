package canteen

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var numericCode = regexp.MustCompile(`^[0-9]+$`)

type NewEmployeeInput struct {
	Name         string
	Email        string
	EmployeeID   string
	Password     string
	Role         domain.EmployeeRole
	Department   string
	ContractorID *int64
}

// AddEmployee creates an active employee. The numeric part of the login
// code is preferred as the internal id when it is free, so badge numbers
// and internal ids line up; otherwise max+1 is used.
func (s *Service) AddEmployee(ctx context.Context, in NewEmployeeInput) (domain.Employee, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.EmployeeID) == "" {
		return domain.Employee{}, fmt.Errorf("name and employee id are required")
	}

	if err := s.checkAffiliation(in.Role, in.ContractorID); err != nil {
		return domain.Employee{}, err
	}
	if in.Role == domain.RoleContractual {
		in.Department = ""
	}

	existing := s.State.Employees()
	for _, e := range existing {
		if e.EmployeeID == in.EmployeeID {
			return domain.Employee{}, fmt.Errorf("employee id %s already in use", in.EmployeeID)
		}
	}

	var newID int64
	for _, e := range existing {
		if e.ID > newID {
			newID = e.ID
		}
	}
	newID++

	code := strings.TrimSpace(in.EmployeeID)
	if numericCode.MatchString(code) {
		if fromCode, err := strconv.ParseInt(code, 10, 64); err == nil {
			used := false
			for _, e := range existing {
				if e.ID == fromCode {
					used = true
					break
				}
			}
			if !used {
				newID = fromCode
			}
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("hash password: %w", err)
	}

	employee := domain.Employee{
		ID:           newID,
		Name:         in.Name,
		Email:        in.Email,
		EmployeeID:   in.EmployeeID,
		PasswordHash: string(hash),
		Role:         in.Role,
		Department:   in.Department,
		ContractorID: in.ContractorID,
		Status:       domain.StatusActive,
	}
	s.State.AppendEmployee(employee)
	s.syncEmployees(ctx)
	return employee, nil
}

// checkAffiliation keeps role and affiliation consistent: contractual
// employees link to an existing contractor, every other role carries a
// department and no contractor link.
func (s *Service) checkAffiliation(role domain.EmployeeRole, contractorID *int64) error {
	if role == domain.RoleContractual {
		if contractorID == nil {
			return fmt.Errorf("contractual employees must be linked to a contractor")
		}
		if _, ok := s.State.ContractorByID(*contractorID); !ok {
			return fmt.Errorf("contractor %d not found", *contractorID)
		}
		return nil
	}
	if contractorID != nil {
		return fmt.Errorf("only contractual employees can be linked to a contractor")
	}
	return nil
}

// AddCanteenManager creates an employee with the canteen manager role.
func (s *Service) AddCanteenManager(ctx context.Context, in NewEmployeeInput) (domain.Employee, error) {
	in.Role = domain.RoleCanteenManager
	return s.AddEmployee(ctx, in)
}

type UpdateEmployeeInput struct {
	ID           int64
	Name         string
	Email        string
	EmployeeID   string
	Role         domain.EmployeeRole
	Department   string
	ContractorID *int64
}

func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) Result {
	if _, ok := s.State.EmployeeByID(in.ID); !ok {
		return failure("Employee not found.")
	}
	if err := s.checkAffiliation(in.Role, in.ContractorID); err != nil {
		return failure("Employee not updated: " + err.Error() + ".")
	}
	if in.Role == domain.RoleContractual {
		in.Department = ""
	}
	s.State.UpdateEmployees(func(e *domain.Employee) {
		if e.ID != in.ID {
			return
		}
		e.Name = in.Name
		e.Email = in.Email
		e.EmployeeID = in.EmployeeID
		e.Role = in.Role
		e.Department = in.Department
		e.ContractorID = in.ContractorID
	})
	s.syncEmployees(ctx)
	return success("Employee updated.")
}

// ToggleEmployeeStatus flips active <-> deactivated.
func (s *Service) ToggleEmployeeStatus(ctx context.Context, employeeID int64) Result {
	if _, ok := s.State.EmployeeByID(employeeID); !ok {
		return failure("Employee not found.")
	}
	s.State.UpdateEmployees(func(e *domain.Employee) {
		if e.ID != employeeID {
			return
		}
		if e.Status == domain.StatusActive {
			e.Status = domain.StatusDeactivated
		} else {
			e.Status = domain.StatusActive
		}
	})
	s.syncEmployees(ctx)
	return success("Employee status updated.")
}

// DeleteEmployee removes the employee together with the coupons they own
// and the notifications addressed to them. Unassigned contractor pool
// coupons are untouched.
func (s *Service) DeleteEmployee(ctx context.Context, employeeID int64) Result {
	if _, ok := s.State.EmployeeByID(employeeID); !ok {
		return failure("Employee not found.")
	}

	s.State.FilterEmployees(func(e domain.Employee) bool { return e.ID != employeeID })
	s.State.FilterCoupons(func(c domain.Coupon) bool {
		return c.EmployeeID == nil || *c.EmployeeID != employeeID
	})
	s.State.FilterNotifications(func(n domain.AppNotification) bool {
		return n.EmployeeID != employeeID
	})

	s.syncEmployees(ctx)
	s.syncCoupons(ctx)
	s.syncNotifications(ctx)
	return success("Employee deleted.")
}

// ChangeEmployeePassword rehashes and stores a new password.
func (s *Service) ChangeEmployeePassword(ctx context.Context, employeeID int64, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.State.UpdateEmployees(func(e *domain.Employee) {
		if e.ID == employeeID {
			e.PasswordHash = string(hash)
		}
	})
	s.syncEmployees(ctx)
	return nil
}

type NewContractorInput struct {
	BusinessName string
	ContractorID string
	Password     string
}

func (s *Service) AddContractor(ctx context.Context, in NewContractorInput) (domain.Contractor, error) {
	if strings.TrimSpace(in.BusinessName) == "" {
		return domain.Contractor{}, fmt.Errorf("business name is required")
	}
	for _, c := range s.State.Contractors() {
		if c.BusinessName == in.BusinessName {
			return domain.Contractor{}, fmt.Errorf("business name %s already in use", in.BusinessName)
		}
	}

	var newID int64
	for _, c := range s.State.Contractors() {
		if c.ID > newID {
			newID = c.ID
		}
	}
	newID++

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Contractor{}, fmt.Errorf("hash password: %w", err)
	}

	contractor := domain.Contractor{
		ID:           newID,
		BusinessName: in.BusinessName,
		ContractorID: in.ContractorID,
		PasswordHash: string(hash),
	}
	s.State.AppendContractor(contractor)
	s.syncContractors(ctx)
	return contractor, nil
}

// UpdateContractor renames a contractor. Employees link by contractor id,
// so a rename needs no cascade.
func (s *Service) UpdateContractor(ctx context.Context, contractorID int64, businessName, loginID string) Result {
	if _, ok := s.State.ContractorByID(contractorID); !ok {
		return failure("Contractor not found.")
	}
	s.State.UpdateContractors(func(c *domain.Contractor) {
		if c.ID != contractorID {
			return
		}
		c.BusinessName = businessName
		c.ContractorID = loginID
	})
	s.syncContractors(ctx)
	return success("Contractor updated.")
}

// ChangeContractorPassword rehashes and stores a new password.
func (s *Service) ChangeContractorPassword(ctx context.Context, contractorID int64, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.State.UpdateContractors(func(c *domain.Contractor) {
		if c.ID == contractorID {
			c.PasswordHash = string(hash)
		}
	})
	s.syncContractors(ctx)
	return nil
}

// DeleteContractor removes the contractor, unlinks (but keeps) its
// employees, and deletes every coupon tied to it, pool or assigned. The
// coupon cascade is irreversible.
func (s *Service) DeleteContractor(ctx context.Context, contractorID int64) Result {
	if _, ok := s.State.ContractorByID(contractorID); !ok {
		return failure("Contractor not found.")
	}

	s.State.UpdateEmployees(func(e *domain.Employee) {
		if e.ContractorID != nil && *e.ContractorID == contractorID {
			e.ContractorID = nil
		}
	})
	s.State.FilterCoupons(func(c domain.Coupon) bool {
		return c.ContractorID == nil || *c.ContractorID != contractorID
	})
	s.State.FilterContractors(func(c domain.Contractor) bool { return c.ID != contractorID })

	s.syncEmployees(ctx)
	s.syncCoupons(ctx)
	s.syncContractors(ctx)
	return success("Contractor deleted.")
}

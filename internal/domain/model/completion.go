package model

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// WorkCompletion is the record created when an employee finishes a repair
// request. It is written once, inside the same transaction as the transition
// to completed, and is immutable afterwards.
type WorkCompletion struct {
	ID                 string    `json:"id"                   db:"id"`
	RequestID          string    `json:"request_id"           db:"request_id"`
	Title              string    `json:"title"                db:"title"`
	Details            string    `json:"details"              db:"details"`
	TotalPaymentAmount float64   `json:"total_payment_amount" db:"total_payment_amount"`
	EmployeeIncome     float64   `json:"employee_income"      db:"employee_income"`
	CompanyRevenue     float64   `json:"company_revenue"      db:"company_revenue"`
	PaymentMethod      string    `json:"payment_method"       db:"payment_method"`
	PaymentStatus      string    `json:"payment_status"       db:"payment_status"`
	CompletedAt        time.Time `json:"completed_at"         db:"completed_at"`
}

// CreateWorkCompletionRequest represents the completion form an employee submits.
type CreateWorkCompletionRequest struct {
	Title              string  `json:"title"`
	Details            string  `json:"details"`
	TotalPaymentAmount float64 `json:"total_payment_amount"`
	PaymentMethod      string  `json:"payment_method"`
	PaymentStatus      string  `json:"payment_status"`
}

// Normalize normalizes the CreateWorkCompletionRequest fields.
func (r *CreateWorkCompletionRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Details = strings.TrimSpace(r.Details)
	r.PaymentMethod = strings.TrimSpace(strings.ToLower(r.PaymentMethod))
	r.PaymentStatus = strings.TrimSpace(strings.ToLower(r.PaymentStatus))
	if r.PaymentStatus == "" {
		r.PaymentStatus = "paid"
	}
}

// Validate validates the CreateWorkCompletionRequest fields.
func (r *CreateWorkCompletionRequest) Validate() error {
	if r.Title == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(r.Title) > 255 {
		return errors.New("title cannot exceed 255 characters")
	}
	if r.Details == "" {
		return errors.New("details is required")
	}
	if r.TotalPaymentAmount < 0 {
		return errors.New("total_payment_amount cannot be negative")
	}
	if math.IsNaN(r.TotalPaymentAmount) || math.IsInf(r.TotalPaymentAmount, 0) {
		return errors.New("total_payment_amount must be a finite number")
	}
	if r.PaymentMethod == "" {
		return errors.New("payment_method is required")
	}
	return nil
}

// SplitPayment splits a total payment amount into the 25% employee income and
// 75% company revenue shares. Rounding is half-even at cent precision and is
// applied once, to the employee share; the company share is the remainder so
// the two always sum exactly to the total.
func SplitPayment(totalAmount float64) (employeeIncome, companyRevenue float64) {
	totalCents := int64(math.Round(totalAmount * 100))
	employeeCents := quarterCentsHalfEven(totalCents)
	return float64(employeeCents) / 100, float64(totalCents-employeeCents) / 100
}

// quarterCentsHalfEven computes totalCents/4 rounded half to even. The only
// possible fractional parts are .25, .5 and .75 of a cent.
func quarterCentsHalfEven(totalCents int64) int64 {
	quarter := totalCents / 4
	switch totalCents % 4 {
	case 1:
		return quarter
	case 2:
		if quarter%2 == 0 {
			return quarter
		}
		return quarter + 1
	case 3:
		return quarter + 1
	default:
		return quarter
	}
}

package report

import (
	"fmt"

	"github.com/zombor/expense-review/internal/receipt"
)

// ExpenseType is the category a line item is filed under
type ExpenseType string

const (
	ExpenseHotel      ExpenseType = "Hotel/Lodging"
	ExpenseAirfare    ExpenseType = "Airfare"
	ExpenseCarRental  ExpenseType = "Car Rental"
	ExpenseMeals      ExpenseType = "Meals"
	ExpenseOthers     ExpenseType = "Others"
	ExpenseRideShare  ExpenseType = "Ride Share"
	defaultExpenseType            = ExpenseHotel
)

// ExpenseTypes lists every expense type in display order
var ExpenseTypes = []ExpenseType{
	ExpenseHotel,
	ExpenseAirfare,
	ExpenseCarRental,
	ExpenseMeals,
	ExpenseOthers,
	ExpenseRideShare,
}

// Valid reports whether t is one of ExpenseTypes
func (t ExpenseType) Valid() bool {
	for _, known := range ExpenseTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseExpenseType returns the expense type named s
func ParseExpenseType(s string) (ExpenseType, error) {
	t := ExpenseType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown expense type: %q", s)
	}
	return t, nil
}

// LineItem is a committed draft. Dates are stored as the text shown to the
// user at commit time.
type LineItem struct {
	ExpenseName     string         `json:"expense_name"`
	ExpenseType     ExpenseType    `json:"expense_type"`
	CostCenter      string         `json:"cost_center"`
	MerchantName    string         `json:"merchant_name"`
	LodgingLocation string         `json:"lodging_location"`
	CheckIn         string         `json:"check_in"`
	CheckOut        string         `json:"check_out"`
	ZipCode         string         `json:"zip_code"`
	EstimatedAmount receipt.Amount `json:"estimated_amount"`
	RawContent      string         `json:"raw_content"`
}

// LineItemView is a LineItem without the receipt content, for display
type LineItemView struct {
	ExpenseName     string         `json:"expense_name"`
	ExpenseType     ExpenseType    `json:"expense_type"`
	CostCenter      string         `json:"cost_center"`
	MerchantName    string         `json:"merchant_name"`
	LodgingLocation string         `json:"lodging_location"`
	CheckIn         string         `json:"check_in"`
	CheckOut        string         `json:"check_out"`
	ZipCode         string         `json:"zip_code"`
	EstimatedAmount receipt.Amount `json:"estimated_amount"`
}

// View strips the receipt content
func (li LineItem) View() LineItemView {
	return LineItemView{
		ExpenseName:     li.ExpenseName,
		ExpenseType:     li.ExpenseType,
		CostCenter:      li.CostCenter,
		MerchantName:    li.MerchantName,
		LodgingLocation: li.LodgingLocation,
		CheckIn:         li.CheckIn,
		CheckOut:        li.CheckOut,
		ZipCode:         li.ZipCode,
		EstimatedAmount: li.EstimatedAmount,
	}
}

package report

import (
	"time"

	"github.com/zombor/expense-review/internal/receipt"
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// State is the lifecycle position of the draft
type State int

const (
	// StateEmpty is a freshly reset draft
	StateEmpty State = iota
	// StatePopulated is a draft holding extracted or edited values
	StatePopulated
)

func (s State) String() string {
	if s == StatePopulated {
		return "populated"
	}
	return "empty"
}

// Draft is the in-progress line item. RawContent is never rendered.
type Draft struct {
	ExpenseName     string                 `json:"expense_name"`
	ExpenseType     ExpenseType            `json:"expense_type"`
	CostCenter      string                 `json:"cost_center"`
	MerchantName    string                 `json:"merchant_name"`
	LodgingLocation string                 `json:"lodging_location"`
	CheckIn         receipt.DateResolution `json:"check_in"`
	CheckOut        receipt.DateResolution `json:"check_out"`
	ZipCode         string                 `json:"zip_code"`
	EstimatedAmount receipt.Amount         `json:"estimated_amount"`
	RawContent      string                 `json:"-"`
}

// Edits are user-entered values. Nil fields leave the draft value alone;
// dates and amount arrive as the text the user typed.
type Edits struct {
	ExpenseName     *string      `json:"expense_name,omitempty"`
	ExpenseType     *ExpenseType `json:"expense_type,omitempty"`
	CostCenter      *string      `json:"cost_center,omitempty"`
	MerchantName    *string      `json:"merchant_name,omitempty"`
	LodgingLocation *string      `json:"lodging_location,omitempty"`
	CheckIn         *string      `json:"check_in,omitempty"`
	CheckOut        *string      `json:"check_out,omitempty"`
	ZipCode         *string      `json:"zip_code,omitempty"`
	EstimatedAmount *string      `json:"estimated_amount,omitempty"`
}

// Stager owns the single draft slot and commits it into a Store
type Stager struct {
	draft      Draft
	state      State
	store      *Store
	timeSource TimeSource
}

// NewStager creates a Stager committing into store. A nil timeSource uses the wall clock.
func NewStager(store *Store, timeSource TimeSource) *Stager {
	if timeSource == nil {
		timeSource = defaultTimeSource{}
	}
	s := &Stager{
		store:      store,
		timeSource: timeSource,
	}
	s.reset()
	return s
}

// Draft returns a copy of the current draft
func (s *Stager) Draft() Draft {
	return s.draft
}

// State returns the draft state
func (s *Stager) State() State {
	return s.state
}

// Populate merges an extracted record into the draft, overwriting any
// pending extracted values. Dates are only taken when the record resolved
// them; user-only fields are left alone.
func (s *Stager) Populate(record receipt.Record) {
	s.draft.MerchantName = record.MerchantName
	s.draft.EstimatedAmount = record.EstimatedAmount
	s.draft.ZipCode = record.ZipCode
	s.draft.LodgingLocation = record.LodgingLocation
	if record.CheckIn.IsResolved() {
		s.draft.CheckIn = record.CheckIn
	}
	if record.CheckOut.IsResolved() {
		s.draft.CheckOut = record.CheckOut
	}
	s.draft.RawContent = record.RawContent
	s.state = StatePopulated
}

// Edit applies user edits without committing
func (s *Stager) Edit(edits Edits) {
	s.apply(edits)
	s.state = StatePopulated
}

// Commit applies the final user values, appends the resulting line item to
// the store and resets the draft. Incomplete drafts are committed as they are.
func (s *Stager) Commit(edits Edits) LineItem {
	s.apply(edits)

	d := s.draft
	item := LineItem{
		ExpenseName:     d.ExpenseName,
		ExpenseType:     d.ExpenseType,
		CostCenter:      d.CostCenter,
		MerchantName:    d.MerchantName,
		LodgingLocation: d.LodgingLocation,
		CheckIn:         d.CheckIn.String(),
		CheckOut:        d.CheckOut.String(),
		ZipCode:         d.ZipCode,
		EstimatedAmount: d.EstimatedAmount,
		RawContent:      d.RawContent,
	}
	s.store.Append(item)
	s.reset()
	return item
}

func (s *Stager) apply(e Edits) {
	if e.ExpenseName != nil {
		s.draft.ExpenseName = *e.ExpenseName
	}
	if e.ExpenseType != nil {
		s.draft.ExpenseType = *e.ExpenseType
	}
	if e.CostCenter != nil {
		s.draft.CostCenter = *e.CostCenter
	}
	if e.MerchantName != nil {
		s.draft.MerchantName = *e.MerchantName
	}
	if e.LodgingLocation != nil {
		s.draft.LodgingLocation = *e.LodgingLocation
	}
	if e.CheckIn != nil {
		s.draft.CheckIn = receipt.ParseDate(*e.CheckIn)
	}
	if e.CheckOut != nil {
		s.draft.CheckOut = receipt.ParseDate(*e.CheckOut)
	}
	if e.ZipCode != nil {
		s.draft.ZipCode = *e.ZipCode
	}
	if e.EstimatedAmount != nil {
		s.draft.EstimatedAmount = receipt.RawAmount(*e.EstimatedAmount)
	}
}

func (s *Stager) reset() {
	today := receipt.Resolved(s.timeSource.Now())
	s.draft = Draft{
		ExpenseType:     defaultExpenseType,
		CheckIn:         today,
		CheckOut:        today,
		EstimatedAmount: receipt.ZeroAmount(),
	}
	s.state = StateEmpty
}

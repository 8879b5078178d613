package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

const (
	Checking   AccountType = "checking"
	Savings    AccountType = "savings"
	Credit     AccountType = "credit"
	Cash       AccountType = "cash"
	Investment AccountType = "investment"
)

const (
	Weekly  BudgetPeriod = "weekly"
	Monthly BudgetPeriod = "monthly"
	Yearly  BudgetPeriod = "yearly"
)

const (
	DefaultCurrency   = "USD"
	MaxDescriptionLen = 200
	MaxTags           = 10
	MaxTagLen         = 32
)

type (
	// Direction is income (adds to a balance) or expense (subtracts from it).
	Direction string

	AccountType string

	BudgetPeriod string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Account struct {
		ID             int64
		Owner          string
		Name           string
		Type           AccountType
		InitialBalance Money
		Balance        Money
		Currency       string
		Active         bool
		Version        int64
		CreatedAt      time.Time
	}

	Category struct {
		ID        int64
		Owner     string
		Name      string
		Type      Direction
		Color     string
		Icon      string
		IsDefault bool
		CreatedAt time.Time
	}

	Transaction struct {
		ID          int64
		Owner       string
		AccountID   int64
		CategoryID  int64
		Amount      Money // always positive; Direction carries the sign
		Direction   Direction
		Description string
		Date        Date
		Tags        []string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// NewTransaction is the input of a create operation.
	NewTransaction struct {
		AccountID   int64
		CategoryID  int64
		Amount      Money
		Direction   Direction
		Description string
		Date        Date
		Tags        []string
	}

	// TransactionPatch holds the fields an update may change. Nil means keep.
	TransactionPatch struct {
		Amount      *Money
		Direction   *Direction
		CategoryID  *int64
		Description *string
		Date        *Date
		Tags        *[]string
	}

	Budget struct {
		ID         int64
		Owner      string
		CategoryID int64
		Amount     Money
		Period     BudgetPeriod
		Active     bool
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
)

func (d Direction) Valid() bool { return d == Income || d == Expense }

func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", Invalid("type", ErrInvalidDirection)
	}
	return d, nil
}

func (t AccountType) Valid() bool {
	switch t {
	case Checking, Savings, Credit, Cash, Investment:
		return true
	}
	return false
}

func (p BudgetPeriod) Valid() bool {
	switch p {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDay
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, Invalid("date", fmt.Errorf("malformed date %q", s))
	}
	return Date{Time: t}, nil
}

// MonthBounds returns the first and last day of a calendar month.
func MonthBounds(year, month int) (Date, Date) {
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return Invalid("date", fmt.Errorf("malformed date"))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores dates as YYYY-MM-DD text; both SQLite and PostgreSQL accept it.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		*d = Date{}
		return nil
	}
	return fmt.Errorf("scan date: unsupported type %T", src)
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	*d = Date{Time: t}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NormalizeTags trims, lowercases and de-duplicates tags, keeping input order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func validateTags(tags []string) error {
	if len(tags) > MaxTags {
		return &ValidationError{Field: "tags", Reason: fmt.Sprintf("at most %d tags", MaxTags)}
	}
	for _, t := range tags {
		if len(t) > MaxTagLen || strings.Contains(t, ",") {
			return &ValidationError{Field: "tags", Reason: fmt.Sprintf("invalid tag %q", t)}
		}
	}
	return nil
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return Invalid("description", ErrEmptyDescription)
	}
	if len(desc) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Reason: "description too long (max 200 characters)"}
	}
	return nil
}

func (t NewTransaction) Validate() error {
	if t.AccountID <= 0 {
		return &ValidationError{Field: "account_id", Reason: "required"}
	}
	if t.CategoryID <= 0 {
		return &ValidationError{Field: "category_id", Reason: "required"}
	}
	if err := t.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if !t.Direction.Valid() {
		return Invalid("type", ErrInvalidDirection)
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	return validateTags(t.Tags)
}

// Validate checks a fully merged transaction before it is written.
func (t Transaction) Validate() error {
	return NewTransaction{
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		Amount:      t.Amount,
		Direction:   t.Direction,
		Description: t.Description,
		Date:        t.Date,
		Tags:        t.Tags,
	}.Validate()
}

// Apply merges the patch into a copy of t.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Direction != nil {
		t.Direction = *p.Direction
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Tags != nil {
		t.Tags = NormalizeTags(*p.Tags)
	}
	return t
}

func (p TransactionPatch) IsEmpty() bool {
	return p.Amount == nil && p.Direction == nil && p.CategoryID == nil &&
		p.Description == nil && p.Date == nil && p.Tags == nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Owner) == "" {
		return &ValidationError{Field: "owner", Reason: "required"}
	}
	if strings.TrimSpace(a.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if !a.Type.Valid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("invalid account type %q", a.Type)}
	}
	if len(a.Currency) != 3 {
		return &ValidationError{Field: "currency", Reason: "must be a 3-letter ISO code"}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Owner) == "" {
		return &ValidationError{Field: "owner", Reason: "required"}
	}
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if len(c.Name) > 100 {
		return &ValidationError{Field: "name", Reason: "name too long (max 100 characters)"}
	}
	if !c.Type.Valid() {
		return Invalid("type", ErrInvalidDirection)
	}
	return nil
}

func (b Budget) Validate() error {
	if b.CategoryID <= 0 {
		return &ValidationError{Field: "category_id", Reason: "required"}
	}
	if err := b.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if !b.Period.Valid() {
		return &ValidationError{Field: "period", Reason: fmt.Sprintf("invalid period %q", b.Period)}
	}
	return nil
}

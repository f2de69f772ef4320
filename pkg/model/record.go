// pkg/model/record.go
package model

import (
	"fmt"
	"time"
)

// DateLayout is the canonical date format used everywhere after cleaning.
const DateLayout = "2006-01-02"

// Field identifies one of the ten columns of a customer record.
type Field string

const (
	FieldCustomerID    Field = "customer_id"
	FieldFirstName     Field = "first_name"
	FieldLastName      Field = "last_name"
	FieldEmail         Field = "email"
	FieldPhone         Field = "phone"
	FieldDateOfBirth   Field = "date_of_birth"
	FieldAddress       Field = "address"
	FieldIncome        Field = "income"
	FieldAccountStatus Field = "account_status"
	FieldCreatedDate   Field = "created_date"
)

// FieldOrder returns the declared column order of a customer record.
// Every per-field sequence in the pipeline (statuses, findings, masked
// values) is aligned to this order.
func FieldOrder() []Field {
	return []Field{
		FieldCustomerID,
		FieldFirstName,
		FieldLastName,
		FieldEmail,
		FieldPhone,
		FieldDateOfBirth,
		FieldAddress,
		FieldIncome,
		FieldAccountStatus,
		FieldCreatedDate,
	}
}

// FieldCount is the fixed number of columns in the schema.
const FieldCount = 10

// AccountStatus is the closed set of account states.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
)

// ValidAccountStatus reports whether s is a member of the enum.
func ValidAccountStatus(s string) bool {
	switch AccountStatus(s) {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// RawRecord is a single uncleaned input row: field name to the raw string
// value as it arrived from the source. Values may be empty, wrongly typed,
// or shifted into the wrong column.
type RawRecord map[Field]string

// CustomerRecord is the canonical in-memory representation of one cleaned
// customer record. It is immutable once the Cleaner has finished with it;
// the Validator, PiiDetector and Masker only read it.
type CustomerRecord struct {
	CustomerID    int64
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	DateOfBirth   time.Time
	Address       string
	Income        float64
	AccountStatus AccountStatus
	CreatedDate   time.Time
}

// Value returns the record's value for the named field.
func (r CustomerRecord) Value(f Field) any {
	switch f {
	case FieldCustomerID:
		return r.CustomerID
	case FieldFirstName:
		return r.FirstName
	case FieldLastName:
		return r.LastName
	case FieldEmail:
		return r.Email
	case FieldPhone:
		return r.Phone
	case FieldDateOfBirth:
		return r.DateOfBirth
	case FieldAddress:
		return r.Address
	case FieldIncome:
		return r.Income
	case FieldAccountStatus:
		return r.AccountStatus
	case FieldCreatedDate:
		return r.CreatedDate
	}
	return nil
}

// Values returns all field values in declared column order.
func (r CustomerRecord) Values() []any {
	values := make([]any, 0, FieldCount)
	for _, f := range FieldOrder() {
		values = append(values, r.Value(f))
	}
	return values
}

// ToRaw converts the record back to its raw string form, using the
// canonical rendering for each type. Feeding the result back through the
// Cleaner must be a no-op.
func (r CustomerRecord) ToRaw() RawRecord {
	return RawRecord{
		FieldCustomerID:    fmt.Sprintf("%d", r.CustomerID),
		FieldFirstName:     r.FirstName,
		FieldLastName:      r.LastName,
		FieldEmail:         r.Email,
		FieldPhone:         r.Phone,
		FieldDateOfBirth:   r.DateOfBirth.Format(DateLayout),
		FieldAddress:       r.Address,
		FieldIncome:        trimFloat(r.Income),
		FieldAccountStatus: string(r.AccountStatus),
		FieldCreatedDate:   r.CreatedDate.Format(DateLayout),
	}
}

// trimFloat renders a float without trailing zero noise ("0" not "0.000000").
func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

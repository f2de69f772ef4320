// pkg/masker/masker.go
package masker

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/David-Botos/pii-guard/pkg/model"
	"github.com/David-Botos/pii-guard/pkg/policy"
)

// MaskMarker is the fixed partial-redaction marker.
const MaskMarker = "***"

// RedactedAddress replaces an address wholesale; partial reveal of an
// address is still a locator.
const RedactedAddress = "[MASKED ADDRESS]"

// Masker produces the privacy-preserving transformation of a cleaned
// record. Mask is a pure function: deterministic, no dependency on
// validation verdicts or the risk profile, and it never mutates its
// input. Field count and order always match the source record.
type Masker struct {
	policy *policy.Policy
}

// NewMasker creates a Masker. The policy identifies placeholder values,
// which pass through untouched: masking a placeholder would make it look
// like real data.
func NewMasker(p *policy.Policy) (*Masker, error) {
	if p == nil {
		return nil, errors.New("policy cannot be nil")
	}
	return &Masker{policy: p}, nil
}

// Mask transforms every high-sensitivity field with its partial-reveal
// rule; customer_id, income, account_status and created_date pass through
// unchanged.
func (m *Masker) Mask(rec model.CustomerRecord) model.MaskedRecord {
	return model.MaskedRecord{
		CustomerID:    rec.CustomerID,
		FirstName:     m.maskName(model.FieldFirstName, rec.FirstName),
		LastName:      m.maskName(model.FieldLastName, rec.LastName),
		Email:         m.maskEmail(rec.Email),
		Phone:         m.maskPhone(rec.Phone),
		DateOfBirth:   m.maskDOB(rec.DateOfBirth),
		Address:       m.maskAddress(rec.Address),
		Income:        rec.Income,
		AccountStatus: rec.AccountStatus,
		CreatedDate:   rec.CreatedDate,
	}
}

// MaskBatch masks a slice of records, preserving order.
func (m *Masker) MaskBatch(recs []model.CustomerRecord) []model.MaskedRecord {
	masked := make([]model.MaskedRecord, 0, len(recs))
	for _, rec := range recs {
		masked = append(masked, m.Mask(rec))
	}
	return masked
}

// maskName keeps the first character: "John" -> "J***". Multi-part names
// mask each part. The reveal is rune-sized so a multibyte initial stays
// valid UTF-8.
func (m *Masker) maskName(f model.Field, name string) string {
	if name == "" || m.policy.IsPlaceholder(f, name) {
		return name
	}
	parts := strings.Fields(name)
	for i, part := range parts {
		_, size := utf8.DecodeRuneInString(part)
		parts[i] = part[:size] + MaskMarker
	}
	return strings.Join(parts, " ")
}

// maskEmail keeps the first character of the local part and the domain:
// "j.doe@example.com" -> "j***@example.com".
func (m *Masker) maskEmail(email string) string {
	if email == "" || m.policy.IsPlaceholder(model.FieldEmail, email) {
		return email
	}
	at := strings.Index(email, "@")
	if at < 1 {
		// No local part to reveal; mask the whole thing.
		return MaskMarker
	}
	_, size := utf8.DecodeRuneInString(email)
	return email[:size] + MaskMarker + email[at:]
}

// maskPhone keeps the last four digits: "555-123-4567" -> "***-***-4567".
func (m *Masker) maskPhone(phone string) string {
	if phone == "" || m.policy.IsPlaceholder(model.FieldPhone, phone) {
		return phone
	}
	parts := strings.Split(phone, "-")
	if len(parts) != 3 {
		// Not in canonical grouping; redact entirely rather than guess.
		return MaskMarker + "-" + MaskMarker + "-" + MaskMarker
	}
	return MaskMarker + "-" + MaskMarker + "-" + parts[2]
}

// maskAddress replaces the entire value with a fixed token.
func (m *Masker) maskAddress(address string) string {
	if address == "" || m.policy.IsPlaceholder(model.FieldAddress, address) {
		return address
	}
	return RedactedAddress
}

// maskDOB keeps the year: 1985-03-15 -> "1985-**-**". The sentinel date
// passes through in canonical form so it stays recognizable as absent.
func (m *Masker) maskDOB(dob time.Time) string {
	if dob.Equal(policy.SentinelDOB) {
		return dob.Format(model.DateLayout)
	}
	return dob.Format("2006") + "-**-**"
}

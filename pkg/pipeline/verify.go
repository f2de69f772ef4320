// pkg/pipeline/verify.go
package pipeline

import (
	"fmt"

	"github.com/David-Botos/pii-guard/pkg/model"
)

// verifyMasked checks the masked batch against the cleaned batch:
// same row count, and every row keeps the full field cardinality in
// canonical order with customer_id and the non-PII fields intact.
func (p *Pipeline) verifyMasked(result *Result) error {
	cleanedCount := result.Clean.CleanedCount()
	if len(result.Masked) != cleanedCount {
		return fmt.Errorf("row count mismatch: cleaned %d, masked %d", cleanedCount, len(result.Masked))
	}

	for i, masked := range result.Masked {
		rec := result.Clean.Cleaned[i].Record

		values := masked.Values()
		if len(values) != model.FieldCount {
			return fmt.Errorf("row %d: masked record has %d fields, want %d", i, len(values), model.FieldCount)
		}
		if masked.CustomerID != rec.CustomerID {
			return fmt.Errorf("row %d: customer_id changed during masking: %d -> %d", i, rec.CustomerID, masked.CustomerID)
		}
		if !masked.CreatedDate.Equal(rec.CreatedDate) {
			return fmt.Errorf("row %d: created_date changed during masking", i)
		}
		if masked.Income != rec.Income {
			return fmt.Errorf("row %d: income changed during masking", i)
		}
		if masked.AccountStatus != rec.AccountStatus {
			return fmt.Errorf("row %d: account_status changed during masking", i)
		}
	}
	return nil
}

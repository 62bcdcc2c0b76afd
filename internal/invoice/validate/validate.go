// Package validate checks stage-one input against the field length
// constraints and the encoded-size ceilings of the component custom_id.
package validate

import (
	"fmt"
	"time"

	"invoicebot/internal/busday"
	"invoicebot/internal/invoice/models"
	"invoicebot/internal/token"
)

// Per-field maximum lengths, in runes.
const (
	MaxNumberLen   = 20
	MaxCustomerLen = 50
	MaxSubjectLen  = 100
)

// Encoded-size ceilings. MaxCustomIDSize is the platform's documented
// limit for modal custom_ids; sizeReject keeps a safety margin under
// it and sizeWarn nudges the user before they hit the margin. The
// separate 100-character ceiling on the button custom_id is enforced
// by the transport at embed time, independently of these.
const (
	MaxCustomIDSize = 512
	sizeReject      = 500
	sizeWarn        = 400
)

// Result reports the outcome of stage-one validation.
type Result struct {
	Valid   bool
	Warning bool
	Size    int
	Message string
}

// StageOne validates field lengths, the date format, and the encoded
// token size. The message names the offending field so the user can
// correct it.
func StageOne(d models.StageOne) Result {
	if _, err := time.Parse(busday.ISO, d.Date); err != nil {
		return Result{Message: "Invoice date must be in YYYY-MM-DD form, e.g. 2025-07-16."}
	}
	if len([]rune(d.Number)) > MaxNumberLen {
		return Result{Message: fmt.Sprintf("Invoice number must be at most %d characters.", MaxNumberLen)}
	}
	if len([]rune(d.Customer)) > MaxCustomerLen {
		return Result{Message: fmt.Sprintf("Customer name must be at most %d characters.", MaxCustomerLen)}
	}
	if len([]rune(d.Subject)) > MaxSubjectLen {
		return Result{Message: fmt.Sprintf("Subject must be at most %d characters.", MaxSubjectLen)}
	}
	return encodedSize(d)
}

// encodedSize applies the soft ceiling on the encoded token.
func encodedSize(d models.StageOne) Result {
	size := token.EncodedSize(d)
	switch {
	case size > sizeReject:
		return Result{
			Size:    size,
			Message: "Input is too long. Please shorten the customer name or subject.",
		}
	case size > sizeWarn:
		return Result{
			Valid:   true,
			Warning: true,
			Size:    size,
			Message: "Input is on the long side. Consider keeping it brief.",
		}
	default:
		return Result{Valid: true, Size: size}
	}
}

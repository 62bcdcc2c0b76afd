// Package token implements the stage-one codec: the four first-stage
// fields travel through the chat platform's component custom_id as an
// opaque, URL-safe token, so no server-side session is needed between
// the two submissions.
package token

import (
	"encoding/base64"
	"strings"

	"invoicebot/internal/invoice/models"
)

// Prefix tags tokens so they are distinguishable from other custom_id
// namespaces handled by the bot.
const Prefix = "step2_"

// delimiter joins the four fields inside the payload. It is stripped
// from field values before encoding, so it can never appear inside one.
const delimiter = "|"

const fieldCount = 4

// Encode packs the sanitized stage-one fields into a prefixed,
// URL-safe token. Deterministic and pure; length checks are the
// caller's responsibility.
func Encode(d models.StageOne) string {
	parts := []string{
		sanitize(d.Date),
		sanitize(d.Number),
		sanitize(d.Customer),
		sanitize(d.Subject),
	}
	payload := base64.RawURLEncoding.EncodeToString([]byte(strings.Join(parts, delimiter)))
	return Prefix + payload
}

// Decode reverses Encode. It tolerates arbitrary input: a missing
// prefix, malformed encoding, or a wrong field count all yield
// (zero, false). It never returns a partial record and never panics.
func Decode(tok string) (models.StageOne, bool) {
	payload, found := strings.CutPrefix(tok, Prefix)
	if !found {
		return models.StageOne{}, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return models.StageOne{}, false
	}

	parts := strings.Split(string(raw), delimiter)
	if len(parts) != fieldCount {
		return models.StageOne{}, false
	}

	return models.StageOne{
		Date:     parts[0],
		Number:   parts[1],
		Customer: parts[2],
		Subject:  parts[3],
	}, true
}

// EncodedSize returns the byte length of the encoded token, used by
// validation against the custom_id size ceilings.
func EncodedSize(d models.StageOne) int {
	return len(Encode(d))
}

// sanitize removes the delimiter from a field value. Lossy on purpose:
// the round-trip guarantee holds for the sanitized value.
func sanitize(v string) string {
	return strings.ReplaceAll(v, delimiter, "")
}

package delta

import (
	"fmt"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
)

// APIError is a classified exchange failure. Code carries the raw error code
// from the exchange body when one was present.
type APIError struct {
	Kind       domain.ErrorKind
	Code       string
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("delta: %s (code=%s status=%d): %s", e.Kind, e.Code, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("delta: %s (status=%d): %s", e.Kind, e.HTTPStatus, e.Message)
}

// ErrorKind implements domain.Classified, so domain.KindOf sees through
// wrapped errors to the taxonomy.
func (e *APIError) ErrorKind() domain.ErrorKind { return e.Kind }

// codeKind maps the exchange's error codes onto the taxonomy. Codes observed
// from the exchange's error bodies; anything unlisted is Unknown.
func codeKind(code string) domain.ErrorKind {
	switch code {
	case "expired_signature", "signature_expired", "invalid_timestamp":
		return domain.KindExpiredSignature
	case "insufficient_margin", "insufficient_wallet_balance":
		return domain.KindInsufficientMargin
	case "invalid_api_key", "unauthorized", "ip_not_whitelisted_for_api_key", "account_not_activated":
		return domain.KindUnauthorized
	case "not_found", "product_not_found", "invalid_product_id":
		return domain.KindNotFound
	default:
		return domain.KindUnknown
	}
}

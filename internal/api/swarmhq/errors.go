package swarmhq

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
)

// errorProbe is the superset of failure payload shapes the service emits.
// The detail field is kept raw so the discriminator runs exactly once.
type errorProbe struct {
	Detail  json.RawMessage `json:"detail"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

// normalizeError maps a failed exchange onto the one normalized error
// record. The payload shapes, checked in order:
//
//  1. string-valued detail            -> API_ERROR with that message
//  2. array-valued detail (field errs) -> VALIDATION_ERROR, joined messages,
//     raw entries preserved in details
//  3. object with its own code/message -> passed through, code defaulting
//     to API_ERROR
//  4. absent or unparseable            -> UNKNOWN_ERROR with the transport
//     status text
//
// A 404 that would otherwise normalize to API_ERROR or UNKNOWN_ERROR becomes
// NOT_FOUND so registry callers get the taxonomy they expect.
func normalizeError(status int, statusText string, body []byte, logger *slog.Logger) *domain.Error {
	if logger != nil {
		logger.Debug("boundary call failed",
			slog.Int("status", status),
			slog.String("payload", string(body)),
		)
	}

	norm := parseFailure(body, statusText)
	if status == http.StatusNotFound && (norm.Code == domain.CodeAPI || norm.Code == domain.CodeUnknown) {
		norm.Code = domain.CodeNotFound
	}
	return norm.WithStatus(status)
}

func parseFailure(body []byte, statusText string) *domain.Error {
	var probe errorProbe
	if len(body) > 0 && json.Unmarshal(body, &probe) == nil {
		if len(probe.Detail) > 0 {
			var detailStr string
			if json.Unmarshal(probe.Detail, &detailStr) == nil {
				return domain.NewError(domain.CodeAPI, detailStr)
			}

			var fieldErrs []domain.FieldError
			if json.Unmarshal(probe.Detail, &fieldErrs) == nil && len(fieldErrs) > 0 {
				return domain.NewError(domain.CodeValidation, joinFieldErrors(fieldErrs)).
					WithDetails(&domain.ErrorDetails{Errors: fieldErrs})
			}
		}

		if probe.Message != "" {
			code := domain.ErrorCode(probe.Code)
			if code == "" {
				code = domain.CodeAPI
			}
			return domain.NewError(code, probe.Message)
		}
	}

	if statusText == "" {
		statusText = "request failed"
	}
	return domain.NewError(domain.CodeUnknown, statusText)
}

// joinFieldErrors renders "<path>: <msg>" for every entry, semicolon-joined.
// Path segments may be strings or array indices.
func joinFieldErrors(errs []domain.FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		segs := make([]string, 0, len(fe.Loc))
		for _, s := range fe.Loc {
			switch v := s.(type) {
			case string:
				segs = append(segs, v)
			case float64:
				segs = append(segs, fmt.Sprintf("%d", int(v)))
			default:
				segs = append(segs, fmt.Sprint(v))
			}
		}
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(segs, "."), fe.Msg))
	}
	return strings.Join(parts, "; ")
}

package handler

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/rs/zerolog"
)

// splitAuthorization splits "<scheme> <token>" on the first run of
// whitespace. Leading whitespace is ignored and the token keeps everything
// after the separator. ok is false when there are fewer than two fields.
func splitAuthorization(auth string) (scheme, token string, ok bool) {
	s := strings.TrimLeftFunc(auth, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, "", false
	}
	rest := strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	if rest == "" {
		return s[:i], "", false
	}
	return s[:i], rest, true
}

// decodeBody returns the base64-decoded body when it decodes to valid UTF-8
// text. Anything else is returned unchanged with decoded=false, so plain and
// encoded bodies are both accepted.
func decodeBody(body string) (text string, decoded bool) {
	b, err := base64.StdEncoding.DecodeString(body)
	if err != nil || !utf8.Valid(b) {
		return body, false
	}
	return string(b), true
}

// parseBody extracts the parameter request carried in an envelope body.
func parseBody(log zerolog.Logger, raw json.RawMessage) (map[string]json.RawMessage, error) {
	var body string
	if raw == nil || json.Unmarshal(raw, &body) != nil {
		log.Warn().Msg("envelope body is missing or not a string")
		return nil, errors.New(errors.ErrorTypeValidation, "envelope body is missing or not a string").
			WithReason(errors.ReasonBodyMalformed)
	}

	text, decoded := decodeBody(body)
	if decoded {
		log.Debug().Str("body", text).Msg("decode: body was base64")
	} else {
		log.Debug().Str("body", text).Msg("decode: using raw body")
	}

	var request map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &request); err != nil || request == nil {
		log.Warn().Bool("base64", decoded).Msg("body is not a JSON object")
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "body is not a JSON object").
			WithReason(errors.ReasonBodyMalformed)
	}

	return request, nil
}

// redact returns a copy of the event suitable for logging, with the
// authorization header masked.
func redact(event map[string]json.RawMessage) map[string]interface{} {
	out := make(map[string]interface{}, len(event))
	for k, v := range event {
		out[k] = v
	}

	raw, found := event["headers"]
	if !found {
		return out
	}

	var headers map[string]interface{}
	if err := json.Unmarshal(raw, &headers); err != nil || headers == nil {
		return out
	}
	if _, found := headers["authorization"]; found {
		headers["authorization"] = "REDACTED"
	}
	out["headers"] = headers

	return out
}

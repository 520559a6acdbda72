package logging

import (
	"log/slog"
	"strings"
)

const redactedValue = "[redacted]"

// Keys whose string values never reach a log sink.
var secretKeys = map[string]struct{}{
	"api_key":       {},
	"api_token":     {},
	"token":         {},
	"authorization": {},
}

func redact(attr slog.Attr) slog.Attr {
	if _, ok := secretKeys[strings.ToLower(attr.Key)]; !ok {
		return attr
	}
	if attr.Value.Kind() == slog.KindString && attr.Value.String() == "" {
		return attr
	}
	attr.Value = slog.StringValue(redactedValue)
	return attr
}

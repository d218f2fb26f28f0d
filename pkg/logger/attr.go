package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// FlagKey records a feature flag key under the key "flag_key".
func FlagKey(key string) slog.Attr {
	return slog.String("flag_key", key)
}

// RuleKey records a rollout rule or experiment key under the key "rule_key".
func RuleKey(key string) slog.Attr {
	return slog.String("rule_key", key)
}

// ExperimentKey records an experiment key under the key "experiment_key".
func ExperimentKey(key string) slog.Attr {
	return slog.String("experiment_key", key)
}

// VariationKey records a variation key under the key "variation_key".
func VariationKey(key string) slog.Attr {
	return slog.String("variation_key", key)
}

// Source records the decision source under the key "source".
func Source(source string) slog.Attr {
	return slog.String("source", source)
}

// Revision records the configuration revision under the key "revision".
func Revision(rev string) slog.Attr {
	return slog.String("revision", rev)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

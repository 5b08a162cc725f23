package logging

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"
)

// newJSONHandler writes one object per record with ts/level/msg keys.
// Infinite floats, such as a subject distance at infinity, are written as
// "inf" so records stay valid JSON.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) == 0 {
				switch attr.Key {
				case slog.TimeKey:
					attr.Key = "ts"
					if attr.Value.Kind() == slog.KindTime {
						attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
					}
					return attr
				case slog.LevelKey:
					attr.Key = "level"
					attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
					return attr
				case slog.MessageKey:
					attr.Key = "msg"
					return attr
				case slog.SourceKey:
					if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
						attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
					}
					return attr
				}
			}
			switch attr.Value.Kind() {
			case slog.KindFloat64:
				if f := attr.Value.Float64(); math.IsInf(f, 0) || math.IsNaN(f) {
					attr.Value = slog.StringValue(formatSpecialFloat(f))
				}
			case slog.KindDuration:
				attr.Value = slog.Float64Value(attr.Value.Duration().Seconds())
			}
			return attr
		},
	}

	return slog.NewJSONHandler(w, &opts)
}

func formatSpecialFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return "nan"
	}
}

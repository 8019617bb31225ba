package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette is one console color theme
type palette struct {
	time      string
	component string
	fg        string
	path      string
	number    string
	warn      string
	warnBg    string
	err       string
	errBg     string
}

var themes = map[string]palette{
	// Gruvbox Dark (warm, muted)
	"gruvbox": {
		time:      "\x1b[38;5;108m",
		component: "\x1b[38;5;208m",
		fg:        "\x1b[38;5;223m",
		path:      "\x1b[38;5;109m",
		number:    "\x1b[38;5;175m",
		warn:      "\x1b[38;5;214m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;88m",
	},
	// Everforest Dark (greens)
	"everforest": {
		time:      "\x1b[38;5;107m",
		component: "\x1b[38;5;65m",
		fg:        "\x1b[38;5;223m",
		path:      "\x1b[38;5;109m",
		number:    "\x1b[38;5;108m",
		warn:      "\x1b[38;5;179m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;52m",
	},
	// No escape codes (CI logs, redirected stderr)
	"plain": {},
}

var currentTheme = "everforest"

// SetTheme configures the color scheme for console output.
// Unknown themes are ignored.
func SetTheme(theme string) {
	if _, ok := themes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return themes[currentTheme]
}

// paint wraps s in color unless the theme has none
func paint(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + colorReset
}

// minimalEncoder implements a compact console encoder.
// Format: "13:04:35  driver  Parsed header  shapes.yaml  include/shape.h (42 decls) 12ms"
type minimalEncoder struct {
	zapcore.Encoder
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := colors()
	final := buffer.NewPool().Get()

	final.AppendString(paint(c.time, ent.Time.Format("15:04:05")))

	if lvl := levelString(ent.Level, c); lvl != "" {
		final.AppendString("  ")
		final.AppendString(lvl)
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(paint(c.component, ent.LoggerName))
	}

	final.AppendString("  ")
	final.AppendString(paint(c.fg, ent.Message))

	if values := extractFieldValues(fields, c); values != "" {
		final.AppendString("  ")
		final.AppendString(values)
	}

	final.AppendString("\n")
	return final, nil
}

// levelString returns a highlighted label for WARN and above, empty otherwise
func levelString(level zapcore.Level, c palette) string {
	switch {
	case level == zapcore.WarnLevel:
		return paint(colorBold+c.warnBg+c.warn, "WARN")
	case level >= zapcore.ErrorLevel:
		return paint(colorBold+c.errBg+c.err, level.CapitalString())
	case level == zapcore.DebugLevel:
		return "DEBUG"
	default:
		return ""
	}
}

// getFieldValue extracts the value from a zap field, handling different field types
func getFieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.BoolType:
		if field.Integer == 1 {
			return "true"
		}
		return "false"
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// extractFieldValues renders the fields a reader scans for and drops the rest.
// Input:  {"interface": "shapes.yaml", "header": "shape.h", "declarations": 42, "duration_ms": 12}
// Output: "shapes.yaml  shape.h (42 decls) 12ms"
func extractFieldValues(fields []zapcore.Field, c palette) string {
	var values []string
	for _, field := range fields {
		val := getFieldValue(field)
		if val == "" {
			continue
		}
		switch field.Key {
		case FieldInterface, FieldHeader, FieldCacheFile, FieldFile:
			values = append(values, paint(c.path, val))
		case FieldExport:
			values = append(values, val)
		case FieldDeclarations:
			values = append(values, "("+paint(c.number, val)+" decls)")
		case FieldDurationMS:
			values = append(values, paint(c.number, val)+"ms")
		case FieldRSSMB:
			values = append(values, paint(c.number, val)+"MB rss")
		case FieldCount:
			values = append(values, paint(c.number, val))
		case FieldError:
			values = append(values, paint(c.err, val))
		}
	}
	return strings.Join(values, "  ")
}

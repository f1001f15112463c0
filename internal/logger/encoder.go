package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// lineEncoder renders an entry as three left-justified columns: level tag,
// UTC timestamp and message. Structured fields are not rendered.
type lineEncoder struct {
	zapcore.Encoder
}

func newLineEncoder() zapcore.Encoder {
	return &lineEncoder{Encoder: zapcore.NewConsoleEncoder(zapcore.EncoderConfig{})}
}

func (e *lineEncoder) Clone() zapcore.Encoder {
	return &lineEncoder{Encoder: e.Encoder.Clone()}
}

func (e *lineEncoder) EncodeEntry(ent zapcore.Entry, _ []zapcore.Field) (*buffer.Buffer, error) {
	buf := bufferPool.Get()
	buf.AppendString(formatLine(tag(ent.Level), ent.Time, ent.Message))
	buf.AppendByte('\n')
	return buf, nil
}

// formatLine renders one log line without the trailing newline.
func formatLine(tag string, t time.Time, msg string) string {
	return fmt.Sprintf("%-9s %-25s %-50s", tag, t.UTC().Format(TimeLayout), msg)
}

func tag(level zapcore.Level) string {
	switch {
	case level < zapcore.InfoLevel:
		return "[" + Verbose.String() + "]"
	case level == zapcore.WarnLevel:
		return "[" + Warning.String() + "]"
	case level >= zapcore.ErrorLevel:
		return "[" + Error.String() + "]"
	default:
		return "[" + Info.String() + "]"
	}
}

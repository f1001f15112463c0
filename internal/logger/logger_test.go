package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func (c fixedClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

var bootTime = time.Date(2026, time.October, 15, 6, 7, 8, 0, time.UTC)

func newTestLogger(buf *bytes.Buffer) *Logger {
	return New(WithOutput(buf), WithClock(fixedClock(bootTime)))
}

func TestLogFormat(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		msg   string
		want  string
	}{
		{
			name:  "info",
			level: Info,
			msg:   "Booted at now.",
			want:  "[INFO]    15 Oct, 2026 06:07:08 UTC Booted at now." + strings.Repeat(" ", 36) + "\n",
		},
		{
			name:  "warning",
			level: Warning,
			msg:   "careful",
			want:  "[WARNING] 15 Oct, 2026 06:07:08 UTC careful" + strings.Repeat(" ", 43) + "\n",
		},
		{
			name:  "error",
			level: Error,
			msg:   "broken",
			want:  "[ERROR]   15 Oct, 2026 06:07:08 UTC broken" + strings.Repeat(" ", 44) + "\n",
		},
		{
			name:  "long message is not padded",
			level: Info,
			msg:   strings.Repeat("x", 60),
			want:  "[INFO]    15 Oct, 2026 06:07:08 UTC " + strings.Repeat("x", 60) + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newTestLogger(&buf).Log(tt.msg, tt.level)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLogTimestampIsUTC(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("UTC+2", 2*60*60)
	l := New(WithOutput(&buf), WithClock(fixedClock(bootTime.In(loc))))

	l.Log("tz", Info)

	assert.Contains(t, buf.String(), "15 Oct, 2026 06:07:08 UTC")
}

func TestLogTruncation(t *testing.T) {
	long := strings.Repeat("a", 100) + "TAIL"

	t.Run("default limit", func(t *testing.T) {
		var buf bytes.Buffer
		newTestLogger(&buf).Log(long, Info)

		line := buf.String()
		assert.Contains(t, line, strings.Repeat("a", DefaultMaxLen))
		assert.NotContains(t, line, strings.Repeat("a", DefaultMaxLen+1))
		assert.NotContains(t, line, "TAIL")
	})

	t.Run("configured limit", func(t *testing.T) {
		var buf bytes.Buffer
		l := newTestLogger(&buf)
		require.NoError(t, l.SetMaxLogLen(10))
		l.Log("0123456789abcdef", Info)

		assert.Contains(t, buf.String(), " 0123456789 ")
		assert.NotContains(t, buf.String(), "a")
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		var buf bytes.Buffer
		l := newTestLogger(&buf)
		require.NoError(t, l.SetMaxLogLen(3))
		l.Log("äöüß", Info)

		assert.Contains(t, buf.String(), " äöü ")
		assert.NotContains(t, buf.String(), "ß")
	})

	t.Run("keeps invalid bytes", func(t *testing.T) {
		var buf bytes.Buffer
		l := newTestLogger(&buf)
		require.NoError(t, l.SetMaxLogLen(4))
		l.Log("a\xffb\xfecdef", Info)

		assert.Contains(t, buf.String(), " a\xffb\xfe ")
		assert.NotContains(t, buf.String(), "\uFFFD")
		assert.NotContains(t, buf.String(), "cdef")
	})

	t.Run("negative limit rejected", func(t *testing.T) {
		var buf bytes.Buffer
		l := newTestLogger(&buf)
		assert.Error(t, l.SetMaxLogLen(-1))
		l.Log(long, Info)
		assert.Contains(t, buf.String(), strings.Repeat("a", DefaultMaxLen))
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		n    int
		want string
	}{
		{name: "shorter than limit", msg: "abc", n: 5, want: "abc"},
		{name: "exact limit", msg: "abcde", n: 5, want: "abcde"},
		{name: "ascii", msg: "abcdef", n: 3, want: "abc"},
		{name: "multibyte", msg: "日本語テキスト", n: 3, want: "日本語"},
		{name: "invalid bytes kept", msg: "\xff\xfe\xfdabc", n: 2, want: "\xff\xfe"},
		{name: "mixed", msg: "ä\x80ö", n: 2, want: "ä\x80"},
		{name: "zero", msg: "abc", n: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.msg, tt.n))
		})
	}
}

func TestVerboseSuppression(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Log("hidden detail", Verbose)
	assert.Empty(t, buf.String())

	l.SetVerbose(true)
	l.Verbosef("shown %s", "detail")
	assert.Equal(t, "[VERBOSE] 15 Oct, 2026 06:07:08 UTC shown detail"+strings.Repeat(" ", 38)+"\n", buf.String())
}

func TestConsoleDisabled(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.SetConsoleLogging(false)

	l.Errorf("nobody hears %d", 1)

	assert.Empty(t, buf.String())
}

func TestFileLogging(t *testing.T) {
	var buf bytes.Buffer
	dir := filepath.Join(t.TempDir(), "logs")
	l := newTestLogger(&buf)
	l.SetConsoleLogging(false)
	l.SetFileLogging(true)
	require.NoError(t, l.SetLogFile(dir, "boot.log"))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, DirPerm, info.Mode().Perm())
	assert.Equal(t, filepath.Join(dir, "boot.log"), l.LogFile())

	l.Infof("first")
	l.Warnf("second")

	data, err := os.ReadFile(l.LogFile())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[INFO]    15 Oct, 2026 06:07:08 UTC first"))
	assert.True(t, strings.HasPrefix(lines[1], "[WARNING] 15 Oct, 2026 06:07:08 UTC second"))

	fi, err := os.Stat(l.LogFile())
	require.NoError(t, err)
	assert.Equal(t, FilePerm, fi.Mode().Perm())
	assert.Empty(t, buf.String())
}

func TestFileLoggingNeedsLogFile(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.SetFileLogging(true)

	l.Infof("console only")

	assert.Contains(t, buf.String(), "console only")
	assert.Empty(t, l.LogFile())
}

func TestFileLoggingMissingDirectory(t *testing.T) {
	var buf bytes.Buffer
	dir := filepath.Join(t.TempDir(), "logs")
	l := newTestLogger(&buf)
	l.SetConsoleLogging(false)
	l.SetFileLogging(true)
	require.NoError(t, l.SetLogFile(dir, "boot.log"))
	require.NoError(t, os.RemoveAll(dir))

	l.Infof("lost")

	assert.Equal(t, "Error: Invalid path to run log ("+filepath.Join(dir, "boot.log")+")\n", buf.String())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "log directory must not be recreated at write time")
}

func TestSetLogFileFailureKeepsPriorValue(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	err := l.SetLogFile(filepath.Join(t.TempDir(), "missing", "logs"), "boot.log")
	assert.Error(t, err)
	assert.Empty(t, l.LogFile())

	assert.Error(t, l.SetLogFile(t.TempDir(), ""))
	assert.Empty(t, l.LogFile())
}

func TestRemoveLogs(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	assert.NotPanics(t, l.RemoveLogs, "no log file configured")

	require.NoError(t, l.SetLogFile(t.TempDir(), "boot.log"))
	assert.NotPanics(t, l.RemoveLogs, "log file does not exist yet")

	l.SetFileLogging(true)
	l.Infof("entry")
	require.FileExists(t, l.LogFile())

	l.RemoveLogs()
	assert.NoFileExists(t, l.LogFile())
}

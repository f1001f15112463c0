package boot

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bootnotify/internal/config"
	"github.com/bootnotify/internal/database"
	"github.com/bootnotify/internal/logger"
	"github.com/bootnotify/internal/models"
	"github.com/bootnotify/internal/notify"
	"github.com/google/uuid"
	"github.com/slack-go/slack"
)

// Log messages written by a run.
const (
	EndMarker          = "[END OF SCRIPT]"
	MsgEmailMissing    = "Email details missing from the INI."
	MsgDeviceDefaulted = "Device type and/or name missing from INI. Using defaults."
)

const (
	ExitConfigUnreadable = 1
	ExitEmailMissing     = 2
)

// Options configures a run. Zero values select production behaviour.
type Options struct {
	ConfigPath string

	// Stdout receives console log output; defaults to os.Stdout.
	Stdout io.Writer
	// Now supplies the boot time; defaults to time.Now.
	Now func() time.Time

	// SMTPHost/SMTPPort override the relay when SMTPHost is set.
	SMTPHost  string
	SMTPPort  int
	TLSConfig *tls.Config

	SlackOptions []slack.Option
}

func (o *Options) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

func (o *Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

type nowClock func() time.Time

func (c nowClock) Now() time.Time { return c() }

func (c nowClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

// Compose builds the notification subject and body.
func Compose(device config.Device, bootedAt string) (subject, body string) {
	subject = fmt.Sprintf("%s %s Booted", device.Device, device.Name)
	body = fmt.Sprintf("%s %s booted at %s.", device.Device, device.Name, bootedAt)
	return subject, body
}

// NewLogger returns a logger configured from the logging section.
func NewLogger(section config.Section, opts Options) *logger.Logger {
	lg := logger.New(logger.WithOutput(opts.stdout()), logger.WithClock(nowClock(opts.now)))
	ConfigureLogger(lg, section)
	return lg
}

// ConfigureLogger applies each logging key on its own. A missing or malformed
// key leaves that setting at its current value.
func ConfigureLogger(lg *logger.Logger, section config.Section) {
	if v, ok := section.Bool("log_to_console"); ok {
		lg.SetConsoleLogging(v)
	}
	if v, ok := section.Bool("log_to_file"); ok {
		lg.SetFileLogging(v)
	}
	if v, ok := section.Bool("log_verbose"); ok {
		lg.SetVerbose(v)
	}
	if v, ok := section.Int("max_log_len"); ok {
		_ = lg.SetMaxLogLen(v)
	}
	folder, ok1 := section.Get("log_folder_path")
	name, ok2 := section.Get("log_file_name")
	if ok1 && ok2 {
		_ = lg.SetLogFile(folder, name)
	}
}

// LoadSettings loads the settings file, mapping any failure to an
// ExitError with ExitConfigUnreadable.
func LoadSettings(path string) (*config.Settings, error) {
	settings, err := config.Load(path)
	if err != nil {
		return nil, &ExitError{
			Code: ExitConfigUnreadable,
			Err:  fmt.Errorf("ERROR: %s not found, corrupt, or may not be installed.", path),
		}
	}
	return settings, nil
}

// Run performs one boot notification: load settings, log the boot, deliver
// the email and any optional notices, and record the outcome.
func Run(ctx context.Context, opts Options) error {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath
	}

	settings, err := LoadSettings(path)
	if err != nil {
		return err
	}

	lg := NewLogger(settings.Logging, opts)

	email, ok := settings.EmailSettings()
	if !ok {
		lg.Log(MsgEmailMissing, logger.Error)
		lg.Log(EndMarker, logger.Info)
		// already logged
		return &ExitError{Code: ExitEmailMissing}
	}

	device, ok := settings.DeviceInfo()
	if !ok {
		lg.Log(MsgDeviceDefaulted, logger.Warning)
	}

	bootedAt := opts.now().UTC()
	stamp := bootedAt.Format(logger.TimeLayout)
	lg.Infof("Booted at %s.", stamp)

	subject, body := Compose(device, stamp)

	event := &models.BootEvent{
		RunID:       uuid.NewString(),
		Device:      device.Device,
		Name:        device.Name,
		BootedAt:    bootedAt,
		Recipient:   email.Recipient,
		SlackStatus: models.DeliveryStatusSkipped,
	}

	mailer := notify.NewEmailNotifier(email.Login, email.Password, emailOptions(opts)...)
	err = mailer.Deliver(subject, body, email.Recipient)
	if err != nil {
		lg.Errorf("Failed to send notification email to %s.", email.Recipient)
		lg.Verbosef("%v", err)
	} else {
		lg.Infof("Notification email sent to %s.", email.Recipient)
	}
	event.EmailStatus = models.StatusOf(err == nil)

	if sc, ok := settings.SlackSettings(); ok {
		notifier := notify.NewSlackNotifier(sc.Token, sc.Channel, opts.SlackOptions...)
		err := notifier.Notify(ctx, subject, event)
		if err != nil {
			lg.Errorf("Failed to post Slack notification to %s.", sc.Channel)
			lg.Verbosef("%v", err)
		} else {
			lg.Infof("Slack notification posted to %s.", sc.Channel)
		}
		event.SlackStatus = models.StatusOf(err == nil)
	}

	if dbPath, ok := settings.HistoryPath(); ok {
		if err := recordBoot(dbPath, event); err != nil {
			lg.Warnf("Failed to record boot in %s.", dbPath)
			lg.Verbosef("%v", err)
		}
	}

	lg.Log(EndMarker, logger.Info)
	return nil
}

func emailOptions(opts Options) []notify.EmailOption {
	var out []notify.EmailOption
	if opts.SMTPHost != "" {
		out = append(out, notify.WithRelay(opts.SMTPHost, opts.SMTPPort))
	}
	if opts.TLSConfig != nil {
		out = append(out, notify.WithTLSConfig(opts.TLSConfig))
	}
	return out
}

func recordBoot(dbPath string, event *models.BootEvent) error {
	store, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.RecordBoot(event)
}

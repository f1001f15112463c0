package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Section names recognised in the settings file.
const (
	SectionInfo    = "bot_settings.info"
	SectionLogging = "bot_settings.logging"
	SectionEmail   = "bot_settings.email"
	SectionSlack   = "bot_settings.slack"
	SectionHistory = "bot_settings.history"
)

// Defaults used when the device section is incomplete.
const (
	DefaultDevice = "RPi"
	DefaultName   = "Node 1"
)

// ErrRead is returned when the settings file is missing or cannot be parsed.
var ErrRead = errors.New("settings file not found or corrupt")

// Section is one named group of key/value pairs. A nil Section means the
// section was absent from the file; a present but empty section is non-nil.
type Section map[string]string

// Present reports whether the section exists in the file.
func (s Section) Present() bool {
	return s != nil
}

// Get returns the value for key and whether it was set.
func (s Section) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s[strings.ToLower(key)]
	return v, ok
}

// Int parses key as a base-10 integer.
func (s Section) Int(key string) (int, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool parses key as an integer flag where any non-zero value is true.
func (s Section) Bool(key string) (bool, bool) {
	n, ok := s.Int(key)
	if !ok {
		return false, false
	}
	return n != 0, true
}

// Settings holds the sections read from the settings file.
type Settings struct {
	Path    string
	Info    Section
	Logging Section
	Email   Section
	Slack   Section
	History Section
}

// Email holds the sender credentials and the notification recipient.
type Email struct {
	Login     string
	Password  string
	Recipient string
}

// Device identifies the booting machine in notifications.
type Device struct {
	Device string
	Name   string
}

// Slack holds the optional Slack channel settings.
type Slack struct {
	Token   string
	Channel string
}

// Load parses the settings file at path.
func Load(path string) (*Settings, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:            true,
		IgnoreInlineComment:        true,
		PreserveSurroundedQuote:    true,
		AllowShadows:               true,
		AllowDuplicateShadowValues: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}
	if err := checkDuplicateKeys(f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}

	defaults := f.Section(ini.DefaultSection).KeysHash()

	return &Settings{
		Path:    path,
		Info:    section(f, SectionInfo, defaults),
		Logging: section(f, SectionLogging, defaults),
		Email:   section(f, SectionEmail, defaults),
		Slack:   section(f, SectionSlack, defaults),
		History: section(f, SectionHistory, defaults),
	}, nil
}

// checkDuplicateKeys rejects a key set more than once in a section. Keys are
// compared case-insensitively, and a section repeated later in the file
// shares its keys with the first occurrence.
func checkDuplicateKeys(f *ini.File) error {
	for _, sec := range f.Sections() {
		for _, key := range sec.Keys() {
			if len(key.ValueWithShadows()) > 1 {
				return fmt.Errorf("duplicate key %q in section %q", key.Name(), sec.Name())
			}
		}
	}
	return nil
}

// section copies a named section into a Section, layering it over the keys of
// the DEFAULT section. Absent sections yield nil.
func section(f *ini.File, name string, defaults map[string]string) Section {
	sec, err := f.GetSection(name)
	if err != nil {
		return nil
	}

	out := make(Section, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range sec.KeysHash() {
		out[k] = v
	}
	return out
}

// EmailSettings extracts the delivery credentials. It reports false when the
// email section or any of its keys is missing.
func (s *Settings) EmailSettings() (Email, bool) {
	login, ok1 := s.Email.Get("bot_email_login")
	password, ok2 := s.Email.Get("bot_email_paswd")
	recipient, ok3 := s.Email.Get("recipient_email")
	if !ok1 || !ok2 || !ok3 {
		return Email{}, false
	}
	return Email{Login: login, Password: password, Recipient: recipient}, true
}

// DeviceInfo extracts the device identity. When the section or either key is
// missing it returns the defaults and false.
func (s *Settings) DeviceInfo() (Device, bool) {
	device, ok1 := s.Info.Get("device")
	name, ok2 := s.Info.Get("name")
	if !ok1 || !ok2 {
		return Device{Device: DefaultDevice, Name: DefaultName}, false
	}
	return Device{Device: device, Name: name}, true
}

// SlackSettings reports false unless both token and channel are set.
func (s *Settings) SlackSettings() (Slack, bool) {
	token, ok1 := s.Slack.Get("token")
	channel, ok2 := s.Slack.Get("channel")
	if !ok1 || !ok2 || token == "" || channel == "" {
		return Slack{}, false
	}
	return Slack{Token: token, Channel: channel}, true
}

// HistoryPath returns the boot history database path, if configured.
func (s *Settings) HistoryPath() (string, bool) {
	path, ok := s.History.Get("db_path")
	if !ok || strings.TrimSpace(path) == "" {
		return "", false
	}
	return path, true
}

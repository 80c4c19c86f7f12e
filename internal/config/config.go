// Package config loads application settings from Viper and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/telaro/tariffa/internal/classify"
	"github.com/telaro/tariffa/internal/common"
	"github.com/telaro/tariffa/internal/schedule"
	"github.com/telaro/tariffa/internal/transfer"
)

// Settings is the full application configuration.
type Settings struct {
	Paths    PathSettings
	FTP      FTPSettings
	Transfer TransferSettings
	Schedule ScheduleSettings
	Pricing  PricingSettings
	Logging  LogSettings
}

// PathSettings locates the store and the working directories.
type PathSettings struct {
	CategoriesFile string
	InputDir       string
	ConvertedDir   string
	ReportDir      string
}

// FTPSettings holds the carrier drop connection settings.
type FTPSettings struct {
	Host      string
	User      string
	Password  string
	Directory string
	Port      int
	Timeout   time.Duration
}

// TransferSettings controls which remote files get fetched.
type TransferSettings struct {
	Pattern     string
	DownloadAll bool
}

// ScheduleSettings describes the recurring flow timetable.
type ScheduleSettings struct {
	Type       string
	Expression string
	Every      time.Duration
	Day        int
	Hour       int
	Minute     int
}

// PricingSettings holds batch costing options.
type PricingSettings struct {
	BillingUnit string
}

// LogSettings holds logger options.
type LogSettings struct {
	Level  string
	Format string
}

// DefaultSettings returns the built-in configuration, rooted under the
// user's local share directory.
func DefaultSettings() *Settings {
	base := ExpandPath("~/.local/share/tariffa")
	return &Settings{
		Paths: PathSettings{
			CategoriesFile: filepath.Join(base, "categories.json"),
			InputDir:       filepath.Join(base, "input"),
			ConvertedDir:   filepath.Join(base, "converted"),
			ReportDir:      filepath.Join(base, "reports"),
		},
		FTP: FTPSettings{
			Directory: "/",
			Port:      21,
			Timeout:   30 * time.Second,
		},
		Transfer: TransferSettings{
			Pattern: "RIV_*_MESE_%m_*.CDR",
		},
		Schedule: ScheduleSettings{
			Type:   schedule.TypeMonthly,
			Day:    1,
			Hour:   9,
			Minute: 0,
		},
		Pricing: PricingSettings{
			BillingUnit: string(classify.BillPerMinute),
		},
		Logging: LogSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads settings from Viper, falling back to FTP_* environment
// variables for the connection credentials and then to the defaults.
func Load() (*Settings, error) {
	s := DefaultSettings()

	if v := viper.GetString("paths.categories_file"); v != "" {
		s.Paths.CategoriesFile = ExpandPath(v)
	}
	if v := viper.GetString("paths.input_dir"); v != "" {
		s.Paths.InputDir = ExpandPath(v)
	}
	if v := viper.GetString("paths.converted_dir"); v != "" {
		s.Paths.ConvertedDir = ExpandPath(v)
	}
	if v := viper.GetString("paths.report_dir"); v != "" {
		s.Paths.ReportDir = ExpandPath(v)
	}

	if v := viper.GetString("ftp.host"); v != "" {
		s.FTP.Host = v
	}
	if v := viper.GetString("ftp.user"); v != "" {
		s.FTP.User = v
	}
	if v := viper.GetString("ftp.password"); v != "" {
		s.FTP.Password = v
	}
	if v := viper.GetString("ftp.directory"); v != "" {
		s.FTP.Directory = v
	}
	if viper.IsSet("ftp.port") {
		s.FTP.Port = viper.GetInt("ftp.port")
	}
	if viper.IsSet("ftp.timeout") {
		s.FTP.Timeout = viper.GetDuration("ftp.timeout")
	}

	// The carrier portal hands out plain FTP_* variables; honor them
	// when the config file leaves the connection blank.
	if s.FTP.Host == "" {
		s.FTP.Host = os.Getenv("FTP_HOST")
	}
	if s.FTP.User == "" {
		s.FTP.User = os.Getenv("FTP_USER")
	}
	if s.FTP.Password == "" {
		s.FTP.Password = os.Getenv("FTP_PASSWORD")
	}

	if v := viper.GetString("transfer.pattern"); v != "" {
		s.Transfer.Pattern = v
	}
	if viper.IsSet("transfer.download_all") {
		s.Transfer.DownloadAll = viper.GetBool("transfer.download_all")
	}

	if v := viper.GetString("schedule.type"); v != "" {
		s.Schedule.Type = v
	}
	if v := viper.GetString("schedule.expression"); v != "" {
		s.Schedule.Expression = v
	}
	if viper.IsSet("schedule.every") {
		s.Schedule.Every = viper.GetDuration("schedule.every")
	}
	if viper.IsSet("schedule.day") {
		s.Schedule.Day = viper.GetInt("schedule.day")
	}
	if viper.IsSet("schedule.hour") {
		s.Schedule.Hour = viper.GetInt("schedule.hour")
	}
	if viper.IsSet("schedule.minute") {
		s.Schedule.Minute = viper.GetInt("schedule.minute")
	}

	if v := viper.GetString("pricing.billing_unit"); v != "" {
		s.Pricing.BillingUnit = v
	}

	if v := viper.GetString("logging.level"); v != "" {
		s.Logging.Level = v
	}
	if v := viper.GetString("logging.format"); v != "" {
		s.Logging.Format = v
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings that every command depends on.
func (s *Settings) Validate() error {
	if s.Paths.CategoriesFile == "" {
		return fmt.Errorf("%w: paths.categories_file", common.ErrMissingConfig)
	}
	if s.Paths.ReportDir == "" {
		return fmt.Errorf("%w: paths.report_dir", common.ErrMissingConfig)
	}

	switch classify.BillingMode(s.Pricing.BillingUnit) {
	case classify.BillPerMinute, classify.BillPerSecond:
	default:
		return fmt.Errorf("%w: pricing.billing_unit %q (want per_minute or per_second)",
			common.ErrInvalidConfig, s.Pricing.BillingUnit)
	}

	if s.FTP.Host != "" && (s.FTP.Port < 1 || s.FTP.Port > 65535) {
		return fmt.Errorf("%w: ftp.port %d", common.ErrInvalidConfig, s.FTP.Port)
	}
	return nil
}

// FTPConfig converts the settings into a transfer configuration.
func (s *Settings) FTPConfig() transfer.FTPConfig {
	return transfer.FTPConfig{
		Host:      s.FTP.Host,
		User:      s.FTP.User,
		Password:  s.FTP.Password,
		Directory: s.FTP.Directory,
		Port:      s.FTP.Port,
		Timeout:   s.FTP.Timeout,
	}
}

// FetchPattern returns the effective remote filter pattern. Download
// everything means no filter at all.
func (s *Settings) FetchPattern() string {
	if s.Transfer.DownloadAll {
		return ""
	}
	return s.Transfer.Pattern
}

// ScheduleConfig converts the settings into a scheduler configuration.
func (s *Settings) ScheduleConfig() schedule.Config {
	return schedule.Config{
		Type:       s.Schedule.Type,
		Expression: s.Schedule.Expression,
		Every:      s.Schedule.Every,
		Day:        s.Schedule.Day,
		Hour:       s.Schedule.Hour,
		Minute:     s.Schedule.Minute,
	}
}

// BillingMode returns the configured billing unit.
func (s *Settings) BillingMode() classify.BillingMode {
	return classify.BillingMode(s.Pricing.BillingUnit)
}

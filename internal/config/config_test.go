package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telaro/tariffa/internal/classify"
	"github.com/telaro/tariffa/internal/common"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	s, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, s.Paths.CategoriesFile)
	assert.Equal(t, "categories.json", filepath.Base(s.Paths.CategoriesFile))
	assert.Equal(t, 21, s.FTP.Port)
	assert.Equal(t, 30*time.Second, s.FTP.Timeout)
	assert.Equal(t, "RIV_*_MESE_%m_*.CDR", s.Transfer.Pattern)
	assert.Equal(t, "monthly", s.Schedule.Type)
	assert.Equal(t, classify.BillPerMinute, s.BillingMode())
	assert.Equal(t, "info", s.Logging.Level)
}

func TestLoadOverrides(t *testing.T) {
	resetViper(t)
	viper.Set("paths.report_dir", "/srv/tariffa/reports")
	viper.Set("ftp.host", "ftp.example.net")
	viper.Set("ftp.port", 2121)
	viper.Set("transfer.pattern", "RIV_99*_MESE_%m_%Y-*.CDR")
	viper.Set("schedule.type", "daily")
	viper.Set("schedule.hour", 6)
	viper.Set("schedule.minute", 0)
	viper.Set("pricing.billing_unit", "per_second")
	viper.Set("logging.level", "debug")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/tariffa/reports", s.Paths.ReportDir)
	assert.Equal(t, "ftp.example.net", s.FTP.Host)
	assert.Equal(t, 2121, s.FTP.Port)
	assert.Equal(t, classify.BillPerSecond, s.BillingMode())
	assert.Equal(t, "debug", s.Logging.Level)

	spec, err := s.ScheduleConfig().CronSpec()
	require.NoError(t, err)
	assert.Equal(t, "0 6 * * *", spec)
}

func TestLoadEnvFallback(t *testing.T) {
	resetViper(t)
	t.Setenv("FTP_HOST", "drop.carrier.it")
	t.Setenv("FTP_USER", "riv12345")
	t.Setenv("FTP_PASSWORD", "hunter2")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "drop.carrier.it", s.FTP.Host)
	assert.Equal(t, "riv12345", s.FTP.User)
	assert.Equal(t, "hunter2", s.FTP.Password)

	cfg := s.FTPConfig()
	assert.Equal(t, "drop.carrier.it", cfg.Host)
	assert.Equal(t, 21, cfg.Port)
}

func TestLoadRejectsBadBillingUnit(t *testing.T) {
	resetViper(t)
	viper.Set("pricing.billing_unit", "per_hour")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadRejectsBadPort(t *testing.T) {
	resetViper(t)
	viper.Set("ftp.host", "ftp.example.net")
	viper.Set("ftp.port", 0)

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestFetchPattern(t *testing.T) {
	resetViper(t)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "RIV_*_MESE_%m_*.CDR", s.FetchPattern())

	s.Transfer.DownloadAll = true
	assert.Equal(t, "", s.FetchPattern())
}

func TestExpandPath(t *testing.T) {
	t.Setenv("TARIFFA_TEST_DIR", "/var/feeds")

	assert.Equal(t, "/var/feeds/in", ExpandPath("$TARIFFA_TEST_DIR/in"))
	assert.NotContains(t, ExpandPath("~/data"), "~")
	assert.Equal(t, "", ExpandPath(""))
}

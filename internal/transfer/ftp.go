package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/telaro/tariffa/internal/common"
)

const (
	defaultFTPPort    = 21
	defaultFTPTimeout = 30 * time.Second
)

// FTPConfig holds the connection settings for a carrier FTP drop.
type FTPConfig struct {
	Host      string
	User      string
	Password  string
	Directory string
	Port      int
	Timeout   time.Duration
}

// FTPSource fetches feed files from an FTP server. Every operation
// dials a fresh session; transient failures are retried with backoff.
type FTPSource struct {
	cfg   FTPConfig
	retry common.RetryOptions
}

// NewFTPSource creates an FTP source with default port and timeout
// filled in.
func NewFTPSource(cfg FTPConfig) *FTPSource {
	if cfg.Port <= 0 {
		cfg.Port = defaultFTPPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFTPTimeout
	}
	return &FTPSource{
		cfg: cfg,
		retry: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 2 * time.Second,
		},
	}
}

func (s *FTPSource) connect(ctx context.Context) (*ftp.ServerConn, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(s.cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", common.ErrTransferFailed, addr, err)
	}

	if err := conn.Login(s.cfg.User, s.cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("%w: login as %s: %v", common.ErrTransferFailed, s.cfg.User, err)
	}

	if dir := strings.Trim(s.cfg.Directory, "/"); dir != "" {
		if strings.Contains(dir, "..") {
			_ = conn.Quit()
			return nil, fmt.Errorf("%w: remote directory %q", common.ErrInvalidConfig, s.cfg.Directory)
		}
		if err := conn.ChangeDir("/" + dir); err != nil {
			slog.Warn("Remote directory not accessible, staying at root",
				"directory", dir,
				"error", err)
		}
	}

	return conn, nil
}

// List returns the names of regular files in the configured directory.
func (s *FTPSource) List(ctx context.Context) ([]string, error) {
	var names []string
	err := common.WithRetry(ctx, func() error {
		conn, err := s.connect(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Quit() }()

		entries, err := conn.List("")
		if err != nil {
			return fmt.Errorf("%w: listing directory: %v", common.ErrTransferFailed, err)
		}

		names = names[:0]
		for _, entry := range entries {
			if entry.Type != ftp.EntryTypeFile || strings.HasPrefix(entry.Name, ".") {
				continue
			}
			names = append(names, entry.Name)
		}
		return nil
	}, s.retry)
	if err != nil {
		return nil, err
	}

	slog.Debug("Listed remote files", "host", s.cfg.Host, "count", len(names))
	return names, nil
}

// Fetch downloads name into destDir through a temporary file, so a
// broken transfer never leaves a half-written feed behind.
func (s *FTPSource) Fetch(ctx context.Context, name, destDir string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: unsafe file name %q", common.ErrTransferFailed, name)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", common.ErrTransferFailed, destDir, err)
	}

	localPath := filepath.Join(destDir, name)
	err := common.WithRetry(ctx, func() error {
		conn, err := s.connect(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Quit() }()

		return downloadTo(conn, name, localPath)
	}, s.retry)
	if err != nil {
		return "", err
	}

	return localPath, nil
}

func downloadTo(conn *ftp.ServerConn, name, localPath string) error {
	resp, err := conn.Retr(name)
	if err != nil {
		return fmt.Errorf("%w: retrieving %s: %v", common.ErrTransferFailed, name, err)
	}
	defer resp.Close()

	tmpPath := localPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", common.ErrTransferFailed, tmpPath, err)
	}

	if _, err := io.Copy(f, resp); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: downloading %s: %v", common.ErrTransferFailed, name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing %s: %v", common.ErrTransferFailed, tmpPath, err)
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: finalizing %s: %v", common.ErrTransferFailed, name, err)
	}
	return nil
}

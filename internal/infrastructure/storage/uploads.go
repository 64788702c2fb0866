package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/artshin/app-log-service/internal/domain/logentry"
)

// UploadMetadata describes one stored upload file.
type UploadMetadata struct {
	RequestID     string `json:"requestId"`
	DeviceID      string `json:"deviceId"`
	UploadedAt    string `json:"uploadedAt"`
	LogCount      int    `json:"logCount"`
	FileSizeBytes int64  `json:"fileSizeBytes"`
}

// Uploads persists device log uploads as JSON Lines files under
// {base}/{user_id}/{device_id}/{request_id}.jsonl. Listings are derived
// from the filesystem so there is no second bookkeeping store to drift.
type Uploads struct {
	base   string
	logger *zap.Logger
}

// NewUploads creates the base directory if needed.
func NewUploads(base string, logger *zap.Logger) (*Uploads, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	logger.Info("upload storage initialized", zap.String("path", base))
	return &Uploads{base: base, logger: logger}, nil
}

// Save writes an upload to disk and returns its metadata.
func (u *Uploads) Save(userID uuid.UUID, deviceID string, requestID uuid.UUID, entries []logentry.Entry) (UploadMetadata, error) {
	dir := filepath.Join(u.base, userID.String(), sanitizeFilename(deviceID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return UploadMetadata{}, fmt.Errorf("create device directory: %w", err)
	}

	path := filepath.Join(dir, requestID.String()+".jsonl")
	file, err := os.Create(path)
	if err != nil {
		return UploadMetadata{}, fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	enc := json.NewEncoder(writer)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return UploadMetadata{}, fmt.Errorf("encode entry: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return UploadMetadata{}, fmt.Errorf("flush upload file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return UploadMetadata{}, fmt.Errorf("stat upload file: %w", err)
	}

	u.logger.Info("upload saved",
		zap.String("user_id", userID.String()),
		zap.String("device_id", deviceID),
		zap.String("request_id", requestID.String()),
		zap.Int("log_count", len(entries)),
		zap.Int64("file_size", info.Size()),
	)

	return UploadMetadata{
		RequestID:     requestID.String(),
		DeviceID:      deviceID,
		UploadedAt:    time.Now().UTC().Format(time.RFC3339),
		LogCount:      len(entries),
		FileSizeBytes: info.Size(),
	}, nil
}

// Read loads one upload back.
func (u *Uploads) Read(userID uuid.UUID, deviceID string, requestID uuid.UUID) ([]logentry.Entry, error) {
	path := filepath.Join(u.base, userID.String(), sanitizeFilename(deviceID), requestID.String()+".jsonl")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	var entries []logentry.Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var entry logentry.Entry
		if err := json.Unmarshal([]byte(text), &entry); err != nil {
			return nil, fmt.Errorf("parse entry at line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read upload file: %w", err)
	}
	return entries, nil
}

// List walks the user's directory and describes every stored upload.
func (u *Uploads) List(userID uuid.UUID) ([]UploadMetadata, error) {
	userDir := filepath.Join(u.base, userID.String())
	deviceDirs, err := os.ReadDir(userDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []UploadMetadata{}, nil
		}
		return nil, fmt.Errorf("read user directory: %w", err)
	}

	uploads := make([]UploadMetadata, 0)
	for _, deviceDir := range deviceDirs {
		if !deviceDir.IsDir() {
			continue
		}
		deviceID := deviceDir.Name()
		files, err := os.ReadDir(filepath.Join(userDir, deviceID))
		if err != nil {
			return nil, fmt.Errorf("read device directory: %w", err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".jsonl") {
				continue
			}
			info, err := f.Info()
			if err != nil {
				return nil, fmt.Errorf("stat upload file: %w", err)
			}
			count, err := u.countLines(filepath.Join(userDir, deviceID, f.Name()))
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, UploadMetadata{
				RequestID:     strings.TrimSuffix(f.Name(), ".jsonl"),
				DeviceID:      deviceID,
				UploadedAt:    info.ModTime().UTC().Format(time.RFC3339),
				LogCount:      count,
				FileSizeBytes: info.Size(),
			})
		}
	}
	return uploads, nil
}

func (u *Uploads) countLines(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	return count, scanner.Err()
}

// sanitizeFilename keeps device ids from escaping the storage tree.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

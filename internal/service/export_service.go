package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-vacancy-api/internal/dto"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
	"github.com/noah-isme/course-vacancy-api/pkg/storage"
)

// StoredExport describes a generated artifact and its signed download token.
type StoredExport struct {
	ExportID  string    `json:"export_id"`
	Filename  string    `json:"filename"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type exportRenderer interface {
	ExportCSV(ctx context.Context, query dto.CourseListQuery) ([]byte, error)
	ExportAttributionPDF(ctx context.Context, courseID int64) ([]byte, error)
}

// ExportService stores generated CSV/PDF artifacts on disk and hands out
// HMAC-signed download tokens. Stored files expire and a background ticker
// sweeps them.
type ExportService struct {
	renderer exportRenderer
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	interval time.Duration
	ttl      time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewExportService constructs the service.
func NewExportService(
	renderer exportRenderer,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	cleanupInterval, ttl time.Duration,
	logger *zap.Logger,
) *ExportService {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Hour
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		renderer: renderer,
		store:    store,
		signer:   signer,
		interval: cleanupInterval,
		ttl:      ttl,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// StoreCourseList renders the filtered course listing as CSV, stores it, and
// returns a signed download token.
func (s *ExportService) StoreCourseList(ctx context.Context, query dto.CourseListQuery) (*StoredExport, error) {
	data, err := s.renderer.ExportCSV(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.save(data, "csv")
}

// StoreAttributionSheet renders one course's attribution PDF, stores it, and
// returns a signed download token.
func (s *ExportService) StoreAttributionSheet(ctx context.Context, courseID int64) (*StoredExport, error) {
	data, err := s.renderer.ExportAttributionPDF(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return s.save(data, "pdf")
}

// Resolve validates a download token and opens the referenced artifact.
func (s *ExportService) Resolve(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	return file, filepath.Base(relPath), nil
}

// StartCleanup launches the expiry sweeper. Call StopCleanup on shutdown.
func (s *ExportService) StartCleanup(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				deleted, err := s.store.CleanupOlderThan(s.ttl)
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(deleted) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
				}
			}
		}
	}()
}

// StopCleanup terminates the sweeper and waits for it to exit.
func (s *ExportService) StopCleanup() {
	close(s.stop)
	<-s.done
}

func (s *ExportService) save(data []byte, ext string) (*StoredExport, error) {
	exportID := uuid.NewString()
	now := time.Now().UTC()
	relPath := filepath.Join(now.Format("2006-01-02"), fmt.Sprintf("%s.%s", exportID, strings.ToLower(ext)))

	if _, err := s.store.Save(relPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export token")
	}
	return &StoredExport{
		ExportID:  exportID,
		Filename:  filepath.Base(relPath),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

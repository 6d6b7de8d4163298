package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/ecoportal/internal/common"
	"github.com/dmitrijs2005/ecoportal/internal/logging"
	"github.com/dmitrijs2005/ecoportal/internal/server/models"
	"github.com/dmitrijs2005/ecoportal/internal/server/repositories/ledger"
)

// DownloadURLValidity bounds presigned download links.
const DownloadURLValidity = 15 * time.Minute

// shortDate is the day/month/year layout used in ledger names, unpadded.
const shortDate = "2/1/2006"

// ObjectStore is the part of object storage the upload flow needs.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadRequest struct {
	Area     string
	Period   string
	Comments string
	Files    []UploadFile
}

type UploadResult struct {
	Entry *models.LedgerEntry
	Bytes int64
}

// areaProfile is how uploads of one area are classified in the ledger.
// An empty period means the client chooses between monthly and quarterly.
type areaProfile struct {
	itemType    string
	source      string
	responsible string
	period      string
}

var areas = map[string]areaProfile{
	"planta":           {itemType: "Planta", source: "Archivo Excel", period: "Trimestral"},
	"contabilidad":     {itemType: "Contabilidad", source: "Imágenes comprobantes", responsible: "Faynsuri", period: "Mensual"},
	"aguas":            {itemType: "Ambiental", source: "Archivo Excel", responsible: "Diana"},
	"ambiental-acopio": {itemType: "Ambiental", source: "Imagen", responsible: "Karen"},
}

var itemTypes = map[string]bool{"Planta": true, "Contabilidad": true, "Ambiental": true}

type UploadService struct {
	objects ObjectStore
	ledger  ledger.Repository
	logger  logging.Logger
	now     func() time.Time
}

func NewUploadService(objects ObjectStore, repo ledger.Repository, logger logging.Logger, now func() time.Time) *UploadService {
	if now == nil {
		now = time.Now
	}
	return &UploadService{objects: objects, ledger: repo, logger: logger.With("module", "upload"), now: now}
}

// IsKnownArea reports whether area is one of the upload folders.
func IsKnownArea(area string) bool {
	_, ok := areas[area]
	return ok
}

// SanitizeFilename keeps ASCII letters, digits, dots and dashes.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

// ObjectKey places a file under its area folder with a millisecond prefix.
func ObjectKey(area string, at time.Time, filename string) string {
	return fmt.Sprintf("%s/%d-%s", area, at.UnixMilli(), SanitizeFilename(filename))
}

func itemName(area string, at time.Time) string {
	return strings.ToUpper(area[:1]) + area[1:] + " - " + at.Format(shortDate)
}

func (p areaProfile) periodFor(requested string) string {
	if p.period != "" {
		return p.period
	}
	if requested == "mensual" {
		return "Mensual"
	}
	return "Trimestral"
}

// Upload stores every file and then writes one ledger row referencing them.
// Files already stored stay in the bucket if a later step fails.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.Area == "" || len(req.Files) == 0 {
		return nil, common.ErrValidation
	}
	profile, ok := areas[req.Area]
	if !ok {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, common.ErrInvalidArea)
	}

	now := s.now()
	res := &UploadResult{}
	refs := make([]models.FileRef, 0, len(req.Files))

	for i, f := range req.Files {
		// One millisecond per file keeps keys distinct when names collide.
		key := ObjectKey(req.Area, now.Add(time.Duration(i)*time.Millisecond), f.Name)
		url, err := s.objects.Put(ctx, key, f.ContentType, f.Body, f.Size)
		if err != nil {
			s.logger.Error(ctx, "storing file failed", "key", key, "error", err)
			return nil, common.ErrorInternal
		}
		refs = append(refs, models.FileRef{URL: url, Filename: SanitizeFilename(f.Name)})
		res.Bytes += f.Size
	}

	comments := req.Comments
	if comments == "" {
		comments = "Subido el " + now.Format(shortDate + ", 15:04:05")
	}

	entry, err := s.ledger.Create(ctx, &models.LedgerEntry{
		Name:        itemName(req.Area, now),
		ItemType:    profile.itemType,
		Responsible: profile.responsible,
		Source:      profile.source,
		Period:      profile.periodFor(req.Period),
		Files:       refs,
		Comments:    comments,
	})
	if err != nil {
		s.logger.Error(ctx, "writing ledger entry failed", "area", req.Area, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "upload recorded", "area", req.Area, "files", len(refs), "record", entry.RecordID)
	res.Entry = entry
	return res, nil
}

// List returns the latest ledger entries, optionally of one item type.
func (s *UploadService) List(ctx context.Context, itemType string) ([]models.LedgerEntry, error) {
	if itemType != "" && !itemTypes[itemType] {
		return nil, common.ErrValidation
	}
	entries, err := s.ledger.List(ctx, itemType)
	if err != nil {
		s.logger.Error(ctx, "listing ledger failed", "error", err)
		return nil, common.ErrorInternal
	}
	return entries, nil
}

// FileURL presigns a download of a previously uploaded object. Only keys
// inside an area folder are served.
func (s *UploadService) FileURL(ctx context.Context, key string) (string, error) {
	area, name, ok := strings.Cut(key, "/")
	if !ok || name == "" || strings.Contains(key, "..") {
		return "", common.ErrValidation
	}
	if _, known := areas[area]; !known {
		return "", common.ErrValidation
	}

	url, err := s.objects.PresignGet(ctx, key, DownloadURLValidity)
	if err != nil {
		s.logger.Error(ctx, "presigning download failed", "key", key, "error", err)
		return "", common.ErrorInternal
	}
	return url, nil
}

package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/config"
)

// StorageService is the local-disk blob store behind /uploads
type StorageService struct {
	config *config.Config
}

func NewStorageService(cfg *config.Config) *StorageService {
	// Ensure upload directory exists
	os.MkdirAll(filepath.Join(cfg.UploadDir, "proposals"), 0755)
	os.MkdirAll(filepath.Join(cfg.UploadDir, "documents", "letters"), 0755)

	return &StorageService{config: cfg}
}

// AllowedDocumentTypes maps accepted extensions to the file type stored with the attachment
var AllowedDocumentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// MaxDocumentSize is the maximum allowed upload size (10MB)
const MaxDocumentSize = 10 * 1024 * 1024

// SaveDocument stores an uploaded proposal file and returns the attachment metadata
func (s *StorageService) SaveDocument(ownerID uuid.UUID, file *multipart.FileHeader) (DocumentInput, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	fileType, ok := AllowedDocumentTypes[ext]
	if !ok {
		return DocumentInput{}, fmt.Errorf("%w: file type %s not allowed (pdf, doc, docx, jpg, png)", ErrInvalidArgument, ext)
	}

	if file.Size > MaxDocumentSize {
		return DocumentInput{}, fmt.Errorf("%w: file too large, maximum size is 10MB", ErrInvalidArgument)
	}

	ownerDir := filepath.Join(s.config.UploadDir, "proposals", ownerID.String())
	if err := os.MkdirAll(ownerDir, 0755); err != nil {
		return DocumentInput{}, err
	}

	// Generate unique filename
	filename := fmt.Sprintf("%s_%d%s", uuid.New().String()[:8], time.Now().Unix(), ext)

	src, err := file.Open()
	if err != nil {
		return DocumentInput{}, err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(ownerDir, filename))
	if err != nil {
		return DocumentInput{}, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return DocumentInput{}, err
	}

	return DocumentInput{
		FileName: file.Filename,
		FileURL:  s.PublicURL(filepath.ToSlash(filepath.Join("proposals", ownerID.String(), filename))),
		FileType: fileType,
	}, nil
}

// PublicURL returns the URL a stored file is served from
func (s *StorageService) PublicURL(relativePath string) string {
	return strings.TrimRight(s.config.AppURL, "/") + "/uploads/" + relativePath
}

// LetterDir is where generated approval letters are written
func (s *StorageService) LetterDir() string {
	return filepath.Join(s.config.UploadDir, "documents", "letters")
}

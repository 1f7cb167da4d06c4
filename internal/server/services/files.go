package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/server/models"
	"github.com/dmitrijs2005/moi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moi/internal/server/storage"
	"github.com/google/uuid"
)

// Presigner hands out temporary object storage URLs.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// Upload is a newly registered file together with the URL to PUT it to.
type Upload struct {
	File      *models.File
	UploadURL string
}

// FileService tracks user uploads. File bytes never pass through the
// server; clients use presigned URLs.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	presigner   Presigner
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, p Presigner) *FileService {
	return &FileService{db: db, repomanager: m, presigner: p}
}

// CreateUpload registers a pending file for userID and presigns its upload.
func (s *FileService) CreateUpload(ctx context.Context, userID int64, contentType string) (*Upload, error) {
	key := storage.NewStorageKey(userID)

	url, err := s.presigner.PresignPut(ctx, key, contentType)
	if err != nil {
		return nil, err
	}

	file := &models.File{
		ID:          uuid.NewString(),
		UserID:      userID,
		StorageKey:  key,
		ContentType: contentType,
		Status:      models.FileStatusPending,
	}
	if err := s.repomanager.Files(s.db).Create(ctx, file); err != nil {
		return nil, fmt.Errorf("error creating file: %w", err)
	}
	return &Upload{File: file, UploadURL: url}, nil
}

// List returns userID's files.
func (s *FileService) List(ctx context.Context, userID int64) ([]*models.File, error) {
	return s.repomanager.Files(s.db).ListByUser(ctx, userID)
}

// Complete marks the file as uploaded. Unknown and foreign ids are
// common.ErrorNotFound.
func (s *FileService) Complete(ctx context.Context, userID int64, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}
	return s.repomanager.Files(s.db).MarkUploaded(ctx, userID, id)
}

// DownloadURL presigns a GET for the file. Unknown and foreign ids are
// common.ErrorNotFound.
func (s *FileService) DownloadURL(ctx context.Context, userID int64, id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", common.ErrorNotFound
	}
	f, err := s.repomanager.Files(s.db).GetByID(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return s.presigner.PresignGet(ctx, f.StorageKey)
}

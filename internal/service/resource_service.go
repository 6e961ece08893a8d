package service

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/repository"
	"alcyxob/wellbeing-app/internal/storage"
	"alcyxob/wellbeing-app/internal/validation"
	"context"
	"errors"
	"log"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrResourceNotFound   = errors.New("resource not found")
	ErrStorageUnavailable = errors.New("file storage is not configured")
	ErrInvalidObjectKey   = errors.New("object key was not issued for this week")
)

// UploadURLResponse is returned when a privileged user asks to attach a file to a week.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // Must be sent back on confirm
}

// ResourceView is a resource together with a short-lived download link.
type ResourceView struct {
	domain.WeekResource
	DownloadURL string `json:"downloadUrl"`
}

// ResourceService manages files attached to weeks (worksheets, recordings).
// Files never pass through the server: uploads and downloads use presigned URLs.
type ResourceService interface {
	RequestUploadURL(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID, fileName, contentType string) (*UploadURLResponse, error)
	ConfirmUpload(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID, objectKey, fileName, contentType string, size int64) (*domain.WeekResource, error)
	ListResources(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID) ([]ResourceView, error)
	DeleteResource(ctx context.Context, actor domain.Actor, weekID, resourceID primitive.ObjectID) error
}

type resourceService struct {
	weekRepo     repository.WeekRepository
	resourceRepo repository.ResourceRepository
	fileStorage  storage.FileStorage
}

// NewResourceService creates the service. fileStorage may be nil, in which
// case every operation that needs the bucket fails with ErrStorageUnavailable.
func NewResourceService(weekRepo repository.WeekRepository, resourceRepo repository.ResourceRepository, fileStorage storage.FileStorage) ResourceService {
	return &resourceService{
		weekRepo:     weekRepo,
		resourceRepo: resourceRepo,
		fileStorage:  fileStorage,
	}
}

func (s *resourceService) checkWeek(ctx context.Context, weekID primitive.ObjectID) error {
	if _, err := s.weekRepo.GetByID(ctx, weekID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWeekNotFound
		}
		return err
	}
	return nil
}

func (s *resourceService) RequestUploadURL(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID, fileName, contentType string) (*UploadURLResponse, error) {
	if !actor.CanManageChallenges() {
		return nil, ErrPermissionDenied
	}
	if s.fileStorage == nil {
		return nil, ErrStorageUnavailable
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, validation.NewError("fileName", "this field is required")
	}
	if strings.TrimSpace(contentType) == "" {
		return nil, validation.NewError("contentType", "this field is required")
	}
	if err := s.checkWeek(ctx, weekID); err != nil {
		return nil, err
	}

	objectKey := storage.NewResourceKey(weekID, fileName)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmUpload records the metadata of a file the client has uploaded with a presigned URL.
func (s *resourceService) ConfirmUpload(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID, objectKey, fileName, contentType string, size int64) (*domain.WeekResource, error) {
	if !actor.CanManageChallenges() {
		return nil, ErrPermissionDenied
	}
	if s.fileStorage == nil {
		return nil, ErrStorageUnavailable
	}
	if !storage.BelongsToWeek(objectKey, weekID) {
		return nil, ErrInvalidObjectKey
	}
	if err := s.checkWeek(ctx, weekID); err != nil {
		return nil, err
	}

	resource := &domain.WeekResource{
		WeekID:      weekID,
		UploadedBy:  actor.UserID,
		S3ObjectKey: objectKey,
		FileName:    strings.TrimSpace(fileName),
		ContentType: contentType,
		Size:        size,
	}
	id, err := s.resourceRepo.Create(ctx, resource)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrInvalidObjectKey
		}
		log.Printf("ERROR: Failed to save resource metadata for key '%s': %v", objectKey, err)
		return nil, err
	}
	resource.ID = id
	return resource, nil
}

func (s *resourceService) ListResources(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID) ([]ResourceView, error) {
	if !actor.Authenticated() {
		return nil, ErrPermissionDenied
	}
	if err := s.checkWeek(ctx, weekID); err != nil {
		return nil, err
	}
	resources, err := s.resourceRepo.GetByWeekID(ctx, weekID)
	if err != nil {
		return nil, err
	}
	if len(resources) > 0 && s.fileStorage == nil {
		return nil, ErrStorageUnavailable
	}

	views := make([]ResourceView, 0, len(resources))
	for _, r := range resources {
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, r.S3ObjectKey, storage.DefaultPresignedURLExpiry)
		if err != nil {
			return nil, err
		}
		views = append(views, ResourceView{WeekResource: r, DownloadURL: url})
	}
	return views, nil
}

// DeleteResource removes the stored object first, then its metadata.
func (s *resourceService) DeleteResource(ctx context.Context, actor domain.Actor, weekID, resourceID primitive.ObjectID) error {
	if !actor.CanManageChallenges() {
		return ErrPermissionDenied
	}
	if s.fileStorage == nil {
		return ErrStorageUnavailable
	}
	resource, err := s.resourceRepo.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResourceNotFound
		}
		return err
	}
	if resource.WeekID != weekID {
		return ErrResourceNotFound
	}

	if err := s.fileStorage.DeleteObject(ctx, resource.S3ObjectKey); err != nil {
		return err
	}
	if err := s.resourceRepo.Delete(ctx, resourceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResourceNotFound
		}
		return err
	}
	return nil
}

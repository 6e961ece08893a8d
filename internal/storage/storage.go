package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

const resourcePrefix = "resources"

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error

	// DeleteObjects removes several objects at once. Keys that do not exist are ignored.
	DeleteObjects(ctx context.Context, objectKeys []string) error
}

// WeekPrefix returns the key prefix under which every resource of the week is stored.
func WeekPrefix(weekID primitive.ObjectID) string {
	return path.Join(resourcePrefix, weekID.Hex()) + "/"
}

// NewResourceKey builds a fresh, collision-free object key for a week resource.
// The extension of fileName is kept so downloads open with the right application.
func NewResourceKey(weekID primitive.ObjectID, fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if ext == "" {
		ext = "bin"
	}
	return WeekPrefix(weekID) + fmt.Sprintf("%s.%s", uuid.NewString(), ext)
}

// BelongsToWeek reports whether objectKey was issued for the given week.
func BelongsToWeek(objectKey string, weekID primitive.ObjectID) bool {
	prefix := WeekPrefix(weekID)
	return strings.HasPrefix(objectKey, prefix) &&
		len(objectKey) > len(prefix) &&
		!strings.Contains(objectKey[len(prefix):], "/") &&
		!strings.Contains(objectKey, "..")
}

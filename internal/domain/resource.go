package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeekResource stores metadata about a file attached to a week (worksheet,
// audio exercise, reading). The actual file resides in S3.
type WeekResource struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WeekID      primitive.ObjectID `bson:"weekId" json:"weekId"`
	UploadedBy  primitive.ObjectID `bson:"uploadedBy" json:"uploadedBy"`
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"`           // The unique key in the S3 bucket - internal use
	FileName    string             `bson:"fileName" json:"fileName"`       // Original filename provided by the uploader
	ContentType string             `bson:"contentType" json:"contentType"` // MIME type (e.g., "application/pdf")
	Size        int64              `bson:"size" json:"size"`               // File size in bytes
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}

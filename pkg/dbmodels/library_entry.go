package dbmodels

import "github.com/mynaparrot/plugnmeet-meetings/pkg/config"

const (
	LibraryBucketPrivate  = "private"
	LibraryBucketLoggedIn = "loggedin"
	LibraryBucketPublic   = "public"
)

// LibraryEntry places a resource in a principal's library, ranked by the
// resource's lastModified.
type LibraryEntry struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	LibraryId  string `gorm:"column:library_id;size:255;NOT NULL;index:idx_library_page,priority:1"`
	Bucket     string `gorm:"column:bucket;size:20;NOT NULL;index:idx_library_page,priority:2"`
	SortRank   int64  `gorm:"column:sort_rank;NOT NULL;index:idx_library_page,priority:3"`
	ResourceId string `gorm:"column:resource_id;size:255;NOT NULL;index"`
}

func (e *LibraryEntry) TableName() string {
	return config.FormatDBTable("library_entries")
}

// LibraryBucketsFor lists the buckets a resource of the given visibility is
// written to.
func LibraryBucketsFor(visibility string) []string {
	switch visibility {
	case config.VisibilityPublic:
		return []string{LibraryBucketPrivate, LibraryBucketLoggedIn, LibraryBucketPublic}
	case config.VisibilityLoggedIn:
		return []string{LibraryBucketPrivate, LibraryBucketLoggedIn}
	default:
		return []string{LibraryBucketPrivate}
	}
}

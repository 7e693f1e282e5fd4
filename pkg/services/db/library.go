package dbservice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"gorm.io/gorm"
)

// InsertLibraryEntry adds resourceId to a library in every bucket its
// visibility allows.
func (s *DatabaseService) InsertLibraryEntry(libraryId, resourceId, visibility string, rank int64) error {
	entries := newLibraryEntries(libraryId, resourceId, visibility, rank)
	return s.db.Create(&entries).Error
}

// UpdateLibraryEntry moves resourceId from oldRank to newRank. The buckets
// are recomputed from visibility so that visibility changes are applied too.
func (s *DatabaseService) UpdateLibraryEntry(libraryId, resourceId, visibility string, oldRank, newRank int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("library_id = ? AND resource_id = ? AND sort_rank = ?", libraryId, resourceId, oldRank).
			Delete(&dbmodels.LibraryEntry{}).Error
		if err != nil {
			return err
		}

		entries := newLibraryEntries(libraryId, resourceId, visibility, newRank)
		return tx.Create(&entries).Error
	})
}

// RemoveLibraryEntry drops every entry of resourceId from the library.
func (s *DatabaseService) RemoveLibraryEntry(libraryId, resourceId string) error {
	return s.db.Where("library_id = ? AND resource_id = ?", libraryId, resourceId).
		Delete(&dbmodels.LibraryEntry{}).Error
}

// GetLibraryPage reads one page of a library bucket in descending rank order.
// start is the token returned by the previous page.
func (s *DatabaseService) GetLibraryPage(libraryId, bucket, start string, limit int) ([]dbmodels.LibraryEntry, string, error) {
	q := s.db.Where("library_id = ? AND bucket = ?", libraryId, bucket)
	if start != "" {
		rank, resourceId, err := ParseLibraryToken(start)
		if err != nil {
			return nil, "", err
		}
		q = q.Where("(sort_rank < ? OR (sort_rank = ? AND resource_id < ?))", rank, rank, resourceId)
	}

	var rows []dbmodels.LibraryEntry
	err := q.Order("sort_rank DESC").Order("resource_id DESC").Limit(limit + 1).Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextToken := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		nextToken = LibraryToken(last.SortRank, last.ResourceId)
	}
	return rows, nextToken, nil
}

// ResetLibraryEntry replaces every entry of resourceId in the library with a
// fresh set at rank.
func (s *DatabaseService) ResetLibraryEntry(libraryId, resourceId, visibility string, rank int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("library_id = ? AND resource_id = ?", libraryId, resourceId).
			Delete(&dbmodels.LibraryEntry{}).Error
		if err != nil {
			return err
		}

		entries := newLibraryEntries(libraryId, resourceId, visibility, rank)
		return tx.Create(&entries).Error
	})
}

// CountLibraryEntries is used by maintenance tasks and tests.
func (s *DatabaseService) CountLibraryEntries(libraryId, resourceId string) (int64, error) {
	var count int64
	err := s.db.Model(&dbmodels.LibraryEntry{}).
		Where("library_id = ? AND resource_id = ?", libraryId, resourceId).
		Count(&count).Error
	return count, err
}

func LibraryToken(rank int64, resourceId string) string {
	return fmt.Sprintf("%d:%s", rank, resourceId)
}

func ParseLibraryToken(token string) (int64, string, error) {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("invalid library token %q", token)
	}
	rank, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid library token %q: %w", token, err)
	}
	return rank, parts[1], nil
}

func newLibraryEntries(libraryId, resourceId, visibility string, rank int64) []dbmodels.LibraryEntry {
	buckets := dbmodels.LibraryBucketsFor(visibility)
	entries := make([]dbmodels.LibraryEntry, 0, len(buckets))
	for _, b := range buckets {
		entries = append(entries, dbmodels.LibraryEntry{
			LibraryId:  libraryId,
			Bucket:     b,
			SortRank:   rank,
			ResourceId: resourceId,
		})
	}
	return entries
}

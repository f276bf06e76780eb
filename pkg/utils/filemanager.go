// =============================================================================
// shiftpay - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the pipeline, including:
//   - Directory management (downloads, watched input, archive)
//   - Schedule file discovery for watch mode
//   - File archival (moving processed schedules)
//   - Cleanup of downloaded and converted files
//   - Download file naming
//
// CLEANUP STRATEGY:
//   - The converted .xlsx is removed when it differs from the input
//   - Downloaded inputs are removed after reporting
//   - Local inputs given on the command line are never removed
//   - Inputs picked up from the watched directory are archived instead
//
// =============================================================================

package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScheduleExtensions are the accepted schedule file extensions.
var ScheduleExtensions = []string{".xls", ".xlsx"}

// tempPrefix marks files still being written.
const tempPrefix = ".shiftpay-"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the pipeline.
type FileManager struct {
	// DownloadDir is where bot downloads are saved.
	DownloadDir string

	// InputDir is the directory watched for schedules in local watch mode.
	InputDir string

	// ArchiveDir receives processed schedules from InputDir.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2025/11/24/schedule.xls
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(downloadDir, inputDir, archiveDir string) *FileManager {
	return &FileManager{
		DownloadDir: downloadDir,
		InputDir:    inputDir,
		ArchiveDir:  archiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates every configured directory that does not exist.
// Empty entries are skipped.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.DownloadDir, fm.InputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// IsSchedule reports whether name has a schedule extension (any case).
func IsSchedule(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ScheduleExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// DiscoverSchedules lists the schedule files in InputDir, oldest first.
// Temporary files and directories are skipped.
func (fm *FileManager) DiscoverSchedules() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	type found struct {
		path string
		mod  time.Time
	}
	var files []found
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, tempPrefix) || !IsSchedule(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, found{path: filepath.Join(fm.InputDir, name), mod: info.ModTime()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].mod.Equal(files[j].mod) {
			return files[i].path < files[j].path
		}
		return files[i].mod.Before(files[j].mod)
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveFile moves a processed file into ArchiveDir.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveFile(filePath string) (string, error) {
	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := time.Now()
		return filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.ArchiveDir, fileName)
}

// CleanOldArchives removes archived files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func (fm *FileManager) CleanOldArchives(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(fm.ArchiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}

// =============================================================================
// CLEANUP
// =============================================================================

// RemoveFiles deletes each existing path, skipping empty and duplicate ones.
//
// RETURNS:
//   - The paths that were deleted.
//   - The joined errors of the paths that could not be deleted.
func RemoveFiles(paths ...string) ([]string, error) {
	var removed []string
	var errs []error
	seen := make(map[string]bool)

	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if !FileExists(p) {
			continue
		}
		if err := os.Remove(p); err != nil {
			errs = append(errs, fmt.Errorf("could not delete %s: %w", p, err))
			continue
		}
		removed = append(removed, p)
	}

	return removed, errors.Join(errs...)
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateFileName builds a file name from a format string.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               plus one placeholder per params key, e.g. {original}
//   - params: A map of placeholder values.
//
// Path separators in the result are replaced, so the name always stays
// inside the directory it is joined to.
//
// EXAMPLE:
//   format: "{unique}_{original}"
//   params: {"unique": "AgADBQAD", "original": "week.xls"}
//   output: "AgADBQAD_week.xls"
func GenerateFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	result = strings.NewReplacer("/", "_", "\\", "_").Replace(result)
	if result == "" || result == "." || result == ".." {
		result = uuid.New().String()
	}
	return result
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

package cli

import (
	"github.com/toyz/ray/internal/utils"
)

// DirectoryScanner turns command line patterns into package directories
type DirectoryScanner struct {
	fileProcessor *utils.FileProcessor
}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{
		fileProcessor: utils.NewFileProcessor(),
	}
}

// ScanDirectories returns the directories holding Go files. Go-style
// patterns like "./..." are scanned recursively; plain paths are taken as is.
func (s *DirectoryScanner) ScanDirectories(patterns []string) ([]string, error) {
	return s.fileProcessor.ExpandPatterns(patterns)
}

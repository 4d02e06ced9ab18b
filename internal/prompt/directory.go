package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	relativePathSeparatorConstant = "/"
	parentDirectoryPrefixConstant = ".."
	currentDirectoryNameConstant  = "."
)

// WorkingDirectoryProvider reports the top-level directory of a repository checkout.
type WorkingDirectoryProvider interface {
	WorkingDirectory() (string, bool)
}

// DirectoryContext pairs the current directory with the repository enclosing it, if any.
type DirectoryContext struct {
	Path       string
	Repository WorkingDirectoryProvider
}

// Label renders the directory portion of the prompt.
//
// Outside a repository it is the current directory's name. At the repository
// root it is the root's name, and below the root it is the root's name joined
// with the path relative to it. A bare repository yields an empty label.
func (directoryContext DirectoryContext) Label() string {
	if directoryContext.Repository == nil {
		return directoryShortName(directoryContext.Path)
	}

	workingDirectory, hasWorkingDirectory := directoryContext.Repository.WorkingDirectory()
	if !hasWorkingDirectory {
		return ""
	}

	if samePath(workingDirectory, directoryContext.Path) {
		return directoryShortName(directoryContext.Path)
	}

	return subdirectoryLabel(workingDirectory, directoryContext.Path)
}

// String returns Label.
func (directoryContext DirectoryContext) String() string {
	return directoryContext.Label()
}

func subdirectoryLabel(workingDirectory string, currentDirectory string) string {
	rootName := directoryShortName(workingDirectory)
	if len(rootName) == 0 {
		return ""
	}

	label := rootName + relativePathSeparatorConstant

	relativePath, relativeError := filepath.Rel(filepath.Clean(workingDirectory), filepath.Clean(currentDirectory))
	if relativeError != nil || relativePath == parentDirectoryPrefixConstant || strings.HasPrefix(relativePath, parentDirectoryPrefixConstant+string(filepath.Separator)) {
		return label
	}
	if !utf8.ValidString(relativePath) {
		return label
	}

	return label + relativePath
}

// directoryShortName returns the final path segment when path names an existing directory and the segment is valid text.
func directoryShortName(path string) string {
	if len(path) == 0 {
		return ""
	}

	fileInfo, statError := os.Stat(path)
	if statError != nil || !fileInfo.IsDir() {
		return ""
	}

	baseName := filepath.Base(filepath.Clean(path))
	if baseName == string(filepath.Separator) || baseName == currentDirectoryNameConstant {
		return ""
	}
	if !utf8.ValidString(baseName) {
		return ""
	}
	return baseName
}

func samePath(firstPath string, secondPath string) bool {
	return filepath.Clean(firstPath) == filepath.Clean(secondPath)
}

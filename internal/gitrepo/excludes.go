package gitrepo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const (
	xdgConfigHomeEnvironmentConstant   = "XDG_CONFIG_HOME"
	xdgDefaultConfigDirectoryConstant  = ".config"
	gitConfigDirectoryNameConstant     = "git"
	xdgIgnoreFileNameConstant          = "ignore"
	ignoreCommentPrefixConstant        = "#"
	ignoreLineSeparatorConstant        = "\n"
	ignoreCarriageReturnSuffixConstant = "\r"
)

// loadUserExcludes collects the ignore patterns git applies on top of the
// repository's own .gitignore files: core.excludesfile from the system and
// global configuration, or $XDG_CONFIG_HOME/git/ignore when no global
// core.excludesfile is configured. Unreadable sources contribute nothing.
func loadUserExcludes() []gitignore.Pattern {
	rootFilesystem := osfs.New(string(filepath.Separator))

	var patterns []gitignore.Pattern
	if systemPatterns, systemError := gitignore.LoadSystemPatterns(rootFilesystem); systemError == nil {
		patterns = append(patterns, systemPatterns...)
	}

	globalPatterns, globalError := gitignore.LoadGlobalPatterns(rootFilesystem)
	if globalError == nil && len(globalPatterns) > 0 {
		return append(patterns, globalPatterns...)
	}

	xdgIgnorePath, resolved := xdgIgnoreFilePath()
	if !resolved {
		return patterns
	}
	return append(patterns, readIgnoreFile(rootFilesystem, xdgIgnorePath)...)
}

func xdgIgnoreFilePath() (string, bool) {
	configurationHome := os.Getenv(xdgConfigHomeEnvironmentConstant)
	if len(configurationHome) == 0 {
		homeDirectory, homeError := os.UserHomeDir()
		if homeError != nil || len(homeDirectory) == 0 {
			return "", false
		}
		configurationHome = filepath.Join(homeDirectory, xdgDefaultConfigDirectoryConstant)
	}
	return filepath.Join(configurationHome, gitConfigDirectoryNameConstant, xdgIgnoreFileNameConstant), true
}

func readIgnoreFile(filesystem billy.Filesystem, ignoreFilePath string) []gitignore.Pattern {
	content, readError := util.ReadFile(filesystem, ignoreFilePath)
	if readError != nil {
		return nil
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), ignoreLineSeparatorConstant) {
		line = strings.TrimSuffix(line, ignoreCarriageReturnSuffixConstant)
		if strings.HasPrefix(line, ignoreCommentPrefixConstant) || len(strings.TrimSpace(line)) == 0 {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns
}

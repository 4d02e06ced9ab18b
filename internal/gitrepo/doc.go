// Package gitrepo contains read-only helpers for interrogating Git repositories.
//
// It exposes RepositoryLocator for upward discovery of the repository that
// encloses a directory, and Repository for inspecting its operation state,
// HEAD reference, and working tree status through go-git.
package gitrepo

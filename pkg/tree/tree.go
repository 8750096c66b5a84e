// Package tree synthesizes a navigable folder hierarchy from the flat list of
// decrypted object paths. All functions are pure; they are re-run whenever
// the listing or the current directory changes.
package tree

import (
	"strings"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"
)

// PromoteToFolder replaces a file entry with the synthesized folder entry of
// its parent: "a/b/file.txt" becomes "a/b/". An entry whose path already ends
// in "/" is a folder marker and is returned unchanged.
func PromoteToFolder(obj dto.DecryptedObject) dto.DecryptedObject {
	if obj.IsFolder() {
		return obj
	}
	segments := strings.Split(obj.Path, "/")
	obj.Path = strings.Join(segments[:len(segments)-1], "/") + "/"
	return obj
}

// FolderSet derives the distinct parent directories implied by the listing.
// Only entries whose path contains at least one "/" contribute; the promoted
// folder paths are deduplicated keeping the first occurrence.
func FolderSet(objects []dto.DecryptedObject) []dto.DecryptedObject {
	var folders []dto.DecryptedObject
	seen := make(map[string]struct{})
	for _, obj := range objects {
		if !strings.Contains(obj.Path, "/") {
			continue
		}
		folder := PromoteToFolder(obj)
		if _, ok := seen[folder.Path]; ok {
			continue
		}
		seen[folder.Path] = struct{}{}
		folders = append(folders, folder)
	}
	return folders
}

// FoldersIn filters a folder set down to the direct children of dir.
// A folder belongs iff its path starts with dir, is not dir itself, and the
// remainder after stripping dir is exactly one segment plus the trailing
// empty one.
func FoldersIn(dir string, folders []dto.DecryptedObject) []dto.DecryptedObject {
	var result []dto.DecryptedObject
	for _, folder := range folders {
		if !strings.HasPrefix(folder.Path, dir) || folder.Path == dir {
			continue
		}
		rest := strings.TrimPrefix(folder.Path, dir)
		if len(strings.Split(rest, "/")) == 2 {
			result = append(result, folder)
		}
	}
	return result
}

// FilesIn filters the listing down to the files sitting directly in dir:
// folder markers are skipped, the path starts with dir and the remainder is
// non-empty with no further "/".
func FilesIn(dir string, objects []dto.DecryptedObject) []dto.DecryptedObject {
	var result []dto.DecryptedObject
	for _, obj := range objects {
		if obj.IsFolder() || !strings.HasPrefix(obj.Path, dir) {
			continue
		}
		rest := strings.TrimPrefix(obj.Path, dir)
		if rest == "" {
			continue
		}
		if len(strings.Split(rest, "/")) == 1 {
			result = append(result, obj)
		}
	}
	return result
}

// FolderDisplayName strips the current directory prefix and the trailing "/".
func FolderDisplayName(dir string, folder dto.DecryptedObject) string {
	return strings.TrimSuffix(strings.TrimPrefix(folder.Path, dir), "/")
}

// FileDisplayName strips the current directory prefix.
func FileDisplayName(dir string, file dto.DecryptedObject) string {
	return strings.TrimPrefix(file.Path, dir)
}

// ParentDir drops the last segment of dir: "a/b/" becomes "a/", "a/" becomes
// the root. At the root it is a no-op.
func ParentDir(dir string) string {
	if dir == "" {
		return ""
	}
	segments := strings.Split(dir, "/")
	if len(segments) <= 2 {
		return ""
	}
	return strings.Join(segments[:len(segments)-2], "/") + "/"
}

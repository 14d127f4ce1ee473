package subbuild

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
)

const artifactFile = "bundle.js"

// Artifact is the unique output file of one sub-build. It belongs to a
// single trigger and is left on disk for the OS to clean up.
type Artifact struct {
	ID   string
	Dir  string
	Path string
}

// ArtifactAllocator reserves a fresh Artifact.
type ArtifactAllocator func() (Artifact, error)

// NewArtifact reserves <tmp>/staticrender-<uuid>/bundle.js.
func NewArtifact() (Artifact, error) {
	return newArtifactIn(os.TempDir())
}

func newArtifactIn(base string) (Artifact, error) {
	id := uuid.NewString()
	dir := filepath.Join(base, "staticrender-"+id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Artifact{}, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "allocate sub-build artifact").
			WithContext("dir", dir).
			Build()
	}
	return Artifact{ID: id, Dir: dir, Path: filepath.Join(dir, artifactFile)}, nil
}

package fanout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
)

type fakeSource struct {
	images  []entity.UploadedImage
	heights []entity.ThumbnailHeight
}

func (s *fakeSource) GetImage(_ context.Context, id uuid.UUID) (*entity.UploadedImage, error) {
	for i := range s.images {
		if s.images[i].ID == id {
			return &s.images[i], nil
		}
	}
	return nil, fmt.Errorf("image %s not found", id)
}

func (s *fakeSource) ListImages(_ context.Context) ([]entity.UploadedImage, error) {
	return s.images, nil
}

func (s *fakeSource) ListImagesByOwner(_ context.Context, ownerID uuid.UUID) ([]entity.UploadedImage, error) {
	var out []entity.UploadedImage
	for _, img := range s.images {
		if img.OwnerID == ownerID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (s *fakeSource) GetHeight(_ context.Context, id uuid.UUID) (*entity.ThumbnailHeight, error) {
	for i := range s.heights {
		if s.heights[i].ID == id {
			return &s.heights[i], nil
		}
	}
	return nil, fmt.Errorf("height %s not found", id)
}

func (s *fakeSource) ListHeights(_ context.Context) ([]entity.ThumbnailHeight, error) {
	return s.heights, nil
}

type pairKey struct {
	imageID  uuid.UUID
	heightID uuid.UUID
}

type fakeArtifacts struct {
	saved map[pairKey]Artifact
	// raceOn simulates a concurrent writer winning the insert for these
	// pairs: Exists answers false but Save fails with ErrThumbnailExists.
	raceOn  map[pairKey]bool
	saveErr error
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{
		saved:  make(map[pairKey]Artifact),
		raceOn: make(map[pairKey]bool),
	}
}

func (a *fakeArtifacts) Exists(_ context.Context, imageID, heightID uuid.UUID) (bool, error) {
	_, ok := a.saved[pairKey{imageID, heightID}]
	return ok, nil
}

func (a *fakeArtifacts) Save(_ context.Context, artifact Artifact) error {
	key := pairKey{artifact.ParentImageID, artifact.HeightID}
	if a.raceOn[key] {
		return ErrThumbnailExists
	}
	if a.saveErr != nil {
		return a.saveErr
	}
	if _, ok := a.saved[key]; ok {
		return ErrThumbnailExists
	}
	a.saved[key] = artifact
	return nil
}

type fakeBlobs struct {
	data    map[string][]byte
	fetches int
}

func (b *fakeBlobs) Fetch(_ context.Context, storagePath string) ([]byte, error) {
	b.fetches++
	data, ok := b.data[storagePath]
	if !ok {
		return nil, fmt.Errorf("blob '%s' not found", storagePath)
	}
	return data, nil
}

type fakeResizer struct {
	failOnHeight int
}

func (r *fakeResizer) ResizeToHeight(src []byte, height int) ([]byte, int, error) {
	if r.failOnHeight != 0 && height == r.failOnHeight {
		return nil, 0, errors.New("resize blew up")
	}
	return append([]byte("thumb-"), src...), height * 2, nil
}

type nopLogger struct{}

func (nopLogger) InfoWithContextf(context.Context, string, ...interface{})         {}
func (nopLogger) WarningWithContextf(context.Context, string, ...interface{})      {}
func (nopLogger) ErrorWithContextf(context.Context, error, string, ...interface{}) {}

type fixture struct {
	source    *fakeSource
	artifacts *fakeArtifacts
	blobs     *fakeBlobs
	resizer   *fakeResizer
	engine    *Engine
}

func newFixture(images []entity.UploadedImage, heights []entity.ThumbnailHeight) *fixture {
	blobs := &fakeBlobs{data: make(map[string][]byte)}
	for _, img := range images {
		blobs.data[img.StoragePath] = []byte("src-" + img.FileName)
	}
	source := &fakeSource{images: images, heights: heights}
	artifacts := newFakeArtifacts()
	resizer := &fakeResizer{}
	engine := NewEngine(source, artifacts, blobs, resizer, nopLogger{})
	return &fixture{source: source, artifacts: artifacts, blobs: blobs, resizer: resizer, engine: engine}
}

func makeImage(owner uuid.UUID, name string) entity.UploadedImage {
	id := uuid.New()
	return entity.UploadedImage{
		ID:          id,
		OwnerID:     owner,
		FileName:    name,
		StoragePath: "originals/" + id.String(),
	}
}

func makeHeight(px int) entity.ThumbnailHeight {
	return entity.ThumbnailHeight{ID: uuid.New(), HeightPixels: px}
}

func TestProcessNewImage(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("creates one thumbnail per height", func(t *testing.T) {
		img := makeImage(owner, "cat.png")
		heights := []entity.ThumbnailHeight{makeHeight(200), makeHeight(400), makeHeight(800)}
		f := newFixture([]entity.UploadedImage{img}, heights)

		report, err := f.engine.ProcessNewImage(ctx, img.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Created != 3 || report.Skipped != 0 || report.Failed != 0 {
			t.Fatalf("unexpected report: %+v", report)
		}
		if len(f.artifacts.saved) != 3 {
			t.Fatalf("expected 3 artifacts, got %d", len(f.artifacts.saved))
		}
		for _, artifact := range f.artifacts.saved {
			if artifact.OwnerID != owner {
				t.Errorf("artifact owner = %s, want %s", artifact.OwnerID, owner)
			}
		}
	})

	t.Run("fetches source bytes once per image", func(t *testing.T) {
		img := makeImage(owner, "cat.png")
		heights := []entity.ThumbnailHeight{makeHeight(100), makeHeight(200), makeHeight(300), makeHeight(400)}
		f := newFixture([]entity.UploadedImage{img}, heights)

		if _, err := f.engine.ProcessNewImage(ctx, img.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.blobs.fetches != 1 {
			t.Fatalf("expected 1 source fetch, got %d", f.blobs.fetches)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		img := makeImage(owner, "cat.png")
		heights := []entity.ThumbnailHeight{makeHeight(200), makeHeight(400)}
		f := newFixture([]entity.UploadedImage{img}, heights)

		if _, err := f.engine.ProcessNewImage(ctx, img.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		report, err := f.engine.ProcessNewImage(ctx, img.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Created != 0 || report.Skipped != 2 {
			t.Fatalf("second run should skip everything, got %+v", report)
		}
		if len(f.artifacts.saved) != 2 {
			t.Fatalf("expected 2 artifacts after rerun, got %d", len(f.artifacts.saved))
		}
	})

	t.Run("fails fast when no heights are defined", func(t *testing.T) {
		img := makeImage(owner, "cat.png")
		f := newFixture([]entity.UploadedImage{img}, nil)

		_, err := f.engine.ProcessNewImage(ctx, img.ID)
		if !errors.Is(err, ErrMisconfiguredTiers) {
			t.Fatalf("expected ErrMisconfiguredTiers, got %v", err)
		}
	})

	t.Run("one failing pair does not block the rest", func(t *testing.T) {
		img := makeImage(owner, "cat.png")
		heights := []entity.ThumbnailHeight{makeHeight(200), makeHeight(400), makeHeight(800)}
		f := newFixture([]entity.UploadedImage{img}, heights)
		f.resizer.failOnHeight = 400

		report, err := f.engine.ProcessNewImage(ctx, img.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Created != 2 || report.Failed != 1 {
			t.Fatalf("unexpected report: %+v", report)
		}
	})

	t.Run("images sharing a filename never share a blob key", func(t *testing.T) {
		first := makeImage(owner, "cat.jpg")
		second := makeImage(uuid.New(), "cat.jpg")
		h := makeHeight(200)
		f := newFixture([]entity.UploadedImage{first, second}, []entity.ThumbnailHeight{h})

		if _, err := f.engine.ProcessNewImage(ctx, first.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := f.engine.ProcessNewImage(ctx, second.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		firstPath := f.artifacts.saved[pairKey{first.ID, h.ID}].StoragePath
		secondPath := f.artifacts.saved[pairKey{second.ID, h.ID}].StoragePath
		if firstPath == secondPath {
			t.Fatalf("distinct images share blob key %q", firstPath)
		}
	})

	t.Run("treats a lost insert race as a skip", func(t *testing.T) {
		img := makeImage(owner, "cat.png")
		h := makeHeight(200)
		f := newFixture([]entity.UploadedImage{img}, []entity.ThumbnailHeight{h})
		f.artifacts.raceOn[pairKey{img.ID, h.ID}] = true

		report, err := f.engine.ProcessNewImage(ctx, img.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Created != 0 || report.Skipped != 1 || report.Failed != 0 {
			t.Fatalf("unexpected report: %+v", report)
		}
	})
}

func TestProcessNewHeight(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("covers every existing image", func(t *testing.T) {
		images := []entity.UploadedImage{
			makeImage(owner, "a.png"),
			makeImage(owner, "b.jpg"),
			makeImage(uuid.New(), "c.jpg"),
		}
		h := makeHeight(640)
		f := newFixture(images, []entity.ThumbnailHeight{h})

		report, err := f.engine.ProcessNewHeight(ctx, h.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Created != 3 {
			t.Fatalf("expected 3 created, got %+v", report)
		}
		for _, img := range images {
			if _, ok := f.artifacts.saved[pairKey{img.ID, h.ID}]; !ok {
				t.Errorf("missing thumbnail for image %s", img.ID)
			}
		}
	})

	t.Run("fails fast when no images exist", func(t *testing.T) {
		h := makeHeight(640)
		f := newFixture(nil, []entity.ThumbnailHeight{h})

		_, err := f.engine.ProcessNewHeight(ctx, h.ID)
		if !errors.Is(err, ErrNoImages) {
			t.Fatalf("expected ErrNoImages, got %v", err)
		}
	})

	t.Run("does not touch other heights", func(t *testing.T) {
		img := makeImage(owner, "a.png")
		existing := makeHeight(200)
		added := makeHeight(400)
		f := newFixture([]entity.UploadedImage{img}, []entity.ThumbnailHeight{existing, added})

		if _, err := f.engine.ProcessNewHeight(ctx, added.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := f.artifacts.saved[pairKey{img.ID, existing.ID}]; ok {
			t.Fatal("thumbnail for unrelated height was created")
		}
		if _, ok := f.artifacts.saved[pairKey{img.ID, added.ID}]; !ok {
			t.Fatal("thumbnail for the new height is missing")
		}
	})
}

func TestRepairUser(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	t.Run("fills only the gaps and only for that user", func(t *testing.T) {
		mine := makeImage(owner, "mine.png")
		mineToo := makeImage(owner, "mine_too.png")
		theirs := makeImage(stranger, "theirs.png")
		h1 := makeHeight(200)
		h2 := makeHeight(400)
		f := newFixture([]entity.UploadedImage{mine, mineToo, theirs}, []entity.ThumbnailHeight{h1, h2})

		// Pre-materialize one pair; repair must leave it alone.
		f.artifacts.saved[pairKey{mine.ID, h1.ID}] = Artifact{ParentImageID: mine.ID, HeightID: h1.ID}

		report, err := f.engine.RepairUser(ctx, owner)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Created != 3 || report.Skipped != 1 {
			t.Fatalf("unexpected report: %+v", report)
		}
		if _, ok := f.artifacts.saved[pairKey{theirs.ID, h1.ID}]; ok {
			t.Fatal("repair crossed into another user's images")
		}
	})

	t.Run("is idempotent over an unchanged scope", func(t *testing.T) {
		img := makeImage(owner, "mine.png")
		heights := []entity.ThumbnailHeight{makeHeight(200), makeHeight(400)}
		f := newFixture([]entity.UploadedImage{img}, heights)

		if _, err := f.engine.RepairUser(ctx, owner); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		report, err := f.engine.RepairUser(ctx, owner)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Created != 0 || report.Skipped != 2 {
			t.Fatalf("second sweep should create nothing, got %+v", report)
		}
	})

	t.Run("fails fast for a user with no images", func(t *testing.T) {
		f := newFixture(nil, []entity.ThumbnailHeight{makeHeight(200)})

		_, err := f.engine.RepairUser(ctx, owner)
		if !errors.Is(err, ErrNoImages) {
			t.Fatalf("expected ErrNoImages, got %v", err)
		}
	})
}

func TestThumbnailStoragePath(t *testing.T) {
	imageID := uuid.MustParse("a3c9b1de-5f20-4b8a-9c37-6d1e82f4a051")

	tests := []struct {
		name     string
		fileName string
		height   int
		want     string
	}{
		{"plain jpg", "cat.jpg", 200, "thumbnails/a3c9b1de-5f20-4b8a-9c37-6d1e82f4a051/cat_thumbnail_200.jpg"},
		{"png source still yields jpg", "diagram.png", 400, "thumbnails/a3c9b1de-5f20-4b8a-9c37-6d1e82f4a051/diagram_thumbnail_400.jpg"},
		{"nested path keeps base only", "albums/2024/trip.jpeg", 64, "thumbnails/a3c9b1de-5f20-4b8a-9c37-6d1e82f4a051/trip_thumbnail_64.jpg"},
		{"no extension", "raw", 800, "thumbnails/a3c9b1de-5f20-4b8a-9c37-6d1e82f4a051/raw_thumbnail_800.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ThumbnailStoragePath(imageID, tt.fileName, tt.height)
			if got != tt.want {
				t.Errorf("ThumbnailStoragePath(%s, %q, %d) = %q, want %q", imageID, tt.fileName, tt.height, got, tt.want)
			}
		})
	}

	t.Run("images sharing a filename get distinct keys", func(t *testing.T) {
		a := ThumbnailStoragePath(uuid.New(), "cat.jpg", 200)
		b := ThumbnailStoragePath(uuid.New(), "cat.jpg", 200)
		if a == b {
			t.Fatalf("distinct images share blob key %q", a)
		}
	})
}

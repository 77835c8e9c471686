// Package fanout materializes thumbnails for every required
// (image, height) combination. Three jobs share one per-pair loop and
// differ only in scope: a new image across all heights, a new height
// across all images, or a full sweep of one user's images.
//
// The engine only talks to narrow interfaces so jobs can run against
// in-memory stand-ins in tests, decoupled from the queue transport and
// the persistence layer that drive it in production.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
)

var (
	// ErrMisconfiguredTiers means the height universe is empty. Tiers
	// without heights are an operational misconfiguration, not a
	// transient fault: the job aborts and must not be retried.
	ErrMisconfiguredTiers = errors.New("no thumbnail heights are defined")

	// ErrNoImages means the job's image scope is empty; aborted, not
	// retried.
	ErrNoImages = errors.New("no uploaded images in scope")

	// ErrThumbnailExists is returned by ArtifactStore.Save when another
	// job materialized the same pair first. The engine counts the pair
	// as skipped.
	ErrThumbnailExists = errors.New("thumbnail already materialized")
)

// SourceStore resolves the images and heights a job iterates over.
type SourceStore interface {
	GetImage(ctx context.Context, id uuid.UUID) (*entity.UploadedImage, error)
	ListImages(ctx context.Context) ([]entity.UploadedImage, error)
	ListImagesByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.UploadedImage, error)
	GetHeight(ctx context.Context, id uuid.UUID) (*entity.ThumbnailHeight, error)
	ListHeights(ctx context.Context) ([]entity.ThumbnailHeight, error)
}

// ArtifactStore persists thumbnail artifacts and answers existence
// checks at the (image, height) grain. Save must fail with
// ErrThumbnailExists when the pair is already materialized.
type ArtifactStore interface {
	Exists(ctx context.Context, imageID, heightID uuid.UUID) (bool, error)
	Save(ctx context.Context, artifact Artifact) error
}

// BlobFetcher reads original upload bytes from object storage.
type BlobFetcher interface {
	Fetch(ctx context.Context, storagePath string) ([]byte, error)
}

// Resizer produces JPEG bytes at the target height; see processor.
type Resizer interface {
	ResizeToHeight(src []byte, height int) ([]byte, int, error)
}

// Logger is the subset of infra.LoggerClient the engine needs.
type Logger interface {
	InfoWithContextf(ctx context.Context, format string, args ...interface{})
	WarningWithContextf(ctx context.Context, format string, args ...interface{})
	ErrorWithContextf(ctx context.Context, err error, format string, args ...interface{})
}

// Artifact is one materialized thumbnail handed to the ArtifactStore.
type Artifact struct {
	ParentImageID uuid.UUID
	HeightID      uuid.UUID
	OwnerID       uuid.UUID
	StoragePath   string
	Width         int
	Data          []byte
}

// Report summarizes one job run.
type Report struct {
	Created int
	Skipped int
	Failed  int
}

type Engine struct {
	source    SourceStore
	artifacts ArtifactStore
	blobs     BlobFetcher
	resizer   Resizer
	logger    Logger
}

func NewEngine(source SourceStore, artifacts ArtifactStore, blobs BlobFetcher, resizer Resizer, logger Logger) *Engine {
	return &Engine{
		source:    source,
		artifacts: artifacts,
		blobs:     blobs,
		resizer:   resizer,
		logger:    logger,
	}
}

// ProcessNewImage materializes one image across every defined height.
func (e *Engine) ProcessNewImage(ctx context.Context, imageID uuid.UUID) (Report, error) {
	img, err := e.source.GetImage(ctx, imageID)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load image %s: %w", imageID, err)
	}

	heights, err := e.source.ListHeights(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list heights: %w", err)
	}
	if len(heights) == 0 {
		return Report{}, ErrMisconfiguredTiers
	}

	report := e.processImage(ctx, img, heights)
	e.logger.InfoWithContextf(ctx, "[Fanout] ProcessNewImage %s: created=%d skipped=%d failed=%d",
		imageID, report.Created, report.Skipped, report.Failed)
	return report, nil
}

// ProcessNewHeight materializes one height across every existing image.
func (e *Engine) ProcessNewHeight(ctx context.Context, heightID uuid.UUID) (Report, error) {
	height, err := e.source.GetHeight(ctx, heightID)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load height %s: %w", heightID, err)
	}

	images, err := e.source.ListImages(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list images: %w", err)
	}
	if len(images) == 0 {
		return Report{}, ErrNoImages
	}

	var report Report
	heights := []entity.ThumbnailHeight{*height}
	for i := range images {
		sub := e.processImage(ctx, &images[i], heights)
		report.Created += sub.Created
		report.Skipped += sub.Skipped
		report.Failed += sub.Failed
	}

	e.logger.InfoWithContextf(ctx, "[Fanout] ProcessNewHeight %dpx: created=%d skipped=%d failed=%d",
		height.HeightPixels, report.Created, report.Skipped, report.Failed)
	return report, nil
}

// RepairUser sweeps one user's images across every defined height,
// filling any gaps. Re-running over an unchanged scope creates nothing.
func (e *Engine) RepairUser(ctx context.Context, userID uuid.UUID) (Report, error) {
	images, err := e.source.ListImagesByOwner(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list images for user %s: %w", userID, err)
	}
	if len(images) == 0 {
		return Report{}, ErrNoImages
	}

	heights, err := e.source.ListHeights(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list heights: %w", err)
	}
	if len(heights) == 0 {
		return Report{}, ErrMisconfiguredTiers
	}

	var report Report
	for i := range images {
		sub := e.processImage(ctx, &images[i], heights)
		report.Created += sub.Created
		report.Skipped += sub.Skipped
		report.Failed += sub.Failed
	}

	e.logger.InfoWithContextf(ctx, "[Fanout] RepairUser %s: created=%d skipped=%d failed=%d",
		userID, report.Created, report.Skipped, report.Failed)
	return report, nil
}

// processImage runs the shared per-pair loop for one image. Source bytes
// are fetched once and reused across heights. A failing pair is logged
// and counted but never aborts the remaining pairs: one bad image or one
// bad height must not block the rest of the batch.
func (e *Engine) processImage(ctx context.Context, img *entity.UploadedImage, heights []entity.ThumbnailHeight) Report {
	var report Report
	var src []byte

	for _, height := range heights {
		exists, err := e.artifacts.Exists(ctx, img.ID, height.ID)
		if err != nil {
			e.logger.ErrorWithContextf(ctx, err, "[Fanout] Existence check failed for image %s height %dpx",
				img.ID, height.HeightPixels)
			report.Failed++
			continue
		}
		if exists {
			report.Skipped++
			continue
		}

		if src == nil {
			src, err = e.blobs.Fetch(ctx, img.StoragePath)
			if err != nil {
				e.logger.ErrorWithContextf(ctx, err, "[Fanout] Failed to fetch source bytes for image %s", img.ID)
				// Every remaining pair of this image needs the same bytes.
				report.Failed += remainingPairs(heights, height)
				return report
			}
		}

		data, width, err := e.resizer.ResizeToHeight(src, height.HeightPixels)
		if err != nil {
			e.logger.ErrorWithContextf(ctx, err, "[Fanout] Resize failed for image %s height %dpx",
				img.ID, height.HeightPixels)
			report.Failed++
			continue
		}

		artifact := Artifact{
			ParentImageID: img.ID,
			HeightID:      height.ID,
			OwnerID:       img.OwnerID,
			StoragePath:   ThumbnailStoragePath(img.ID, img.FileName, height.HeightPixels),
			Width:         width,
			Data:          data,
		}

		err = e.artifacts.Save(ctx, artifact)
		if errors.Is(err, ErrThumbnailExists) {
			// A concurrent job won the race on this pair; benign.
			e.logger.WarningWithContextf(ctx, "[Fanout] Duplicate thumbnail for image %s height %dpx, dropping ours",
				img.ID, height.HeightPixels)
			report.Skipped++
			continue
		}
		if err != nil {
			e.logger.ErrorWithContextf(ctx, err, "[Fanout] Failed to persist thumbnail for image %s height %dpx",
				img.ID, height.HeightPixels)
			report.Failed++
			continue
		}

		report.Created++
	}

	return report
}

// remainingPairs counts heights from the current one to the end of the
// slice, inclusive.
func remainingPairs(heights []entity.ThumbnailHeight, current entity.ThumbnailHeight) int {
	for i := range heights {
		if heights[i].ID == current.ID {
			return len(heights) - i
		}
	}
	return 0
}

// ThumbnailStoragePath builds the blob key for a thumbnail:
// thumbnails/<image-id>/<source-stem>_thumbnail_<height>.jpg. The image
// id segment keeps keys distinct across uploads sharing a filename; the
// stem only makes the storage layout human readable.
func ThumbnailStoragePath(imageID uuid.UUID, sourceFileName string, heightPixels int) string {
	base := path.Base(sourceFileName)
	stem := strings.TrimSuffix(base, path.Ext(base))
	return fmt.Sprintf("thumbnails/%s/%s_thumbnail_%d.jpg", imageID, stem, heightPixels)
}

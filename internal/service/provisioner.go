package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/repositories"
	"auditdrive/internal/domain/services"
)

type folderProvisioner struct {
	cache  repositories.FolderCacheRepository
	remote services.HierarchyProvider
	group  singleflight.Group
	logger *slog.Logger
}

// NewFolderProvisioner creates a new folder provisioner
func NewFolderProvisioner(
	cache repositories.FolderCacheRepository,
	remote services.HierarchyProvider,
	logger *slog.Logger,
) services.FolderProvisioner {
	return &folderProvisioner{
		cache:  cache,
		remote: remote,
		logger: logger,
	}
}

// EnsurePath resolves segments strictly in order: each lookup depends on the
// resolved parent of the segment before it. Cancellation between segments is
// safe; everything already created is a valid, reusable result.
func (p *folderProvisioner) EnsurePath(ctx context.Context, segments []string, rootParent *string) (string, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: path has no segments", domain.ErrValidation)
	}
	for _, name := range segments {
		if name == "" {
			return "", fmt.Errorf("%w: empty path segment", domain.ErrValidation)
		}
	}

	parent := rootParent
	for _, name := range segments {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		remoteID, err := p.resolveSegment(ctx, name, parent)
		if err != nil {
			return "", err
		}

		id := remoteID
		parent = &id
	}

	return *parent, nil
}

// resolveSegment materializes one (name, parent) level. Concurrent requests
// for the same segment collapse onto a single resolution, which closes the
// duplicate-create window between remote search and cache write in-process;
// the cache insert's divergence check covers the cross-process case.
func (p *folderProvisioner) resolveSegment(ctx context.Context, name string, parent *string) (string, error) {
	key := segmentKey(name, parent)
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		return p.resolveSegmentOnce(ctx, name, parent)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *folderProvisioner) resolveSegmentOnce(ctx context.Context, name string, parent *string) (string, error) {
	// Cache hit short-circuits: no remote calls at all.
	remoteID, err := p.cache.Lookup(ctx, name, parent)
	if err == nil {
		return remoteID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", &domain.ProvisioningError{Segment: name, Err: err}
	}

	// Backend references go stale without notice. A dead parent degrades
	// to the hierarchy root instead of blocking every dependent operation.
	effectiveParent := parent
	if parent != nil {
		usable, err := p.parentUsable(ctx, *parent)
		if err != nil {
			return "", &domain.ProvisioningError{Segment: name, Err: err}
		}
		if !usable {
			p.logger.Warn("parent folder unusable, falling back to hierarchy root",
				"segment", name,
				"parent_ref", *parent,
			)
			effectiveParent = nil
		}
	}

	folder, err := p.findOrCreate(ctx, name, effectiveParent)
	if err != nil {
		return "", err
	}
	if folder.rootFallback {
		// The folder really lives at the root now; cache it there.
		effectiveParent = nil
	}

	// The remote search-before-create above is the real idempotency guard;
	// losing this cache write only costs a future remote round trip.
	if _, err := p.cache.Insert(ctx, name, effectiveParent, folder.ID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			p.logger.Error("folder cache divergence",
				"segment", name,
				"remote_id", folder.ID,
				"error", err,
			)
		}
		return "", &domain.ProvisioningError{Segment: name, Err: err}
	}

	p.logger.Info("folder segment resolved",
		"segment", name,
		"remote_id", folder.ID,
	)

	return folder.ID, nil
}

// findOrCreate recovers folders created by a prior crash between remote
// create and cache write: search first, create only on a confirmed miss.
func (p *folderProvisioner) findOrCreate(ctx context.Context, name string, parent *string) (folder *remoteFolderResult, err error) {
	found, err := p.remote.FindByNameUnderParent(ctx, name, parent)
	if err == nil {
		return &remoteFolderResult{ID: found.ID}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, &domain.ProvisioningError{Segment: name, Err: err}
	}

	created, err := p.remote.CreateUnderParent(ctx, name, parent)
	if err == nil {
		return &remoteFolderResult{ID: created.ID}, nil
	}

	// One retry forced to the hierarchy root, then the failure is fatal.
	if errors.Is(err, domain.ErrPermissionDenied) && parent != nil {
		p.logger.Warn("create denied under parent, retrying at hierarchy root",
			"segment", name,
			"parent_ref", *parent,
		)
		created, retryErr := p.remote.CreateUnderParent(ctx, name, nil)
		if retryErr == nil {
			return &remoteFolderResult{ID: created.ID, rootFallback: true}, nil
		}
		err = retryErr
	}

	return nil, &domain.ProvisioningError{Segment: name, Err: err}
}

func (p *folderProvisioner) parentUsable(ctx context.Context, ref string) (bool, error) {
	exists, err := p.remote.ParentExists(ctx, ref)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}
	// Shared roots fail ordinary existence checks but are valid parents.
	return p.remote.IsKnownSharedRoot(ctx, ref)
}

func segmentKey(name string, parent *string) string {
	if parent == nil {
		return "/" + name
	}
	return *parent + "/" + name
}

type remoteFolderResult struct {
	ID           string
	rootFallback bool
}

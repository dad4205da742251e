package docker

import (
	"context"
	"io"
	"strings"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
)

// ImageInfo is a simplified image representation.
type ImageInfo struct {
	ID      string   `json:"id"`
	Tags    []string `json:"tags"`
	Size    int64    `json:"size"`
	Created int64    `json:"created"`
}

// ListImages returns all local images.
func (c *Client) ListImages(ctx context.Context) ([]ImageInfo, error) {
	images, err := c.cli.ImageList(ctx, image.ListOptions{All: false})
	if err != nil {
		return nil, err
	}

	result := make([]ImageInfo, 0, len(images))
	for _, img := range images {
		id := img.ID
		if strings.HasPrefix(id, "sha256:") {
			id = id[7:19] // short hash
		}
		result = append(result, ImageInfo{
			ID:      id,
			Tags:    img.RepoTags,
			Size:    img.Size,
			Created: img.Created,
		})
	}
	return result, nil
}

// HasImage reports whether the image is present locally.
func (c *Client) HasImage(ctx context.Context, refStr string) (bool, error) {
	_, err := c.cli.ImageInspect(ctx, refStr)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PullImage pulls an image and blocks until the pull completes.
func (c *Client) PullImage(ctx context.Context, refStr string) error {
	reader, err := c.cli.ImagePull(ctx, refStr, image.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()
	// Drain progress output; the pull is not done until EOF.
	_, err = io.Copy(io.Discard, reader)
	return err
}

// RemoveImage removes an image.
func (c *Client) RemoveImage(ctx context.Context, id string) error {
	_, err := c.cli.ImageRemove(ctx, id, image.RemoveOptions{Force: true, PruneChildren: true})
	return err
}

// SearchResult represents a Docker Hub search result.
type SearchResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StarCount   int    `json:"star_count"`
	IsOfficial  bool   `json:"is_official"`
}

// SearchImages searches Docker Hub for images.
func (c *Client) SearchImages(ctx context.Context, term string, limit int) ([]SearchResult, error) {
	if limit <= 0 || limit > 25 {
		limit = 25
	}
	results, err := c.cli.ImageSearch(ctx, term, registry.SearchOptions{Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, SearchResult{
			Name:        r.Name,
			Description: r.Description,
			StarCount:   r.StarCount,
			IsOfficial:  r.IsOfficial,
		})
	}
	return out, nil
}

// Package artifact exports saved projects' Terraform to object storage.
package artifact

import (
	"context"
	"fmt"
	"strings"

	"nebula/internal/apperr"
)

// TerraformFile is the object name a project's code is exported under.
const TerraformFile = "main.tf"

// Store keeps files grouped by project id.
type Store interface {
	Put(ctx context.Context, projectID, path string, content []byte) error
	Get(ctx context.Context, projectID, path string) ([]byte, error)
	GetURL(ctx context.Context, projectID, path string) (string, error)
	List(ctx context.Context, projectID string) ([]string, error)
	// Remove deletes every file under projectID. Missing projects are not an error.
	Remove(ctx context.Context, projectID string) error
}

var ErrNotFound = apperr.NotFound("artifact", "artifact not found")

func objectKey(projectID, path string) (string, error) {
	projectID = strings.Trim(strings.TrimSpace(projectID), "/")
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if projectID == "" {
		return "", fmt.Errorf("project id is required")
	}
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	return projectID + "/" + path, nil
}

func prefixOf(projectID string) (string, error) {
	projectID = strings.Trim(strings.TrimSpace(projectID), "/")
	if projectID == "" {
		return "", fmt.Errorf("project id is required")
	}
	return projectID + "/", nil
}

package ports

import (
	"context"
	"io"
)

// ItemError is a single item-level error reported by an upload.
type ItemError struct {
	Code   string `json:"error_code"`
	Detail string `json:"error_detail"`
}

// UploadResponse is the store's answer to an upload of a new package.
type UploadResponse struct {
	Kind        string      `json:"kind,omitempty"`
	ID          string      `json:"id,omitempty"`
	UploadState string      `json:"uploadState"`
	ItemError   []ItemError `json:"itemError,omitempty"`
}

// PublishResponse is the store's answer to a publish request.
// Status and StatusDetail are index-aligned.
type PublishResponse struct {
	Kind         string   `json:"kind,omitempty"`
	ItemID       string   `json:"item_id,omitempty"`
	Status       []string `json:"status"`
	StatusDetail []string `json:"statusDetail"`
}

// WebStore abstracts the remote extension store API.
// Production code uses the chromestore adapter; tests use MockWebStore.
type WebStore interface {
	// FetchToken exchanges the configured credentials for an access token.
	FetchToken(ctx context.Context) (string, error)

	// UploadExisting uploads a zipped package as a new draft of the item.
	UploadExisting(ctx context.Context, token string, zip io.Reader) (*UploadResponse, error)

	// Publish publishes the current draft to the given target.
	Publish(ctx context.Context, token, target string) (*PublishResponse, error)
}

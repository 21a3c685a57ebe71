package mocks

import (
	"context"
	"io"

	"github.com/mcdonaldj/extpublish/internal/ports"
)

// MockWebStore implements ports.WebStore for testing.
type MockWebStore struct {
	// Token is returned by FetchToken
	Token string
	// UploadResponse is returned by UploadExisting
	UploadResponse *ports.UploadResponse
	// PublishResponse is returned by Publish
	PublishResponse *ports.PublishResponse
	// Errors maps method names to errors
	Errors map[string]error

	// FetchTokenCalls counts calls to FetchToken
	FetchTokenCalls int
	// UploadCalls records calls to UploadExisting
	UploadCalls []UploadCall
	// PublishCalls records calls to Publish
	PublishCalls []PublishCall
}

// UploadCall records parameters of an UploadExisting call.
type UploadCall struct {
	Token string
	Body  []byte
}

// PublishCall records parameters of a Publish call.
type PublishCall struct {
	Token  string
	Target string
}

// NewMockWebStore creates a mock store that accepts uploads and publishes.
func NewMockWebStore() *MockWebStore {
	return &MockWebStore{
		Token:           "token",
		UploadResponse:  &ports.UploadResponse{UploadState: "SUCCESS"},
		PublishResponse: &ports.PublishResponse{Status: []string{"OK"}, StatusDetail: []string{"OK."}},
		Errors:          make(map[string]error),
	}
}

// FetchToken returns Token.
func (m *MockWebStore) FetchToken(ctx context.Context) (string, error) {
	m.FetchTokenCalls++
	if err, ok := m.Errors["FetchToken"]; ok {
		return "", err
	}
	return m.Token, nil
}

// UploadExisting reads zip fully and returns UploadResponse.
func (m *MockWebStore) UploadExisting(ctx context.Context, token string, zip io.Reader) (*ports.UploadResponse, error) {
	body, err := io.ReadAll(zip)
	if err != nil {
		return nil, err
	}
	m.UploadCalls = append(m.UploadCalls, UploadCall{Token: token, Body: body})
	if err, ok := m.Errors["UploadExisting"]; ok {
		return nil, err
	}
	return m.UploadResponse, nil
}

// Publish returns PublishResponse.
func (m *MockWebStore) Publish(ctx context.Context, token, target string) (*ports.PublishResponse, error) {
	m.PublishCalls = append(m.PublishCalls, PublishCall{Token: token, Target: target})
	if err, ok := m.Errors["Publish"]; ok {
		return nil, err
	}
	return m.PublishResponse, nil
}

// Compile-time check that MockWebStore implements ports.WebStore.
var _ ports.WebStore = (*MockWebStore)(nil)

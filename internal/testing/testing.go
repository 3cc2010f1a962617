// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/benjamesfleming/smarterplaylists/internal/services"
	"golang.org/x/oauth2"
)

// MockProvider is a test double for [services.Provider]
type MockProvider struct {
	ProfileResult *services.Profile
	ProfileErr    error
	ExchangeErr   error
	Token         *oauth2.Token
}

func (m *MockProvider) AuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *MockProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	if m.Token != nil {
		return m.Token, nil
	}
	return &oauth2.Token{AccessToken: "mock-access-token"}, nil
}

func (m *MockProvider) Profile(ctx context.Context, token *oauth2.Token) (*services.Profile, error) {
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	return m.ProfileResult, nil
}

func (m *MockProvider) Name() string { return "mock" }

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

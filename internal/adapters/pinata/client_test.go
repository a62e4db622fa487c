package pinata

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metacore/nftup/internal/core/domain"
)

type pinRequest struct {
	headers  http.Header
	files    map[string]string
	metadata string
	options  string
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []pinRequest
	status   int
}

func (f *fakeAPI) setStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = code
}

func (f *fakeAPI) currentStatus() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeAPI) pins() []pinRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]pinRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(testAuthPath, func(w http.ResponseWriter, r *http.Request) {
		if status := f.currentStatus(); status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"Invalid API Keys"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"Congratulations! You are communicating with the Pinata API!"}`))
	})
	mux.HandleFunc(pinFilePath, func(w http.ResponseWriter, r *http.Request) {
		if status := f.currentStatus(); status != 0 {
			w.WriteHeader(status)
			return
		}
		reader, err := r.MultipartReader()
		if err != nil {
			t.Errorf("expected multipart body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		req := pinRequest{headers: r.Header.Clone(), files: make(map[string]string)}
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("failed to read part: %v", err)
				return
			}
			data, _ := io.ReadAll(part)
			switch part.FormName() {
			case "file":
				req.files[rawFileName(t, part)] = string(data)
			case "pinataMetadata":
				req.metadata = string(data)
			case "pinataOptions":
				req.options = string(data)
			}
		}

		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		_ = json.NewEncoder(w).Encode(PinResponse{IpfsHash: "bafytest", PinSize: 10})
	})
	return mux
}

// rawFileName returns the filename as sent; part.FileName drops directory components
func rawFileName(t *testing.T, part *multipart.Part) string {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		t.Errorf("bad Content-Disposition: %v", err)
		return ""
	}
	return params["filename"]
}

func newTestClient(t *testing.T, creds Credentials) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	c, err := New(Options{APIURL: srv.URL, Credentials: creds, CIDVersion: 1}, nil)
	require.NoError(t, err)
	return c, api
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Options{Credentials: Credentials{APIKey: "only-key"}}, nil)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = New(Options{Credentials: Credentials{JWT: "token"}}, nil)
	assert.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	c, api := newTestClient(t, Credentials{APIKey: "k", SecretKey: "s"})
	require.NoError(t, c.Authenticate(context.Background()))

	api.setStatus(http.StatusUnauthorized)
	err := c.Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemote)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Invalid API Keys")
}

func TestPinFileWithKeyHeaders(t *testing.T) {
	c, api := newTestClient(t, Credentials{APIKey: "key", SecretKey: "secret"})
	path := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(path, []byte("meow"), 0644))

	cid, err := c.PinFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "bafytest", cid)

	pins := api.pins()
	require.Len(t, pins, 1)
	req := pins[0]
	assert.Equal(t, "key", req.headers.Get("pinata_api_key"))
	assert.Equal(t, "secret", req.headers.Get("pinata_secret_api_key"))
	assert.Empty(t, req.headers.Get("Authorization"))
	assert.Equal(t, map[string]string{"cat.png": "meow"}, req.files)
	assert.JSONEq(t, `{"name":"cat.png"}`, req.metadata)
	assert.JSONEq(t, `{"cidVersion":1}`, req.options)
}

func TestPinDirectoryWithJWT(t *testing.T) {
	c, api := newTestClient(t, Credentials{JWT: "jwt-token", APIKey: "ignored", SecretKey: "ignored"})
	dir := filepath.Join(t.TempDir(), "metadata")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1"), []byte("one"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2"), []byte("two"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "3"), []byte("three"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("x"), 0644))

	_, err := c.PinDirectory(context.Background(), dir)
	require.NoError(t, err)

	pins := api.pins()
	require.Len(t, pins, 1)
	req := pins[0]
	assert.Equal(t, "Bearer jwt-token", req.headers.Get("Authorization"))
	assert.Empty(t, req.headers.Get("pinata_api_key"))

	var names []string
	for name := range req.files {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"metadata/1", "metadata/2", "metadata/nested/3"}, names)
	assert.Equal(t, "three", req.files["metadata/nested/3"])
}

func TestPinDirectoryEmpty(t *testing.T) {
	c, api := newTestClient(t, Credentials{JWT: "t"})
	_, err := c.PinDirectory(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, api.pins())
}

func TestPinReportsAPIError(t *testing.T) {
	c, api := newTestClient(t, Credentials{JWT: "t"})
	api.setStatus(http.StatusTooManyRequests)
	path := filepath.Join(t.TempDir(), "1.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := c.PinFile(context.Background(), path)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestPinMissingFile(t *testing.T) {
	c, _ := newTestClient(t, Credentials{JWT: "t"})
	_, err := c.PinFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, domain.ErrIO)
}

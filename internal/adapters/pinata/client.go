package pinata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/metacore/nftup/internal/core/domain"
)

// DefaultAPIURL is the public Pinata API endpoint
const DefaultAPIURL = "https://api.pinata.cloud"

const (
	pinFilePath  = "/pinning/pinFileToIPFS"
	testAuthPath = "/data/testAuthentication"

	maxErrorBody = 4 << 10
)

// ErrMissingCredentials is returned when neither an API key pair nor a JWT is configured
var ErrMissingCredentials = errors.New("pinata credentials not configured")

// Credentials authenticate requests. JWT wins when both are set.
type Credentials struct {
	APIKey    string
	SecretKey string
	JWT       string
}

func (c Credentials) valid() bool {
	return c.JWT != "" || (c.APIKey != "" && c.SecretKey != "")
}

// Options configures the client
type Options struct {
	APIURL      string
	Credentials Credentials
	HTTPClient  *http.Client
	CIDVersion  int // 0 or 1
}

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("pinata: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("pinata: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// PinResponse is the body of a successful pin request
type PinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Client pins files and directories through the Pinata HTTP API
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	cidVersion int
	log        *zap.Logger
}

// New creates a client. It does not contact the API; call Authenticate for that.
func New(opts Options, log *zap.Logger) (*Client, error) {
	if !opts.Credentials.valid() {
		return nil, ErrMissingCredentials
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(opts.APIURL, "/"),
		creds:      opts.Credentials,
		httpClient: opts.HTTPClient,
		cidVersion: opts.CIDVersion,
		log:        log,
	}, nil
}

// Authenticate checks the configured credentials against the API
func (c *Client) Authenticate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+testAuthPath, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Remote("authenticate", c.baseURL, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return domain.Remote("authenticate", c.baseURL, err)
	}
	c.log.Debug("pinata authentication succeeded")
	return nil
}

// PinFile uploads a single file
func (c *Client) PinFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", domain.IO("stat file", path, err)
	}
	part := filePart{path: path, name: filepath.Base(path), size: info.Size()}
	return c.pin(ctx, filepath.Base(path), []filePart{part})
}

// PinDirectory uploads every regular, non-hidden file under dir as one
// directory whose root CID is returned.
func (c *Client) PinDirectory(ctx context.Context, dir string) (string, error) {
	parts, err := collectParts(dir)
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", domain.Validation("pin directory", dir, domain.ErrNoAssets)
	}
	return c.pin(ctx, filepath.Base(dir), parts)
}

type filePart struct {
	path string
	name string // Multipart filename, "<dir>/<rel>" for directories
	size int64
}

func collectParts(dir string) ([]filePart, error) {
	root := filepath.Base(filepath.Clean(dir))
	var parts []filePart

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		parts = append(parts, filePart{
			path: path,
			name: root + "/" + filepath.ToSlash(rel),
			size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, domain.IO("collect files", dir, err)
	}
	return parts, nil
}

func (c *Client) pin(ctx context.Context, name string, parts []filePart) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(c.writeForm(mw, name, parts))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pinFilePath, pr)
	if err != nil {
		pr.Close()
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	c.log.Debug("pinning", zap.String("name", name), zap.Int("files", len(parts)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.Close()
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var out PinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode pin response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", errors.New("pin response did not contain a CID")
	}
	return out.IpfsHash, nil
}

func (c *Client) writeForm(mw *multipart.Writer, name string, parts []filePart) error {
	for _, p := range parts {
		if err := writeFilePart(mw, p); err != nil {
			return err
		}
	}

	meta, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return err
	}
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return err
	}

	opts, err := json.Marshal(map[string]any{"cidVersion": c.cidVersion})
	if err != nil {
		return err
	}
	if err := mw.WriteField("pinataOptions", string(opts)); err != nil {
		return err
	}
	return mw.Close()
}

func writeFilePart(mw *multipart.Writer, p filePart) error {
	f, err := os.Open(p.path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := mw.CreateFormFile("file", p.name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

func (c *Client) authorize(req *http.Request) {
	if c.creds.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.JWT)
		return
	}
	req.Header.Set("pinata_api_key", c.creds.APIKey)
	req.Header.Set("pinata_secret_api_key", c.creds.SecretKey)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

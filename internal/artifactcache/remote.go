package artifactcache

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// codeEntryName and terminalOutputEntryName are the synthetic tar entries
// the remote cache wire format prepends to every artifact, ahead of the
// task's actual output files.
const (
	codeEntryName           = ".nxcore/code"
	terminalOutputEntryName = ".nxcore/terminalOutput"
)

// RemoteCache is the HTTP-backed remote cache tier: artifacts travel as
// gzip tar with a
// synthetic code entry and bearer-token auth.
type RemoteCache struct {
	baseURL    string
	authToken  string
	httpClient *retryablehttp.Client
}

// NewRemoteCache builds a RemoteCache. insecureSkipVerify mirrors the
// TLS-verification-bypass escape hatch, driven by an env var at
// the call site rather than baked in here.
func NewRemoteCache(baseURL string, authToken string, insecureSkipVerify bool) *RemoteCache {
	httpClient := &retryablehttp.Client{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: insecureSkipVerify}, // #nosec G402 -- opt-in only
			},
		},
		RetryWaitMin: 2 * time.Second,
		RetryWaitMax: 10 * time.Second,
		RetryMax:     2,
		Backoff:      retryablehttp.DefaultBackoff,
		Logger:       nil,
	}
	return &RemoteCache{baseURL: baseURL, authToken: authToken, httpClient: httpClient}
}

func (r *RemoteCache) request(method string, hash string, body io.Reader) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequest(method, r.baseURL+"/v1/artifacts/"+hash, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.authToken)
	return req, nil
}

// Exists checks whether hash is present in the remote cache without
// downloading its contents.
func (r *RemoteCache) Exists(hash string) (bool, error) {
	req, err := r.request(http.MethodHead, hash, nil)
	if err != nil {
		return false, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	case http.StatusConflict, http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("remote cache exists check for %s: unexpected status %d", hash, resp.StatusCode)
	}
}

// Fetch downloads and unpacks a remote artifact into workspaceRoot.
// A 404 is reported as ok=false with no error (a cache miss); 409 and 403
// are silent no-store conditions and are also reported as
// ok=false with no error.
func (r *RemoteCache) Fetch(workspaceRoot string, hash string) (CachedResult, bool, error) {
	req, err := r.request(http.MethodGet, hash, nil)
	if err != nil {
		return CachedResult{}, false, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return CachedResult{}, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to unpacking below
	case http.StatusNotFound, http.StatusConflict, http.StatusForbidden:
		return CachedResult{}, false, nil
	default:
		return CachedResult{}, false, fmt.Errorf("remote cache fetch for %s: unexpected status %d", hash, resp.StatusCode)
	}

	result, err := unpackArtifact(workspaceRoot, resp.Body)
	if err != nil {
		return CachedResult{}, false, err
	}
	return result, true, nil
}

// Put uploads a local artifact (already materialized under outputsDir, as
// produced by LocalCache.Put) to the remote cache. A 409 or 403 response
// means the server declines to store the artifact and is not an error.
func (r *RemoteCache) Put(outputsDir string, hash string, terminalOutput []byte, code int16) error {
	var buf bytes.Buffer
	if err := packArtifact(&buf, outputsDir, terminalOutput, code); err != nil {
		return err
	}

	req, err := r.request(http.MethodPut, hash, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict, http.StatusForbidden:
		return nil
	default:
		return fmt.Errorf("remote cache put for %s: unexpected status %d", hash, resp.StatusCode)
	}
}

func packArtifact(w io.Writer, outputsDir string, terminalOutput []byte, code int16) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	codeBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(codeBytes, uint32(uint16(code)))
	if err := writeTarEntry(tw, codeEntryName, codeBytes); err != nil {
		return err
	}
	if err := writeTarEntry(tw, terminalOutputEntryName, terminalOutput); err != nil {
		return err
	}

	err := filepath.Walk(outputsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == outputsDir {
			return nil
		}
		rel, err := filepath.Rel(outputsDir, path)
		if err != nil {
			return err
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("remote cache: refusing to pack symlink %s: no platform-portable symlink semantics", rel)
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func writeTarEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name: name,
		Mode: 0644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

func unpackArtifact(workspaceRoot string, r io.Reader) (CachedResult, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return CachedResult{}, err
	}
	defer gz.Close()
	tr := tar.NewReader(gz)

	result := CachedResult{}

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return CachedResult{}, err
		}

		switch hdr.Name {
		case codeEntryName:
			data := make([]byte, 4)
			if _, err := io.ReadFull(tr, data); err != nil {
				return CachedResult{}, err
			}
			result.Code = int16(binary.BigEndian.Uint32(data))
			continue
		case terminalOutputEntryName:
			data, err := io.ReadAll(tr)
			if err != nil {
				return CachedResult{}, err
			}
			result.TerminalOutput = string(data)
			continue
		}

		dest := filepath.Join(workspaceRoot, filepath.FromSlash(hdr.Name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, os.FileMode(hdr.Mode)|0700); err != nil {
				return CachedResult{}, err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0775); err != nil {
				return CachedResult{}, err
			}
			f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode))
			if err != nil {
				return CachedResult{}, err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return CachedResult{}, err
			}
			f.Close()
			result.Size += hdr.Size
		default:
			return CachedResult{}, fmt.Errorf("remote cache: unsupported tar entry type %v for %s", hdr.Typeflag, hdr.Name)
		}
	}

	result.OutputsPath = workspaceRoot
	return result, nil
}

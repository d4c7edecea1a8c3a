package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	defaultS3Endpoint = "s3.amazonaws.com"
	envS3Endpoint     = "SHAPEVIEW_S3_ENDPOINT"
	envS3Insecure     = "SHAPEVIEW_S3_INSECURE"
)

// The Resource class wraps a streamable file or remote Resource.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Return the remote path to this resource. If this is a remote resource then
// this method returns the base path (without leading /) of the remote URL.
// Otherwise, this method returns the same value as Path().
func (r *Resource) RemotePath() string {
	if r.IsRemote() {
		return filepath.Base(r.url.Path)
	}
	return r.Path()
}

// Returns true if the Resource is streamed over http/https or s3.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Returns the local filesystem path for this resource and true if the
// resource is backed by a local file.
func (r *Resource) LocalPath() (string, bool) {
	if r.IsRemote() {
		return "", false
	}
	return filepath.Clean(r.url.Path), true
}

// Create a new Resource data stream. If relTo is specified and pathToResource
// does not define a scheme, then the path to the new Resource will be generated
// by concatenating the base path of relTo and pathToResource.
//
// This function can handle http/https URLs by delegating to the net/http package
// and s3://bucket/key URLs by delegating to an S3-compatible object store.
// The caller must make sure to close the returned io.ReadCloser to prevent mem leaks.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	// Replace backslashes with forward slashes and try parsing as a URL
	url, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}

	// If this is a relative url, clone parent url and adjust its path
	if url.Scheme == "" && relTo != nil && !filepath.IsAbs(url.Path) {
		path := url.Path
		url, _ = url.Parse(relTo.url.String())
		prefix := url.Path
		if url.Scheme == "" {
			prefix, err = filepath.Abs(relTo.url.String())
			if err != nil {
				return nil, fmt.Errorf("resource: could not detect abs path for %s; %s", relTo.url.String(), err.Error())
			}
		}
		url.Path = filepath.Dir(prefix) + "/" + path
	}

	var reader io.ReadCloser
	switch url.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(url.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(url.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %s", url.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", url.String(), resp.StatusCode)
		}
		reader = resp.Body
	case "s3":
		reader, err = openS3Object(url)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", url.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        url,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	url, _ := url.Parse(name)
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        url,
	}
}

// Split an s3://bucket/key URL into its bucket and object key.
func s3Location(url *url.URL) (bucket, key string, err error) {
	bucket = url.Host
	key = strings.TrimPrefix(url.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("resource: malformed s3 location '%s'; expected s3://bucket/key", url.String())
	}
	return bucket, key, nil
}

// Open an object stored in an S3-compatible object store. The endpoint is
// read from SHAPEVIEW_S3_ENDPOINT and credentials from the standard AWS
// environment variables.
func openS3Object(url *url.URL) (io.ReadCloser, error) {
	bucket, key, err := s3Location(url)
	if err != nil {
		return nil, err
	}

	endpoint := os.Getenv(envS3Endpoint)
	if endpoint == "" {
		endpoint = defaultS3Endpoint
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewEnvAWS(),
		Secure: os.Getenv(envS3Insecure) != "true",
	})
	if err != nil {
		return nil, fmt.Errorf("resource: could not create s3 client for '%s': %s", endpoint, err)
	}

	obj, err := client.GetObject(context.Background(), bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %s", url.String(), err)
	}

	// GetObject is lazy; stat the object so missing keys surface here.
	if _, err = obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("resource: could not fetch '%s': %s", url.String(), err)
	}

	return obj, nil
}

// Package res resolves the resources a document references: local files
// relative to the document and RFC 2397 data URLs.
package res

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrRemote is returned for http(s) references; documents are paginated
	// offline.
	ErrRemote = errors.New("res: remote resources are not loaded")
	// ErrNotFound is returned when no search path holds the resource.
	ErrNotFound = errors.New("res: resource not found")
)

// ResourceType represents the type of resource
type ResourceType int

const (
	ResourceTypeUnknown ResourceType = iota
	ResourceTypeImage
	ResourceTypeFont
	ResourceTypeCSS
	ResourceTypeOther
)

// Resource represents a loaded resource
type Resource struct {
	URL      string
	Type     ResourceType
	Data     []byte
	MimeType string
}

// Size is the intrinsic pixel size of an image
type Size struct {
	Width  int
	Height int
}

// Loader handles loading resources
type Loader struct {
	// Base file path for resolving relative references
	BaseURL string

	cache     map[string]*Resource
	sizes     map[string]Size
	cacheLock sync.RWMutex

	searchPaths []string
}

// NewLoader creates a new resource loader
func NewLoader(baseURL string) *Loader {
	return &Loader{
		BaseURL: baseURL,
		cache:   make(map[string]*Resource),
		sizes:   make(map[string]Size),
	}
}

// AddSearchPath adds a directory to search for local resources
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// Load loads a resource from a data URL or a file path
func (l *Loader) Load(urlStr string) (*Resource, error) {
	l.cacheLock.RLock()
	if res, ok := l.cache[urlStr]; ok {
		l.cacheLock.RUnlock()
		return res, nil
	}
	l.cacheLock.RUnlock()

	var (
		res *Resource
		err error
	)
	switch {
	case strings.HasPrefix(urlStr, "data:"):
		res, err = parseDataURL(urlStr)
	case strings.HasPrefix(urlStr, "http://"), strings.HasPrefix(urlStr, "https://"):
		return nil, fmt.Errorf("%s: %w", urlStr, ErrRemote)
	default:
		res, err = l.loadLocal(l.resolvePath(urlStr))
	}
	if err != nil {
		return nil, err
	}

	l.cacheLock.Lock()
	l.cache[urlStr] = res
	l.cacheLock.Unlock()
	return res, nil
}

// LoadImage loads an image resource
func (l *Loader) LoadImage(urlStr string) (*Resource, error) {
	res, err := l.Load(urlStr)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeImage {
		return nil, fmt.Errorf("resource is not an image: %s", urlStr)
	}
	return res, nil
}

// LoadCSS loads a CSS resource
func (l *Loader) LoadCSS(urlStr string) (*Resource, error) {
	res, err := l.Load(urlStr)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeCSS {
		return nil, fmt.Errorf("resource is not CSS: %s", urlStr)
	}
	return res, nil
}

// ImageSize decodes only the header of the image at urlStr and returns its
// intrinsic pixel size. Results are cached per reference.
func (l *Loader) ImageSize(urlStr string) (Size, error) {
	l.cacheLock.RLock()
	if s, ok := l.sizes[urlStr]; ok {
		l.cacheLock.RUnlock()
		return s, nil
	}
	l.cacheLock.RUnlock()

	res, err := l.LoadImage(urlStr)
	if err != nil {
		return Size{}, err
	}
	cfg, _, err := image.DecodeConfig(res.GetReader())
	if err != nil {
		return Size{}, fmt.Errorf("decode %s: %w", urlStr, err)
	}
	s := Size{Width: cfg.Width, Height: cfg.Height}

	l.cacheLock.Lock()
	l.sizes[urlStr] = s
	l.cacheLock.Unlock()
	return s, nil
}

// parseDataURL parses a data URL (RFC 2397) and returns a Resource.
//
//	data:image/png;base64,<base64>
//	data:text/css,p%7Bmargin:0%7D
func parseDataURL(u string) (*Resource, error) {
	s := strings.TrimPrefix(u, "data:")
	meta, dataPart, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URL")
	}

	mime := "application/octet-stream"
	isBase64 := false
	if meta != "" {
		comps := strings.Split(meta, ";")
		if comps[0] != "" {
			mime = comps[0]
		}
		for _, c := range comps[1:] {
			if strings.EqualFold(strings.TrimSpace(c), "base64") {
				isBase64 = true
			}
		}
	}

	var data []byte
	if isBase64 {
		d, err := base64.StdEncoding.DecodeString(dataPart)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data URL: %w", err)
		}
		data = d
	} else if d, err := url.QueryUnescape(dataPart); err == nil {
		data = []byte(d)
	} else {
		data = []byte(dataPart)
	}

	return &Resource{
		URL:      u,
		Data:     data,
		MimeType: mime,
		Type:     determineResourceType(mime, ""),
	}, nil
}

// resolvePath resolves a reference relative to the directory of BaseURL
func (l *Loader) resolvePath(ref string) string {
	ref = strings.TrimPrefix(ref, "file://")
	if filepath.IsAbs(ref) || l.BaseURL == "" {
		return ref
	}
	return filepath.Join(filepath.Dir(l.BaseURL), ref)
}

// loadLocal loads a resource from a local file, falling back to the
// search paths.
func (l *Loader) loadLocal(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l.loadFromSearchPaths(path)
	}
	if err != nil {
		return nil, err
	}
	return newFileResource(path, data), nil
}

func (l *Loader) loadFromSearchPaths(filename string) (*Resource, error) {
	base := filepath.Base(filename)
	for _, dir := range l.searchPaths {
		path := filepath.Join(dir, base)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return newFileResource(path, data), nil
	}
	return nil, fmt.Errorf("%s: %w", filename, ErrNotFound)
}

func newFileResource(path string, data []byte) *Resource {
	mime := determineMimeType(path)
	return &Resource{
		URL:      path,
		Data:     data,
		MimeType: mime,
		Type:     determineResourceType(mime, path),
	}
}

// determineMimeType determines the MIME type of a file
func determineMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".css":
		return "text/css"
	case ".html", ".htm":
		return "text/html"
	case ".md", ".markdown":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}

// determineResourceType determines the type of a resource
func determineResourceType(mimeType, path string) ResourceType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return ResourceTypeImage
	case strings.HasPrefix(mimeType, "font/"):
		return ResourceTypeFont
	case mimeType == "text/css":
		return ResourceTypeCSS
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".tiff", ".tif", ".bmp":
		return ResourceTypeImage
	case ".ttf", ".otf", ".woff", ".woff2":
		return ResourceTypeFont
	case ".css":
		return ResourceTypeCSS
	}
	return ResourceTypeOther
}

// GetReader returns a reader for a resource
func (r *Resource) GetReader() *bytes.Reader {
	return bytes.NewReader(r.Data)
}

// GetString returns the resource data as a string
func (r *Resource) GetString() string {
	return string(r.Data)
}

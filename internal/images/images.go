// Package images resizes recipe pictures and keeps them in a blob store.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

// Height is the pixel height every stored image is scaled to.
const Height = 500

// MaxSourceBytes bounds an uploaded or proxied source image.
const MaxSourceBytes = 10 << 20

// MaxSourcePixels bounds the width times height a source image may declare.
// It is checked before the pixel buffer is allocated.
const MaxSourcePixels = 40_000_000

var (
	// ErrNotFound is returned when no blob exists under a key.
	ErrNotFound = errors.New("images: not found")

	// ErrInvalidKey is returned for keys this package never issues.
	ErrInvalidKey = errors.New("images: invalid key")

	// ErrUnsupportedFormat is returned for images that cannot be decoded.
	ErrUnsupportedFormat = errors.New("images: unsupported format")

	// ErrTooLarge is returned for images declaring more than MaxSourcePixels.
	ErrTooLarge = errors.New("images: image too large")

	// ErrForbiddenAddress is returned when Proxy would connect to a loopback,
	// private or link-local address.
	ErrForbiddenAddress = errors.New("images: address not allowed")
)

// Image is an encoded picture.
type Image struct {
	Data        []byte
	ContentType string
}

// Store keeps encoded images by key.
type Store interface {
	Put(ctx context.Context, key string, img Image) error
	Get(ctx context.Context, key string) (Image, error)
}

// Resize decodes r and scales it to Height, keeping the aspect ratio.
// JPEG input stays JPEG; every other format is re-encoded as PNG.
func Resize(r io.Reader) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSourceBytes))
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, fmt.Errorf("%w: empty image", ErrUnsupportedFormat)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return Image{}, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := src.Bounds()
	width := uint(float64(Height) * float64(bounds.Dx()) / float64(bounds.Dy()))
	if width == 0 {
		width = 1
	}
	resized := resize.Resize(width, Height, src, resize.Lanczos3)

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, resized, nil); err != nil {
			return Image{}, err
		}
		return Image{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
	default:
		if err := png.Encode(&buf, resized); err != nil {
			return Image{}, err
		}
		return Image{Data: buf.Bytes(), ContentType: "image/png"}, nil
	}
}

// Service resizes and stores images.
type Service struct {
	store  Store
	fetch  *http.Client
	logger *slog.Logger
}

// NewService creates a service over store. Remote images for Proxy are
// fetched with fetch, or with PublicClient when nil.
func NewService(store Store, fetch *http.Client, logger *slog.Logger) *Service {
	if fetch == nil {
		fetch = PublicClient(30 * time.Second)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, fetch: fetch, logger: logger}
}

// Upload resizes r and stores the result under a new key.
func (s *Service) Upload(ctx context.Context, r io.Reader) (string, error) {
	img, err := Resize(r)
	if err != nil {
		return "", err
	}
	key := uuid.NewString() + extension(img.ContentType)
	if err := s.store.Put(ctx, key, img); err != nil {
		s.logger.Error("store image failed", "key", key, "error", err)
		return "", fmt.Errorf("store image: %w", err)
	}
	s.logger.Info("image stored", "key", key, "bytes", len(img.Data))
	return key, nil
}

// Get returns the stored image under key.
func (s *Service) Get(ctx context.Context, key string) (Image, error) {
	if !ValidKey(key) {
		return Image{}, ErrInvalidKey
	}
	return s.store.Get(ctx, key)
}

// Proxy fetches a remote image and returns it resized, without storing it.
func (s *Service) Proxy(ctx context.Context, rawURL string) (Image, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return Image{}, fmt.Errorf("images: proxy url must be http or https")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Image{}, fmt.Errorf("images: proxy url: %w", err)
	}
	resp, err := s.fetch.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	return Resize(resp.Body)
}

// PublicClient returns a client that only connects to public addresses.
// The check runs on the resolved address of every dial, redirects included.
func PublicClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip == nil || !publicIP(ip) {
				return fmt.Errorf("%w: %s", ErrForbiddenAddress, host)
			}
			return nil
		},
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{Transport: transport, Timeout: timeout}
}

func publicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast())
}

// ValidKey reports whether key has the shape Upload issues.
func ValidKey(key string) bool {
	ext := path.Ext(key)
	if ext != ".jpg" && ext != ".png" {
		return false
	}
	_, err := uuid.Parse(strings.TrimSuffix(key, ext))
	return err == nil
}

func extension(contentType string) string {
	if contentType == "image/jpeg" {
		return ".jpg"
	}
	return ".png"
}

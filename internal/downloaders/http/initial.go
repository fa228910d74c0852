package danzohttp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/symfetch/internal/utils"
)

var filenameRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-\. ]+`)

// RemoteResource is what the metadata probe learned about one URL.
type RemoteResource struct {
	URL           string // after redirects
	Length        int64
	Name          string
	AcceptsRanges bool
}

type Resolver struct {
	client    utils.HTTPDoer
	userAgent string
}

func NewResolver(client utils.HTTPDoer, userAgent string) *Resolver {
	if userAgent == "" {
		userAgent = utils.DefaultUserAgent
	}
	return &Resolver{client: client, userAgent: userAgent}
}

// Resolve probes rawURL with a HEAD request and returns its canonical URL,
// declared length and file name.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*RemoteResource, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, parsedURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error checking URL: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatusCode(resp.StatusCode); err != nil {
		return nil, err
	}

	canonical := parsedURL
	if resp.Request != nil && resp.Request.URL != nil {
		canonical = resp.Request.URL
	}
	length, err := parseContentLength(resp.Header.Get("Content-Length"))
	if err != nil {
		return nil, err
	}
	name := nameFromDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = nameFromPath(canonical)
	}
	if name == "" {
		return nil, ErrNoName
	}
	res := &RemoteResource{
		URL:           canonical.String(),
		Length:        length,
		Name:          name,
		AcceptsRanges: resp.Header.Get("Accept-Ranges") == "bytes",
	}
	log.Debug().Str("op", "http/resolve").Str("url", res.URL).Int64("length", res.Length).Str("name", res.Name).Bool("acceptRanges", res.AcceptsRanges).Msg("Resource resolved")
	return res, nil
}

func parseContentLength(value string) (int64, error) {
	if value == "" {
		return 0, ErrMissingLength
	}
	size, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMissingLength, err)
	}
	if size < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrMissingLength, size)
	}
	return size, nil
}

// nameFromDisposition takes the value of the first filename parameter of a
// Content-Disposition header. The extended filename* form is percent-decoded.
func nameFromDisposition(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	for _, segment := range strings.Split(header, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(segment), "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if !strings.HasPrefix(key, "filename") {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if key == "filename*" {
			// charset'language'percent-encoded-value
			if parts := strings.SplitN(value, "'", 3); len(parts) == 3 {
				value = parts[2]
			}
			if unescaped, err := url.PathUnescape(value); err == nil {
				value = unescaped
			}
		}
		if value == "" {
			continue
		}
		return filenameRegex.ReplaceAllString(value, "_")
	}
	return ""
}

func nameFromPath(u *url.URL) string {
	p := u.Path
	return p[strings.LastIndex(p, "/")+1:]
}

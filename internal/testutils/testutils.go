// Package testutils provides a range-aware HTTP file server for tests.
package testutils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestFile is one resource served by StartTestHTTPServer.
type TestFile struct {
	Name string
	Data []byte

	Disposition string // Content-Disposition sent on HEAD
	IgnoreRange bool   // answer range requests with 200 and the full body
	NoLength    bool   // omit Content-Length on HEAD
	Status      int    // force this status on every request
	RedirectTo  string // HEAD and GET redirect here with 302
	ShortBody   int64  // truncate every body by this many bytes

	// RangeDelay, when set, delays each range response by the returned duration.
	RangeDelay func(start int64) time.Duration
}

// Server wraps httptest.Server and records what clients sent.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	userAgents []string
	ranges     map[string][]string
}

func (s *Server) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userAgents = append(s.userAgents, r.Header.Get("User-Agent"))
	if rh := r.Header.Get("Range"); rh != "" {
		s.ranges[r.URL.Path] = append(s.ranges[r.URL.Path], rh)
	}
}

func (s *Server) UserAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.userAgents...)
}

// Ranges returns the Range headers received for path.
func (s *Server) Ranges(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ranges[path]...)
}

// GenerateTestData returns size bytes of a deterministic, position-dependent pattern.
func GenerateTestData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte((i*7 + i/251) % 256)
	}
	return data
}

func StartTestHTTPServer(t *testing.T, files []TestFile) *Server {
	t.Helper()

	fileMap := make(map[string]TestFile)
	for _, f := range files {
		fileMap["/"+strings.TrimLeft(f.Name, "/")] = f
	}

	s := &Server{ranges: make(map[string][]string)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		f, ok := fileMap[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if f.RedirectTo != "" {
			http.Redirect(w, r, f.RedirectTo, http.StatusFound)
			return
		}
		if f.Status != 0 {
			w.WriteHeader(f.Status)
			return
		}
		size := int64(len(f.Data))
		body := f.Data[:max(0, size-f.ShortBody)]

		if r.Method == http.MethodHead {
			if !f.NoLength {
				w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
			}
			if f.Disposition != "" {
				w.Header().Set("Content-Disposition", f.Disposition)
			}
			w.Header().Set("Accept-Ranges", "bytes")
			return
		}

		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" || f.IgnoreRange {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.Write(body)
			return
		}

		// bytes=start-end
		rangeHeader = strings.TrimPrefix(rangeHeader, "bytes=")
		parts := strings.Split(rangeHeader, "-")
		start, _ := strconv.ParseInt(parts[0], 10, 64)
		end, _ := strconv.ParseInt(parts[1], 10, 64)
		if end >= size {
			end = size - 1
		}
		if f.RangeDelay != nil {
			time.Sleep(f.RangeDelay(start))
		}
		part := f.Data[start : end+1]
		part = part[:max(0, int64(len(part))-f.ShortBody)]
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		w.Header().Set("Content-Length", strconv.Itoa(len(part)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(part)
	}))
	t.Cleanup(s.Close)
	return s
}

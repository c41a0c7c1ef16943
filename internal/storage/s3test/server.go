// Package s3test provides an in-process S3-compatible endpoint for tests.
package s3test

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/adamscao/lotcert/internal/config"
	"github.com/adamscao/lotcert/internal/storage"
)

// Server is a path-style S3 endpoint holding objects in memory
type Server struct {
	*httptest.Server
	Bucket string

	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	modified map[string]time.Time
	puts     int
}

// NewServer starts a fake endpoint serving one bucket
func NewServer(bucket string) *Server {
	s := &Server{
		Bucket:   bucket,
		objects:  make(map[string][]byte),
		types:    make(map[string]string),
		modified: make(map[string]time.Time),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Client returns an S3 client pointed at the server
func (s *Server) Client() s3iface.S3API {
	client, err := storage.NewS3Client(s.Config())
	if err != nil {
		panic(err)
	}
	return client
}

// Config returns storage settings addressing the server
func (s *Server) Config() config.StorageConfig {
	return config.StorageConfig{
		Endpoint:        s.URL,
		Region:          "auto",
		Bucket:          s.Bucket,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
		KeyPrefix:       "certificates",
		DownloadTTL:     "120s",
	}
}

// Object returns the stored bytes for key
func (s *Server) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	return b, ok
}

// ContentType returns the content type the object was uploaded with
func (s *Server) ContentType(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types[key]
}

// PutObject seeds an object directly
func (s *Server) PutObject(key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = body
	s.modified[key] = time.Now().UTC()
}

// Puts returns the number of uploads received
func (s *Server) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	prefix := "/" + s.Bucket
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeError(w, http.StatusNotFound, "NoSuchBucket")
		return
	}
	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case r.Method == http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "IncompleteBody")
			return
		}
		s.objects[key] = body
		s.types[key] = r.Header.Get("Content-Type")
		s.modified[key] = time.Now().UTC()
		s.puts++
		w.Header().Set("ETag", `"fake"`)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet && key == "" && r.URL.Query().Get("list-type") == "2":
		s.list(w, r.URL.Query().Get("prefix"))

	case r.Method == http.MethodGet:
		body, ok := s.objects[key]
		if !ok {
			writeError(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Type", s.types[key])
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		w.WriteHeader(http.StatusOK)
		w.Write(body)

	case r.Method == http.MethodDelete:
		delete(s.objects, key)
		delete(s.types, key)
		delete(s.modified, key)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

type listResult struct {
	XMLName     xml.Name    `xml:"ListBucketResult"`
	Name        string      `xml:"Name"`
	Prefix      string      `xml:"Prefix"`
	KeyCount    int         `xml:"KeyCount"`
	MaxKeys     int         `xml:"MaxKeys"`
	IsTruncated bool        `xml:"IsTruncated"`
	Contents    []listEntry `xml:"Contents"`
}

type listEntry struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	Size         int    `xml:"Size"`
}

func (s *Server) list(w http.ResponseWriter, prefix string) {
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	res := listResult{Name: s.Bucket, Prefix: prefix, KeyCount: len(keys), MaxKeys: 1000}
	for _, k := range keys {
		res.Contents = append(res.Contents, listEntry{
			Key:          k,
			LastModified: s.modified[k].UTC().Format("2006-01-02T15:04:05.000Z"),
			Size:         len(s.objects[k]),
		})
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	xml.NewEncoder(w).Encode(res)
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

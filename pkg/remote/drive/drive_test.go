package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/remote"
)

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want remote.ErrorKind
	}{
		{"TooManyRequests", &googleapi.Error{Code: 429}, remote.KindTransient},
		{"ServerError", &googleapi.Error{Code: 503}, remote.KindTransient},
		{"RateLimit403", &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}}, remote.KindTransient},
		{"Forbidden", &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "insufficientFilePermissions"}}}, remote.KindUnclassified},
		{"NotFound", &googleapi.Error{Code: 404}, remote.KindUnclassified},
		{"Reset", fmt.Errorf("Post upload: %w", syscall.ECONNRESET), remote.KindConnection},
		{"Other", errors.New("bad request"), remote.KindUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyKind(tt.err); got != tt.want {
				t.Errorf("classifyKind() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyKeepsCancellation(t *testing.T) {
	err := classify("list", context.Canceled)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("classify() = %v, want context.Canceled", err)
	}
	var storeErr *remote.Error
	if errors.As(err, &storeErr) {
		t.Error("cancellation should not be wrapped as a store error")
	}
}

func TestQueries(t *testing.T) {
	if got, want := childrenQuery("abc"), "'abc' in parents and trashed = false"; got != want {
		t.Errorf("childrenQuery() = %s, want %s", got, want)
	}

	got := childQuery("abc", "it's here")
	want := `'abc' in parents and trashed = false and name = 'it\'s here'`
	if got != want {
		t.Errorf("childQuery() = %s, want %s", got, want)
	}
}

func TestToObject(t *testing.T) {
	folder := toObject(&drive.File{Id: "f1", Name: "docs", MimeType: FolderMimeType, Parents: []string{"root"}})
	if folder.Kind != models.KindFolder || folder.ParentID != "root" {
		t.Errorf("toObject(folder) = %+v", folder)
	}

	file := toObject(&drive.File{Id: "f2", Name: "a.txt", MimeType: "text/plain", Size: 42})
	if file.Kind != models.KindFile || file.Size != 42 || file.ParentID != "" {
		t.Errorf("toObject(file) = %+v", file)
	}
}

func TestListChildrenPaginates(t *testing.T) {
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			fmt.Fprint(w, `{"nextPageToken":"p2","files":[{"id":"1","name":"a","mimeType":"text/plain","size":"3","parents":["root"]}]}`)
			return
		}
		fmt.Fprint(w, `{"files":[{"id":"2","name":"b","mimeType":"application/vnd.google-apps.folder","parents":["root"]}]}`)
	}))
	defer server.Close()

	service, err := drive.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	children, err := NewStore(service).ListChildren(context.Background(), "root")
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if pages != 2 {
		t.Errorf("requested %d pages, want 2", pages)
	}
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}
	if children[0].Size != 3 || children[1].Kind != models.KindFolder {
		t.Errorf("children = %+v", children)
	}
}

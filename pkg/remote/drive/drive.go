// Package drive implements remote.Store on top of the Google Drive v3 API.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/goccy/go-json"

	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/remote"
)

// FolderMimeType marks a Drive file as a folder
const FolderMimeType = "application/vnd.google-apps.folder"

const (
	rootAlias  = "root"
	fileFields = "id, name, mimeType, size, parents"
	listFields = googleapi.Field("nextPageToken, files(" + fileFields + ")")
	pageSize   = 1000
)

// Config locates the OAuth client secret and cached token
type Config struct {
	CredentialsFile string
	TokenFile       string
}

// Connector opens authenticated Drive sessions
type Connector struct {
	config Config
}

// NewConnector creates a connector for the given credentials
func NewConnector(cfg Config) *Connector {
	return &Connector{config: cfg}
}

// Connect reads the credentials and token, builds an authenticated service
// and checks it by fetching the root folder. A refreshed token is written back.
func (c *Connector) Connect(ctx context.Context) (remote.Store, error) {
	secret, err := os.ReadFile(c.config.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(secret, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	token, err := loadToken(c.config.TokenFile)
	if err != nil {
		return nil, err
	}

	source := oauth2.ReuseTokenSource(token, oauthConfig.TokenSource(ctx, token))
	fresh, err := source.Token()
	if err != nil {
		return nil, remote.NewError("authenticate", classifyKind(err), err)
	}
	if fresh.AccessToken != token.AccessToken {
		if err := saveToken(c.config.TokenFile, fresh); err != nil {
			return nil, err
		}
	}

	service, err := drive.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	store := NewStore(service)
	if _, err := store.Root(ctx); err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}
	return store, nil
}

// Store is a remote.Store bound to one Drive session
type Store struct {
	files *drive.FilesService
}

// NewStore wraps an existing Drive service
func NewStore(service *drive.Service) *Store {
	return &Store{files: service.Files}
}

// Root returns the My Drive root folder
func (s *Store) Root(ctx context.Context) (*models.RemoteObject, error) {
	return s.GetObject(ctx, rootAlias)
}

// ListChildren lists every non-trashed child of id, following pagination
func (s *Store) ListChildren(ctx context.Context, id string) ([]models.RemoteObject, error) {
	return s.list(ctx, "list", childrenQuery(id))
}

// FindChild looks up a single child by name with a filtered query
func (s *Store) FindChild(ctx context.Context, parentID, name string) (*models.RemoteObject, bool, error) {
	objects, err := s.list(ctx, "find", childQuery(parentID, name))
	if err != nil {
		return nil, false, err
	}
	if len(objects) == 0 {
		return nil, false, nil
	}
	return &objects[0], true, nil
}

// GetObject fetches the metadata of id
func (s *Store) GetObject(ctx context.Context, id string) (*models.RemoteObject, error) {
	file, err := s.files.Get(id).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get %s: %w", id, remote.ErrNoSuchObject)
		}
		return nil, classify("get", err)
	}
	return toObject(file), nil
}

// CreateFolder creates a folder inside parentID
func (s *Store) CreateFolder(ctx context.Context, name, parentID string) (*models.RemoteObject, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: FolderMimeType,
		Parents:  []string{parentID},
	}
	file, err := s.files.Create(meta).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, classify("create_folder", err)
	}
	return toObject(file), nil
}

// CreateFile uploads content as a new file inside parentID
func (s *Store) CreateFile(ctx context.Context, name, parentID string, content io.Reader) (*models.RemoteObject, error) {
	meta := &drive.File{
		Name:    name,
		Parents: []string{parentID},
	}
	file, err := s.files.Create(meta).Media(content).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, classify("create_file", err)
	}
	return toObject(file), nil
}

func (s *Store) list(ctx context.Context, op, query string) ([]models.RemoteObject, error) {
	var objects []models.RemoteObject
	pageToken := ""
	for {
		call := s.files.List().Q(query).Fields(listFields).PageSize(pageSize).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, classify(op, err)
		}
		for _, file := range page.Files {
			objects = append(objects, *toObject(file))
		}
		if page.NextPageToken == "" {
			return objects, nil
		}
		pageToken = page.NextPageToken
	}
}

func childrenQuery(parentID string) string {
	return fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(parentID))
}

func childQuery(parentID, name string) string {
	return fmt.Sprintf("%s and name = '%s'", childrenQuery(parentID), escapeQuery(name))
}

// escapeQuery escapes a literal for use inside a single-quoted query string
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func toObject(file *drive.File) *models.RemoteObject {
	obj := &models.RemoteObject{
		ID:   file.Id,
		Name: file.Name,
		Kind: models.KindFile,
	}
	if file.MimeType == FolderMimeType {
		obj.Kind = models.KindFolder
	} else {
		obj.Size = file.Size
	}
	if len(file.Parents) > 0 {
		obj.ParentID = file.Parents[0]
	}
	return obj
}

// classify wraps a Drive API failure in a remote.Error
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return remote.NewError(op, classifyKind(err), err)
}

func classifyKind(err error) remote.ErrorKind {
	if remote.IsConnectionReset(err) {
		return remote.KindConnection
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return remote.KindUnclassified
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return remote.KindTransient
	case apiErr.Code >= http.StatusInternalServerError:
		return remote.KindTransient
	case apiErr.Code == http.StatusForbidden && isRateLimitReason(apiErr):
		return remote.KindTransient
	default:
		return remote.KindUnclassified
	}
}

func isRateLimitReason(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", path, err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

var (
	_ remote.Store       = (*Store)(nil)
	_ remote.ChildFinder = (*Store)(nil)
	_ remote.Connector   = (*Connector)(nil)
)

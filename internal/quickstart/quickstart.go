// Package quickstart walks through the basic blob storage operations against
// a single container: create it, upload a file, list, download and clean up.
package quickstart

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tizianocitro/blobquickstart/internal/connection"
	common "github.com/tizianocitro/blobquickstart/pkg"
	"github.com/tizianocitro/blobquickstart/pkg/filestorage"
	"go.uber.org/zap"
)

const (
	banner = "Azure Blob Storage - Go quickstart sample"

	notConfiguredMessage = "A connection string has not been defined in the system environment variables. " +
		"Add an environment variable named 'AZURE_STORAGE_CONNECTION_STRING' with your storage connection string as a value."

	cleanupPrompt = "Press the 'Enter' key to delete the example files, example container, and exit the application."
	exitPrompt    = "Press any key to exit the sample application."
	errorPrompt   = "Press any key to exit the application."

	downloadedSuffix = "_DOWNLOADED.txt"
)

// ErrNotConfigured is returned by Run when the storage credential is missing or
// cannot be parsed. No remote call has been made when it is returned.
var ErrNotConfigured = errors.New("storage credential is not configured")

// Connector opens the storage backend. It must report credential problems
// with connection.ErrCredentialNotSet or connection.ErrInvalidCredential.
type Connector func(ctx context.Context) (filestorage.FileStorage, error)

type Options struct {
	ContainerPrefix string
	FilePrefix      string
	Content         string
	// LocalDir holds the temp files; empty selects DefaultLocalDir.
	LocalDir     string
	PageSize     int32
	PublicAccess common.PublicAccess
	// Interactive pauses for a line on the input before cleanup and before exiting.
	Interactive bool
}

// Report describes what a completed run created and saw.
type Report struct {
	Container       string
	BlobName        string
	SourcePath      string
	DestinationPath string
	Listed          []string
}

type Quickstart struct {
	opts    Options
	connect Connector
	logger  *zap.Logger
	out     io.Writer
	in      *bufio.Reader
}

// New creates a Quickstart. Progress text goes to out and pauses read from in.
func New(opts Options, connect Connector, logger *zap.Logger, out io.Writer, in io.Reader) *Quickstart {
	if logger == nil {
		logger = zap.NewNop()
	}
	if in == nil {
		in = strings.NewReader("")
	}
	return &Quickstart{
		opts:    opts,
		connect: connect,
		logger:  logger,
		out:     out,
		in:      bufio.NewReader(in),
	}
}

// Run executes the walkthrough. Steps run strictly in order and a failing
// step stops the run without undoing the earlier ones.
func (q *Quickstart) Run(ctx context.Context) (*Report, error) {
	q.println(banner)
	q.println()

	report, err := q.run(ctx)
	if errors.Is(err, ErrNotConfigured) {
		return nil, err
	}
	if err != nil {
		return report, err
	}

	q.pause(exitPrompt)
	return report, nil
}

func (q *Quickstart) run(ctx context.Context) (*Report, error) {
	store, err := q.connect(ctx)
	if err != nil {
		if errors.Is(err, connection.ErrCredentialNotSet) || errors.Is(err, connection.ErrInvalidCredential) {
			q.logger.Warn("storage credential rejected", zap.Error(err))
			q.println(notConfiguredMessage)
			q.pause(errorPrompt)
			return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
		}
		return nil, fmt.Errorf("connect: %w", err)
	}

	report := &Report{Container: q.opts.ContainerPrefix + uuid.NewString()}
	log := q.logger.With(zap.String("container", report.Container))

	if err := store.CreateContainer(ctx, report.Container); err != nil {
		return report, fmt.Errorf("create container: %w", err)
	}
	log.Debug("container created")

	if err := store.SetPublicAccess(ctx, report.Container, q.opts.PublicAccess); err != nil {
		return report, fmt.Errorf("set permissions: %w", err)
	}
	log.Debug("public access set", zap.Stringer("access", q.opts.PublicAccess))

	dir := q.opts.LocalDir
	if dir == "" {
		dir = DefaultLocalDir()
	}
	report.BlobName = q.opts.FilePrefix + uuid.NewString() + ".txt"
	report.SourcePath = filepath.Join(dir, report.BlobName)
	if err := os.WriteFile(report.SourcePath, []byte(q.opts.Content), 0o644); err != nil {
		return report, fmt.Errorf("create local file: %w", err)
	}
	q.printf("Temp file = %s\n", report.SourcePath)

	q.printf("Uploading to Blob storage as blob '%s'\n", report.BlobName)
	if err := q.upload(ctx, store, report); err != nil {
		return report, fmt.Errorf("upload: %w", err)
	}
	log.Debug("blob uploaded", zap.String("blob", report.BlobName))

	q.println("List blobs in container.")
	if err := q.list(ctx, store, report); err != nil {
		return report, fmt.Errorf("list blobs: %w", err)
	}
	log.Debug("blobs listed", zap.Int("count", len(report.Listed)))

	report.DestinationPath = DownloadPath(report.SourcePath)
	q.printf("Downloading blob to %s\n", report.DestinationPath)
	if err := q.download(ctx, store, report); err != nil {
		return report, fmt.Errorf("download: %w", err)
	}
	log.Debug("blob downloaded", zap.String("path", report.DestinationPath))

	q.pause(cleanupPrompt)

	q.println("Deleting the container")
	if err := store.DeleteContainerIfExists(ctx, report.Container); err != nil {
		return report, fmt.Errorf("delete container: %w", err)
	}

	q.println("Deleting the source, and downloaded files")
	for _, path := range []string{report.SourcePath, report.DestinationPath} {
		if err := os.Remove(path); err != nil {
			return report, fmt.Errorf("delete local file: %w", err)
		}
	}

	log.Info("quickstart completed", zap.String("blob", report.BlobName))
	return report, nil
}

func (q *Quickstart) upload(ctx context.Context, store filestorage.FileStorage, report *Report) error {
	f, err := os.Open(report.SourcePath)
	if err != nil {
		return err
	}
	defer f.Close()

	return store.PutObject(ctx, report.Container, report.BlobName, f)
}

func (q *Quickstart) list(ctx context.Context, store filestorage.FileStorage, report *Report) error {
	var token *string
	for {
		page, err := store.ListObjectsPage(ctx, report.Container, token, q.opts.PageSize)
		if err != nil {
			return err
		}
		for _, obj := range page.Objects {
			q.println(obj.URI)
			report.Listed = append(report.Listed, obj.URI)
		}
		token = page.ContinuationToken
		if token == nil {
			return nil
		}
	}
}

func (q *Quickstart) download(ctx context.Context, store filestorage.FileStorage, report *Report) error {
	body, err := store.GetObject(ctx, report.Container, report.BlobName)
	if err != nil {
		return err
	}
	defer body.Close()

	f, err := os.Create(report.DestinationPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// pause prints prompt and waits for a line of input when running interactively.
func (q *Quickstart) pause(prompt string) {
	if !q.opts.Interactive {
		return
	}
	q.println(prompt)
	_, _ = q.in.ReadString('\n')
}

func (q *Quickstart) println(a ...any) {
	_, _ = fmt.Fprintln(q.out, a...)
}

func (q *Quickstart) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(q.out, format, a...)
}

// DownloadPath returns the local path the blob downloaded from source is written to.
func DownloadPath(source string) string {
	dir, name := filepath.Split(source)
	if strings.HasSuffix(name, ".txt") {
		return dir + strings.TrimSuffix(name, ".txt") + downloadedSuffix
	}
	return source + "_DOWNLOADED"
}

// DefaultLocalDir returns the user's desktop folder, or the temp dir when there is none.
func DefaultLocalDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		desktop := filepath.Join(home, "Desktop")
		if info, err := os.Stat(desktop); err == nil && info.IsDir() {
			return desktop
		}
	}
	return os.TempDir()
}

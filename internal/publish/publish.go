// Package publish implements the Chrome Web Store publisher: fetch one access
// token, upload the bundle as a draft, then publish the draft unless the
// configured target is the draft sentinel.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mcdonaldj/extpublish/internal/adapters/chromestore"
	"github.com/mcdonaldj/extpublish/internal/adapters/osfs"
	"github.com/mcdonaldj/extpublish/internal/config"
	"github.com/mcdonaldj/extpublish/internal/logger"
	"github.com/mcdonaldj/extpublish/internal/ports"
)

var (
	ErrUploadFailed  = errors.New("failed to upload zipped extension")
	ErrPublishFailed = errors.New("failed to publish extension")
)

// statusOK marks a target that accepted the publish request.
const statusOK = "OK"

// uploadSuccessStates are the upload states that let publishing continue.
var uploadSuccessStates = []string{"SUCCESS", "IN_PROGRESS"}

// FailureError carries a failed Result when raising on failure is enabled.
type FailureError struct {
	Err         error
	Diagnostics []ports.Diagnostic
}

func (e *FailureError) Error() string {
	if len(e.Diagnostics) == 0 {
		return e.Err.Error()
	}
	parts := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		parts[i] = d.Code + ": " + d.Detail
	}
	return fmt.Sprintf("%v (%s)", e.Err, strings.Join(parts, "; "))
}

func (e *FailureError) Unwrap() error { return e.Err }

// StoreFactory builds a store client for resolved credentials.
type StoreFactory func(creds config.Credentials) ports.WebStore

// ChromePublisher implements ports.Publisher for the Chrome Web Store.
type ChromePublisher struct {
	opts     config.Options
	env      config.Env
	log      *logger.Logger
	fs       ports.FileSystem
	newStore StoreFactory
}

// Option is a functional option for configuring ChromePublisher.
type Option func(*ChromePublisher)

// WithEnv sets the environment snapshot used for credential fallback.
func WithEnv(env config.Env) Option {
	return func(p *ChromePublisher) { p.env = env }
}

func WithFileSystem(fsys ports.FileSystem) Option {
	return func(p *ChromePublisher) { p.fs = fsys }
}

func WithStoreFactory(f StoreFactory) Option {
	return func(p *ChromePublisher) { p.newStore = f }
}

// NewChromePublisher creates a publisher. A nil log discards output.
func NewChromePublisher(opts config.Options, log *logger.Logger, options ...Option) *ChromePublisher {
	if log == nil {
		log = logger.Discard()
	}
	p := &ChromePublisher{
		opts: opts,
		log:  log,
		fs:   osfs.New(),
		newStore: func(creds config.Credentials) ports.WebStore {
			return chromestore.New(creds)
		},
	}
	for _, opt := range options {
		opt(p)
	}
	if p.env == nil {
		p.env = config.EnvFromOS()
	}
	return p
}

// Publish uploads the bundle and publishes it to the configured target.
func (p *ChromePublisher) Publish(ctx context.Context, bundlePath string) (ports.Result, error) {
	creds := config.Resolve(p.opts, p.env)
	if err := creds.Validate(); err != nil {
		return ports.Result{}, err
	}
	store := p.newStore(creds)

	zipFile, err := p.fs.Open(bundlePath)
	if err != nil {
		return ports.Result{}, fmt.Errorf("opening bundle: %w", err)
	}
	defer func() { _ = zipFile.Close() }()

	tokenCtx, cancel := p.withTimeout(ctx)
	token, err := store.FetchToken(tokenCtx)
	cancel()
	if err != nil {
		return ports.Result{}, err
	}
	p.log.Debug("Fetched access token for %s.", creds.ExtensionID)

	result, err := p.UploadZip(ctx, store, token, zipFile)
	if err != nil || !result.Succeeded {
		return result, err
	}

	if p.opts.IsDraft() {
		p.log.Info("Publishing skipped: target is %q, the upload stays a draft.", config.TargetDraft)
		return result, nil
	}

	return p.PublishDraft(ctx, store, token)
}

// UploadZip uploads zipFile as a new draft version.
func (p *ChromePublisher) UploadZip(ctx context.Context, store ports.WebStore, token string, zipFile io.Reader) (ports.Result, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	resp, err := store.UploadExisting(ctx, token, zipFile)
	if err != nil {
		return ports.Result{}, err
	}

	if slices.Contains(uploadSuccessStates, resp.UploadState) {
		p.log.Info("Uploaded zipped extension (%s).", resp.UploadState)
		return ports.Result{Succeeded: true}, nil
	}

	diags := make([]ports.Diagnostic, 0, len(resp.ItemError))
	for _, itemErr := range resp.ItemError {
		diags = append(diags, ports.Diagnostic{Code: itemErr.Code, Detail: itemErr.Detail})
	}
	if len(diags) == 0 {
		diags = append(diags, ports.Diagnostic{Code: resp.UploadState, Detail: "upload was not accepted"})
	}
	p.logDiagnostics(diags)

	return p.failure(ErrUploadFailed, diags)
}

// PublishDraft publishes the uploaded draft to the configured target.
func (p *ChromePublisher) PublishDraft(ctx context.Context, store ports.WebStore, token string) (ports.Result, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	target := p.opts.PublishTarget()
	resp, err := store.Publish(ctx, token, target)
	if err != nil {
		return ports.Result{}, err
	}

	if slices.Contains(resp.Status, statusOK) {
		p.log.Info("Published new extension version (%s).", target)
		return ports.Result{Succeeded: true}, nil
	}

	diags := make([]ports.Diagnostic, 0, len(resp.Status))
	for i, status := range resp.Status {
		detail := ""
		if i < len(resp.StatusDetail) {
			detail = resp.StatusDetail[i]
		}
		diags = append(diags, ports.Diagnostic{Code: status, Detail: detail})
	}
	if len(diags) == 0 {
		diags = append(diags, ports.Diagnostic{Code: "UNKNOWN", Detail: "store returned no status"})
	}
	p.logDiagnostics(diags)

	return p.failure(ErrPublishFailed, diags)
}

func (p *ChromePublisher) logDiagnostics(diags []ports.Diagnostic) {
	for _, d := range diags {
		p.log.Error("%s: %s", d.Code, d.Detail)
	}
}

func (p *ChromePublisher) failure(sentinel error, diags []ports.Diagnostic) (ports.Result, error) {
	result := ports.Result{Succeeded: false, Diagnostics: diags}
	if p.opts.ThrowOnFailure {
		return result, &FailureError{Err: sentinel, Diagnostics: diags}
	}
	return result, nil
}

func (p *ChromePublisher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.Timeout > 0 {
		return context.WithTimeout(ctx, p.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// Compile-time check that ChromePublisher implements ports.Publisher.
var _ ports.Publisher = (*ChromePublisher)(nil)

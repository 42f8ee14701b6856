package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmehdipour/rfm-dashboard/internal/gateway"
	"github.com/jmehdipour/rfm-dashboard/internal/logger"
	"github.com/jmehdipour/rfm-dashboard/internal/model"
	"go.uber.org/zap"
)

// UploadExtensions are the transaction file types the analytics service parses.
var UploadExtensions = []string{".csv", ".xlsx", ".xls"}

func supportedUpload(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range UploadExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Upload sends a transaction file and, once the service accepted it, runs
// HandleUploadSuccess. Rejections carry the server's explanation.
func (o *Orchestrator) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if !supportedUpload(filename) {
		o.mu.Lock()
		o.status[ResourceUpload] = Status{Error: msgUnsupportedFile}
		o.mu.Unlock()
		return "", gateway.Validation("uploadFile", "file", msgUnsupportedFile)
	}

	o.mu.Lock()
	seq := o.beginLocked(ResourceUpload)
	o.uploaded = ""
	o.mu.Unlock()

	msg, err := o.gw.Upload(ctx, filename, r)

	o.mu.Lock()
	if !o.currentLocked(ResourceUpload, seq) {
		o.mu.Unlock()
		o.superseded(ResourceUpload)
		return "", err
	}
	if err != nil {
		text := msgUploadFailed
		if errors.Is(err, gateway.ErrValidation) {
			text = firstNonEmpty(gateway.Detail(err), msgUploadFailed)
		}
		o.status[ResourceUpload] = Status{Error: text}
		o.mu.Unlock()
		logger.Log.Warn("dashboard: upload", zap.String("file", filepath.Base(filename)), zap.Error(err))
		return "", fmt.Errorf("upload: %w", err)
	}
	if msg == "" {
		msg = "File uploaded successfully!"
	}
	o.uploaded = msg
	o.status[ResourceUpload] = Status{}
	o.mu.Unlock()

	logger.Log.Info("dashboard: file uploaded", zap.String("file", filepath.Base(filename)))
	return msg, o.HandleUploadSuccess(ctx)
}

// HandleUploadSuccess is the single post-upload transition: filters and city
// are reset together, then the unfiltered analysis (and with it the ranking)
// and the file list are refetched concurrently. It returns once all are done.
func (o *Orchestrator) HandleUploadSuccess(ctx context.Context) error {
	o.mu.Lock()
	o.filters = model.FilterState{}
	o.city = ""
	o.mu.Unlock()

	return o.reload(ctx)
}

// reload fetches the unfiltered analysis and the file list side by side.
func (o *Orchestrator) reload(ctx context.Context) error {
	var wg sync.WaitGroup
	var analysisErr, filesErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		analysisErr = o.LoadPrimaryAnalysis(ctx, model.FilterState{})
	}()
	go func() {
		defer wg.Done()
		filesErr = o.RefreshFiles(ctx)
	}()
	wg.Wait()
	return errors.Join(analysisErr, filesErr)
}

// RefreshFiles reloads the list of previously uploaded files.
func (o *Orchestrator) RefreshFiles(ctx context.Context) error {
	o.mu.Lock()
	seq := o.beginLocked(ResourceFiles)
	o.mu.Unlock()

	files, err := o.gw.UploadedFiles(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.currentLocked(ResourceFiles, seq) {
		o.superseded(ResourceFiles)
		return nil
	}
	if err != nil {
		o.files = nil
		o.status[ResourceFiles] = Status{Error: msgFilesFailed}
		return fmt.Errorf("list uploaded files: %w", err)
	}
	o.files = files
	o.status[ResourceFiles] = Status{}
	return nil
}

// DownloadFile streams an uploaded file into w. It does not touch dashboard state.
func (o *Orchestrator) DownloadFile(ctx context.Context, id int64, w io.Writer) (int64, error) {
	n, err := o.gw.DownloadUploadedFile(ctx, id, w)
	if err != nil {
		return n, fmt.Errorf("download file %d: %w", id, err)
	}
	return n, nil
}

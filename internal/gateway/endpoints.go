package gateway

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/jmehdipour/rfm-dashboard/internal/model"
)

// Authenticate exchanges credentials for a token (POST /auth/token/).
// A 400 from this endpoint means bad credentials and is reported as ErrAuthentication.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.postJSON(ctx, "authenticate", "/auth/token/", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		var ge *Error
		if errors.As(err, &ge) && errors.Is(ge.Kind, ErrValidation) {
			ge.Kind = ErrAuthentication
		}
		return "", err
	}
	return out.Token, nil
}

// Register creates an account (POST /users/register/). Every 4xx from this
// endpoint is a rejected registration and is reported as ErrValidation.
func (c *Client) Register(ctx context.Context, reg model.Registration) (model.RegistrationResult, error) {
	var out model.RegistrationResult
	if err := c.postJSON(ctx, "register", "/users/register/", reg, &out); err != nil {
		var ge *Error
		if errors.As(err, &ge) && ge.Status >= 400 && ge.Status < 500 {
			ge.Kind = ErrValidation
		}
		return model.RegistrationResult{}, err
	}
	return out, nil
}

// Identity resolves the current token (GET /users/me/).
func (c *Client) Identity(ctx context.Context) (*model.Identity, error) {
	var out model.Identity
	if err := c.getJSON(ctx, "getIdentity", "/users/me/", nil, &out); err != nil {
		return nil, err
	}
	if out.Username == "" && out.ID == 0 {
		return nil, &Error{Kind: ErrProtocol, Op: "getIdentity", Status: http.StatusOK, Message: "empty identity"}
	}
	return &out, nil
}

// Logout calls an optional server-side invalidation endpoint for token, which
// need not be the currently attached one.
func (c *Client) Logout(ctx context.Context, path, token string) error {
	res, err := c.do(ctx, request{
		op:        "logout",
		method:    http.MethodPost,
		path:      path,
		authToken: token,
	})
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return res.Body.Close()
}

// Upload streams r as the multipart "file" field (POST /rfm/upload/).
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	res, err := c.do(ctx, request{
		op:          "uploadFile",
		method:      http.MethodPost,
		path:        "/rfm/upload/",
		body:        pr,
		contentType: mw.FormDataContentType(),
	})
	// unblock the writer goroutine if the request never consumed the body
	_ = pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	var out struct {
		Message string `json:"message"`
	}
	if err := decode("uploadFile", res, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Analysis fetches the RFM table and summary (GET /rfm/analysis/).
func (c *Client) Analysis(ctx context.Context, filters model.FilterState) (*model.AnalysisResult, error) {
	q := url.Values{}
	for k, v := range filters.Query() {
		q.Set(k, v)
	}
	var out model.AnalysisResult
	if err := c.getJSON(ctx, "getAnalysis", "/rfm/analysis/", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ranking fetches the top customers by total paid, optionally for one city (GET /rfm/ranking/).
func (c *Client) Ranking(ctx context.Context, city string) ([]model.RankingRow, error) {
	q := url.Values{}
	if city != "" {
		q.Set("city", city)
	}
	var out struct {
		Ranking []model.RankingRow `json:"ranking"`
	}
	if err := c.getJSON(ctx, "getRanking", "/rfm/ranking/", q, &out); err != nil {
		return nil, err
	}
	if out.Ranking == nil {
		out.Ranking = []model.RankingRow{}
	}
	return out.Ranking, nil
}

func (c *Client) RevenueAnalytics(ctx context.Context, period model.RevenuePeriod) (*model.RevenueAnalytics, error) {
	if period == "" {
		period = model.PeriodAll
	}
	var out model.RevenueAnalytics
	q := url.Values{"period": {string(period)}}
	if err := c.getJSON(ctx, "getRevenueAnalytics", "/rfm/analytics/revenue/", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CustomerAnalytics(ctx context.Context) (*model.CustomerAnalytics, error) {
	var out model.CustomerAnalytics
	if err := c.getJSON(ctx, "getCustomerAnalytics", "/rfm/analytics/customers/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VIPCustomers(ctx context.Context) ([]model.VIPCustomer, error) {
	var out struct {
		VIPCustomers []model.VIPCustomer `json:"vip_customers"`
	}
	if err := c.getJSON(ctx, "getVIPCustomers", "/rfm/analytics/vip/", nil, &out); err != nil {
		return nil, err
	}
	if out.VIPCustomers == nil {
		out.VIPCustomers = []model.VIPCustomer{}
	}
	return out.VIPCustomers, nil
}

func (c *Client) AvgOrderValue(ctx context.Context) (*model.AvgOrderValue, error) {
	var out model.AvgOrderValue
	if err := c.getJSON(ctx, "getAvgOrderValue", "/rfm/analytics/avg-order-value/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadedFiles lists the user's uploads, newest first (GET /rfm/uploaded-files/).
func (c *Client) UploadedFiles(ctx context.Context) ([]model.UploadedFile, error) {
	var out struct {
		Files []model.UploadedFile `json:"files"`
	}
	if err := c.getJSON(ctx, "listUploadedFiles", "/rfm/uploaded-files/", nil, &out); err != nil {
		return nil, err
	}
	if out.Files == nil {
		out.Files = []model.UploadedFile{}
	}
	return out.Files, nil
}

// DownloadUploadedFile copies the stored file to w and returns the number of bytes written.
func (c *Client) DownloadUploadedFile(ctx context.Context, id int64, w io.Writer) (int64, error) {
	res, err := c.do(ctx, request{
		op:     "downloadUploadedFile",
		method: http.MethodGet,
		path:   "/rfm/uploaded-files/" + strconv.FormatInt(id, 10) + "/download/",
	})
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	n, err := io.Copy(w, res.Body)
	if err != nil {
		return n, &Error{Kind: ErrTransient, Op: "downloadUploadedFile", Status: res.StatusCode, Err: err}
	}
	return n, nil
}

// GenerateInsights asks the service for AI commentary on the current data (GET /ai/generate/).
func (c *Client) GenerateInsights(ctx context.Context) (*model.Insights, error) {
	var out model.Insights
	if err := c.getJSON(ctx, "generateAiInsights", "/ai/generate/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

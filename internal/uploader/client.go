package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

const (
	predictPath  = "/predict"
	fileField    = "file"
	defaultTitle = "Server Error"

	// maxErrorPage bounds how much of a non-JSON body is read.
	maxErrorPage = 1 << 20
)

type predictResponse struct {
	Success        bool               `json:"success"`
	Error          string             `json:"error"`
	Prediction     string             `json:"prediction"`
	Confidence     float64            `json:"confidence"`
	AllPredictions map[string]float64 `json:"all_predictions"`
}

// Client talks to the prediction endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Predict uploads file as multipart field "file". The outcome is decided by the
// body, not the status code: a JSON error field yields *ServerError, a
// non-JSON body *MalformedResponseError, and network failures *TransportError.
func (c *Client) Predict(ctx context.Context, file *SelectedFile) (*PredictionResult, error) {
	body, contentType, err := encodeFile(file)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respType := resp.Header.Get("Content-Type")
	if !strings.Contains(respType, "application/json") {
		return nil, c.malformed(resp, respType)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	var decoded predictResponse
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		c.logger.Error().Err(err).Str("body", string(raw)).Msg("server returned invalid JSON")
		return nil, &MalformedResponseError{StatusCode: resp.StatusCode, ContentType: respType, Title: defaultTitle}
	}

	switch {
	case decoded.Error != "":
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: decoded.Error}
	case decoded.Success:
		return &PredictionResult{
			Prediction:     decoded.Prediction,
			Confidence:     decoded.Confidence,
			AllPredictions: decoded.AllPredictions,
		}, nil
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	}
}

func (c *Client) malformed(resp *http.Response, contentType string) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorPage))
	if err != nil {
		return &TransportError{Err: err}
	}
	c.logger.Error().
		Int("status", resp.StatusCode).
		Str("content_type", contentType).
		Str("body", string(raw)).
		Msg("server returned non-JSON")

	return &MalformedResponseError{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Title:       ExtractTitle(raw),
	}
}

// ExtractTitle returns the text of the first <title> element, or
// "Server Error" when there is none.
func ExtractTitle(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return defaultTitle
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return defaultTitle
	}
	return title
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeFile(file *SelectedFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fileField, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", file.MediaType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

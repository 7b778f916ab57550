package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fitstudio/internal/domain"
	"fitstudio/internal/infra"
)

// CredentialSource yields the API key attached to every upstream call. The
// key is resolved per call so a rotated or invalidated credential takes
// effect without rebuilding the client.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// Options controls how the Gemini client is configured.
type Options struct {
	Credentials CredentialSource
	BaseURL     string
	ImageModel  string
	VideoModel  string
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

// Client is a lightweight facade over the generative language REST API. It
// owns the wire types and turns upstream failures it can identify (auth
// status codes, refusals, empty candidates) into classified errors; anything
// else is returned as a plain error for the caller to classify.
type Client struct {
	creds      CredentialSource
	baseURL    string
	imageModel string
	videoModel string
	httpClient *http.Client
	logger     *infra.Logger
}

// ComposeRequest is one synchronous image-generation round trip. Images are
// sent in order after the prompt; position is meaningful to the prompt, so
// callers must not reorder them.
type ComposeRequest struct {
	Prompt      string
	Images      []InlineImage
	ImageSize   string
	AspectRatio string
	RequestID   string
}

// InlineImage is an image payload embedded in a request part.
type InlineImage struct {
	MIME string
	Data []byte
}

// CompositeImage is the decoded image part of a generateContent response.
type CompositeImage struct {
	Data  []byte
	MIME  string
	Model string
}

// VideoJobRequest submits one long-running video generation.
type VideoJobRequest struct {
	Prompt      string
	Image       InlineImage
	SampleCount int
	Resolution  string
	AspectRatio string
	RequestID   string
}

// VideoOperation is the state of a long-running video job at one poll.
type VideoOperation struct {
	Name            string
	Done            bool
	ResultURI       string
	FilteredReasons []string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
	FileData   *geminiFileData   `json:"fileData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

type geminiImageConfig struct {
	ImageSize   string `json:"imageSize,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string           `json:"responseModalities,omitempty"`
	ImageConfig        *geminiImageConfig `json:"imageConfig,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason        string `json:"blockReason,omitempty"`
	BlockReasonMessage string `json:"blockReasonMessage,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

type veoSubmitRequest struct {
	Instances  []veoInstance  `json:"instances"`
	Parameters *veoParameters `json:"parameters,omitempty"`
}

type veoInstance struct {
	Prompt string          `json:"prompt"`
	Image  *veoInlineImage `json:"image,omitempty"`
}

type veoInlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type veoParameters struct {
	SampleCount int    `json:"sampleCount,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type veoOperationResponse struct {
	Name     string                  `json:"name"`
	Done     bool                    `json:"done"`
	Error    *veoOperationError      `json:"error,omitempty"`
	Response *veoOperationInnerReply `json:"response,omitempty"`
}

type veoOperationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type veoOperationInnerReply struct {
	GenerateVideoResponse *veoVideoResponse `json:"generateVideoResponse,omitempty"`
}

type veoVideoResponse struct {
	GeneratedSamples        []veoSample `json:"generatedSamples,omitempty"`
	GeneratedVideos         []veoSample `json:"generatedVideos,omitempty"`
	RaiMediaFilteredReasons []string    `json:"raiMediaFilteredReasons,omitempty"`
}

type veoSample struct {
	Video *veoVideoRef `json:"video,omitempty"`
}

type veoVideoRef struct {
	URI string `json:"uri,omitempty"`
}

// NewClient constructs a client with sane defaults. Callers may provide a
// nil HTTP client; a reusable one with a generous timeout is created since
// image generation round trips routinely take tens of seconds.
func NewClient(opts Options) (*Client, error) {
	if opts.Credentials == nil {
		return nil, fmt.Errorf("genai: credential source is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 180 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-3.0-fast-generate-001"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		creds:      opts.Credentials,
		baseURL:    baseURL,
		imageModel: imageModel,
		videoModel: videoModel,
		httpClient: client,
		logger:     logger,
	}, nil
}

// ImageModel returns the configured image model identifier.
func (c *Client) ImageModel() string { return c.imageModel }

// VideoModel returns the configured video model identifier.
func (c *Client) VideoModel() string { return c.videoModel }

// GenerateComposite performs one generateContent round trip and interprets
// the response: the first inline image part wins and any accompanying text
// is ignored; text with no image is a content refusal carrying that text;
// neither is an empty response.
func (c *Client) GenerateComposite(ctx context.Context, req ComposeRequest) (*CompositeImage, error) {
	parts := make([]geminiPart, 0, len(req.Images)+1)
	parts = append(parts, geminiPart{Text: req.Prompt})
	for _, img := range req.Images {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: img.MIME,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
			ImageConfig: &geminiImageConfig{
				ImageSize:   req.ImageSize,
				AspectRatio: req.AspectRatio,
			},
		},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.imageModel))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return nil, err
	}

	if len(response.Candidates) == 0 {
		if fb := response.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return nil, domain.NewRefusal(firstNonEmpty(fb.BlockReasonMessage, fb.BlockReason))
		}
		return nil, domain.NewEmptyResponse()
	}

	var refusalText strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode inline data: %w", err)
			}
			c.logger.Debug().
				Str("request_id", req.RequestID).
				Str("model", c.imageModel).
				Int("bytes", len(data)).
				Msg("genai: composite image received")
			return &CompositeImage{
				Data:  data,
				MIME:  firstNonEmpty(part.InlineData.MimeType, "image/png"),
				Model: c.imageModel,
			}, nil
		}
		if txt := strings.TrimSpace(part.Text); txt != "" {
			if refusalText.Len() > 0 {
				refusalText.WriteString("\n")
			}
			refusalText.WriteString(txt)
		}
	}

	if refusalText.Len() > 0 {
		return nil, domain.NewRefusal(refusalText.String())
	}
	return nil, domain.NewEmptyResponse()
}

// SubmitVideoJob starts a long-running video generation and returns the
// operation name to poll.
func (c *Client) SubmitVideoJob(ctx context.Context, req VideoJobRequest) (string, error) {
	instance := veoInstance{Prompt: req.Prompt}
	if len(req.Image.Data) > 0 {
		instance.Image = &veoInlineImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.Image.Data),
			MimeType:           req.Image.MIME,
		}
	}

	payload := veoSubmitRequest{
		Instances: []veoInstance{instance},
		Parameters: &veoParameters{
			SampleCount: req.SampleCount,
			Resolution:  req.Resolution,
			AspectRatio: req.AspectRatio,
		},
	}

	var response veoOperationResponse
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return "", err
	}
	if response.Name == "" {
		return "", domain.NewProtocolError("video submission returned no operation name")
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.videoModel).
		Str("operation", response.Name).
		Msg("genai: video job submitted")

	return response.Name, nil
}

// PollVideoJob re-queries a video operation once. A done operation carrying
// an error payload is returned as that error; extraction of the result URI
// is left to the caller so it can count polls and apply its own bounds.
func (c *Client) PollVideoJob(ctx context.Context, operation string) (*VideoOperation, error) {
	var response veoOperationResponse
	path := "/" + strings.TrimLeft(operation, "/")
	if err := c.invoke(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}

	if response.Done && response.Error != nil {
		return nil, fmt.Errorf("video operation failed: %s", response.Error.Message)
	}

	op := &VideoOperation{Name: firstNonEmpty(response.Name, operation), Done: response.Done}
	if inner := response.Response; inner != nil && inner.GenerateVideoResponse != nil {
		vr := inner.GenerateVideoResponse
		op.FilteredReasons = vr.RaiMediaFilteredReasons
		for _, sample := range append(vr.GeneratedSamples, vr.GeneratedVideos...) {
			if sample.Video != nil && sample.Video.URI != "" {
				op.ResultURI = sample.Video.URI
				break
			}
		}
	}
	return op, nil
}

// DownloadVideo fetches the result payload behind a retrieval URI with the
// credential attached. Returns the bytes and the reported content type.
func (c *Client) DownloadVideo(ctx context.Context, uri string) ([]byte, string, error) {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return nil, "", domain.NewAuthError("", err)
	}

	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", key)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, "", c.statusError(resp.StatusCode, strings.TrimSpace(string(data)))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read video: %w", err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload, out any) error {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return domain.NewAuthError("", err)
	}

	endpoint := c.baseURL + path
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", key)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return c.statusError(resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		return c.statusError(resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

// statusError maps an upstream HTTP failure. Auth status codes are
// classified here; everything else stays a plain error so the message
// signature rules decide the final kind.
func (c *Client) statusError(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return domain.NewAuthError(fmt.Sprintf("genai: http %d: %s", status, message), nil)
	}
	return fmt.Errorf("genai: http %d: %s", status, message)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

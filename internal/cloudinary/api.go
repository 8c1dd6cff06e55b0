package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// example upload call
// POST https://api.cloudinary.com/v1_1/<cloud name>/image/upload
// multipart fields: file, upload_preset (unsigned preset, no API secret involved)

const DefaultBaseURL = "https://api.cloudinary.com/v1_1"

var ErrUploadFailed = errors.New("image upload failed")

type Api struct {
	baseURL      string
	cloudName    string
	uploadPreset string
	httpClient   *http.Client
}

func NewApi(baseURL, cloudName, uploadPreset string, httpClient *http.Client) *Api {
	return &Api{
		baseURL:      baseURL,
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		httpClient:   httpClient,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the image content via the unsigned upload endpoint and returns
// the durable https URL of the stored image.
func (api *Api) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, content); err != nil {
		return "", fmt.Errorf("copy file content: %w", err)
	}
	if err := mw.WriteField("upload_preset", api.uploadPreset); err != nil {
		return "", fmt.Errorf("write upload preset field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	uploadURL := fmt.Sprintf("%s/%s/image/upload", api.baseURL, api.cloudName)
	log.Debugf("uploading %s to %s", filename, uploadURL)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := api.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response bytes: %w", err)
	}

	var uploadResp uploadResponse
	if err := json.Unmarshal(respBytes, &uploadResp); err != nil {
		return "", fmt.Errorf("unmarshal upload response bytes: %w", err)
	}

	if resp.StatusCode != http.StatusOK || uploadResp.SecureURL == "" {
		log.Errorf("upload %s failed [%d]: %s", filename, resp.StatusCode, uploadResp.Error.Message)
		return "", ErrUploadFailed
	}

	log.Tracef("uploaded %s: %s", filename, uploadResp.SecureURL)

	return uploadResp.SecureURL, nil
}

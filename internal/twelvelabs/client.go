// Copyright 2025 Muziris, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package twelvelabs is a thin client for the Twelve Labs
// video-understanding API. This file defines the capability surface the
// rest of the application depends on (the API interface) and its HTTP
// implementation.
//
// The API interface exists so the workflow commands receive the remote
// service as an injected dependency: production wiring passes the
// rate-limited client, tests pass a fake.
//
// Operations:
//   - CreateIndex: create a per-request index with a set of enabled models.
//   - UploadAsset: direct multipart upload of a local video file.
//   - AttachAssetToIndex: start indexing an uploaded asset; returns the
//     initial, typically non-terminal, status.
//   - GetIndexedAsset: observe the current indexing status and HLS metadata.
//   - Analyze: open a streaming natural-language analysis of an indexed asset.
//   - Search: run a similarity search and return the first page of ranked
//     matches, in provider order.
//   - DeleteIndex: remove an index. The request workflow never calls this;
//     it exists for out-of-band garbage collection.
package twelvelabs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
)

// API is the capability surface of the remote video-understanding service.
type API interface {
	CreateIndex(ctx context.Context, name string, models []IndexModelSpec) (*Index, error)
	UploadAsset(ctx context.Context, filePath string, mimeType string) (*Asset, error)
	AttachAssetToIndex(ctx context.Context, indexID, assetID string, enableVideoStream bool) (*IndexedAsset, error)
	GetIndexedAsset(ctx context.Context, indexID, indexedAssetID string) (*IndexedAsset, error)
	Analyze(ctx context.Context, indexedAssetID, prompt string) (AnalyzeStream, error)
	Search(ctx context.Context, indexID, query string, modalities []string, pageLimit int) ([]*SearchMatch, error)
	DeleteIndex(ctx context.Context, indexID string) error
}

// Client is the HTTP implementation of the API interface.
type Client struct {
	http *resty.Client
}

// apiErrorBody is the provider's error envelope.
type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// dataEnvelope wraps list responses such as search results.
type dataEnvelope[T any] struct {
	Data []T `json:"data"`
}

// NewClient creates a client for the given API base URL, authenticating
// every request with the provided key.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("x-api-key", apiKey).
		SetTimeout(timeout)
	return &Client{http: rc}
}

// asAPIError converts a non-2xx response into an *APIError, preserving the
// provider's code and message when the body parses.
func asAPIError(resp *resty.Response) error {
	body := &apiErrorBody{}
	if v, ok := resp.Error().(*apiErrorBody); ok && v != nil {
		body = v
	}
	msg := body.Message
	if msg == "" {
		msg = resp.Status()
	}
	return &APIError{StatusCode: resp.StatusCode(), Code: body.Code, Message: msg}
}

// CreateIndex creates a new index with the given name and model set.
func (c *Client) CreateIndex(ctx context.Context, name string, models []IndexModelSpec) (*Index, error) {
	out := &Index{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"index_name": name,
			"models":     models,
		}).
		SetResult(out).
		SetError(&apiErrorBody{}).
		Post("/indexes")
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if resp.IsError() {
		return nil, asAPIError(resp)
	}
	out.Name = name
	return out, nil
}

// UploadAsset uploads a local video file with the provider's direct upload
// method and returns the resulting asset handle. The file part is sent
// with the given MIME type instead of the multipart default.
func (c *Client) UploadAsset(ctx context.Context, filePath string, mimeType string) (*Asset, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("upload asset: %w", err)
	}
	defer file.Close()

	out := &Asset{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"method": "direct"}).
		SetMultipartField("file", filepath.Base(filePath), mimeType, file).
		SetResult(out).
		SetError(&apiErrorBody{}).
		Post("/assets")
	if err != nil {
		return nil, fmt.Errorf("upload asset: %w", err)
	}
	if resp.IsError() {
		return nil, asAPIError(resp)
	}
	return out, nil
}

// AttachAssetToIndex associates an uploaded asset with an index, starting
// the indexing job. The returned status is the initial one and is usually
// not terminal.
func (c *Client) AttachAssetToIndex(ctx context.Context, indexID, assetID string, enableVideoStream bool) (*IndexedAsset, error) {
	out := &IndexedAsset{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"asset_id":            assetID,
			"enable_video_stream": enableVideoStream,
		}).
		SetResult(out).
		SetError(&apiErrorBody{}).
		Post(fmt.Sprintf("/indexes/%s/indexed-assets", indexID))
	if err != nil {
		return nil, fmt.Errorf("attach asset to index: %w", err)
	}
	if resp.IsError() {
		return nil, asAPIError(resp)
	}
	return out, nil
}

// GetIndexedAsset retrieves the current state of an indexed asset.
func (c *Client) GetIndexedAsset(ctx context.Context, indexID, indexedAssetID string) (*IndexedAsset, error) {
	out := &IndexedAsset{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&apiErrorBody{}).
		Get(fmt.Sprintf("/indexes/%s/indexed-assets/%s", indexID, indexedAssetID))
	if err != nil {
		return nil, fmt.Errorf("get indexed asset: %w", err)
	}
	if resp.IsError() {
		return nil, asAPIError(resp)
	}
	return out, nil
}

// Analyze opens a streaming natural-language analysis of an indexed asset.
// The caller owns the returned stream and must drain or close it.
func (c *Client) Analyze(ctx context.Context, indexedAssetID, prompt string) (AnalyzeStream, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"video_id": indexedAssetID,
			"prompt":   prompt,
			"stream":   true,
		}).
		SetDoNotParseResponse(true).
		Post("/analyze")
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	if resp.StatusCode() >= 400 {
		defer func() { _ = resp.RawBody().Close() }()
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: resp.Status()}
	}
	return newAnalyzeStream(resp.RawBody()), nil
}

// Search runs a similarity search against an index and returns the first
// page of matches in the provider's ranking order. Only one page is ever
// requested.
func (c *Client) Search(ctx context.Context, indexID, query string, modalities []string, pageLimit int) ([]*SearchMatch, error) {
	out := &dataEnvelope[*SearchMatch]{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"index_id":       indexID,
			"query_text":     query,
			"search_options": modalities,
			"page_limit":     pageLimit,
		}).
		SetResult(out).
		SetError(&apiErrorBody{}).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if resp.IsError() {
		return nil, asAPIError(resp)
	}
	return out.Data, nil
}

// DeleteIndex removes an index and everything attached to it.
func (c *Client) DeleteIndex(ctx context.Context, indexID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&apiErrorBody{}).
		Delete(fmt.Sprintf("/indexes/%s", indexID))
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	if resp.IsError() {
		return asAPIError(resp)
	}
	return nil
}

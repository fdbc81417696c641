package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Model bundles the sidecar must serve before detection can start.
var RequiredModels = []string{"tiny_face_detector", "face_expression"}

// FaceAPI calls a face-api inference sidecar over HTTP. The sidecar
// loads its model bundles from a /models path and exposes one detection
// endpoint per frame.
type FaceAPI struct {
	baseURL string
	c       *http.Client
}

func NewFaceAPI(baseURL string) *FaceAPI {
	return &FaceAPI{
		baseURL: baseURL,
		c:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *FaceAPI) Close() error {
	f.c.CloseIdleConnections()
	return nil
}

// LoadModels checks every required bundle's manifest on the sidecar.
// Any missing bundle fails the whole load; the caller blocks video
// start until a successful reload.
func (f *FaceAPI) LoadModels(ctx context.Context) error {
	for _, name := range RequiredModels {
		url := fmt.Sprintf("%s/models/%s/manifest.json", f.baseURL, name)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := f.c.Do(req)
		if err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("model %s: %s", name, resp.Status)
		}
	}
	return nil
}

type detectReq struct {
	ImageBase64 string `json:"image_base64"`
}

type detectResp struct {
	Faces []Face `json:"faces"`
}

func (f *FaceAPI) DetectFaces(ctx context.Context, image []byte) ([]Face, error) {
	b, _ := json.Marshal(detectReq{ImageBase64: base64.StdEncoding.EncodeToString(image)})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/detect", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("detect %s: %s", resp.Status, string(body))
	}

	var out detectResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("detect decode: %w", err)
	}
	return out.Faces, nil
}

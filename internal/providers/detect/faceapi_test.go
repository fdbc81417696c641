package detect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceAPIDetectFaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/detect", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req detectReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.ImageBase64)

		json.NewEncoder(w).Encode(detectResp{Faces: []Face{
			{
				Box:   Box{X: 10, Y: 20, Width: 100, Height: 120},
				Score: 0.98,
				Expressions: map[string]float64{
					"happy":   0.91,
					"neutral": 0.05,
					"sad":     0.04,
				},
			},
		}})
	}))
	defer srv.Close()

	f := NewFaceAPI(srv.URL)
	defer f.Close()

	faces, err := f.DetectFaces(context.Background(), []byte("fake-jpeg"))
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.InDelta(t, 0.91, faces[0].Expressions["happy"], 1e-9)
}

func TestFaceAPIDetectFacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not ready", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFaceAPI(srv.URL)
	defer f.Close()

	_, err := f.DetectFaces(context.Background(), []byte("fake-jpeg"))
	assert.Error(t, err)
}

func TestFaceAPILoadModels(t *testing.T) {
	t.Run("all bundles present", func(t *testing.T) {
		served := map[string]bool{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			served[r.URL.Path] = true
			w.Write([]byte(`{"weights":[]}`))
		}))
		defer srv.Close()

		f := NewFaceAPI(srv.URL)
		require.NoError(t, f.LoadModels(context.Background()))
		assert.True(t, served["/models/tiny_face_detector/manifest.json"])
		assert.True(t, served["/models/face_expression/manifest.json"])
	})

	t.Run("missing bundle blocks load", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/models/face_expression/manifest.json" {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		f := NewFaceAPI(srv.URL)
		err := f.LoadModels(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "face_expression")
	})
}

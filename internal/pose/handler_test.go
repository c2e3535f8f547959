package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asanalab/flowbuilder/internal/models"
	"github.com/asanalab/flowbuilder/internal/store"
)

type fakeLibrary struct {
	poses      map[string]*models.Pose
	variations map[string]*models.PoseVariation
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{
		poses:      make(map[string]*models.Pose),
		variations: make(map[string]*models.PoseVariation),
	}
}

func (f *fakeLibrary) CreatePose(_ context.Context, name string) (*models.Pose, error) {
	for _, p := range f.poses {
		if p.Name == name {
			return nil, fmt.Errorf("duplicate name")
		}
	}
	p := &models.Pose{ID: uuid.New().String(), Name: name, CreatedAt: time.Now()}
	f.poses[p.ID] = p
	return p, nil
}

func (f *fakeLibrary) GetPose(_ context.Context, id string) (*models.Pose, error) {
	p, ok := f.poses[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *p
	for _, v := range f.variations {
		if v.PoseID == id {
			cp.Variations = append(cp.Variations, *v)
		}
	}
	return &cp, nil
}

func (f *fakeLibrary) ListPoses(_ context.Context) ([]models.Pose, error) {
	var out []models.Pose
	for _, p := range f.poses {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeLibrary) RenamePose(_ context.Context, id, name string) error {
	p, ok := f.poses[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Name = name
	return nil
}

func (f *fakeLibrary) DeletePose(_ context.Context, id string) ([]string, error) {
	if _, ok := f.poses[id]; !ok {
		return nil, store.ErrNotFound
	}
	var keys []string
	for vid, v := range f.variations {
		if v.PoseID == id {
			if v.ImageKey != "" {
				keys = append(keys, v.ImageKey)
			}
			delete(f.variations, vid)
		}
	}
	delete(f.poses, id)
	return keys, nil
}

func (f *fakeLibrary) CreateVariation(_ context.Context, poseID, name, cue string) (*models.PoseVariation, error) {
	if _, ok := f.poses[poseID]; !ok {
		return nil, store.ErrNotFound
	}
	v := &models.PoseVariation{ID: uuid.New().String(), PoseID: poseID, Name: name, Cue: cue}
	f.variations[v.ID] = v
	return v, nil
}

func (f *fakeLibrary) GetVariation(_ context.Context, id string) (*models.PoseVariation, error) {
	v, ok := f.variations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeLibrary) UpdateVariation(_ context.Context, id, name, cue string) error {
	v, ok := f.variations[id]
	if !ok {
		return store.ErrNotFound
	}
	v.Name, v.Cue = name, cue
	return nil
}

func (f *fakeLibrary) SetDefaultVariation(_ context.Context, poseID, variationID string) error {
	target, ok := f.variations[variationID]
	if !ok || target.PoseID != poseID {
		return store.ErrNotFound
	}
	for _, v := range f.variations {
		if v.PoseID == poseID {
			v.IsDefault = false
		}
	}
	target.IsDefault = true
	return nil
}

func (f *fakeLibrary) SetVariationImage(_ context.Context, id, imageKey string) error {
	v, ok := f.variations[id]
	if !ok {
		return store.ErrNotFound
	}
	v.ImageKey = imageKey
	return nil
}

func (f *fakeLibrary) DeleteVariation(_ context.Context, id string) (string, error) {
	v, ok := f.variations[id]
	if !ok {
		return "", store.ErrNotFound
	}
	delete(f.variations, id)
	return v.ImageKey, nil
}

type fakeFiles struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (f *fakeFiles) Upload(_ context.Context, key string, data []byte, contentType string) error {
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeFiles) Download(_ context.Context, key string) ([]byte, string, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("no such object")
	}
	return data, f.types[key], nil
}

func (f *fakeFiles) Remove(_ context.Context, key string) error {
	delete(f.objects, key)
	delete(f.types, key)
	return nil
}

func (f *fakeFiles) RemoveAll(_ context.Context, keys []string) error {
	for _, k := range keys {
		f.Remove(context.Background(), k)
	}
	return nil
}

func newTestRouter(lib *fakeLibrary, files *fakeFiles) http.Handler {
	h := NewHandler(lib, files)
	r := chi.NewRouter()
	r.Route("/api/poses", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Rename)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/variations", h.CreateVariation)
	})
	r.Route("/api/variations", func(r chi.Router) {
		r.Put("/{id}", h.UpdateVariation)
		r.Delete("/{id}", h.DeleteVariation)
		r.Post("/{id}/image", h.UploadImage)
		r.Get("/{id}/image", h.GetImage)
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func imageForm(t *testing.T, field, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="pose.jpg"`, field))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreatePose(t *testing.T) {
	router := newTestRouter(newFakeLibrary(), newFakeFiles())

	w := doJSON(t, router, http.MethodPost, "/api/poses/", models.CreatePoseRequest{Name: "Triangle"})
	require.Equal(t, http.StatusCreated, w.Code)

	var p models.Pose
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, "Triangle", p.Name)

	// Duplicate name conflicts.
	w = doJSON(t, router, http.MethodPost, "/api/poses/", models.CreatePoseRequest{Name: "Triangle"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing name.
	w = doJSON(t, router, http.MethodPost, "/api/poses/", models.CreatePoseRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDefaultVariationIsExclusive(t *testing.T) {
	lib := newFakeLibrary()
	router := newTestRouter(lib, newFakeFiles())

	w := doJSON(t, router, http.MethodPost, "/api/poses/", models.CreatePoseRequest{Name: "Pigeon"})
	var p models.Pose
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))

	w = doJSON(t, router, http.MethodPost, "/api/poses/"+p.ID+"/variations",
		models.VariationRequest{Name: "Classic", IsDefault: true})
	require.Equal(t, http.StatusCreated, w.Code)
	var v1 models.PoseVariation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v1))
	assert.True(t, v1.IsDefault)

	w = doJSON(t, router, http.MethodPost, "/api/poses/"+p.ID+"/variations",
		models.VariationRequest{Name: "Reclined", IsDefault: true})
	require.Equal(t, http.StatusCreated, w.Code)

	// The old default was cleared.
	assert.False(t, lib.variations[v1.ID].IsDefault)
}

func TestUploadImageReplacesOld(t *testing.T) {
	lib := newFakeLibrary()
	files := newFakeFiles()
	router := newTestRouter(lib, files)

	p, err := lib.CreatePose(context.Background(), "Crow")
	require.NoError(t, err)
	v, err := lib.CreateVariation(context.Background(), p.ID, "Side Crow", "")
	require.NoError(t, err)

	body, ct := imageForm(t, "image", "image/jpeg", []byte("first"))
	req := httptest.NewRequest(http.MethodPost, "/api/variations/"+v.ID+"/image", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	firstKey := lib.variations[v.ID].ImageKey
	require.NotEmpty(t, firstKey)

	body, ct = imageForm(t, "image", "image/png", []byte("second"))
	req = httptest.NewRequest(http.MethodPost, "/api/variations/"+v.ID+"/image", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	secondKey := lib.variations[v.ID].ImageKey
	assert.NotEqual(t, firstKey, secondKey)
	_, exists := files.objects[firstKey]
	assert.False(t, exists, "old image should be removed")
	assert.Equal(t, []byte("second"), files.objects[secondKey])

	// Streaming it back round-trips bytes and content type.
	req = httptest.NewRequest(http.MethodGet, "/api/variations/"+v.ID+"/image", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "second", w.Body.String())
}

func TestUploadImageRejectsWrongType(t *testing.T) {
	lib := newFakeLibrary()
	router := newTestRouter(lib, newFakeFiles())

	p, _ := lib.CreatePose(context.Background(), "Tree")
	v, _ := lib.CreateVariation(context.Background(), p.ID, "Half Lotus", "")

	body, ct := imageForm(t, "image", "application/pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/variations/"+v.ID+"/image", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestDeletePoseCleansUpImages(t *testing.T) {
	lib := newFakeLibrary()
	files := newFakeFiles()
	router := newTestRouter(lib, files)

	p, _ := lib.CreatePose(context.Background(), "Eagle")
	v, _ := lib.CreateVariation(context.Background(), p.ID, "Standing", "")
	require.NoError(t, files.Upload(context.Background(), "variations/abc", []byte("img"), "image/png"))
	require.NoError(t, lib.SetVariationImage(context.Background(), v.ID, "variations/abc"))

	w := doJSON(t, router, http.MethodDelete, "/api/poses/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, lib.poses)
	assert.Empty(t, lib.variations)
	assert.Empty(t, files.objects)
}

package web

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/meshpipe/lodviewer/asset"
	"github.com/meshpipe/lodviewer/config"
	"github.com/meshpipe/lodviewer/status"
	"github.com/meshpipe/lodviewer/utils"
	"github.com/meshpipe/lodviewer/vfs"
	"github.com/meshpipe/lodviewer/webutils"
)

type variantResponse struct {
	Index    int           `json:"index"`
	Fidelity float32       `json:"fidelity"`
	Outcome  asset.Outcome `json:"outcome"`
	Path     string        `json:"path"`
}

type modelResponse struct {
	Id       asset.Id          `json:"id"`
	Name     string            `json:"name"`
	Original string            `json:"original"`
	Uploaded time.Time         `json:"uploaded"`
	Variants []variantResponse `json:"variants"`
	Stats    *asset.Stats      `json:"stats,omitempty"`
}

// toModelResponse derives retrieval paths from the id and per-index
// naming scheme; they are never read from storage.
func toModelResponse(set *asset.VariantSet) *modelResponse {
	resp := &modelResponse{
		Id:       set.Asset.Id,
		Name:     set.Asset.DisplayName,
		Original: set.Asset.OriginalName,
		Uploaded: set.Asset.Uploaded,
		Stats:    set.Stats,
		Variants: make([]variantResponse, 0, len(set.Variants)),
	}
	for i := range set.Variants {
		v := &set.Variants[i]
		resp.Variants = append(resp.Variants, variantResponse{
			Index:    v.Index,
			Fidelity: v.Fidelity,
			Outcome:  v.Outcome,
			Path:     v.URLPath(set.Asset.Id),
		})
	}
	return resp
}

// multipart framing (boundary lines, part headers) takes body bytes on
// top of the file itself; the file limit is checked against header.Size
const multipartOverhead = 1 << 20

func HandlerUploadModel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize()+multipartOverhead)

	fileStream, header, err := r.FormFile("model")
	if err != nil {
		webutils.WriteRejection(w, errors.Wrap(err, "File stream getting error"), http.StatusBadRequest)
		return
	}
	defer fileStream.Close()

	if err := asset.CheckExtension(header.Filename); err != nil {
		webutils.WriteRejection(w, err, http.StatusBadRequest)
		return
	}
	if header.Size > config.MaxUploadSize() {
		webutils.WriteRejection(w,
			errors.Errorf("File is too big: %d bytes (limit %d)", header.Size, config.MaxUploadSize()),
			http.StatusRequestEntityTooLarge)
		return
	}

	a, err := ServerStore.CreateAsset(header.Filename, header.Size, fileStream)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	status.Info("Uploaded %s (%d bytes), producing levels", a.DisplayName, a.Size)

	set, err := ServerPipeline.Generate(r.Context(), a)
	if err != nil {
		log.Printf("[web] Generation for %q failed: %v", a.Id, err)
		webutils.WriteError(w, err)
		return
	}

	webutils.WriteJson(w, toModelResponse(set))
}

func HandlerAjaxModels(w http.ResponseWriter, r *http.Request) {
	sets, err := ServerStore.List()
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	resp := make([]*modelResponse, 0, len(sets))
	for _, set := range sets {
		resp = append(resp, toModelResponse(set))
	}
	webutils.WriteJson(w, resp)
}

func HandlerAjaxModel(w http.ResponseWriter, r *http.Request) {
	id := asset.Id(mux.Vars(r)["id"])
	set, err := ServerStore.Get(id)
	if err != nil {
		webutils.WriteRejection(w, err, http.StatusNotFound)
		return
	}
	webutils.WriteJson(w, toModelResponse(set))
}

func HandlerDeleteModel(w http.ResponseWriter, r *http.Request) {
	id := asset.Id(mux.Vars(r)["id"])
	cancelled := ServerPipeline.Cancel(id)
	if cancelled {
		log.Printf("[web] Cancelled in-flight generation of %q", id)
	}
	if err := ServerStore.Remove(id); err != nil && !cancelled {
		webutils.WriteRejection(w, err, http.StatusNotFound)
		return
	}
	// a cancelled intake has no metadata sidecar yet, so Remove can
	// fail; the pipeline deletes the stored files itself in that case
	webutils.WriteJson(w, map[string]string{"removed": string(id)})
}

func HandlerDebugModel(w http.ResponseWriter, r *http.Request) {
	id := asset.Id(mux.Vars(r)["id"])
	set, err := ServerStore.Get(id)
	if err != nil {
		webutils.WriteRejection(w, err, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	webutils.WriteResult(w, []byte(utils.SDump(set)))
}

func HandlerModelFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]
	f, err := ServerStore.Dir().GetFile(name)
	if err != nil {
		webutils.WriteRejection(w, err, http.StatusNotFound)
		return
	}
	reader, err := vfs.OpenFileAndGetReader(f, true)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer f.Close()
	webutils.WriteModel(w, reader, name)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func HandlerStatusWs(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade error: %v", err)
		return
	}
	status.NewClient(conn)
}

package web

import (
	"log"
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/meshpipe/lodviewer/asset"
	"github.com/meshpipe/lodviewer/lodgen"
)

var ServerStore *asset.Store
var ServerPipeline *lodgen.Pipeline

// NewRouter wires the intake, listing, retrieval and status routes.
func NewRouter(store *asset.Store, pipeline *lodgen.Pipeline, webPath string) *mux.Router {
	ServerStore = store
	ServerPipeline = pipeline

	r := mux.NewRouter()
	r.HandleFunc("/upload", HandlerUploadModel).Methods("POST")
	r.HandleFunc("/json/models", HandlerAjaxModels).Methods("GET")
	r.HandleFunc("/json/models/{id}", HandlerAjaxModel).Methods("GET")
	r.HandleFunc("/json/models/{id}", HandlerDeleteModel).Methods("DELETE")
	r.HandleFunc("/json/debug/{id}", HandlerDebugModel).Methods("GET")
	r.HandleFunc("/models/{file}", HandlerModelFile).Methods("GET")
	r.HandleFunc("/ws/status", HandlerStatusWs)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))
	return r
}

func StartServer(addr string, store *asset.Store, pipeline *lodgen.Pipeline, webPath string) error {
	r := NewRouter(store, pipeline, webPath)

	h := handlers.RecoveryHandler()(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}

package webutils

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
)

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	WriteResult(w, res)
}

func WriteModel(w http.ResponseWriter, in io.Reader, name string) {
	w.Header().Set("Content-Type", "model/gltf-binary")
	w.Header().Set("Content-Disposition", "inline; filename=\""+name+"\"")
	io.Copy(w, in)
}

func WriteResult(w http.ResponseWriter, data []byte) {
	if _, err := w.Write(data); err != nil {
		log.Printf("[web] Error when writing response: %v", err)
	}
}

// WriteError reports a server-side failure (500).
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorCode(w, err, http.StatusInternalServerError)
}

// WriteRejection reports a client mistake (bad type, oversize, unknown
// id) without creating any state (400 family).
func WriteRejection(w http.ResponseWriter, err error, code int) {
	WriteErrorCode(w, err, code)
}

func WriteErrorCode(w http.ResponseWriter, err error, code int) {
	type jError struct {
		Error string `json:"error"`
	}
	log.Printf("[web] HERR %d: %v", code, err)
	data, merr := json.Marshal(&jError{Error: err.Error()})
	if merr != nil {
		http.Error(w, err.Error(), code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	WriteResult(w, data)
}

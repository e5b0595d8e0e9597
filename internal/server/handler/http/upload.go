package http

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
)

const (
	// uploadMemory is the part of a multipart form kept in memory; the rest
	// spills to temporary files.
	uploadMemory = 8 << 20

	msgUseMultipart = "Please use multipart/form-data"
	msgNoFile       = "Request must include a file to upload"
	msgChooseFile   = "Please choose a file"
	msgInvalidImage = "Please upload a valid image file."
	msgTooLarge     = "Upload exceeds the maximum allowed size"
)

// readUpload parses a multipart upload and opens its "file" part. When it
// returns false a response has already been written. The caller must call
// cleanup once done with the file.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (multipart.File, func(), bool) {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "multipart/form-data" {
		writeMsg(w, http.StatusBadRequest, msgUseMultipart)
		return nil, nil, false
	}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMsg(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		} else {
			writeMsg(w, http.StatusBadRequest, msgUseMultipart)
		}
		return nil, nil, false
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	file, hdr, err := r.FormFile("file")
	if err != nil {
		cleanup()
		// a part named file without a filename is parsed as a plain value
		if _, named := r.MultipartForm.Value["file"]; named {
			writeMsg(w, http.StatusBadRequest, msgChooseFile)
		} else {
			writeMsg(w, http.StatusBadRequest, msgNoFile)
		}
		return nil, nil, false
	}
	if hdr.Filename == "" {
		file.Close()
		cleanup()
		writeMsg(w, http.StatusBadRequest, msgChooseFile)
		return nil, nil, false
	}
	return file, func() { file.Close(); cleanup() }, true
}

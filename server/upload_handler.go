package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"mixvault/config"
	"mixvault/core/upload"
	"mixvault/logger"
)

// multipartMemoryLimit is how much of the form is held in memory before
// spilling to temp files.
const multipartMemoryLimit = 32 << 20

// handleUpload accepts a multipart mix upload: audio file (required), cover
// image (optional), plus title/artist/description/isPublic fields. Runs the
// full pipeline in one request.
func (h *APIHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Hard ceiling on the whole request body. The per-file checks below give
	// precise errors; this stops a hostile body before it is buffered.
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxAudioFileSize+config.MaxCoverFileSize+multipartMemoryLimit)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	audio, audioType, err := readFormFile(r, "audio", config.MaxAudioFileSize)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "audio file too large")
			return
		}
		respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}

	cover, coverType, err := readFormFile(r, "cover", config.MaxCoverFileSize)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "cover file too large")
			return
		}
		// Missing cover is fine; it is optional.
		cover, coverType = nil, ""
	}

	user := currentUser(r)
	mix, err := h.uploadSvc.Upload(r.Context(), upload.Request{
		UserID:           user.ID,
		Title:            r.FormValue("title"),
		Artist:           r.FormValue("artist"),
		Description:      r.FormValue("description"),
		IsPublic:         r.FormValue("isPublic") == "true",
		Audio:            audio,
		AudioContentType: audioType,
		Cover:            cover,
		CoverContentType: coverType,
	})
	if err != nil {
		var verr *upload.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Error())
			return
		}
		logger.Error("upload failed", logger.Int64("userId", user.ID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	if mix.IsPublic {
		h.hub.BroadcastMixCreated(mix)
	}
	respondJSON(w, http.StatusCreated, mix)
}

var errFileTooLarge = errors.New("file exceeds size limit")

// readFormFile buffers one uploaded file, enforcing the size ceiling while
// reading so an oversized part never occupies more than limit+1 bytes.
func readFormFile(r *http.Request, field string, limit int64) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	if header.Size > limit {
		return nil, "", errFileTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > limit {
		return nil, "", errFileTooLarge
	}
	return data, contentTypeOf(header), nil
}

// contentTypeOf returns the declared MIME type of an uploaded part.
func contentTypeOf(header *multipart.FileHeader) string {
	return header.Header.Get("Content-Type")
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ByLCY/wordslides/deck"
)

// ErrorResponse is the JSON error body of the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// handleCreateDeck handles POST /api/v1/decks.
// Multipart fields: repeated "words" or a single "text" split on ";", plus repeated "images".
// Query: format=pptx (default) | pdf.
func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "pptx"
	}
	if _, ok := s.renderers[format]; !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid format", "must be one of: pptx, pdf")
		return
	}

	if r.ContentLength > s.cfg.MaxUploadBytes {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "upload too large", "")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "upload too large", err.Error())
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	words, err := formWords(r.MultipartForm.Value)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid words", err.Error())
		return
	}
	if len(words) == 0 {
		writeJSONError(w, http.StatusBadRequest, "words are required", `send "words" fields or a "text" field`)
		return
	}
	images, err := readImages(r.MultipartForm.File["images"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid image upload", err.Error())
		return
	}
	if len(images) == 0 {
		writeJSONError(w, http.StatusBadRequest, "images are required", "")
		return
	}

	blobs := make([]deck.Blob, len(images))
	for i, img := range images {
		blobs[i] = deck.Blob{Name: img.Name, Data: img.Data}
	}
	d, err := s.compose(r.Context(), blobs, words)
	if err != nil {
		s.composeError(w, r, err, true)
		return
	}
	s.writeDeck(w, r, d, format, true)
}

// formWords 优先使用重复的 words 字段，否则切分 text 字段。
// words 字段按位置与图片配对，任一项为空即报错。
func formWords(values map[string][]string) ([]string, error) {
	if ws := values["words"]; len(ws) > 0 {
		out := make([]string, len(ws))
		for i, w := range ws {
			if out[i] = strings.TrimSpace(w); out[i] == "" {
				return nil, fmt.Errorf("words[%d] is empty", i)
			}
		}
		return out, nil
	}
	if text := values["text"]; len(text) > 0 {
		return deck.SplitWords(text[0]), nil
	}
	return nil, nil
}

func writeJSONError(w http.ResponseWriter, status int, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Details: details})
}

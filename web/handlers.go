package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/ByLCY/wordslides/deck"
	"github.com/ByLCY/wordslides/imageinfo"
	"github.com/ByLCY/wordslides/layout"
	"github.com/ByLCY/wordslides/session"
)

const (
	headerTruncated   = "X-Deck-Truncated"
	headerSkipped     = "X-Deck-Skipped"
	multipartMemLimit = 32 << 20
)

// handleIndex handles GET /.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", nil)
}

// handleWords handles POST / : text is split on ";" and stored in the client's session.
func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	words := deck.SplitWords(r.PostFormValue("text"))
	if len(words) == 0 {
		http.Error(w, "text must contain at least one word", http.StatusBadRequest)
		return
	}

	sess, err := s.loadSession(r)
	if errors.Is(err, session.ErrNotFound) {
		sess = session.New()
	} else if err != nil {
		s.internalError(w, r, "load session", err)
		return
	}
	sess.Words = words
	sess.Images = nil
	if err := s.store.Save(r.Context(), sess); err != nil {
		s.internalError(w, r, "save session", err)
		return
	}
	s.setCookie(w, sess.ID)

	s.logger.WithContext(r.Context()).Debug().Int("words", len(words)).Msg("words stored")
	http.Redirect(w, r, "/images", http.StatusSeeOther)
}

// handleImagesForm handles GET /images.
func (s *Server) handleImagesForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	s.render(w, "words.html", map[string]any{"Words": sess.Words})
}

// handleUpload handles POST /upload-images/ : images are stored in form order.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	if r.ContentLength > s.cfg.MaxUploadBytes {
		http.Error(w, fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		s.formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	images, err := readImages(r.MultipartForm.File["images"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(images) == 0 {
		http.Error(w, "at least one image is required", http.StatusBadRequest)
		return
	}
	sess.Images = images
	if err := s.store.Save(r.Context(), sess); err != nil {
		s.internalError(w, r, "save session", err)
		return
	}
	http.Redirect(w, r, "/presentation", http.StatusSeeOther)
}

// handlePresentation handles GET /presentation and /presentation.pdf.
func (s *Server) handlePresentation(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.requireSession(w, r)
		if !ok {
			return
		}
		if len(sess.Images) == 0 {
			http.Redirect(w, r, "/images", http.StatusSeeOther)
			return
		}
		d, err := s.compose(r.Context(), sess.Blobs(), sess.Words)
		if err != nil {
			s.composeError(w, r, err, false)
			return
		}
		s.writeDeck(w, r, d, format, false)
	}
}

// compose 组装并记录截断与跳过情况。
func (s *Server) compose(ctx context.Context, blobs []deck.Blob, words []string) (*layout.Deck, error) {
	d, err := deck.ComposeBlobs(ctx, blobs, words, s.opts)
	if err != nil {
		return nil, err
	}
	log := s.logger.WithContext(ctx)
	if d.Pairing.Truncated {
		log.Warn().
			Int("images", d.Pairing.Images).
			Int("words", d.Pairing.Words).
			Int("pairs", d.Pairing.Pairs).
			Msg("image and word counts differ, extra items dropped")
	}
	for _, sk := range d.Skipped {
		log.Warn().Int("index", sk.Index).Str("word", sk.Word).Str("reason", sk.Reason).Msg("pair skipped")
	}
	log.Info().Int("slides", len(d.Slides)).Msg("deck composed")
	return d, nil
}

func (s *Server) writeDeck(w http.ResponseWriter, r *http.Request, d *layout.Deck, format string, asJSON bool) {
	rnd, ok := s.renderers[format]
	if !ok {
		s.fail(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format), "", asJSON)
		return
	}
	data, err := rnd.Render(d)
	if err != nil {
		s.logger.WithContext(r.Context()).Error().Err(err).Str("format", format).Msg("render failed")
		s.fail(w, http.StatusInternalServerError, "render failed", err.Error(), asJSON)
		return
	}
	h := w.Header()
	h.Set("Content-Type", rnd.ContentType())
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="presentation.%s"`, rnd.Extension()))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	if d.Pairing.Truncated {
		h.Set(headerTruncated, fmt.Sprintf("images=%d words=%d pairs=%d", d.Pairing.Images, d.Pairing.Words, d.Pairing.Pairs))
	}
	if len(d.Skipped) > 0 {
		h.Set(headerSkipped, strconv.Itoa(len(d.Skipped)))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// composeError 把组装错误映射为状态码：输入问题为 422，中断为 503。
func (s *Server) composeError(w http.ResponseWriter, r *http.Request, err error, asJSON bool) {
	log := s.logger.WithContext(r.Context())
	switch {
	case errors.Is(err, layout.ErrInvalidImageDimensions), errors.Is(err, imageinfo.ErrMalformedImageData):
		log.Warn().Err(err).Msg("compose rejected input")
		s.fail(w, http.StatusUnprocessableEntity, "cannot build presentation", err.Error(), asJSON)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Msg("compose interrupted")
		s.fail(w, http.StatusServiceUnavailable, "request interrupted", err.Error(), asJSON)
	default:
		log.Error().Err(err).Msg("compose failed")
		s.fail(w, http.StatusInternalServerError, "compose failed", err.Error(), asJSON)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, msg, details string, asJSON bool) {
	if asJSON {
		writeJSONError(w, status, msg, details)
		return
	}
	if details != "" {
		msg += ": " + details
	}
	http.Error(w, msg, status)
}

func (s *Server) formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "invalid multipart form", http.StatusBadRequest)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.WithContext(r.Context()).Error().Err(err).Str("op", op).Msg("request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("template execution failed")
	}
}

// loadSession 返回 cookie 对应的会话；没有 cookie 或 id 无效时返回 session.ErrNotFound。
func (s *Server) loadSession(r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(s.cookie)
	if err != nil || !session.ValidID(c.Value) {
		return nil, session.ErrNotFound
	}
	return s.store.Get(r.Context(), c.Value)
}

// requireSession 在会话缺失时重定向到首页。
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.loadSession(r)
	if errors.Is(err, session.ErrNotFound) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}
	if err != nil {
		s.internalError(w, r, "load session", err)
		return nil, false
	}
	return sess, true
}

func (s *Server) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// readImages 按表单顺序读取全部上传文件。
func readImages(files []*multipart.FileHeader) ([]session.Image, error) {
	out := make([]session.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		// 空文件也保留位置，由组装阶段按失败配对处理
		out = append(out, session.Image{Name: fh.Filename, Data: data})
	}
	return out, nil
}

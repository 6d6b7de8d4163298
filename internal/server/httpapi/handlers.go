package httpapi

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/ecoportal/internal/common"
	"github.com/dmitrijs2005/ecoportal/internal/server/auth"
	"github.com/dmitrijs2005/ecoportal/internal/server/models"
	"github.com/dmitrijs2005/ecoportal/internal/server/services"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

var (
	checkUserText   = endpointText{validation: msgEmailRequired, notFound: msgUserNotFound, internal: msgServer}
	setPasswordText = endpointText{validation: msgCredentialsRequired, notFound: msgNoUserWithEmail, internal: msgInternal}
	loginText       = endpointText{validation: msgCredentialsRequired, notFound: msgInvalidCredentials, internal: msgInternal}
	uploadText      = endpointText{validation: msgUploadRequired, notFound: msgInternal, internal: msgInternal}
	queryText       = endpointText{validation: msgInvalidRequest, notFound: msgInternal, internal: msgInternal}
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userBody struct {
	ID     any    `json:"id"`
	Email  string `json:"email"`
	Nombre string `json:"nombre"`
}

// decode reads a JSON body; a malformed body counts as missing fields.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.ErrValidation
	}
	return nil
}

// fail writes the error response of an auth endpoint and counts the outcome.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error, text endpointText) {
	status, msg, outcome := classify(err, text)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "operation", op, "error", err)
	}
	s.metrics.AuthOutcome(op, outcome)

	var setup *common.PasswordSetupRequiredError
	if errors.As(err, &setup) {
		writeJSON(w, status, map[string]any{
			"error":                 msg,
			"requiresPasswordSetup": true,
			"email":                 setup.Email,
			"nombre":                setup.Name,
		})
		return
	}
	writeError(w, status, msg)
}

func (s *Server) checkUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, "check_user", err, checkUserText)
		return
	}

	res, err := s.auth.CheckUser(r.Context(), req.Email)
	if err != nil {
		s.fail(w, r, "check_user", err, checkUserText)
		return
	}

	s.metrics.AuthOutcome("check_user", "ok")
	writeJSON(w, http.StatusOK, map[string]any{
		"exists":        true,
		"needsPassword": res.NeedsPassword,
		"nombre":        res.Name,
		"email":         res.Email,
	})
}

func (s *Server) setPassword(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, "set_password", err, setPasswordText)
		return
	}

	if err := s.auth.SetPassword(r.Context(), req.Email, req.Password); err != nil {
		s.fail(w, r, "set_password", err, setPasswordText)
		return
	}

	s.metrics.AuthOutcome("set_password", "ok")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msgPasswordCreated})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, "login", err, loginText)
		return
	}

	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, "login", err, loginText)
		return
	}

	s.metrics.AuthOutcome("login", "ok")
	http.SetCookie(w, auth.NewCookie(res.Token, res.ExpiresAt, s.opts.SecureCookies))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userBody{ID: res.User.ID, Email: res.User.Email, Nombre: res.User.FullName},
	})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.auth.CurrentSession(auth.TokenFromRequest(r))
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          userBody{ID: sess.UserID, Email: sess.Email, Nombre: sess.Name},
	})
}

func (s *Server) renew(w http.ResponseWriter, r *http.Request) {
	sess, token, err := s.auth.RenewSession(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		s.fail(w, r, "renew", err, queryText)
		return
	}

	s.metrics.AuthOutcome("renew", "ok")
	http.SetCookie(w, auth.NewCookie(token, sess.ExpiresAt, s.opts.SecureCookies))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// logout only deletes the cookie; the token stays valid until it expires.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.metrics.AuthOutcome("logout", "ok")
	http.SetCookie(w, auth.ClearCookie(s.opts.SecureCookies))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.UploadOutcome("unknown", "too_large", 0)
			writeError(w, http.StatusRequestEntityTooLarge, msgUploadTooLarge)
			return
		}
		s.metrics.UploadOutcome("unknown", "validation", 0)
		writeError(w, http.StatusBadRequest, msgUploadRequired)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	area := r.FormValue("area")
	label := area
	if !services.IsKnownArea(area) {
		label = "unknown"
	}
	req := services.UploadRequest{
		Area:     area,
		Period:   r.FormValue("periodo"),
		Comments: r.FormValue("comentarios"),
	}

	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			s.logger.Error(r.Context(), "opening upload part failed", "file", fh.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, msgInternal)
			return
		}
		defer func(f multipart.File) { _ = f.Close() }(f)

		req.Files = append(req.Files, services.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	res, err := s.uploads.Upload(r.Context(), req)
	if err != nil {
		status, msg, outcome := classify(err, uploadText)
		s.metrics.UploadOutcome(label, outcome, 0)
		writeError(w, status, msg)
		return
	}

	s.metrics.UploadOutcome(label, "ok", res.Bytes)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  msgUploaded,
		"recordId": res.Entry.RecordID,
	})
}

func (s *Server) listUploads(w http.ResponseWriter, r *http.Request) {
	items, err := s.uploads.List(r.Context(), r.URL.Query().Get("tipo"))
	if err != nil {
		status, msg, _ := classify(err, queryText)
		writeError(w, status, msg)
		return
	}
	if items == nil {
		items = []models.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) fileURL(w http.ResponseWriter, r *http.Request) {
	url, err := s.uploads.FileURL(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		status, msg, _ := classify(err, queryText)
		writeError(w, status, msg)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

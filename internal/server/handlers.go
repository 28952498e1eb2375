package server

import (
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/internal/store"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
)

type moduleListing struct {
	Module string   `json:"module"`
	Forms  []string `json:"forms"`
}

type submitResponse struct {
	engine.Result
	ID string `json:"id,omitempty"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"schemas": s.registry.Len(),
	})
}

func (s *Server) listForms(c echo.Context) error {
	modules := s.registry.Modules()
	out := make([]moduleListing, 0, len(modules))
	for _, module := range modules {
		out = append(out, moduleListing{Module: module, Forms: s.registry.Forms(module)})
	}
	return c.JSON(http.StatusOK, map[string]any{"modules": out})
}

func (s *Server) listRecords(c echo.Context) error {
	if _, err := s.schemaFor(c); err != nil {
		return err
	}
	records, err := s.store.List(c.Request().Context(), c.Param("module"), c.Param("form"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"records": records})
}

// newForm renders an empty create form. ?mode=view previews it read-only.
func (s *Server) newForm(c echo.Context) error {
	sch, err := s.schemaFor(c)
	if err != nil {
		return err
	}
	mode, err := requestMode(c, engine.ModeCreate, engine.ModeCreate, engine.ModeView)
	if err != nil {
		return err
	}
	rec := &store.Record{Module: c.Param("module"), Form: c.Param("form")}
	form, err := s.mount(c, sch, rec, mode)
	if err != nil {
		return err
	}
	return s.renderForm(c, http.StatusOK, form, rec, nil)
}

// showRecord renders a stored record in edit mode, or view mode with
// ?mode=view.
func (s *Server) showRecord(c echo.Context) error {
	sch, err := s.schemaFor(c)
	if err != nil {
		return err
	}
	rec, err := s.recordFor(c)
	if err != nil {
		return err
	}
	mode, err := requestMode(c, engine.ModeEdit, engine.ModeEdit, engine.ModeView)
	if err != nil {
		return err
	}
	form, err := s.mount(c, sch, &rec, mode)
	if err != nil {
		return err
	}
	return s.renderForm(c, http.StatusOK, form, &rec, nil)
}

func (s *Server) create(c echo.Context) error {
	sch, err := s.schemaFor(c)
	if err != nil {
		return err
	}
	rec := &store.Record{Module: c.Param("module"), Form: c.Param("form")}
	form, err := s.mount(c, sch, rec, engine.ModeCreate)
	if err != nil {
		return err
	}
	return s.submit(c, form, rec, http.StatusCreated)
}

func (s *Server) update(c echo.Context) error {
	sch, err := s.schemaFor(c)
	if err != nil {
		return err
	}
	rec, err := s.recordFor(c)
	if err != nil {
		return err
	}
	form, err := s.mount(c, sch, &rec, engine.ModeEdit)
	if err != nil {
		return err
	}
	return s.submit(c, form, &rec, http.StatusOK)
}

func (s *Server) remove(c echo.Context) error {
	sch, err := s.schemaFor(c)
	if err != nil {
		return err
	}
	rec, err := s.recordFor(c)
	if err != nil {
		return err
	}
	form, err := s.mount(c, sch, &rec, engine.ModeEdit)
	if err != nil {
		return err
	}
	result, err := s.confirmDelete(c, form)
	if err != nil {
		return err
	}
	return c.JSON(statusFor(result, http.StatusOK), submitResponse{Result: result, ID: rec.ID.String()})
}

// submit applies a JSON or browser post and submits the form. JSON callers
// get the engine result back; browser posts are redirected on success and
// re-rendered otherwise.
func (s *Server) submit(c echo.Context, form *engine.Form, rec *store.Record, okStatus int) error {
	req := c.Request()
	if isJSON(req) {
		if err := applyJSON(form, req.Body); err != nil {
			return engineError(err)
		}
		result, err := form.Submit(req.Context())
		if err != nil {
			return engineError(err)
		}
		return c.JSON(statusFor(result, okStatus), submitResponse{Result: result, ID: recordID(rec)})
	}

	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var files map[string][]*multipart.FileHeader
	if req.MultipartForm != nil {
		files = req.MultipartForm.File
	}

	switch values.Get("_action") {
	case actionReset:
		return c.Redirect(http.StatusSeeOther, formPath(rec))
	case actionCancel:
		return c.Redirect(http.StatusSeeOther, "/forms")
	case actionCancelDelete:
		return c.Redirect(http.StatusSeeOther, formPath(rec))
	case actionDelete:
		if err := form.RequestDelete(); err != nil {
			return engineError(err)
		}
		return s.renderForm(c, http.StatusOK, form, rec, nil)
	case actionConfirmDelete:
		result, err := s.confirmDelete(c, form)
		if err != nil {
			return err
		}
		if result.OK() {
			return c.Redirect(http.StatusSeeOther, formPath(&store.Record{Module: rec.Module, Form: rec.Form}))
		}
		return s.renderForm(c, statusFor(result, okStatus), form, rec, result.Feedback)
	}

	return s.submitForm(c, form, rec, values, files, okStatus)
}

func (s *Server) submitForm(c echo.Context, form *engine.Form, rec *store.Record, values url.Values, files map[string][]*multipart.FileHeader, okStatus int) error {
	if err := applyForm(form, values, files); err != nil {
		return engineError(err)
	}
	edited, err := applyListEdit(form, values)
	if err != nil {
		return engineError(err)
	}
	if edited {
		return s.renderForm(c, http.StatusOK, form, rec, nil)
	}

	result, err := form.Submit(c.Request().Context())
	if err != nil {
		return engineError(err)
	}
	if result.OK() {
		return c.Redirect(http.StatusSeeOther, formPath(rec))
	}
	return s.renderForm(c, statusFor(result, okStatus), form, rec, result.Feedback)
}

func (s *Server) confirmDelete(c echo.Context, form *engine.Form) (engine.Result, error) {
	if err := form.RequestDelete(); err != nil {
		return engine.Result{}, engineError(err)
	}
	result, err := form.ConfirmDelete(c.Request().Context())
	if err != nil {
		return engine.Result{}, engineError(err)
	}
	return result, nil
}

// mount builds the engine form for rec. Saves go through the store, and
// through the uploader first when one is configured.
func (s *Server) mount(c echo.Context, sch *schema.Schema, rec *store.Record, mode engine.Mode) (*engine.Form, error) {
	save := store.SaveFunc(s.store, rec)
	if s.uploader != nil {
		save = s.uploader.Wrap(sch, save)
	}
	opts := []engine.Option{
		engine.WithMode(mode),
		engine.WithSave(save),
		engine.WithLogger(s.logger.With(zap.String("request_id", requestID(c)))),
	}
	if rec.ID != uuid.Nil {
		opts = append(opts, engine.WithDelete(store.DeleteFunc(s.store, rec.ID)))
	}
	return engine.New(sch, rec.Values, opts...)
}

// renderForm writes the form as HTML. feedback holds per-field messages from
// a failed save or delete and may be nil.
func (s *Server) renderForm(c echo.Context, status int, form *engine.Form, rec *store.Record, feedback map[string][]string) error {
	r, err := s.renderer(c)
	if err != nil {
		return err
	}
	opts := render.RenderOptions{
		Action: formPath(rec),
		Method: http.MethodPost,
		Subset: render.ParseSubset(c.QueryParam("sections"), c.QueryParam("fields")),
		Errors: feedback,
	}
	if id := recordID(rec); id != "" {
		opts.Hidden = append(opts.Hidden, render.RecordID(id))
	}
	out, err := r.Render(c.Request().Context(), form.View(), opts)
	if err != nil {
		return err
	}
	return c.HTMLBlob(status, out)
}

func (s *Server) schemaFor(c echo.Context) (*schema.Schema, error) {
	sch, err := s.registry.Lookup(c.Param("module"), c.Param("form"))
	if errors.Is(err, registry.ErrNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return sch, err
}

// recordFor loads the :id record. A record stored under another form is
// reported as missing.
func (s *Server) recordFor(c echo.Context) (store.Record, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return store.Record{}, echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	rec, err := s.store.Load(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Record{}, echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return store.Record{}, err
	}
	if rec.Module != c.Param("module") || rec.Form != c.Param("form") {
		return store.Record{}, echo.NewHTTPError(http.StatusNotFound, store.ErrNotFound.Error())
	}
	return rec, nil
}

// requestMode reads ?mode=, falling back to def and refusing modes not in
// allowed.
func requestMode(c echo.Context, def engine.Mode, allowed ...engine.Mode) (engine.Mode, error) {
	raw := c.QueryParam("mode")
	if raw == "" {
		return def, nil
	}
	mode, err := engine.ParseMode(raw)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for _, m := range allowed {
		if m == mode {
			return mode, nil
		}
	}
	return "", echo.NewHTTPError(http.StatusBadRequest, "mode "+raw+" is not available here")
}

func statusFor(result engine.Result, okStatus int) int {
	switch result.Outcome {
	case engine.OutcomeInvalid:
		return http.StatusUnprocessableEntity
	case engine.OutcomeFailed:
		return http.StatusBadGateway
	case engine.OutcomeDeleted:
		return http.StatusOK
	}
	return okStatus
}

func engineError(err error) error {
	switch {
	case errors.Is(err, errBadSubmission), errors.Is(err, engine.ErrUnknownField):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrReadOnly), errors.Is(err, engine.ErrDeleteUnavailable), errors.Is(err, engine.ErrBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return err
}

func formPath(rec *store.Record) string {
	path := "/forms/" + url.PathEscape(rec.Module) + "/" + url.PathEscape(rec.Form)
	if id := recordID(rec); id != "" {
		path += "/" + id
	}
	return path
}

func recordID(rec *store.Record) string {
	if rec == nil || rec.ID == uuid.Nil {
		return ""
	}
	return rec.ID.String()
}

package pubform

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/healthz", handleHealth)
	e.GET("/", a.handleForm)
	e.GET("/feedback/", a.handleFeedback)
	e.POST("/feedback/dismiss/", a.handleDismiss)
	e.POST("/submit/", a.handleSubmit, a.limitSubmits)
	e.POST("/media/", a.handleAddMedia)
	e.POST("/media/remove/", a.handleRemoveMedia)
}

func handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (a *App) handleForm(c echo.Context) error {
	ctrl, err := a.controller(c)
	if err != nil {
		return err
	}
	return a.renderForm(c, a.formView(c, ctrl))
}

func (a *App) handleFeedback(c echo.Context) error {
	ctrl, err := a.controller(c)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Feedback(a.formView(c, ctrl)))
}

func (a *App) handleDismiss(c echo.Context) error {
	ctrl, err := a.controller(c)
	if err != nil {
		return err
	}
	ctrl.Dismiss()
	if c.Request().Header.Get("HX-Request") == "true" {
		return Render(c, a.Views.FormPartial(a.formView(c, ctrl)))
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleSubmit(c echo.Context) error {
	ctrl, err := a.controller(c)
	if err != nil {
		return err
	}
	return a.submitForm(c, ctrl)
}

func (a *App) submitForm(c echo.Context, ctrl *Controller) error {
	if err := c.Request().ParseForm(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}
	bindForm(c, ctrl)

	v := a.formView(c, ctrl)
	if missing := v.Form.MissingFields(a.categories); len(missing) > 0 {
		v.Missing = missing
		v.Warning = "Please fill in all required fields."
		return a.renderForm(c, v)
	}

	_, err := ctrl.Submit(c.Request().Context())
	if errors.Is(err, ErrControllerClosed) {
		// The session expired after the lookup; carry on in a new one.
		if ctrl, err = a.controller(c); err != nil {
			return err
		}
		bindForm(c, ctrl)
		_, err = ctrl.Submit(c.Request().Context())
	}
	v = a.formView(c, ctrl)
	var pe *PersistenceError
	switch {
	case errors.Is(err, ErrSubmitInFlight):
		v.Warning = "A submission is already in progress."
	case errors.As(err, &pe):
		// Already reflected in the outcome and logged by the controller.
	case err != nil:
		return err
	}
	return a.renderForm(c, v)
}

func (a *App) handleAddMedia(c echo.Context) error {
	ctrl, err := a.controller(c)
	if err != nil {
		return err
	}
	if err := c.Request().ParseForm(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}
	bindForm(c, ctrl)
	warning := ""
	if err := ctrl.AddMediaItem(); errors.Is(err, ErrIncompleteMediaItem) {
		warning = "Please fill in all media item fields."
	}
	v := a.formView(c, ctrl)
	v.Warning = warning
	return a.renderForm(c, v)
}

func (a *App) handleRemoveMedia(c echo.Context) error {
	ctrl, err := a.controller(c)
	if err != nil {
		return err
	}
	if err := c.Request().ParseForm(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}
	bindForm(c, ctrl)
	i, err := strconv.Atoi(c.FormValue("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid media index")
	}
	ctrl.RemoveMediaItem(i)
	return a.renderForm(c, a.formView(c, ctrl))
}

// bindForm copies posted field values into the session's form. Fields the
// page did not post keep their current values.
func bindForm(c echo.Context, ctrl *Controller) {
	vals := c.Request().PostForm
	set := func(key string, dst *string) {
		if _, ok := vals[key]; ok {
			*dst = vals.Get(key)
		}
	}
	ctrl.Update(func(f *FormState) {
		set("title", &f.Title)
		set("author_name", &f.AuthorName)
		set("department", &f.Department)
		set("category", &f.Category)
		set("body", &f.Body)
		set("tags", &f.Tags)
		set("media", &f.MediaText)
		set("media_type", &f.Pending.Type)
		set("media_path", &f.Pending.StoragePath)
		set("media_title", &f.Pending.Title)
		// Unchecked boxes are not posted; the hidden marker says the
		// checkbox was on the page.
		if _, ok := vals["is_featured_present"]; ok {
			f.IsFeatured = isChecked(vals.Get("is_featured"))
		}
	})
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func (a *App) formView(c echo.Context, ctrl *Controller) FormView {
	return FormView{
		SiteName:     a.Config.Name,
		Form:         ctrl.Form(),
		Outcome:      ctrl.Outcome(),
		CSRFToken:    CsrfToken(c),
		Categories:   a.categories.Options(),
		MediaMode:    ctrl.MediaPolicy().Name(),
		PollFeedback: a.Config.FeedbackTimeout > 0,
	}
}

// renderForm renders only the form section for HTMX requests.
func (a *App) renderForm(c echo.Context, v FormView) error {
	if c.Request().Header.Get("HX-Request") == "true" {
		return Render(c, a.Views.FormPartial(v))
	}
	return Render(c, a.Views.FormPage(v))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound && a.Views.NotFound != nil {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		if a.Views.ServerError != nil {
			_ = RenderStatus(c, code, a.Views.ServerError())
			return
		}
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

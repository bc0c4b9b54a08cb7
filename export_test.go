package pubform

import "github.com/labstack/echo/v4"

// SessionController and SubmitForm expose the submit handler's steps so
// tests can expire a session between them.
func (a *App) SessionController(c echo.Context) (*Controller, error) {
	return a.controller(c)
}

func (a *App) SubmitForm(c echo.Context, ctrl *Controller) error {
	return a.submitForm(c, ctrl)
}

package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/app/form"
	"github.com/YelzhanWeb/bloompizza/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// WebHandler serves the server-rendered pages: the landing page and the
// order form, whose state lives in the session's controller.
type WebHandler struct {
	sessions *SessionStore
	home     *template.Template
	order    *template.Template
	logger   logger.Logger
}

func NewWebHandler(sessions *SessionStore, logger logger.Logger) (*WebHandler, error) {
	home, err := template.ParseFS(templateFS, "templates/layout.html", "templates/home.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse home template: %w", err)
	}
	order, err := template.ParseFS(templateFS, "templates/layout.html", "templates/order.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse order template: %w", err)
	}
	return &WebHandler{sessions: sessions, home: home, order: order, logger: logger}, nil
}

func (h *WebHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /order", h.OrderPage)
	mux.HandleFunc("POST /order", h.PostOrder)
}

func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.home, nil)
}

type sizeOption struct {
	Code     domain.Size
	Label    string
	Selected bool
}

type toppingOption struct {
	ID      string
	Label   string
	Checked bool
}

type fieldMessage struct {
	Field   string
	Message string
}

type orderPage struct {
	Form        domain.OrderForm
	Errors      map[string]string
	Other       []fieldMessage
	CanSubmit   bool
	Submitting  bool
	Success     string
	OrderNumber string
	Sizes       []sizeOption
	Toppings    []toppingOption
}

func newOrderPage(st form.State) orderPage {
	page := orderPage{
		Form:       st.Form,
		Errors:     make(map[string]string, len(st.Errors)),
		CanSubmit:  st.CanSubmit(),
		Submitting: st.Submitting,
	}
	for f, msg := range st.Errors {
		page.Errors[string(f)] = msg
	}
	for _, f := range st.Errors.Unplaced() {
		page.Other = append(page.Other, fieldMessage{Field: string(f), Message: st.Errors[f]})
	}
	if st.Outcome.Kind == domain.OutcomeSuccess {
		page.Success = st.Outcome.Confirmation.Message()
		page.OrderNumber = st.Outcome.Confirmation.OrderNumber
	}
	for _, s := range domain.Sizes {
		page.Sizes = append(page.Sizes, sizeOption{Code: s, Label: s.Label(), Selected: st.Form.Size == s})
	}
	for _, t := range domain.ToppingCatalog() {
		page.Toppings = append(page.Toppings, toppingOption{ID: t.ID, Label: t.Label, Checked: st.Form.HasTopping(t.ID)})
	}
	return page
}

func (h *WebHandler) OrderPage(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Controller(w, r)
	h.render(w, r, h.order, newOrderPage(ctrl.State()))
}

// PostOrder applies the posted form to the session's controller, submits it
// when asked to, and redirects back to the order page.
func (h *WebHandler) PostOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	ctrl := h.sessions.Controller(w, r)

	if err := applyPostedForm(r, ctrl); err != nil {
		if errors.Is(err, form.ErrClosed) {
			http.Redirect(w, r, "/order", http.StatusSeeOther)
			return
		}
		if errors.Is(err, domain.ErrUnknownTopping) {
			http.Error(w, "Unknown topping", http.StatusBadRequest)
			return
		}
		h.logger.Error("form_update_failed", "Failed to update order form", RequestIDFrom(ctx), nil, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if r.PostForm.Get("action") == "submit" {
		_, err := ctrl.Submit(ctx)
		switch {
		case err == nil, errors.Is(err, form.ErrSubmitInFlight), errors.Is(err, form.ErrClosed):
		default:
			h.logger.Error("form_submit_failed", "Failed to submit order form", RequestIDFrom(ctx), nil, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	http.Redirect(w, r, "/order", http.StatusSeeOther)
}

// applyPostedForm pushes only the fields that differ from the controller's
// form, so re-posting an unchanged form does not count as an edit.
func applyPostedForm(r *http.Request, ctrl *form.Controller) error {
	ctx := r.Context()
	current := ctrl.State().Form
	posted := r.PostForm

	wanted := make(map[string]bool)
	for _, id := range posted["topping"] {
		if _, ok := domain.LookupTopping(id); !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownTopping, id)
		}
		wanted[id] = true
	}

	if name := posted.Get("fullName"); name != current.FullName {
		if err := ctrl.SetField(ctx, domain.FieldFullName, name); err != nil {
			return err
		}
	}
	if size := posted.Get("size"); size != string(current.Size) {
		if err := ctrl.SetField(ctx, domain.FieldSize, size); err != nil {
			return err
		}
	}

	for _, t := range domain.ToppingCatalog() {
		if wanted[t.ID] != current.HasTopping(t.ID) {
			if err := ctrl.ToggleTopping(ctx, t.ID, wanted[t.ID]); err != nil {
				return err
			}
		}
	}

	// An unchanged form is still re-validated so "Check" always answers.
	return ctrl.Revalidate(ctx)
}

func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data interface{}) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("template_render_failed", "Failed to render page", RequestIDFrom(r.Context()), nil, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"petspese/internal/core"
	applog "petspese/internal/log"
	"petspese/internal/ports"
	"petspese/internal/services"
	appweb "petspese/web"
)

type monthOption struct {
	Value    int
	Name     string
	Selected bool
}

type chartDataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

type chartData struct {
	Labels   []string       `json:"labels"`
	Datasets []chartDataset `json:"datasets"`
}

// pageCharts is rendered as JSON and drawn by static/charts.js. Pies is
// aligned with Dashboard.Cards.
type pageCharts struct {
	Trend chartData   `json:"trend"`
	Pies  []chartData `json:"pies"`
}

type homePage struct {
	Title     string
	Dashboard services.Dashboard
	Months    []monthOption
	Charts    pageCharts
}

type uploadForm struct {
	Name     string
	Gender   string
	Birthday string
}

type uploadPage struct {
	Title     string
	Form      uploadForm
	Error     string
	RowErrors []core.RowError
	Success   string
	Warning   string
	Appended  int
	Preview   core.TransactionLog
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			"template", name, applog.FieldError, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	month, _ := parseMonth(r)
	d, err := s.dashboard(r.Context(), month)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to build dashboard",
			applog.FieldOperation, applog.OpRead, applog.FieldError, err)
		http.Error(w, "Could not load your pets' expenses", http.StatusInternalServerError)
		return
	}

	page := homePage{
		Title:     "Pet expenses",
		Dashboard: d,
		Charts:    buildCharts(d),
	}
	for _, m := range d.Months {
		page.Months = append(page.Months, monthOption{Value: m, Name: monthName(m), Selected: m == d.Month})
	}
	s.render(w, r, http.StatusOK, "home.html", page)
}

func buildCharts(d services.Dashboard) pageCharts {
	var c pageCharts
	for m := 1; m <= 12; m++ {
		c.Trend.Labels = append(c.Trend.Labels, monthName(m)[:3])
	}
	series := append(append([]string{}, d.Pets...), services.AllPets)
	for _, pet := range series {
		ds := chartDataset{Label: pet}
		for _, v := range d.Trend.Series(pet) {
			ds.Data = append(ds.Data, v.InexactFloat64())
		}
		c.Trend.Datasets = append(c.Trend.Datasets, ds)
	}

	for _, card := range d.Cards {
		pie := chartData{Datasets: []chartDataset{{Label: card.Pet}}}
		for _, cat := range card.ByCategory {
			pie.Labels = append(pie.Labels, cat.Name)
			pie.Datasets[0].Data = append(pie.Datasets[0].Data, cat.Amount.InexactFloat64())
		}
		c.Pies = append(c.Pies, pie)
	}
	return c
}

func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "upload.html", uploadPage{
		Title: "Add a pet",
		Form:  uploadForm{Gender: string(core.Male)},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentIngest)
	page := uploadPage{Title: "Add a pet"}

	tooLarge := func() {
		page.Error = fmt.Sprintf("The upload is larger than %d KiB", s.maxUpload>>10)
		s.render(w, r, http.StatusRequestEntityTooLarge, "upload.html", page)
	}
	if r.ContentLength > s.maxUpload {
		tooLarge()
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || errors.Is(err, multipart.ErrMessageTooLarge) {
			tooLarge()
			return
		}
		logger.WarnContext(ctx, "Invalid upload form", applog.FieldError, err)
		page.Error = "The upload form could not be read"
		s.render(w, r, http.StatusBadRequest, "upload.html", page)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	page.Form = uploadForm{
		Name:     sanitizeInput(r.FormValue("name")),
		Gender:   r.FormValue("gender"),
		Birthday: strings.TrimSpace(r.FormValue("birthday")),
	}
	gender, err := core.ParseGender(page.Form.Gender)
	if err != nil {
		gender = core.Male
	}
	page.Form.Gender = string(gender)

	// The name is checked before any other field so it is always reported first.
	if page.Form.Name == "" {
		s.renderRejected(w, r, page, core.NewMissingName())
		return
	}

	var birthday core.Date
	if page.Form.Birthday != "" {
		if birthday, err = core.ParseDate(page.Form.Birthday); err != nil {
			page.Error = "The birthday must be a date like 2020-01-31"
			s.render(w, r, http.StatusUnprocessableEntity, "upload.html", page)
			return
		}
	}

	photo, err := formFile(r, "photo")
	if err != nil {
		logger.WarnContext(ctx, "Unreadable photo upload", applog.FieldError, err)
		page.Error = "The photo could not be read"
		s.render(w, r, http.StatusBadRequest, "upload.html", page)
		return
	}
	if len(photo) > 0 && !core.IsJPEG(photo) {
		page.Error = "The photo must be a JPEG image"
		s.render(w, r, http.StatusUnprocessableEntity, "upload.html", page)
		return
	}

	expenses, err := formFile(r, "expenses")
	if err != nil {
		logger.WarnContext(ctx, "Unreadable expenses upload", applog.FieldError, err)
		page.Error = "The expenses file could not be read"
		s.render(w, r, http.StatusBadRequest, "upload.html", page)
		return
	}

	sub := services.Submission{
		Name:     page.Form.Name,
		Gender:   gender,
		Birthday: birthday,
		HasPhoto: len(photo) > 0,
	}
	var batch io.Reader
	if len(expenses) > 0 {
		batch = bytes.NewReader(expenses)
	}
	txs, err := services.ParseBatch(batch)
	if err != nil {
		s.renderRejected(w, r, page, err)
		return
	}
	sub.Transactions = txs

	res, err := s.svc.Submit(ctx, sub, photo)
	if err != nil {
		if _, ok := core.AsValidationFailure(err); ok {
			s.renderRejected(w, r, page, err)
			return
		}
		logger.ErrorContext(ctx, "Submission failed",
			applog.FieldOperation, applog.OpSubmit, applog.FieldPet, sub.Name, applog.FieldError, err)
		page.Error = "Your submission could not be saved, please try again"
		s.render(w, r, http.StatusInternalServerError, "upload.html", page)
		return
	}
	s.invalidate()

	page.Form = uploadForm{Gender: string(core.Male)}
	page.Success = fmt.Sprintf("Your pet %s has been added.", sub.Name)
	page.Appended = res.Appended
	page.Preview = res.Log
	if res.PhotoErr != nil {
		page.Warning = "The photo could not be stored, the default picture will be shown."
	}
	s.render(w, r, http.StatusOK, "upload.html", page)
}

func (s *Server) renderRejected(w http.ResponseWriter, r *http.Request, page uploadPage, err error) {
	vf, ok := core.AsValidationFailure(err)
	if !ok {
		vf = core.NewMalformedBatch([]core.RowError{{Reason: err.Error()}})
	}
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Submission rejected",
		applog.FieldOperation, applog.OpValidate,
		"kind", vf.Kind,
		applog.FieldRows, len(vf.Rows))
	page.Error = vf.Message
	page.RowErrors = vf.Rows
	s.render(w, r, http.StatusUnprocessableEntity, "upload.html", page)
}

// formFile returns the uploaded file of field, or nil when none was sent.
func formFile(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func handleTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="template.csv"`)
	if err := core.WriteLog(w, nil); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to write template", applog.FieldError, err)
	}
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc, err := s.svc.Photo(ctx, r.PathValue("name"))
	if errors.Is(err, ports.ErrPhotoNotFound) {
		serveDefaultPhoto(w, r)
		return
	}
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to open photo", applog.FieldError, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := io.Copy(w, rc); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Photo transfer interrupted", applog.FieldError, err)
	}
}

func serveDefaultPhoto(w http.ResponseWriter, r *http.Request) {
	b, err := fs.ReadFile(appweb.StaticFS, "static/default.svg")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(b)
}

package http

import (
	"errors"
	"net/http"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/export"
	"bizdash/internal/services"

	"github.com/google/uuid"
)

// jobQuery reads the list filters. filter names a date strategy
// (today, upcoming, overdue, completed, all).
func jobQuery(r *http.Request) (services.JobQuery, error) {
	q := r.URL.Query()
	query := services.JobQuery{
		When:       sanitizeInput(q.Get("filter")),
		PersonName: sanitizeInput(q.Get("person")),
		JobType:    sanitizeInput(q.Get("type")),
		Search:     sanitizeInput(q.Get("q")),
	}
	if _, err := services.GetJobFilter(query.When); err != nil {
		return services.JobQuery{}, err
	}
	return query, nil
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q, err := jobQuery(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	views, err := s.svc.Jobs.List(r.Context(), user(r), q)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(mapSlice(views, toJob)).Write(w)
}

func (s *Server) handleJobStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Jobs.Stats(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toJobStats(stats)).Write(w)
}

func (s *Server) handleJobsExport(w http.ResponseWriter, r *http.Request) {
	q, err := jobQuery(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	views, err := s.svc.Jobs.List(r.Context(), user(r), q)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	data, err := export.JobsXLSX(views)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Attachment("jobs-"+time.Now().Format("2006-01-02")+".xlsx", xlsxContentType, data).Write(w)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	view, err := s.svc.Jobs.Get(r.Context(), user(r), id)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toJob(view)).Write(w)
}

// jobFromBody reads the editable job fields.
func jobFromBody(p *RequestBodyParser) (core.Job, error) {
	var fe fieldErrors
	enabled, err := p.Bool("reminder_enabled", false)
	fe.check(err)
	minutes, err := p.Int("reminder_minutes_before", 0)
	fe.check(err)
	if fe.err != nil {
		return core.Job{}, fe.err
	}
	return core.Job{
		PersonName:            p.Get("person_name"),
		Title:                 p.Get("title"),
		Type:                  core.JobType(p.Get("type")),
		Location:              p.Get("location"),
		MapLink:               p.Get("map_link"),
		Description:           p.Get("description"),
		ScheduledDate:         p.Get("scheduled_date"),
		ScheduledTime:         p.Get("scheduled_time"),
		ReminderEnabled:       enabled,
		ReminderMinutesBefore: minutes,
	}, nil
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	j, err := jobFromBody(p)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	j.UserID = user(r)

	view, err := s.svc.Jobs.Create(r.Context(), j)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toJob(view)).Write(w)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	j, err := jobFromBody(p)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	j.ID = id
	j.UserID = user(r)

	view, err := s.svc.Jobs.Update(r.Context(), j)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toJob(view)).Write(w)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Jobs.Delete(r.Context(), user(r), id); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// handleToggleJob sets completion explicitly from the body's completed
// field, or flips it when the field is missing.
func (s *Server) handleToggleJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	before, ok := s.currentJob(w, r, id)
	if !ok {
		return
	}
	completed, err := p.Bool("completed", !before.Job.IsCompleted)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	view, err := s.svc.Jobs.Toggle(r.Context(), user(r), id, completed)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	events(r).LogJobTransition(r.Context(), user(r), id.String(), string(before.Status), string(view.Status))
	NewResponse().JSON(toJob(view)).Write(w)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	before, ok := s.currentJob(w, r, id)
	if !ok {
		return
	}
	view, err := s.svc.Jobs.Cancel(r.Context(), user(r), id)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	events(r).LogJobTransition(r.Context(), user(r), id.String(), string(before.Status), string(view.Status))
	NewResponse().JSON(toJob(view)).Write(w)
}

// currentJob loads a job before a state change. A job whose schedule does
// not parse can still be completed or cancelled, so that error is tolerated
// and the view carries only the stored status.
func (s *Server) currentJob(w http.ResponseWriter, r *http.Request, id uuid.UUID) (core.JobView, bool) {
	view, err := s.svc.Jobs.Get(r.Context(), user(r), id)
	var schedErr *core.InvalidScheduleError
	if errors.As(err, &schedErr) {
		j, getErr := s.svc.Jobs.Stored(r.Context(), user(r), id)
		if getErr != nil {
			ErrorFor(r, getErr).Write(w)
			return core.JobView{}, false
		}
		return core.JobView{Job: j, Status: j.Status}, true
	}
	if err != nil {
		ErrorFor(r, err).Write(w)
		return core.JobView{}, false
	}
	return view, true
}

func (s *Server) handleJobActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	entries, err := s.svc.Jobs.Activity(r.Context(), user(r), id)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(mapSlice(entries, toActivity)).Write(w)
}

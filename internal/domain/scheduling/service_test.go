package scheduling

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/swasthya/setu/internal/domain/directory"
	"github.com/swasthya/setu/internal/domain/notification"
	"github.com/swasthya/setu/internal/domain/records"
	"github.com/swasthya/setu/internal/platform/auth"
	"github.com/swasthya/setu/internal/platform/websocket"
	"github.com/swasthya/setu/pkg/money"
)

// -- Mocks --

// mockRepo keeps appointments by value so a rollback can restore a snapshot.
type mockRepo struct {
	mu     sync.Mutex
	appts  map[uuid.UUID]Appointment
	seq    int
	writes int
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.seq++
	a.CreatedAt = time.Unix(int64(m.seq), 0)
	a.UpdatedAt = a.CreatedAt
	m.appts[a.ID] = *a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *mockRepo) filter(keep func(Appointment) bool, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.appts {
		if keep(a) {
			a := a
			out = append(out, &a)
		}
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return m.filter(func(a Appointment) bool { return a.PatientID == patientID }, limit, offset)
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	return m.filter(func(a Appointment) bool {
		return a.DoctorID == doctorID && (status == "" || a.Status == status)
	}, limit, offset)
}

func (m *mockRepo) update(id uuid.UUID, from string, apply func(*Appointment)) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.writes++
	if a.Status != from {
		return nil, ErrInvalidTransition
	}
	apply(&a)
	m.appts[id] = a
	return &a, nil
}

func (m *mockRepo) Transition(_ context.Context, id uuid.UUID, from, to string) (*Appointment, error) {
	return m.update(id, from, func(a *Appointment) { a.Status = to })
}

func (m *mockRepo) Complete(_ context.Context, id uuid.UUID, from, diagnosis string, prescription []string, followUp *string) (*Appointment, error) {
	return m.update(id, from, func(a *Appointment) {
		a.Status = StatusCompleted
		a.Diagnosis = &diagnosis
		a.Prescription = prescription
		a.FollowUp = followUp
	})
}

func (m *mockRepo) Rate(_ context.Context, id uuid.UUID, rating int, review *string) (*Appointment, error) {
	return m.update(id, StatusCompleted, func(a *Appointment) {
		a.Rating = &rating
		a.Review = review
	})
}

// snapshotTx restores the appointment map when fn fails.
type snapshotTx struct{ repo *mockRepo }

func (t snapshotTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.repo.mu.Lock()
	saved := make(map[uuid.UUID]Appointment, len(t.repo.appts))
	for k, v := range t.repo.appts {
		saved[k] = v
	}
	t.repo.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.repo.mu.Lock()
		t.repo.appts = saved
		t.repo.mu.Unlock()
		return err
	}
	return nil
}

type mockDirectory struct {
	doctors map[uuid.UUID]*directory.Doctor
}

func (m *mockDirectory) Get(_ context.Context, id uuid.UUID) (*directory.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return d, nil
}

type mockNames map[uuid.UUID]string

func (m mockNames) DisplayName(_ context.Context, id uuid.UUID) (string, error) {
	name, ok := m[id]
	if !ok {
		return "", errors.New("no such user")
	}
	return name, nil
}

type mockRecorder struct {
	calls []records.Consultation
	fail  bool
}

func (m *mockRecorder) RecordConsultation(_ context.Context, c records.Consultation) (*records.MedicalEvent, []*records.Medication, error) {
	if m.fail {
		return nil, nil, errors.New("records unavailable")
	}
	m.calls = append(m.calls, c)
	meds := make([]*records.Medication, 0, len(c.Medications))
	for _, name := range c.Medications {
		meds = append(meds, &records.Medication{ID: uuid.New(), PatientID: c.PatientID, Name: name})
	}
	return &records.MedicalEvent{ID: uuid.New(), PatientID: c.PatientID}, meds, nil
}

type sent struct {
	userID   uuid.UUID
	template string
	data     map[string]string
}

type mockNotifier struct {
	sent []sent
}

func (m *mockNotifier) NotifyTemplate(_ context.Context, userID uuid.UUID, templateID string, data map[string]string) (*notification.Notification, error) {
	m.sent = append(m.sent, sent{userID: userID, template: templateID, data: data})
	return &notification.Notification{ID: uuid.New(), UserID: userID}, nil
}

func (m *mockNotifier) to(userID uuid.UUID) []string {
	var out []string
	for _, s := range m.sent {
		if s.userID == userID {
			out = append(out, s.template)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev websocket.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) topics(eventType string) map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]bool)
	for _, ev := range p.events {
		if ev.Type == eventType {
			out[ev.Topic] = true
		}
	}
	return out
}

type fixture struct {
	svc       *Service
	repo      *mockRepo
	recorder  *mockRecorder
	notifier  *mockNotifier
	events    *recordingPublisher
	patient   uuid.UUID
	doctor    *directory.Doctor
	doctorUID uuid.UUID
	unlinked  *directory.Doctor
}

var clinicDay = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		repo:      newMockRepo(),
		recorder:  &mockRecorder{},
		notifier:  &mockNotifier{},
		events:    &recordingPublisher{},
		patient:   uuid.New(),
		doctorUID: uuid.New(),
	}
	uid := f.doctorUID
	f.doctor = &directory.Doctor{ID: uuid.New(), UserID: &uid, Name: "Dr. Vikram Singh", Specialty: "Neurologist"}
	f.unlinked = &directory.Doctor{ID: uuid.New(), Name: "Dr. Anjali Desai", Specialty: "Cardiologist"}
	dir := &mockDirectory{doctors: map[uuid.UUID]*directory.Doctor{f.doctor.ID: f.doctor, f.unlinked.ID: f.unlinked}}
	names := mockNames{f.patient: "Rahul Sharma"}

	f.svc = NewService(f.repo, dir, names, f.recorder, f.notifier, f.events, snapshotTx{repo: f.repo})
	f.svc.now = func() time.Time { return clinicDay }
	return f
}

func (f *fixture) book(t *testing.T, typ string) *Appointment {
	t.Helper()
	a := &Appointment{PatientID: f.patient, DoctorID: f.doctor.ID, Date: "Tomorrow", Time: "10:00 AM", Type: typ}
	if err := f.svc.Book(context.Background(), a); err != nil {
		t.Fatalf("book: %v", err)
	}
	return a
}

func (f *fixture) upcoming(t *testing.T, typ string) *Appointment {
	t.Helper()
	a := f.book(t, typ)
	if _, err := f.svc.Accept(context.Background(), a.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	return a
}

func (f *fixture) completed(t *testing.T) *Appointment {
	t.Helper()
	a := f.upcoming(t, TypeVideo)
	done, err := f.svc.CompleteConsultation(context.Background(), a.ID, Consultation{Diagnosis: "Migraine"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	return done
}

// -- Lifecycle --

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusUpcoming, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusUpcoming, StatusCompleted, true},
		{StatusUpcoming, StatusCancelled, false},
		{StatusCompleted, StatusUpcoming, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestService_Book(t *testing.T) {
	f := newFixture()
	a := &Appointment{
		PatientID: f.patient, DoctorID: f.doctor.ID,
		Date: " Today ", Time: "2:30 PM",
		Status: StatusCompleted, Rating: intPtr(5),
	}
	if err := f.svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("expected pending, got %s", a.Status)
	}
	if a.Type != TypeVideo {
		t.Errorf("expected default video type, got %s", a.Type)
	}
	if a.DoctorName != "Dr. Vikram Singh" || a.PatientName != "Rahul Sharma" {
		t.Errorf("names not resolved: %q / %q", a.DoctorName, a.PatientName)
	}
	if a.Date != "Today" || a.Rating != nil {
		t.Errorf("unexpected appointment %+v", a)
	}
	if got := f.notifier.to(f.patient); len(got) != 1 || got[0] != notification.TemplateRequestSent {
		t.Errorf("patient notifications = %v", got)
	}
	if got := f.notifier.to(f.doctorUID); len(got) != 1 || got[0] != notification.TemplateNewRequest {
		t.Errorf("doctor notifications = %v", got)
	}
	topics := f.events.topics(EventRequested)
	if !topics[websocket.UserTopic(f.doctorUID.String())] || !topics[websocket.UserTopic(f.patient.String())] {
		t.Errorf("expected events on both feeds, got %v", topics)
	}
}

func TestService_Book_KeepsGivenDoctorName(t *testing.T) {
	f := newFixture()
	a := &Appointment{PatientID: f.patient, DoctorID: f.unlinked.ID, DoctorName: "Dr. Desai", Date: "Today", Time: "9:00 AM", Type: TypeInPerson}
	if err := f.svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.DoctorName != "Dr. Desai" {
		t.Errorf("expected given name to be kept, got %q", a.DoctorName)
	}
	// No account behind the entry, so only the patient is told.
	if len(f.notifier.sent) != 1 {
		t.Errorf("expected 1 notification, got %d", len(f.notifier.sent))
	}
}

func TestService_Book_Validation(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name string
		a    Appointment
	}{
		{"no patient", Appointment{DoctorID: f.doctor.ID, Date: "Today", Time: "9:00 AM"}},
		{"no doctor", Appointment{PatientID: f.patient, Date: "Today", Time: "9:00 AM"}},
		{"no date", Appointment{PatientID: f.patient, DoctorID: f.doctor.ID, Time: "9:00 AM"}},
		{"no time", Appointment{PatientID: f.patient, DoctorID: f.doctor.ID, Date: "Today"}},
		{"bad type", Appointment{PatientID: f.patient, DoctorID: f.doctor.ID, Date: "Today", Time: "9:00 AM", Type: "phone"}},
		{"unknown doctor", Appointment{PatientID: f.patient, DoctorID: uuid.New(), Date: "Today", Time: "9:00 AM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.a
			if err := f.svc.Book(context.Background(), &a); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
	if len(f.repo.appts) != 0 {
		t.Errorf("nothing should be stored, got %d", len(f.repo.appts))
	}
}

func TestService_Accept(t *testing.T) {
	f := newFixture()
	a := f.book(t, TypeVideo)

	got, err := f.svc.Accept(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusUpcoming {
		t.Errorf("expected upcoming, got %s", got.Status)
	}
	if n := f.notifier.to(f.patient); n[len(n)-1] != notification.TemplateConfirmed {
		t.Errorf("expected confirmation notification, got %v", n)
	}
	if !f.events.topics(EventAccepted)[websocket.AppointmentTopic(a.ID.String())] {
		t.Error("expected event on the appointment room")
	}
}

func TestService_Accept_KeepsEverythingButStatus(t *testing.T) {
	f := newFixture()
	fee, err := money.ParseDisplay("₹1200")
	if err != nil {
		t.Fatal(err)
	}
	f.doctor.Fee = fee
	booked := &Appointment{PatientID: f.patient, DoctorID: f.doctor.ID, Date: "Today", Time: "2:30 PM", Type: TypeVideo}
	if err := f.svc.Book(context.Background(), booked); err != nil {
		t.Fatal(err)
	}
	before, _ := f.repo.GetByID(context.Background(), booked.ID)

	got, err := f.svc.Accept(context.Background(), booked.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusUpcoming {
		t.Fatalf("expected upcoming, got %s", got.Status)
	}
	after := *got
	after.Status = before.Status
	after.UpdatedAt = before.UpdatedAt
	if !reflect.DeepEqual(*before, after) {
		t.Errorf("accept changed more than the status:\nbefore %+v\nafter  %+v", *before, *got)
	}
}

func TestService_Decline(t *testing.T) {
	f := newFixture()
	a := f.book(t, TypeVideo)

	got, err := f.svc.Decline(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	last := f.notifier.sent[len(f.notifier.sent)-1]
	if last.template != notification.TemplateDeclined || last.data["doctor"] != "Dr. Vikram Singh" {
		t.Errorf("unexpected notification %+v", last)
	}
}

func TestService_DeclineAfterAcceptIsRejected(t *testing.T) {
	f := newFixture()
	a := f.upcoming(t, TypeVideo)

	if _, err := f.svc.Decline(context.Background(), a.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	if stored.Status != StatusUpcoming {
		t.Errorf("status changed to %s", stored.Status)
	}
}

func TestService_TerminalStatesAreFinal(t *testing.T) {
	f := newFixture()
	cancelled := f.book(t, TypeVideo)
	if _, err := f.svc.Decline(context.Background(), cancelled.ID); err != nil {
		t.Fatal(err)
	}
	completed := f.completed(t)

	for _, id := range []uuid.UUID{cancelled.ID, completed.ID} {
		if _, err := f.svc.Accept(context.Background(), id); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("accept: expected ErrInvalidTransition, got %v", err)
		}
		if _, err := f.svc.Decline(context.Background(), id); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("decline: expected ErrInvalidTransition, got %v", err)
		}
		if _, err := f.svc.CompleteConsultation(context.Background(), id, Consultation{Diagnosis: "x"}); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("complete: expected ErrInvalidTransition, got %v", err)
		}
	}
}

func TestService_UnknownAppointment(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	ctx := context.Background()

	if _, err := f.svc.Accept(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("accept: %v", err)
	}
	if _, err := f.svc.Decline(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("decline: %v", err)
	}
	if _, err := f.svc.CompleteConsultation(ctx, id, Consultation{Diagnosis: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("complete: %v", err)
	}
	if _, err := f.svc.Rate(ctx, id, 4, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("rate: %v", err)
	}
	if len(f.recorder.calls) != 0 || len(f.notifier.sent) != 0 {
		t.Error("nothing should be recorded for an unknown appointment")
	}
}

func TestService_UnknownAppointmentLeavesOthersAlone(t *testing.T) {
	f := newFixture()
	f.book(t, TypeVideo)
	f.upcoming(t, TypeInPerson)
	f.completed(t)
	ctx := context.Background()

	snapshot := make(map[uuid.UUID]Appointment, len(f.repo.appts))
	for id, a := range f.repo.appts {
		snapshot[id] = a
	}
	sentBefore := len(f.notifier.sent)

	id := uuid.New()
	f.svc.Accept(ctx, id)
	f.svc.Decline(ctx, id)
	f.svc.CompleteConsultation(ctx, id, Consultation{Diagnosis: "x", Medications: []string{"Paracetamol"}})
	f.svc.Rate(ctx, id, 5, "great")

	if !reflect.DeepEqual(snapshot, f.repo.appts) {
		t.Error("an operation on an unknown id changed other appointments")
	}
	if len(f.notifier.sent) != sentBefore {
		t.Errorf("expected no new notifications, got %d", len(f.notifier.sent)-sentBefore)
	}
}

func TestService_DisallowedMoveNeverWrites(t *testing.T) {
	f := newFixture()
	upcoming := f.upcoming(t, TypeVideo)
	pending := f.book(t, TypeVideo)
	ctx := context.Background()
	writes := f.repo.writes

	if _, err := f.svc.Decline(ctx, upcoming.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("decline: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.svc.Accept(ctx, upcoming.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("accept: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.svc.CompleteConsultation(ctx, pending.ID, Consultation{Diagnosis: "x"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("complete: expected ErrInvalidTransition, got %v", err)
	}
	if f.repo.writes != writes {
		t.Errorf("expected no repo writes, got %d", f.repo.writes-writes)
	}
	if len(f.recorder.calls) != 0 {
		t.Error("expected nothing recorded for a pending appointment")
	}
}

// -- Consultation --

func TestService_CompleteConsultation(t *testing.T) {
	f := newFixture()
	a := f.upcoming(t, TypeInPerson)

	done, err := f.svc.CompleteConsultation(context.Background(), a.ID, Consultation{
		Diagnosis:   " Viral Fever ",
		Medications: []string{"Paracetamol 500mg", " ", "Cetirizine"},
		FollowUp:    "3 days",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.Status != StatusCompleted || *done.Diagnosis != "Viral Fever" {
		t.Errorf("unexpected appointment %+v", done)
	}
	if len(done.Prescription) != 2 || done.Prescription[1] != "Cetirizine" {
		t.Errorf("unexpected prescription %v", done.Prescription)
	}
	if len(f.recorder.calls) != 1 {
		t.Fatalf("expected one record write, got %d", len(f.recorder.calls))
	}
	c := f.recorder.calls[0]
	if c.PatientID != f.patient || c.AppointmentID != a.ID || c.DoctorName != "Dr. Vikram Singh" {
		t.Errorf("unexpected consultation %+v", c)
	}
	if c.Location != "In-clinic visit" || !c.Date.Equal(clinicDay) || c.FollowUp != "3 days" {
		t.Errorf("unexpected consultation details %+v", c)
	}
	if n := f.notifier.to(f.patient); n[len(n)-1] != notification.TemplateConsultDone {
		t.Errorf("expected prescription notification, got %v", n)
	}
}

func TestService_CompleteConsultation_VideoLocation(t *testing.T) {
	f := newFixture()
	f.completed(t)
	if loc := f.recorder.calls[0].Location; loc != "Video Consultation" {
		t.Errorf("expected video location, got %q", loc)
	}
}

func TestService_CompleteConsultation_RequiresDiagnosis(t *testing.T) {
	f := newFixture()
	a := f.upcoming(t, TypeVideo)

	if _, err := f.svc.CompleteConsultation(context.Background(), a.ID, Consultation{Diagnosis: "  "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	if stored.Status != StatusUpcoming {
		t.Errorf("status changed to %s", stored.Status)
	}
}

func TestService_CompleteConsultation_RollsBackOnRecordFailure(t *testing.T) {
	f := newFixture()
	a := f.upcoming(t, TypeVideo)
	f.recorder.fail = true
	before := len(f.notifier.sent)

	if _, err := f.svc.CompleteConsultation(context.Background(), a.ID, Consultation{Diagnosis: "Migraine"}); err == nil {
		t.Fatal("expected error")
	}
	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	if stored.Status != StatusUpcoming || stored.Diagnosis != nil {
		t.Errorf("appointment should be untouched, got %+v", stored)
	}
	if len(f.notifier.sent) != before {
		t.Error("no notification should go out for a rolled back consultation")
	}
}

// -- Rating --

func TestService_Rate(t *testing.T) {
	f := newFixture()
	a := f.completed(t)

	got, err := f.svc.Rate(context.Background(), a.ID, 4, " Very helpful ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got.Rating != 4 || *got.Review != "Very helpful" {
		t.Errorf("unexpected rating %+v", got)
	}

	got, err = f.svc.Rate(context.Background(), a.ID, 5, "")
	if err != nil {
		t.Fatalf("re-rate: %v", err)
	}
	if *got.Rating != 5 || got.Review != nil {
		t.Errorf("expected overwrite, got rating=%v review=%v", *got.Rating, got.Review)
	}
	if n := f.notifier.to(f.doctorUID); n[len(n)-1] != notification.TemplateRatingReceived {
		t.Errorf("expected rating notification to doctor, got %v", n)
	}
}

func TestService_Rate_Bounds(t *testing.T) {
	f := newFixture()
	a := f.completed(t)
	for _, r := range []int{0, 6, -1} {
		if _, err := f.svc.Rate(context.Background(), a.ID, r, ""); !errors.Is(err, ErrValidation) {
			t.Errorf("rating %d: expected ErrValidation, got %v", r, err)
		}
	}
}

func TestService_Rate_OnlyCompleted(t *testing.T) {
	f := newFixture()
	a := f.upcoming(t, TypeVideo)
	if _, err := f.svc.Rate(context.Background(), a.ID, 5, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

// -- Queries --

func TestService_ListByDoctor(t *testing.T) {
	f := newFixture()
	f.book(t, TypeVideo)
	f.upcoming(t, TypeVideo)
	ctx := context.Background()

	all, total, err := f.svc.ListByDoctor(ctx, f.doctor.ID, "", 20, 0)
	if err != nil || total != 2 || len(all) != 2 {
		t.Fatalf("got %d/%d, %v", len(all), total, err)
	}
	pending, total, err := f.svc.ListPendingForDoctor(ctx, f.doctor.ID, 20, 0)
	if err != nil || total != 1 || pending[0].Status != StatusPending {
		t.Errorf("unexpected pending inbox: %v %d %v", pending, total, err)
	}
	if _, _, err := f.svc.ListByDoctor(ctx, f.doctor.ID, "archived", 20, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for bad status, got %v", err)
	}
}

func TestService_IsParticipant(t *testing.T) {
	f := newFixture()
	a := f.book(t, TypeVideo)
	ctx := context.Background()
	id := a.ID.String()

	tests := []struct {
		name   string
		userID string
		role   string
		want   bool
	}{
		{"patient", f.patient.String(), auth.RolePatient, true},
		{"other patient", uuid.NewString(), auth.RolePatient, false},
		{"assigned doctor", f.doctorUID.String(), auth.RoleDoctor, true},
		{"other doctor", uuid.NewString(), auth.RoleDoctor, false},
		{"patient id with doctor role", f.patient.String(), auth.RoleDoctor, false},
		{"relative", f.patient.String(), auth.RoleRelative, false},
		{"bad user id", "nope", auth.RolePatient, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.svc.IsParticipant(ctx, tt.userID, tt.role, id); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
	if f.svc.IsParticipant(ctx, f.patient.String(), auth.RolePatient, uuid.NewString()) {
		t.Error("unknown appointment should not admit anyone")
	}
}

func TestService_WithoutNotifierOrEvents(t *testing.T) {
	f := newFixture()
	svc := NewService(f.repo, &mockDirectory{doctors: map[uuid.UUID]*directory.Doctor{f.doctor.ID: f.doctor}}, nil, f.recorder, nil, nil, nil)
	a := &Appointment{PatientID: f.patient, DoctorID: f.doctor.ID, Date: "Today", Time: "9:00 AM"}
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Accept(context.Background(), a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func intPtr(i int) *int { return &i }

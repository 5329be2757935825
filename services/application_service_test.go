package services_test

import (
	"context"
	"errors"
	"testing"

	"repairhub-server/apperr"
	"repairhub-server/models"
	"repairhub-server/repository"
	"repairhub-server/services"
	"repairhub-server/utils"
)

func (f *fixture) applicationInput(email string) services.ApplicationInput {
	return services.ApplicationInput{
		Name:            "Ravi Das",
		Email:           email,
		Phone:           "9830000000",
		ShopName:        "Ravi Mobiles",
		ShopAddress:     "4 Lindsay Street",
		CityID:          f.city.ID,
		Pincode:         "700016",
		ExperienceBand:  "3-5",
		Specializations: []string{"Mobile Phone Repair", "Tablet Repair"},
		IDProof:         "https://cdn.test/id.jpg",
		ShopImages:      []string{"https://cdn.test/shop1.jpg"},
	}
}

func TestSubmitApplicationValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		mutate  func(*services.ApplicationInput)
		wantErr error
	}{
		{"missing phone", func(in *services.ApplicationInput) { in.Phone = " " }, apperr.ErrValidation},
		{"bad email", func(in *services.ApplicationInput) { in.Email = "not-an-email" }, apperr.ErrValidation},
		{"unknown band", func(in *services.ApplicationInput) { in.ExperienceBand = "20+" }, apperr.ErrValidation},
		{"no specializations", func(in *services.ApplicationInput) { in.Specializations = nil }, apperr.ErrValidation},
		{"unknown specialization", func(in *services.ApplicationInput) { in.Specializations = []string{"Toaster Repair"} }, apperr.ErrValidation},
		{"too many shop images", func(in *services.ApplicationInput) {
			in.ShopImages = []string{"1", "2", "3", "4", "5", "6"}
		}, apperr.ErrValidation},
		{"pincode outside city", func(in *services.ApplicationInput) { in.Pincode = "711101" }, apperr.ErrValidation},
		{"unknown city", func(in *services.ApplicationInput) { in.CityID = 999 }, apperr.ErrNotFound},
		{"existing account", func(in *services.ApplicationInput) { in.Email = "asha@example.com" }, apperr.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.applicationInput("ravi@example.com")
			tt.mutate(&in)
			if _, err := f.apps.Submit(f.ctx, in); !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOnePendingApplicationPerEmail(t *testing.T) {
	f := newFixture(t)

	app, err := f.apps.Submit(f.ctx, f.applicationInput("Ravi@Example.com"))
	must(t, err)
	if app.Status != models.ApplicationPending || app.Email != "ravi@example.com" {
		t.Fatalf("submitted = %+v", app)
	}
	if _, err := f.apps.Submit(f.ctx, f.applicationInput("ravi@example.com")); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate pending application: %v", err)
	}

	_, err = f.apps.Reject(f.ctx, app.ID, f.admin.UserID, "ID proof unreadable")
	must(t, err)
	if _, err := f.apps.Submit(f.ctx, f.applicationInput("ravi@example.com")); err != nil {
		t.Fatalf("resubmitting after rejection: %v", err)
	}
}

func TestRejectApplication(t *testing.T) {
	f := newFixture(t)
	app, err := f.apps.Submit(f.ctx, f.applicationInput("ravi@example.com"))
	must(t, err)

	if _, err := f.apps.Reject(f.ctx, app.ID, f.admin.UserID, "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty reason: %v", err)
	}
	rejected, err := f.apps.Reject(f.ctx, app.ID, f.admin.UserID, "ID proof unreadable")
	must(t, err)
	if rejected.Status != models.ApplicationRejected || rejected.RejectionReason != "ID proof unreadable" || rejected.ReviewedBy == nil {
		t.Fatalf("rejected = %+v", rejected)
	}

	if _, err := f.apps.Approve(f.ctx, app.ID, f.admin.UserID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("approve after reject: %v", err)
	}
	if _, err := f.apps.Reject(f.ctx, app.ID, f.admin.UserID, "again"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("reject twice: %v", err)
	}
}

func TestApproveProvisionsAgent(t *testing.T) {
	f := newFixture(t)
	f.apps.WithGeocoder(fakeGeocoder{result: &utils.GeocodingResult{Latitude: 22.55, Longitude: 88.35}})
	app, err := f.apps.Submit(f.ctx, f.applicationInput("ravi@example.com"))
	must(t, err)

	res, err := f.apps.Approve(f.ctx, app.ID, f.admin.UserID)
	must(t, err)
	if res.Application.Status != models.ApplicationApproved || res.Application.AgentID == nil || *res.Application.AgentID != res.Agent.ID {
		t.Fatalf("application = %+v", res.Application)
	}
	if len(res.TempCredential) != 10 || res.Email != "ravi@example.com" {
		t.Fatalf("credential %q for %s", res.TempCredential, res.Email)
	}
	a := res.Agent
	if a.ShopName != "Ravi Mobiles" || a.ShopCity != "Kolkata" || a.ShopState != "West Bengal" || a.Latitude != 22.55 || a.Longitude != 88.35 {
		t.Fatalf("agent = %+v", a)
	}
	if a.IsOnline || !a.IsActive || a.RatingCount != 0 {
		t.Fatalf("new agent flags = online %v active %v ratings %d", a.IsOnline, a.IsActive, a.RatingCount)
	}

	if _, err := f.apps.Approve(f.ctx, app.ID, f.admin.UserID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("approve twice: %v", err)
	}

	session, err := f.auth.Login(f.ctx, "ravi@example.com", res.TempCredential)
	must(t, err)
	if !session.MustChangePassword || session.User.Role != models.RoleAgent {
		t.Fatalf("session = %+v", session)
	}
	if _, err := f.auth.Login(f.ctx, "ravi@example.com", res.TempCredential); !errors.Is(err, apperr.ErrAuthorization) {
		t.Fatalf("second use of temp credential: %v", err)
	}

	must(t, f.auth.ChangePassword(f.ctx, session.User.ID, res.TempCredential, "a-new-secret"))
	again, err := f.auth.Login(f.ctx, "ravi@example.com", "a-new-secret")
	must(t, err)
	if again.MustChangePassword {
		t.Fatal("password change did not clear the temporary credential")
	}
}

func TestApproveFallsBackToCityCentre(t *testing.T) {
	f := newFixture(t)
	f.apps.WithGeocoder(fakeGeocoder{err: errors.New("nominatim down")})
	app, err := f.apps.Submit(f.ctx, f.applicationInput("ravi@example.com"))
	must(t, err)

	res, err := f.apps.Approve(f.ctx, app.ID, f.admin.UserID)
	must(t, err)
	if res.Agent.Latitude != f.city.Latitude || res.Agent.Longitude != f.city.Longitude {
		t.Fatalf("agent at %v,%v", res.Agent.Latitude, res.Agent.Longitude)
	}
}

type failingAgentStore struct {
	*repository.AgentRepository
}

func (failingAgentStore) Create(context.Context, *models.Agent) error {
	return apperr.Dependency(errors.New("disk full"), "failed to save agent")
}

type recordingProvisioner struct {
	services.AccountProvisioner
	deleted []uint
}

func (p *recordingProvisioner) DeleteAccount(ctx context.Context, id uint) error {
	p.deleted = append(p.deleted, id)
	return p.AccountProvisioner.DeleteAccount(ctx, id)
}

func TestApproveUndoesAccountWhenAgentFails(t *testing.T) {
	f := newFixture(t)
	prov := &recordingProvisioner{AccountProvisioner: f.auth}
	apps := services.NewApplicationService(f.appRepo, failingAgentStore{f.agentRepo}, f.localityRepo, f.userRepo, f.uploadRepo, prov)

	app, err := apps.Submit(f.ctx, f.applicationInput("ravi@example.com"))
	must(t, err)
	if _, err := apps.Approve(f.ctx, app.ID, f.admin.UserID); !errors.Is(err, apperr.ErrDependency) {
		t.Fatalf("approve: %v", err)
	}

	if len(prov.deleted) != 1 {
		t.Fatalf("account removals = %v", prov.deleted)
	}
	taken, err := f.userRepo.EmailTaken(f.ctx, "ravi@example.com")
	must(t, err)
	if taken {
		t.Fatal("provisioned account was left behind")
	}
	still, err := apps.Get(f.ctx, app.ID)
	must(t, err)
	if !still.IsPending() {
		t.Fatalf("application status = %s", still.Status)
	}
}

func TestListApplications(t *testing.T) {
	f := newFixture(t)
	_, err := f.apps.Submit(f.ctx, f.applicationInput("one@example.com"))
	must(t, err)
	second, err := f.apps.Submit(f.ctx, f.applicationInput("two@example.com"))
	must(t, err)
	_, err = f.apps.Reject(f.ctx, second.ID, f.admin.UserID, "duplicate shop")
	must(t, err)

	pending, total, err := f.apps.List(f.ctx, models.ApplicationPending, models.Page{})
	must(t, err)
	if total != 1 || len(pending) != 1 || pending[0].Email != "one@example.com" {
		t.Fatalf("pending = %d %+v", total, pending)
	}
	if _, _, err := f.apps.List(f.ctx, "archived", models.Page{}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("unknown status: %v", err)
	}
}

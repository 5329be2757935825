package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"repairhub-server/apperr"
	"repairhub-server/models"
	"repairhub-server/services"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	session, err := f.auth.Register(f.ctx, services.RegisterInput{
		FullName: "Mita Sen", Email: " Mita@Example.com ", Password: "long-enough", CityID: f.city.ID,
	})
	must(t, err)
	if session.User.Email != "mita@example.com" || session.User.Role != models.RoleCustomer || session.Token.AccessToken == "" {
		t.Fatalf("session = %+v", session)
	}

	claims, err := f.tokens.Validate(session.Token.AccessToken)
	must(t, err)
	if claims.UserID != session.User.ID || claims.Role != string(models.RoleCustomer) {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := f.auth.Register(f.ctx, services.RegisterInput{FullName: "Again", Email: "mita@example.com", Password: "long-enough"}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate email: %v", err)
	}
	if _, err := f.auth.Register(f.ctx, services.RegisterInput{FullName: "Short", Email: "short@example.com", Password: "abc"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("short password: %v", err)
	}

	if _, err := f.auth.Login(f.ctx, "mita@example.com", "wrong-password"); !errors.Is(err, apperr.ErrAuthorization) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := f.auth.Login(f.ctx, "nobody@example.com", "long-enough"); !errors.Is(err, apperr.ErrAuthorization) {
		t.Fatalf("unknown email: %v", err)
	}
	again, err := f.auth.Login(f.ctx, "MITA@example.com", "long-enough")
	must(t, err)
	if again.MustChangePassword {
		t.Fatal("customers never start with a temporary credential")
	}
}

func TestTokenValidation(t *testing.T) {
	tokens := services.NewJWTService("secret-a", 1)
	tok, err := tokens.Issue(7, models.RoleAdmin)
	must(t, err)
	if tok.TokenType != "Bearer" || tok.ExpiresIn != int64(time.Hour/time.Second) {
		t.Fatalf("token = %+v", tok)
	}

	if _, err := services.NewJWTService("secret-b", 1).Validate(tok.AccessToken); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
	if _, err := tokens.Validate("not.a.token"); err == nil {
		t.Fatal("garbage token was accepted")
	}
}

func TestAgentPresenceAndPayout(t *testing.T) {
	f := newFixture(t)

	got, err := f.agents.SetOnline(f.ctx, f.agentUser.ID, false)
	must(t, err)
	if got.IsOnline {
		t.Fatal("agent still online")
	}
	if _, err := f.agents.SetOnline(f.ctx, f.customer.ID, true); !errors.Is(err, apperr.ErrAuthorization) {
		t.Fatalf("customer going online: %v", err)
	}

	_, err = f.agents.SetActive(f.ctx, f.agent.ID, false)
	must(t, err)
	if _, err := f.agents.SetOnline(f.ctx, f.agentUser.ID, true); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("deactivated agent going online: %v", err)
	}
	_, err = f.agents.SetActive(f.ctx, f.agent.ID, true)
	must(t, err)

	_, err = f.agents.SetOnline(f.ctx, f.agentUser.ID, true)
	must(t, err)
	b := f.createBooking(t)
	_, err = f.lifecycle.UpdateStatus(f.ctx, f.admin, b.ID, models.BookingStatusCompleted, "")
	must(t, err)

	if _, err := f.agents.Payout(f.ctx, f.agent.ID, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("zero payout: %v", err)
	}
	if _, err := f.agents.Payout(f.ctx, f.agent.ID, 5000); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("payout above pending: %v", err)
	}
	paid, err := f.agents.Payout(f.ctx, f.agent.ID, 1000)
	must(t, err)
	if paid.EarningsPending != 1500 || paid.EarningsPaid != 1000 {
		t.Fatalf("earnings = pending %v paid %v", paid.EarningsPending, paid.EarningsPaid)
	}
}

func TestUpdateAgentProfile(t *testing.T) {
	f := newFixture(t)
	lat, lng := 22.6, 88.4

	got, err := f.agents.UpdateProfile(f.ctx, f.agentUser.ID, services.AgentProfileInput{
		ShopName:        "Fixit Kolkata Central",
		Specializations: []string{"Laptop Repair", "Laptop Repair"},
		Latitude:        &lat,
		Longitude:       &lng,
	})
	must(t, err)
	if got.ShopName != "Fixit Kolkata Central" || len(got.Specializations) != 1 || got.Latitude != lat {
		t.Fatalf("profile = %+v", got)
	}

	if _, err := f.agents.UpdateProfile(f.ctx, f.agentUser.ID, services.AgentProfileInput{Latitude: &lat}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("latitude alone: %v", err)
	}
}

func TestExportBookings(t *testing.T) {
	f := newFixture(t)
	f.createBooking(t)

	if _, _, err := f.reports.ExportBookings(f.ctx, "lost"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("unknown status: %v", err)
	}

	buf, name, err := f.reports.ExportBookings(f.ctx, models.BookingStatusAssigned)
	must(t, err)
	if len(name) < len("bookings_.xlsx") {
		t.Fatalf("filename = %q", name)
	}

	wb, err := excelize.OpenReader(buf)
	must(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Bookings")
	must(t, err)
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][0] != "Booking" || rows[1][0] != "REP001" || rows[1][5] != "iPhone 14" {
		t.Fatalf("rows = %v", rows)
	}
}

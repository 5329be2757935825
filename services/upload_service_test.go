package services_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"repairhub-server/apperr"
	"repairhub-server/models"
	"repairhub-server/services"
)

func TestUploadIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	files := fileHeaders(t,
		namedFile{"front.jpg", "img"},
		namedFile{"back.jpg", "boom"},
		namedFile{"notes.txt", "x"},
		namedFile{"side.webp", "img2"},
	)

	results, err := f.uploads.Upload(f.ctx, &f.customer.ID, models.UploadPurposeBookingImage, files)
	must(t, err)
	if len(results) != 4 {
		t.Fatalf("results = %+v", results)
	}

	ok := results[0]
	if ok.Error != "" || !strings.HasPrefix(ok.PublicID, "repairhub/booking_image/") || ok.URL == "" {
		t.Fatalf("front.jpg = %+v", ok)
	}
	if results[1].Code != string(apperr.KindDependency) || results[1].URL != "" {
		t.Fatalf("back.jpg = %+v", results[1])
	}
	if results[2].Code != string(apperr.KindValidation) {
		t.Fatalf("notes.txt = %+v", results[2])
	}
	if results[3].Error != "" {
		t.Fatalf("side.webp = %+v", results[3])
	}
	if len(f.storage.stored) != 2 {
		t.Fatalf("stored %d objects", len(f.storage.stored))
	}
}

func TestUploadLimits(t *testing.T) {
	f := newFixture(t)

	if _, err := f.uploads.Upload(f.ctx, nil, "avatar", fileHeaders(t, namedFile{"a.jpg", "img"})); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("unknown purpose: %v", err)
	}
	if _, err := f.uploads.Upload(f.ctx, nil, models.UploadPurposeIDProof, nil); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("no files: %v", err)
	}
	two := fileHeaders(t, namedFile{"a.jpg", "img"}, namedFile{"b.jpg", "img"})
	if _, err := f.uploads.Upload(f.ctx, nil, models.UploadPurposeIDProof, two); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("two id proofs: %v", err)
	}
}

func TestCleanupOrphans(t *testing.T) {
	f := newFixture(t)
	old := time.Now().Add(-48 * time.Hour)
	claimedAt := time.Now().Add(-47 * time.Hour)

	uploads := []*models.Upload{
		{PublicID: "repairhub/booking_image/orphan", URL: "https://cdn.test/orphan", Purpose: models.UploadPurposeBookingImage, CreatedAt: old},
		{PublicID: "repairhub/booking_image/kept", URL: "https://cdn.test/kept", Purpose: models.UploadPurposeBookingImage, CreatedAt: old, ClaimedAt: &claimedAt},
		{PublicID: "repairhub/booking_image/fresh", URL: "https://cdn.test/fresh", Purpose: models.UploadPurposeBookingImage},
	}
	for _, u := range uploads {
		must(t, f.uploadRepo.Record(f.ctx, u))
	}

	removed, err := f.uploads.CleanupOrphans(f.ctx)
	must(t, err)
	if removed != 1 || len(f.storage.deleted) != 1 || f.storage.deleted[0] != "repairhub/booking_image/orphan" {
		t.Fatalf("removed %d, deleted %v", removed, f.storage.deleted)
	}

	left, err := f.uploadRepo.ListOrphans(f.ctx, time.Now().Add(time.Hour), 10)
	must(t, err)
	if len(left) != 1 || left[0].PublicID != "repairhub/booking_image/fresh" {
		t.Fatalf("remaining orphans = %+v", left)
	}
}

func TestBookingClaimsItsImages(t *testing.T) {
	f := newFixture(t)
	results, err := f.uploads.Upload(f.ctx, &f.customer.ID, models.UploadPurposeBookingImage, fileHeaders(t, namedFile{"front.jpg", "img"}))
	must(t, err)

	form := f.dropoffForm()
	form.Images = []string{results[0].URL}
	_, err = f.bookings.Create(f.ctx, f.customer.ID, form)
	must(t, err)

	left, err := f.uploadRepo.ListOrphans(f.ctx, time.Now().Add(time.Hour), 10)
	must(t, err)
	if len(left) != 0 {
		t.Fatalf("booking image still unclaimed: %+v", left)
	}
}

func TestPushTokens(t *testing.T) {
	f := newFixture(t)
	tokens := f.pushRepo
	push := services.NewPushService(tokens)

	if _, err := push.Register(f.ctx, f.customer.ID, "tok-1", "blackberry", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad platform: %v", err)
	}
	_, err := push.Register(f.ctx, f.customer.ID, "tok-1", "Android", "pixel")
	must(t, err)
	// the same device token moving to another account
	_, err = push.Register(f.ctx, f.agentUser.ID, "tok-1", "android", "pixel")
	must(t, err)

	mine, err := tokens.ActiveTokens(f.ctx, f.customer.ID)
	must(t, err)
	theirs, err := tokens.ActiveTokens(f.ctx, f.agentUser.ID)
	must(t, err)
	if len(mine) != 0 || len(theirs) != 1 {
		t.Fatalf("customer %v agent %v", mine, theirs)
	}

	must(t, push.Unregister(f.ctx, "tok-1"))
	theirs, err = tokens.ActiveTokens(f.ctx, f.agentUser.ID)
	must(t, err)
	if len(theirs) != 0 {
		t.Fatalf("token still active: %v", theirs)
	}
}

package memory

import (
	"time"

	"github.com/capilarmax/clinic-api/internal/model"
)

// SeedClinics returns the demo clinic roster.
func SeedClinics() []*model.Clinic {
	return []*model.Clinic{
		{ID: "c1", Name: "Capilar Max Miami", City: "Miami"},
		{ID: "c2", Name: "Capilar Max New York", City: "New York"},
		{ID: "c3", Name: "Capilar Max Boston", City: "Boston"},
	}
}

// SeedUsers returns one user per role plus a second single-clinic admin.
func SeedUsers() []*model.User {
	return []*model.User{
		{ID: "u1", Name: "Zeynep Williams", Role: model.RoleSuperAdmin, ClinicIDs: []string{}, IsAllClinics: true},
		{ID: "u2", Name: "Mark Can", Role: model.RoleAdmin, ClinicIDs: []string{"c1"}},
		{ID: "u3", Name: "Ashley Stone", Role: model.RoleManager, ClinicIDs: []string{"c1", "c2"}},
		{ID: "u4", Name: "Emily Miller", Role: model.RoleSpecialist, ClinicIDs: []string{"c1"}},
		{ID: "u5", Name: "Oliver Shaw", Role: model.RoleAdmin, ClinicIDs: []string{"c2"}},
	}
}

// SeedPatients returns the three demo patients with their albums and documents.
func SeedPatients() []*model.Patient {
	created := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	grafts := func(n int) *int { return &n }

	return []*model.Patient{
		{
			Base:        model.Base{ID: "1", CreatedAt: created, UpdatedAt: created},
			ClinicID:    "c1",
			FirstName:   "Adam",
			LastName:    "Yilmaz",
			Email:       "adam@example.com",
			Phone:       "0532 000 00 00",
			BirthDate:   "1985-05-20",
			Status:      model.PatientStatusScheduled,
			SurgeryDate: "2026-02-15",
			SurgeryTime: "09:00",
			GraftCount:  grafts(3500),
			Vitals:      []model.VitalSign{},
			Photos: []model.PhotoAlbum{
				{ID: "a1", Type: model.AlbumPreOp, Date: "2026-02-10", URLs: []string{
					"https://images.unsplash.com/photo-1590439471364-192aa70c0c53",
					"https://images.unsplash.com/photo-1506794778202-cad84cf45f1d",
				}},
				{ID: "a2", Type: model.AlbumIntraOp, Date: "2026-02-15", URLs: []string{
					"https://images.unsplash.com/photo-1576091160550-217359f42f8c",
				}},
				{ID: "a3", Type: model.AlbumPostOp, Date: "2026-02-15", URLs: []string{
					"https://images.unsplash.com/photo-1605918321755-97520e2e92c5",
				}},
			},
			Documents: []model.Document{
				{ID: "d1", Name: "Consent Form", Type: model.DocumentConsent, UploadDate: "2026-02-10", URL: "#", Signed: false},
			},
		},
		{
			Base:        model.Base{ID: "2", CreatedAt: created, UpdatedAt: created},
			ClinicID:    "c1",
			FirstName:   "Matthew",
			LastName:    "Kaya",
			Email:       "matthew@example.com",
			Phone:       "0533 111 22 33",
			BirthDate:   "1990-10-12",
			Status:      model.PatientStatusPostOp,
			SurgeryDate: "2026-01-20",
			GraftCount:  grafts(4200),
			HepatitisC:  true,
			Vitals:      []model.VitalSign{},
			Photos: []model.PhotoAlbum{
				{ID: "a4", Type: model.AlbumPreOp, Date: "2026-01-15", URLs: []string{
					"https://images.unsplash.com/photo-1544005313-94ddf0286df2",
				}},
				{ID: "a5", Type: model.AlbumPostOp, Date: "2026-01-20", URLs: []string{
					"https://images.unsplash.com/photo-1552374196-c4e7ffc6e1c2",
				}},
			},
			Documents: []model.Document{
				{ID: "d2", Name: "Operation Report", Type: model.DocumentLabResults, UploadDate: "2026-01-20", URL: "#", Signed: true},
			},
		},
		{
			Base:      model.Base{ID: "3", CreatedAt: created, UpdatedAt: created},
			ClinicID:  "c2",
			FirstName: "Alice",
			LastName:  "Demir",
			Email:     "alice@example.com",
			Phone:     "0535 999 88 77",
			BirthDate: "1988-03-15",
			Status:    model.PatientStatusPending,
			Vitals:    []model.VitalSign{},
			Photos:    []model.PhotoAlbum{},
			Documents: []model.Document{},
		},
	}
}

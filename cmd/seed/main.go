package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/booking"
	"github.com/hackgods/clinic-scheduling/internal/db"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

const (
	doctorCount      = 12
	seedDays         = 5
	appointmentCount = 300
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

// Seeds a working calendar and a batch of bookings through the service
// itself, so everything written obeys the same capacity and conflict rules as
// production traffic. Bookings rejected by the rules are simply skipped.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	appts := booking.NewPgAppointmentRepository(pool)
	scheds := booking.NewPgScheduleRepository(pool)
	// The advisory lock inside the pg adapter is enough for a single seeder.
	svc := booking.NewService(appts, scheds, redisclient.PassthroughLocker{})

	doctors := make([]uuid.UUID, doctorCount)
	for i := range doctors {
		doctors[i] = uuid.New()
	}

	seedCtx := context.Background()

	if err := seedSchedules(seedCtx, svc, doctors); err != nil {
		log.Fatalf("seed schedules: %v", err)
	}
	if err := seedAppointments(seedCtx, svc, doctors); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedSchedules(ctx context.Context, svc *booking.Service, doctors []uuid.UUID) error {
	log.Printf("seeding schedules for %d doctors over %d days", len(doctors), seedDays)

	created := 0
	for _, doctorID := range doctors {
		for day := 1; day <= seedDays; day++ {
			for _, slot := range daySlots(day) {
				// Roughly half of each doctor's grid is blocked out
				if gofakeit.Bool() {
					continue
				}
				_, err := svc.CreateSchedule(ctx, booking.CreateScheduleCommand{
					DoctorID: doctorID,
					Date:     slot.date,
					Time:     slot.time_,
				})
				if err != nil {
					var conflictErr *booking.ScheduleConflictError
					if errors.As(err, &conflictErr) {
						continue
					}
					return err
				}
				created++
			}
		}
	}

	log.Printf("schedules seeded: %d", created)
	return nil
}

func seedAppointments(ctx context.Context, svc *booking.Service, doctors []uuid.UUID) error {
	log.Printf("seeding up to %d appointments", appointmentCount)

	reasons := []string{
		"Annual physical",
		"Follow-up visit",
		"Flu symptoms",
		"Back pain",
		"Skin rash",
		"Blood pressure check",
		"Lab results review",
		"Vaccination",
	}

	created, skipped := 0, 0
	for i := 0; i < appointmentCount; i++ {
		day := gofakeit.Number(1, seedDays)
		slots := daySlots(day)
		slot := slots[gofakeit.Number(0, len(slots)-1)]
		doctorID := doctors[gofakeit.Number(0, len(doctors)-1)]
		doctorName := gofakeit.Name()
		contact := gofakeit.Phone()

		_, err := svc.CreateAppointment(ctx, booking.CreateAppointmentCommand{
			PatientID:      uuid.New(),
			PatientName:    gofakeit.Name(),
			ReasonForVisit: reasons[gofakeit.Number(0, len(reasons)-1)],
			Date:           slot.date,
			Time:           slot.time_,
			DoctorID:       &doctorID,
			DoctorName:     &doctorName,
			ContactNumber:  &contact,
		})
		if err != nil {
			var slotErr *booking.SlotUnavailableError
			var dupErr *booking.DuplicateAppointmentError
			if errors.As(err, &slotErr) || errors.As(err, &dupErr) {
				skipped++
				continue
			}
			return err
		}
		created++
	}

	log.Printf("appointments seeded: %d (skipped %d full slots)", created, skipped)
	return nil
}

type seedSlot struct {
	date  string
	time_ string
}

// daySlots enumerates the clinic's 30 minute grid for a day N days from now.
func daySlots(daysAhead int) []seedSlot {
	date := time.Now().AddDate(0, 0, daysAhead).Format("2006-01-02")
	var slots []seedSlot
	for h := 8; h < 17; h++ {
		for _, m := range []int{0, 30} {
			slots = append(slots, seedSlot{
				date:  date,
				time_: fmt.Sprintf("%02d:%02d", h, m),
			})
		}
	}
	return slots
}

package synthetic

import (
	"fmt"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"insiderwatch/pkg/models"
)

// Config controls dataset fabrication.
type Config struct {
	Users int
	Days  int
	Seed  int64
	Start time.Time
}

// Generator fabricates a deterministic activity dataset: steady office
// workers plus a scripted brute-force user, data hoarder, and night owl
// on the last three user ids. The same Config always produces the same
// events.
type Generator struct {
	cfg   Config
	faker *gofakeit.Faker
}

// NewGenerator creates a generator, applying defaults for unset fields.
func NewGenerator(cfg Config) *Generator {
	if cfg.Users <= 0 {
		cfg.Users = 50
	}
	if cfg.Days <= 0 {
		cfg.Days = 14
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	}
	return &Generator{cfg: cfg, faker: gofakeit.New(uint64(cfg.Seed))}
}

// Generate fabricates the full dataset in chronological order.
func (g *Generator) Generate() []*models.Event {
	nightOwl, brute, hoarder := -1, -1, -1
	if g.cfg.Users >= 3 {
		nightOwl = g.cfg.Users - 3
		brute = g.cfg.Users - 2
		hoarder = g.cfg.Users - 1
	}

	events := make([]*models.Event, 0, g.cfg.Users*g.cfg.Days*8)
	for i := 0; i < g.cfg.Users; i++ {
		id := fmt.Sprintf("user_%03d", i+1)
		loginHour := g.faker.Number(8, 10)

		for day := 0; day < g.cfg.Days; day++ {
			date := g.cfg.Start.AddDate(0, 0, day)
			if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}

			switch i {
			case nightOwl:
				events = append(events, g.nightOwlDay(id, date)...)
			case brute:
				events = append(events, g.bruteForceDay(id, date, loginHour)...)
			case hoarder:
				events = append(events, g.hoarderDay(id, date, loginHour)...)
			default:
				events = append(events, g.officeDay(id, date, loginHour)...)
			}
		}
	}

	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.Action < b.Action
	})
	return events
}

// officeDay is the steady baseline: morning login in a narrow per-user
// band, file and email activity inside working hours, evening logout.
func (g *Generator) officeDay(id string, date time.Time, loginHour int) []*models.Event {
	out := make([]*models.Event, 0, 12)
	out = append(out, g.event(id, date, loginHour, g.faker.Number(0, 59), models.ActionLogin, g.faker.IPv4Address()))

	for n := g.faker.Number(3, 8); n > 0; n-- {
		out = append(out, g.event(id, date, g.faker.Number(10, 15), g.faker.Number(0, 59), models.ActionFileAccess, g.fileResource()))
	}
	for n := g.faker.Number(1, 4); n > 0; n-- {
		out = append(out, g.event(id, date, g.faker.Number(10, 16), g.faker.Number(0, 59), models.ActionEmailSent, ""))
	}
	// the occasional legitimate sensitive read keeps that column from
	// being a perfect anomaly marker
	if g.faker.Number(0, 39) == 0 {
		out = append(out, g.event(id, date, g.faker.Number(11, 14), g.faker.Number(0, 59), models.ActionSensitiveDataAccess, g.sensitiveResource()))
	}

	out = append(out, g.event(id, date, g.faker.Number(16, 17), g.faker.Number(0, 59), models.ActionLogout, ""))
	return out
}

// bruteForceDay scripts repeated failed logins before a successful
// session on a subset of days.
func (g *Generator) bruteForceDay(id string, date time.Time, loginHour int) []*models.Event {
	out := make([]*models.Event, 0, 16)
	if date.Day()%2 == 0 {
		minute := g.faker.Number(0, 20)
		for n := g.faker.Number(4, 9); n > 0; n-- {
			out = append(out, g.event(id, date, loginHour, minute, models.ActionFailedLogin, g.faker.IPv4Address()))
			minute += g.faker.Number(1, 3)
		}
	}
	out = append(out, g.officeDay(id, date, loginHour)...)
	return out
}

// hoarderDay layers bulk sensitive reads and heavy file pulls over a
// normal office day.
func (g *Generator) hoarderDay(id string, date time.Time, loginHour int) []*models.Event {
	out := g.officeDay(id, date, loginHour)
	for n := g.faker.Number(4, 10); n > 0; n-- {
		out = append(out, g.event(id, date, g.faker.Number(10, 16), g.faker.Number(0, 59), models.ActionSensitiveDataAccess, g.sensitiveResource()))
	}
	for n := g.faker.Number(8, 16); n > 0; n-- {
		out = append(out, g.event(id, date, g.faker.Number(10, 16), g.faker.Number(0, 59), models.ActionFileAccess, g.fileResource()))
	}
	return out
}

// nightOwlDay scripts after-hours sessions with a wide login-hour
// spread.
func (g *Generator) nightOwlDay(id string, date time.Time) []*models.Event {
	out := make([]*models.Event, 0, 10)
	hour := (19 + g.faker.Number(0, 8)) % 24
	out = append(out, g.event(id, date, hour, g.faker.Number(0, 59), models.ActionLogin, g.faker.IPv4Address()))

	for n := g.faker.Number(2, 6); n > 0; n-- {
		out = append(out, g.event(id, date, (20+g.faker.Number(0, 6))%24, g.faker.Number(0, 59), models.ActionFileAccess, g.fileResource()))
	}
	out = append(out, g.event(id, date, (22+g.faker.Number(0, 5))%24, g.faker.Number(0, 59), models.ActionLogout, ""))
	return out
}

func (g *Generator) event(id string, date time.Time, hour, minute int, action models.Action, resource string) *models.Event {
	return &models.Event{
		UserID:    id,
		Timestamp: date.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute),
		Action:    action,
		Resource:  resource,
	}
}

func (g *Generator) fileResource() string {
	return "shared/" + g.faker.Word() + g.faker.RandomString([]string{".xlsx", ".docx", ".pdf", ".zip"})
}

func (g *Generator) sensitiveResource() string {
	return g.faker.RandomString([]string{
		"finance/payroll.db",
		"hr/salaries.xlsx",
		"customers/export.csv",
		"legal/contracts.zip",
	})
}

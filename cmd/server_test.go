package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/leave-management/internal"
	activityDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/activity"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	notificationDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/notification"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/metrics"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

// nextFullWeek returns the Monday and Friday of a working week at least two
// weeks ahead that does not straddle a year boundary.
func nextFullWeek(from time.Time) (time.Time, time.Time) {
	d := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 14)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	for d.AddDate(0, 0, 4).Year() != d.Year() {
		d = d.AddDate(0, 0, 7)
	}
	return d, d.AddDate(0, 0, 4)
}

var _ = Describe("HTTP server", func() {
	var (
		deps   *Dependencies
		server *httptest.Server

		managerID, teacherID int64
	)

	newConfig := func() *internal.Config {
		return &internal.Config{
			Env: "test",
			Security: internal.SecurityConfig{
				JWTAccessSecret:      "access-secret-for-tests",
				JWTRefreshSecret:     "refresh-secret-for-tests",
				AccessTokenDuration:  15 * time.Minute,
				RefreshTokenDuration: 24 * time.Hour,
				BCryptCost:           bcrypt.MinCost,
			},
			Leave: internal.LeaveConfig{DefaultAllowance: 20},
			Observability: internal.ObservabilityConfig{
				Metrics: internal.MetricsConfig{Enabled: true, Path: "/metrics"},
			},
		}
	}

	mkUser := func(db *gorm.DB, email, name, role string, manager *int64, days int) int64 {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		m := &userDatamodel.User{Email: email, Name: name, PasswordHash: string(hash), Role: role, ManagerID: manager, TotalLeaveDays: days, IsActive: true}
		Expect(db.Create(m).Error).To(Succeed())
		return m.ID
	}

	do := func(method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req, err := http.NewRequest(method, server.URL+path, &buf)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		var out map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return resp, out
	}

	login := func(email string) string {
		resp, body := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "password"})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		return body["access_token"].(string)
	}

	BeforeEach(func() {
		gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := gormDB.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(gormDB.AutoMigrate(
			&userDatamodel.User{},
			&leaveDatamodel.Leave{},
			&leaveDatamodel.History{},
			&notificationDatamodel.Notification{},
			&activityDatamodel.ActivityLog{},
		)).To(Succeed())

		adminID := mkUser(gormDB, "admin@school.test", "Admin", "admin", nil, 25)
		managerID = mkUser(gormDB, "head@school.test", "Head", "manager", &adminID, 25)
		teacherID = mkUser(gormDB, "anna@school.test", "Anna", "teacher", &managerID, 25)

		lg := logger.Discard()
		deps = &Dependencies{
			Config:   newConfig(),
			GormDB:   gormDB,
			DB:       sqlx.NewDb(sqlDB, "sqlite3"),
			Router:   chi.NewRouter(),
			EventBus: events.NewEventBus(lg),
			Metrics:  metrics.NewService(),
			Logger:   lg,
		}
		Expect(setupRoutes(deps)).To(Succeed())
		server = httptest.NewServer(deps.Router)
	})

	AfterEach(func() {
		server.Close()
		deps.Close()
	})

	It("answers liveness and readiness probes", func() {
		resp, body := do(http.MethodGet, "/api/v1/ping", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("status", "OK"))

		resp, body = do(http.MethodGet, "/api/v1/health", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("status", "healthy"))
	})

	It("rejects protected routes without a token", func() {
		resp, _ := do(http.MethodGet, "/api/v1/leaves", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("runs a vacation request from submission to approval", func() {
		// Given a teacher with 25 days reporting to the manager
		teacherToken := login("anna@school.test")
		managerToken := login("head@school.test")
		monday, friday := nextFullWeek(time.Now())
		year := monday.Year()

		// When the teacher requests Monday to Friday
		resp, body := do(http.MethodPost, "/api/v1/leaves", teacherToken, map[string]string{
			"category":   "vacation",
			"start_date": monday.Format(time.DateOnly),
			"end_date":   friday.Format(time.DateOnly),
		})

		// Then the request is pending for 5 days and already reserved
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		Expect(body).To(HaveKeyWithValue("status", "pending"))
		Expect(body).To(HaveKeyWithValue("days_requested", BeNumerically("==", 5)))
		leaveID := int64(body["id"].(float64))

		resp, body = do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/balance?year=%d", teacherID, year), teacherToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("remaining", BeNumerically("==", 20)))

		// Teachers cannot review
		resp, _ = do(http.MethodPatch, fmt.Sprintf("/api/v1/leaves/%d/approve", leaveID), teacherToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))

		// When the manager approves it
		resp, body = do(http.MethodPatch, fmt.Sprintf("/api/v1/leaves/%d/approve", leaveID), managerToken, map[string]string{"notes": "enjoy"})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("status", "approved"))
		Expect(body).To(HaveKeyWithValue("reviewer_id", BeNumerically("==", managerID)))

		deps.EventBus.Wait()

		// Then the history holds both transitions
		resp, body = do(http.MethodGet, fmt.Sprintf("/api/v1/leaves/%d/history", leaveID), teacherToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["history"]).To(HaveLen(2))

		// And the teacher was notified of the decision
		resp, body = do(http.MethodGet, "/api/v1/notifications", teacherToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("total", BeNumerically("==", 1)))
		Expect(body).To(HaveKeyWithValue("unread", BeNumerically("==", 1)))

		// And the manager was notified of the request
		resp, body = do(http.MethodGet, "/api/v1/notifications", managerToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("total", BeNumerically("==", 1)))

		// And both steps are in the activity log
		resp, body = do(http.MethodGet, "/api/v1/activity", managerToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("total", BeNumerically("==", 2)))

		// And the usage report counts the approved days
		resp, body = do(http.MethodGet, fmt.Sprintf("/api/v1/reports/usage?year=%d", year), managerToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("year", BeNumerically("==", year)))
	})

	It("exposes the transition counters", func() {
		teacherToken := login("anna@school.test")
		monday, friday := nextFullWeek(time.Now())
		resp, _ := do(http.MethodPost, "/api/v1/leaves", teacherToken, map[string]string{
			"category":   "vacation",
			"start_date": monday.Format(time.DateOnly),
			"end_date":   friday.Format(time.DateOnly),
		})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/metrics", nil)
		Expect(err).NotTo(HaveOccurred())
		mresp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer mresp.Body.Close()

		var buf bytes.Buffer
		_, err = buf.ReadFrom(mresp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring(`leave_transitions_total{action="submitted",category="vacation"} 1`))
	})
})

var _ = Describe("holidayCalendar", func() {
	It("adds configured dates to the table", func() {
		cal, err := holidayCalendar(internal.LeaveConfig{ExtraHolidays: []string{"2026-11-11"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(cal.IsHoliday(time.Date(2026, 11, 11, 0, 0, 0, 0, time.UTC))).To(BeTrue())
	})

	It("rejects malformed dates", func() {
		_, err := holidayCalendar(internal.LeaveConfig{ExtraHolidays: []string{"11/11/2026"}})
		Expect(err).To(HaveOccurred())
	})
})

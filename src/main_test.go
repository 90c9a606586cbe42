package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"tbs/src/db"
	"tbs/src/middlewares"
	"tbs/src/types"
	"tbs/src/utils"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB     *gorm.DB
	Mock   sqlmock.Sqlmock
	UserID uuid.UUID
	Token  string
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("ADMIN_API_KEY", "test-admin-key")
	os.Unsetenv("MAINTENANCE_MODE")

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("tripdistinct", tripDistinctValidatorFunc)
	}

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = mock

	s.UserID = uuid.New()
	token, err := utils.GenerateJWT("testuser", types.ROLE_USER, s.UserID)
	if err != nil {
		s.T().Fatalf("Error generating JWT token: %s\n", err.Error())
	}
	s.Token = token
}

func (s *TestSuite) userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password", "role"}).
		AddRow(s.UserID.String(), "testuser", "testuser@example.com", "x", "user")
}

func (s *TestSuite) authedRequest(method string, target string, body io.Reader) *http.Request {
	req, _ := http.NewRequest(method, target, body)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
	return req
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	guestAuthRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader("{}"))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestAuthRouteValidation() {
	router := setupRouter()
	guestAuthRoutes(router)

	s.Run("Should reject registration with missing fields", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"username": "someone"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.NotEmpty(s.T(), gjson.Get(string(rbytes), "error").String())
	})

	s.Run("Should reject login with missing password", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"username": "someone"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestBookingsRequireAuth() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.AuthMiddleware)
	bookingHandlers(apiv1)

	s.Run("Should reject a request without a token", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should reject a bare Bearer header", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings", nil)
		req.Header.Set("Authorization", "Bearer")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	mdb, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: mdb,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func authStub(role string, id uuid.UUID) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("id", id.String())
		ctx.Set("username", "testuser")
		ctx.Set("role", role)
	}
}

func (s *TestSuite) TestTrainAvailability() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(authStub("user", s.UserID))
	trainHandlers(apiv1)

	s.Run("Should reject a query with missing destination", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/trains/availability?source=A", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should return trains with free seats", func() {
		trainId := uuid.New()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "trains"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "train_name", "source", "destination", "total_seats", "available_seats"}).
				AddRow(trainId.String(), "Night Express", "A", "B", 5, 5))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/trains/availability?source=A&destination=B", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		sjson := string(rbytes)
		assert.Equal(s.T(), int64(1), gjson.Get(sjson, "count").Int())
		assert.Equal(s.T(), int64(5), gjson.Get(sjson, "data.0.availableSeats").Int())
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("Should return an empty list when the route is sold out", func() {
		s.Mock.ExpectQuery(`SELECT (.+) FROM "trains"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "train_name", "source", "destination", "total_seats", "available_seats"}))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/trains/availability?source=A&destination=B", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, _ := io.ReadAll(w.Body)
		assert.Equal(s.T(), int64(0), gjson.Get(string(rbytes), "count").Int())
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func (s *TestSuite) TestCreateTrain() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(authStub("admin", s.UserID))
	trainHandlers(apiv1)

	s.Run("Should reject the request without the admin API key", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"trainName": "Night Express", "source": "A", "destination": "B", "totalSeats": 5}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/trains", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("Should reject a train whose endpoints are equal", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"trainName": "Loop", "source": "A", "destination": "A", "totalSeats": 5}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/trains", strings.NewReader(string(sbody)))
		req.Header.Set("X-Admin-API-Key", "test-admin-key")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should create the train with all seats available", func() {
		trainId := uuid.New()
		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`INSERT INTO "trains"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(trainId.String()))
		s.Mock.ExpectCommit()

		w := httptest.NewRecorder()
		jbody := map[string]any{"trainName": "Night Express", "source": "A", "destination": "B", "totalSeats": 5}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/trains", strings.NewReader(string(sbody)))
		req.Header.Set("X-Admin-API-Key", "test-admin-key")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
		rbytes, _ := io.ReadAll(w.Body)
		assert.Equal(s.T(), trainId.String(), gjson.Get(string(rbytes), "trainId").String())
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("Should reject a non-admin user even with the API key", func() {
		other := setupRouter()
		apiv1 := apiv1Group(other)
		apiv1.Use(authStub("user", s.UserID))
		trainHandlers(apiv1)

		w := httptest.NewRecorder()
		jbody := map[string]any{"trainName": "Night Express", "source": "A", "destination": "B", "totalSeats": 5}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/trains", strings.NewReader(string(sbody)))
		req.Header.Set("X-Admin-API-Key", "test-admin-key")
		other.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})
}

func (s *TestSuite) TestListBookings() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(authStub("user", s.UserID))
	bookingHandlers(apiv1)

	bookingId := uuid.New()
	trainId := uuid.New()
	created := time.Now()

	s.Mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "train_id", "seat_number", "status", "created_at"}).
			AddRow(bookingId.String(), s.UserID.String(), trainId.String(), 1, "confirmed", created))
	s.Mock.ExpectQuery(`SELECT (.+) FROM "trains"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "train_name", "source", "destination", "total_seats", "available_seats"}).
			AddRow(trainId.String(), "Night Express", "A", "B", 5, 4))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, s.authedRequest("GET", "/api/v1/bookings", nil))

	assert.Equal(s.T(), 200, w.Code)
	rbytes, _ := io.ReadAll(w.Body)
	sjson := string(rbytes)
	assert.Equal(s.T(), int64(1), gjson.Get(sjson, "count").Int())
	assert.Equal(s.T(), bookingId.String(), gjson.Get(sjson, "data.0.id").String())
	assert.Equal(s.T(), "Night Express", gjson.Get(sjson, "data.0.train.trainName").String())
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestGetBooking() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(authStub("user", s.UserID))
	bookingHandlers(apiv1)

	s.Run("Should return 404 for a booking owned by another user", func() {
		s.Mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "train_id", "seat_number", "status", "created_at"}))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, s.authedRequest("GET", fmt.Sprintf("/api/v1/bookings/%s", uuid.NewString()), nil))

		assert.Equal(s.T(), 404, w.Code)
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("Should reject a malformed booking id", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, s.authedRequest("GET", "/api/v1/bookings/not-a-uuid", nil))

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should return 404 for the zero-valued booking id", func() {
		// uuid.Nil passes the uuid binding but must never reach the
		// store, where it would match the user's first booking.
		w := httptest.NewRecorder()
		router.ServeHTTP(w, s.authedRequest("GET", fmt.Sprintf("/api/v1/bookings/%s", uuid.Nil.String()), nil))

		assert.Equal(s.T(), 404, w.Code)
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}

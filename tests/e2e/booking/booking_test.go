//go:build e2e

package booking_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	reqdto "gearbook/internal/handler/dto/request"
	resdto "gearbook/internal/handler/dto/response"
	"gearbook/tests/common/httptest"
	"gearbook/tests/e2e"
	"gearbook/tests/e2e/common/helper"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	modelsURL   = "/api/equipment/models"
	bookingsURL = "/api/bookings"
)

type bookingSuite struct {
	e2e.SharedSuite
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(bookingSuite))
}

type testEnv struct {
	adminToken  string
	memberToken string
	memberID    uuid.UUID
	modelID     uuid.UUID
	start       time.Time
	end         time.Time
}

// seeds an admin, a member and a camera model with two units
func (s *bookingSuite) prepare() testEnv {
	t := s.T()

	_, adminToken := helper.CreateAndLogin(t, s.DB, s.Router, "admin.user", "admin")
	memberID, memberToken := helper.RegisterAndLogin(t, s.Router, "member.user")

	w := httptest.PerformRequest(t, s.Router, http.MethodPost, modelsURL,
		reqdto.ModelRequest{Name: "Canon EOS R5", Category: "camera"}, adminToken)
	var model resdto.ModelResponse
	httptest.AssertSuccessResponse(t, w, http.StatusCreated, &model)

	for range 2 {
		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			fmt.Sprintf("%s/%s/items", modelsURL, model.ID), nil, adminToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	start := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)
	return testEnv{
		adminToken:  adminToken,
		memberToken: memberToken,
		memberID:    memberID,
		modelID:     model.ID,
		start:       start,
		end:         start.Add(24 * time.Hour),
	}
}

func (s *bookingSuite) createBooking(env testEnv, quantity int) resdto.CreatedBookingResponse {
	t := s.T()

	w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqdto.CreateBookingRequest{
		Reason:    "studio shoot",
		StartTime: env.start,
		EndTime:   env.end,
		Equipment: []reqdto.BookingLineRequest{{ModelName: "Canon EOS R5", Quantity: quantity}},
	}, env.memberToken)

	var created resdto.CreatedBookingResponse
	httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
	return created
}

func (s *bookingSuite) getBooking(id uuid.UUID, token string) resdto.BookingResponse {
	t := s.T()

	w := httptest.PerformRequest(t, s.Router, http.MethodGet,
		fmt.Sprintf("%s/%s", bookingsURL, id), nil, token)
	var booking resdto.BookingResponse
	httptest.AssertSuccessResponse(t, w, http.StatusOK, &booking)
	return booking
}

func (s *bookingSuite) TestBookingFlow() {
	s.Run("full lifecycle: create, approve, complete", func() {
		t := s.T()
		env := s.prepare()

		created := s.createBooking(env, 2)
		booking := s.getBooking(created.ID, env.memberToken)
		require.Len(t, booking.Items, 2)

		expected := resdto.BookingResponse{
			ID:       created.ID,
			UserID:   env.memberID,
			UserName: "Test member.user",
			Reason:   "studio shoot",
			Status:   "pending",
		}
		opts := []cmp.Option{
			cmpopts.IgnoreFields(resdto.BookingResponse{}, "StartTime", "EndTime", "Items", "Warnings", "CreatedAt"),
		}
		if diff := cmp.Diff(expected, booking, opts...); diff != "" {
			t.Errorf("Booking response mismatch (-want +got):\n%s", diff)
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			fmt.Sprintf("%s/%s/approve", bookingsURL, created.ID),
			map[string]any{"comment": "pick up after 18:00"}, env.adminToken)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		booking = s.getBooking(created.ID, env.memberToken)
		require.Equal(t, "approved", booking.Status)
		require.NotNil(t, booking.AdminComment)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost,
			fmt.Sprintf("%s/%s/complete", bookingsURL, created.ID), nil, env.adminToken)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		booking = s.getBooking(created.ID, env.adminToken)
		require.Equal(t, "completed", booking.Status)
	})

	s.Run("overlapping booking is rejected while units are claimed", func() {
		t := s.T()
		env := s.prepare()

		s.createBooking(env, 2)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqdto.CreateBookingRequest{
			Reason:    "backup unit",
			StartTime: env.start.Add(12 * time.Hour),
			EndTime:   env.end.Add(12 * time.Hour),
			Equipment: []reqdto.BookingLineRequest{{ModelName: "Canon EOS R5", Quantity: 1}},
		}, env.memberToken)
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

		// an adjacent window reuses the same units
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqdto.CreateBookingRequest{
			Reason:    "next day shoot",
			StartTime: env.end,
			EndTime:   env.end.Add(24 * time.Hour),
			Equipment: []reqdto.BookingLineRequest{{ModelName: "Canon EOS R5", Quantity: 2}},
		}, env.memberToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	s.Run("concurrent requests race for the last units", func() {
		t := s.T()
		env := s.prepare()

		body := reqdto.CreateBookingRequest{
			Reason:    "location scout",
			StartTime: env.start,
			EndTime:   env.end,
			Equipment: []reqdto.BookingLineRequest{{ModelName: "Canon EOS R5", Quantity: 2}},
		}

		// Both requests want every unit of the model for the same window;
		// the per-model allocation lock must let exactly one through.
		codes := make(chan int, 2)
		var wg sync.WaitGroup
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, env.memberToken)
				codes <- w.Code
			}()
		}
		wg.Wait()
		close(codes)

		got := make([]int, 0, 2)
		for code := range codes {
			got = append(got, code)
		}
		require.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, got)
	})

	s.Run("cancelling frees the units", func() {
		t := s.T()
		env := s.prepare()

		created := s.createBooking(env, 2)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			fmt.Sprintf("%s/%s/cancel", bookingsURL, created.ID), nil, env.memberToken)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		booking := s.getBooking(created.ID, env.memberToken)
		require.Equal(t, "cancelled", booking.Status)

		// repeated cancel is a conflict
		w = httptest.PerformRequest(t, s.Router, http.MethodPost,
			fmt.Sprintf("%s/%s/cancel", bookingsURL, created.ID), nil, env.memberToken)
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

		// the window is bookable again
		s.createBooking(env, 2)
	})

	s.Run("rejection records the reason", func() {
		t := s.T()
		env := s.prepare()

		created := s.createBooking(env, 1)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			fmt.Sprintf("%s/%s/reject", bookingsURL, created.ID),
			map[string]any{"reason": "overlaps maintenance"}, env.adminToken)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		booking := s.getBooking(created.ID, env.memberToken)
		require.Equal(t, "cancelled", booking.Status)
		require.NotNil(t, booking.AdminComment)
		require.Equal(t, "overlaps maintenance", *booking.AdminComment)

		// members cannot reject
		other := s.createBooking(env, 1)
		w = httptest.PerformRequest(t, s.Router, http.MethodPost,
			fmt.Sprintf("%s/%s/reject", bookingsURL, other.ID),
			map[string]any{"reason": "nope"}, env.memberToken)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})

	s.Run("availability endpoint reflects claimed units", func() {
		t := s.T()
		env := s.prepare()

		availabilityURL := fmt.Sprintf("%s/%s/availability?start=%s&end=%s",
			modelsURL, env.modelID,
			env.start.Format(time.RFC3339), env.end.Format(time.RFC3339))

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, availabilityURL, nil, env.memberToken)
		var availability resdto.AvailabilityResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &availability)
		require.Equal(t, int64(2), availability.Available)

		s.createBooking(env, 1)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, availabilityURL, nil, env.memberToken)
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &availability)
		require.Equal(t, int64(1), availability.Available)
	})

	s.Run("restricted gear is hidden from low tiers", func() {
		t := s.T()
		env := s.prepare()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, modelsURL,
			reqdto.ModelRequest{Name: "Sennheiser MKH 416", Category: "sound", OsnovaOnly: true}, env.adminToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqdto.CreateBookingRequest{
			Reason:    "field recording",
			StartTime: env.start,
			EndTime:   env.end,
			Equipment: []reqdto.BookingLineRequest{{ModelName: "Sennheiser MKH 416", Quantity: 1}},
		}, env.memberToken)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})

	s.Run("catalog filters narrow the listing", func() {
		t := s.T()
		env := s.prepare()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, modelsURL,
			reqdto.ModelRequest{Name: "Aputure 600d", Category: "light"}, env.adminToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		listModels := func(query string) []resdto.ModelResponse {
			w := httptest.PerformRequest(t, s.Router, http.MethodGet, modelsURL+query, nil, env.memberToken)
			var models []resdto.ModelResponse
			httptest.AssertSuccessResponse(t, w, http.StatusOK, &models)
			return models
		}

		models := listModels("?category=light")
		require.Len(t, models, 1)
		require.Equal(t, "Aputure 600d", models[0].Name)

		models = listModels("?q=eos")
		require.Len(t, models, 1)
		require.Equal(t, "Canon EOS R5", models[0].Name)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, modelsURL+"?category=drone", nil, env.memberToken)
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})

	s.Run("admin overview filters by inventory number", func() {
		t := s.T()
		env := s.prepare()

		created := s.createBooking(env, 1)
		booking := s.getBooking(created.ID, env.memberToken)
		require.Len(t, booking.Items, 1)

		url := fmt.Sprintf("%s/all?inventory_number=%s", bookingsURL, booking.Items[0].InventoryNumber)
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, env.adminToken)
		var listed []resdto.BookingListResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &listed)
		require.Len(t, listed, 1)
		require.Equal(t, created.ID, listed[0].ID)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet,
			bookingsURL+"/all?inventory_number=9-999-99", nil, env.adminToken)
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &listed)
		require.Empty(t, listed)
	})

	s.Run("member cannot see a stranger's booking", func() {
		t := s.T()
		env := s.prepare()

		created := s.createBooking(env, 1)

		_, strangerToken := helper.RegisterAndLogin(t, s.Router, "stranger.user")
		w := httptest.PerformRequest(t, s.Router, http.MethodGet,
			fmt.Sprintf("%s/%s", bookingsURL, created.ID), nil, strangerToken)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})
}

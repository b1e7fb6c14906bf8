//go:build unit

package api_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"gearbook/internal/domain/booking"
	"gearbook/internal/domain/user"
	"gearbook/internal/handler/api"
	reqdto "gearbook/internal/handler/dto/request"
	resdto "gearbook/internal/handler/dto/response"
	"gearbook/internal/usecase/commands"
	"gearbook/internal/usecase/queries"
	"gearbook/tests/common/builder"
	"gearbook/tests/common/httptest"
	"gearbook/tests/common/testutil"
	commandsmock "gearbook/tests/mock/commands"
	queriesmock "gearbook/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.BookingHandler
	actorID      uuid.UUID
	actorRole    string
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockQueries)
	s.actorID = uuid.New()
	s.actorRole = "user"

	// Mock middleware behavior: inject identity when a token is present
	authStub := func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			c.Set("user_id", s.actorID)
			c.Set("user_role", user.Role(s.actorRole))
		}
		c.Next()
	}

	group := s.router.Group("/bookings", authStub)
	group.POST("", s.handler.CreateBooking)
	group.GET("", s.handler.ListMyBookings)
	group.GET("/all", s.handler.ListAllBookings)
	group.GET("/:id", s.handler.GetBooking)
	group.POST("/:id/approve", s.handler.ApproveBooking)
	group.POST("/:id/reject", s.handler.RejectBooking)
	group.POST("/:id/cancel", s.handler.CancelBooking)
	group.POST("/:id/complete", s.handler.CompleteBooking)
	group.PATCH("/items/:id/returned", s.handler.SetItemReturned)
	s.router.GET("/users/:id/bookings", authStub, s.handler.ListUserBookings)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

func (s *BookingHandlerTestSuite) createRequest() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		Reason:    "studio shoot",
		StartTime: time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 6, 6, 12, 0, 0, 0, time.UTC),
		Equipment: []reqdto.BookingLineRequest{
			{ModelName: "Canon EOS R5", Quantity: 2},
		},
	}
}

func (s *BookingHandlerTestSuite) TestCreateBooking() {
	url := "/bookings"
	reqBody := s.createRequest()

	s.Run("success: returns 201 Created with booking id", func() {
		bookingID := uuid.New()
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), s.actorID, reqBody.ToParams()).
			Return(bookingID, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var response resdto.CreatedBookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &response)
		s.Equal(bookingID, response.ID)
	})

	s.Run("error: 500 when identity missing in context", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal server error")
	})

	s.Run("error: 400 Bad Request on malformed body", func() {
		testCases := []struct {
			name   string
			mutate func(map[string]any)
		}{
			{name: "missing field: reason (required)", mutate: testutil.Field("reason", nil)},
			{name: "missing field: start_time (required)", mutate: testutil.Field("start_time", nil)},
			{name: "missing field: end_time (required)", mutate: testutil.Field("end_time", nil)},
			{name: "start_time is not a timestamp", mutate: testutil.Field("start_time", "tomorrow")},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
			})
		}
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "requester not found",
				commandsError:  commands.ErrUserNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "User not found",
			},
			{
				name:           "inverted window",
				commandsError:  commands.ErrInvalidRange,
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "Start time must be before end time",
			},
			{
				name:           "empty equipment list",
				commandsError:  commands.ErrEmptyEquipmentList,
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "At least one equipment model is required",
			},
			{
				name:           "zero quantity",
				commandsError:  commands.ErrInvalidQuantity,
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "Quantity must be greater than zero",
			},
			{
				name:           "blank reason",
				commandsError:  booking.ErrEmptyReason,
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "Booking reason is required",
			},
			{
				name:           "unknown model",
				commandsError:  commands.ErrModelNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Equipment model not found",
			},
			{
				name:           "access tier too low",
				commandsError:  commands.ErrAccessDenied,
				expectedStatus: http.StatusForbidden,
				expectedMsg:    "Access tier too low",
			},
			{
				name:           "insufficient availability",
				commandsError:  commands.ErrInsufficientAvailability,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "Not enough available equipment",
			},
			{
				name:           "internal server error",
				commandsError:  errors.New("database error"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal server error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreateBooking(gomock.Any(), s.actorID, gomock.Any()).
					Return(uuid.Nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

func (s *BookingHandlerTestSuite) TestGetBooking() {
	view := builder.NewBookingBuilder().WithUserID(s.actorID).BuildView()
	url := "/bookings/" + view.ID.String()

	s.Run("success: returns booking with items", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), gomock.Any(), view.ID).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(view.ID, response.ID)
		s.Equal(view.Status, response.Status)
	})

	s.Run("error: 400 on malformed booking id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/not-a-uuid", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid booking ID format")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			queriesError   error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "booking not found",
				queriesError:   queries.ErrBookingNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Booking not found",
			},
			{
				name:           "foreign booking",
				queriesError:   queries.ErrAccessDenied,
				expectedStatus: http.StatusForbidden,
				expectedMsg:    "Insufficient permissions",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockQueries.EXPECT().GetByID(gomock.Any(), gomock.Any(), view.ID).
					Return(nil, tc.queriesError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

func (s *BookingHandlerTestSuite) TestListMyBookings() {
	url := "/bookings"

	s.Run("success: returns own bookings", func() {
		items := []*queries.BookingListItem{
			builder.NewBookingBuilder().WithUserID(s.actorID).BuildListItem(),
			builder.NewBookingBuilder().WithUserID(s.actorID).WithStatus("approved").BuildListItem(),
		}
		s.mockQueries.EXPECT().ListMine(gomock.Any(), gomock.Any()).
			Return(items, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response []*resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Len(response, 2)
		s.Equal(items[0].ID, response[0].ID)
	})

	s.Run("success: empty list stays a JSON array", func() {
		s.mockQueries.EXPECT().ListMine(gomock.Any(), gomock.Any()).
			Return([]*queries.BookingListItem{}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response []*resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Empty(response)
	})
}

func (s *BookingHandlerTestSuite) TestListAllBookings() {
	url := "/bookings/all"

	s.Run("success: forwards status filter", func() {
		s.actorRole = "admin"
		item := builder.NewBookingBuilder().WithStatus("pending").BuildListItem()
		s.mockQueries.EXPECT().ListAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, _ any, filter queries.BookingFilter) ([]*queries.BookingListItem, error) {
				s.Require().NotNil(filter.Status)
				s.Equal("pending", *filter.Status)
				s.Nil(filter.InventoryNumber)
				return []*queries.BookingListItem{item}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?status=pending", nil, "bearer-token")

		var response []*resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Len(response, 1)
	})

	s.Run("success: forwards inventory number filter", func() {
		s.actorRole = "admin"
		item := builder.NewBookingBuilder().BuildListItem()
		s.mockQueries.EXPECT().ListAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, _ any, filter queries.BookingFilter) ([]*queries.BookingListItem, error) {
				s.Require().NotNil(filter.InventoryNumber)
				s.Equal("0-001-01", *filter.InventoryNumber)
				return []*queries.BookingListItem{item}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?inventory_number=0-001-01", nil, "bearer-token")

		var response []*resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Len(response, 1)
	})

	s.Run("error: 400 on unknown status", func() {
		s.mockQueries.EXPECT().ListAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, queries.ErrInvalidStatus).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?status=bogus", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Unknown booking status")
	})

	s.Run("error: 403 for non-admin", func() {
		s.mockQueries.EXPECT().ListAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, queries.ErrAccessDenied).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Insufficient permissions")
	})
}

func (s *BookingHandlerTestSuite) TestListUserBookings() {
	targetID := uuid.New()
	url := fmt.Sprintf("/users/%s/bookings", targetID)

	s.Run("success: returns bookings of the target user", func() {
		items := []*queries.BookingListItem{builder.NewBookingBuilder().WithUserID(targetID).BuildListItem()}
		s.mockQueries.EXPECT().ListByUser(gomock.Any(), gomock.Any(), targetID).
			Return(items, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response []*resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Len(response, 1)
	})

	s.Run("error: 400 on malformed user id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/users/not-a-uuid/bookings", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid user ID format")
	})

	s.Run("error: 403 when member asks for someone else", func() {
		s.mockQueries.EXPECT().ListByUser(gomock.Any(), gomock.Any(), targetID).
			Return(nil, queries.ErrAccessDenied).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Insufficient permissions")
	})
}

func (s *BookingHandlerTestSuite) TestLifecycleEndpoints() {
	bookingID := uuid.New()

	s.Run("approve: 204 with optional comment", func() {
		comment := "have it ready by 10am"
		s.mockCommands.EXPECT().Approve(gomock.Any(), gomock.Any(), bookingID, gomock.Any()).
			DoAndReturn(func(_ any, _ any, _ uuid.UUID, c *string) error {
				s.Require().NotNil(c)
				s.Equal(comment, *c)
				return nil
			}).Times(1)

		url := fmt.Sprintf("/bookings/%s/approve", bookingID)
		body := map[string]any{"comment": comment}
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("approve: 204 without a body", func() {
		s.mockCommands.EXPECT().Approve(gomock.Any(), gomock.Any(), bookingID, nil).
			Return(nil).Times(1)

		url := fmt.Sprintf("/bookings/%s/approve", bookingID)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("reject: 204 and forwards the reason", func() {
		s.mockCommands.EXPECT().Reject(gomock.Any(), gomock.Any(), bookingID, "overlaps maintenance").
			Return(nil).Times(1)

		url := fmt.Sprintf("/bookings/%s/reject", bookingID)
		body := map[string]any{"reason": "overlaps maintenance"}
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("reject: 400 when reason is missing", func() {
		url := fmt.Sprintf("/bookings/%s/reject", bookingID)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{}, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
	})

	s.Run("cancel: 204", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), gomock.Any(), bookingID, nil).
			Return(nil).Times(1)

		url := fmt.Sprintf("/bookings/%s/cancel", bookingID)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("complete: 204", func() {
		s.mockCommands.EXPECT().Complete(gomock.Any(), gomock.Any(), bookingID).
			Return(nil).Times(1)

		url := fmt.Sprintf("/bookings/%s/complete", bookingID)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: 400 on malformed booking id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings/not-a-uuid/cancel", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid booking ID format")
	})

	s.Run("error: maps lifecycle errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "booking not found",
				commandsError:  commands.ErrBookingNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Booking not found",
			},
			{
				name:           "not the owner",
				commandsError:  commands.ErrForbidden,
				expectedStatus: http.StatusForbidden,
				expectedMsg:    "Insufficient permissions",
			},
			{
				name:           "double cancel",
				commandsError:  booking.ErrAlreadyCancelled,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "already cancelled",
			},
			{
				name:           "wrong state",
				commandsError:  booking.ErrInvalidStateTransition,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "Invalid booking state transition",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Cancel(gomock.Any(), gomock.Any(), bookingID, nil).
					Return(tc.commandsError).Times(1)

				url := fmt.Sprintf("/bookings/%s/cancel", bookingID)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

func (s *BookingHandlerTestSuite) TestSetItemReturned() {
	itemID := uuid.New()
	url := fmt.Sprintf("/bookings/items/%s/returned", itemID)

	s.Run("success: 204 and forwards the flag", func() {
		s.mockCommands.EXPECT().SetItemReturned(gomock.Any(), gomock.Any(), itemID, true).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"returned": true}, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("success: false flag clears the mark", func() {
		s.mockCommands.EXPECT().SetItemReturned(gomock.Any(), gomock.Any(), itemID, false).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"returned": false}, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: 400 when flag is missing", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{}, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
	})

	s.Run("error: 404 on unknown booking item", func() {
		s.mockCommands.EXPECT().SetItemReturned(gomock.Any(), gomock.Any(), itemID, true).
			Return(commands.ErrBookingItemNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"returned": true}, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking item not found")
	})
}
